package repository

import (
	"context"
	"time"

	"tavern/internal/model"

	"gorm.io/gorm"
)

// OutboxRepository 顾客事件发件箱
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create 必须传入业务事务，保证事件与顾客数据一起提交
func (r *OutboxRepository) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// FetchPending 按写入顺序取一批待投递事件
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	messages := make([]*model.OutboxMessage, 0, limit)
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkSent 标记已投递并记录投递时间
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ? AND status = ?", id, model.OutboxStatusPending).
		Updates(map[string]interface{}{
			"status":       model.OutboxStatusSent,
			"published_at": &now,
		}).Error
}

// RecordFailure 投递失败：重试次数加一，达到上限后置为 FAILED 不再投递
// 返回值表示这次是否被置为 FAILED
func (r *OutboxRepository) RecordFailure(ctx context.Context, msg *model.OutboxMessage, maxRetry int) (bool, error) {
	retries := msg.RetryCount + 1
	updates := map[string]interface{}{
		"retry_count": retries,
	}
	exhausted := retries >= maxRetry
	if exhausted {
		updates["status"] = model.OutboxStatusFailed
	}

	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ?", msg.ID).
		Updates(updates).Error
	if err != nil {
		return false, err
	}
	return exhausted, nil
}

// CountByStatus 按状态统计事件数
func (r *OutboxRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
