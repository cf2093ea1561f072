package repository

import (
	"context"
	"errors"

	"tavern/internal/model"

	"gorm.io/gorm"
)

type BalanceEntryRepository struct {
	db *gorm.DB
}

func NewBalanceEntryRepository(db *gorm.DB) *BalanceEntryRepository {
	return &BalanceEntryRepository{db: db}
}

func (r *BalanceEntryRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.BalanceEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// GetByTransactionNo 不存在时返回 nil, nil
func (r *BalanceEntryRepository) GetByTransactionNo(ctx context.Context, transactionNo string) (*model.BalanceEntry, error) {
	var entry model.BalanceEntry
	err := r.db.WithContext(ctx).Where("transaction_no = ?", transactionNo).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListByCustomerID 按时间顺序返回某个顾客的全部流水
func (r *BalanceEntryRepository) ListByCustomerID(ctx context.Context, customerID int64) ([]*model.BalanceEntry, error) {
	entries := make([]*model.BalanceEntry, 0)
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
