package job

import (
	"context"
	"time"

	"tavern/internal/config"
	"tavern/internal/infrastructure/mq"
	"tavern/internal/model"
	"tavern/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OutboxSender 定时扫描发件箱，把顾客事件投递到 Kafka
// 投递成功置 SENT；失败累计重试次数，超过上限置 FAILED
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publish    func(*mq.Event) (int32, int64, error)
	maxRetry   int
	interval   time.Duration
	batchSize  int
	stopCh     chan struct{}
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config) *OutboxSender {
	s := &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publish:    mq.Publish,
		maxRetry:   cfg.Business.MaxRetryCount,
		interval:   time.Duration(cfg.Business.OutboxIntervalMs) * time.Millisecond,
		batchSize:  cfg.Business.OutboxBatchSize,
		stopCh:     make(chan struct{}),
	}
	if s.interval <= 0 {
		s.interval = 100 * time.Millisecond
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.maxRetry <= 0 {
		s.maxRetry = 1
	}
	return s
}

// Start 阻塞运行，ctx 取消或调用 Stop 后返回
func (s *OutboxSender) Start(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("[OutboxSender] 启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("[OutboxSender] 上下文取消，退出")
			return
		case <-s.stopCh:
			log.Info().Msg("[OutboxSender] 已停止")
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// flush 投递一批待发送事件，返回成功条数
func (s *OutboxSender) flush(ctx context.Context) int {
	messages, err := s.outboxRepo.FetchPending(ctx, s.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("[OutboxSender] 查询待投递事件失败")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.deliver(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) deliver(ctx context.Context, msg *model.OutboxMessage) bool {
	partition, offset, err := s.publish(&mq.Event{
		Topic: msg.Topic,
		Key:   msg.MessageKey,
		Name:  msg.Event,
		Body:  msg.Payload,
	})
	if err == nil {
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			// 状态没更新下一轮会重复投递，消费方按 customer_id + event 幂等处理
			log.Error().Err(err).Int64("id", msg.ID).Msg("[OutboxSender] 标记已投递失败")
			return false
		}
		log.Debug().Int64("id", msg.ID).Str("event", msg.Event).
			Int32("partition", partition).Int64("offset", offset).
			Msg("[OutboxSender] 投递成功")
		return true
	}

	exhausted, updateErr := s.outboxRepo.RecordFailure(ctx, msg, s.maxRetry)
	if updateErr != nil {
		log.Error().Err(updateErr).Int64("id", msg.ID).Msg("[OutboxSender] 记录失败次数失败")
		return false
	}
	if exhausted {
		log.Error().Err(err).Int64("id", msg.ID).Int("retry", msg.RetryCount+1).Msg("[OutboxSender] 超过最大重试次数，放弃投递")
	} else {
		log.Warn().Err(err).Int64("id", msg.ID).Int("retry", msg.RetryCount+1).Msg("[OutboxSender] 投递失败，等待重试")
	}
	return false
}
