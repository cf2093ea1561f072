package model

import (
	"time"
)

// 发件箱状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// 顾客事件，写入 OutboxMessage.Event 与 Kafka 消息头
const (
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
	EventCustomerDeleted = "customer.deleted"
)

// OutboxMessage 顾客事件发件箱
// 与顾客写操作在同一事务落库，由 OutboxSender 异步投递，MessageKey 为顾客ID
type OutboxMessage struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey  string     `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic       string     `gorm:"type:varchar(64);not null" json:"topic"`
	Event       string     `gorm:"type:varchar(32);not null" json:"event"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Status      string     `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount  int        `gorm:"not null;default:0" json:"retry_count"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (OutboxMessage) TableName() string {
	return "customer_event_outbox"
}
