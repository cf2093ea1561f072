package model

import (
	"time"
)

// ============================================================================
// 余额变动类型
// ============================================================================

const (
	BalanceEntryTypeOpening = "OPENING" // 开户时的初始余额
	BalanceEntryTypeAdjust  = "ADJUST"  // 修改顾客信息时的余额调整
)

// BalanceEntry 顾客余额流水表
// 只追加，不修改，不删除；顾客删除后流水保留，便于对账
type BalanceEntry struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	CustomerID    int64     `gorm:"index;not null" json:"customer_id"`                           // 顾客ID
	Amount        float64   `gorm:"not null" json:"amount"`                                      // 变动金额（可正可负）
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`                       // 变动类型
	BalanceBefore float64   `gorm:"not null" json:"balance_before"`                              // 变动前余额
	BalanceAfter  float64   `gorm:"not null" json:"balance_after"`                               // 变动后余额
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`                             // 备注
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (BalanceEntry) TableName() string {
	return "customer_balance_entry"
}
