package model

// Customer 顾客表
// 手机号唯一性只在应用层创建前检查，表上不建唯一约束
type Customer struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(255);index" json:"name"`        // 允许重名
	Balance     float64 `gorm:"not null;default:0" json:"balance"`          // 欠款/余额
	PhoneNumber string  `gorm:"type:varchar(64);index" json:"phone_number"` // 业务上唯一
	Password    string  `gorm:"type:varchar(64)" json:"password"`           // 明文，创建时由系统生成
}

func (Customer) TableName() string {
	return "customers"
}
