package repository

import (
	"context"
	"errors"

	"tavern/internal/model"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("顾客不存在")
)

// CustomerUpdate 整体覆盖的字段
type CustomerUpdate struct {
	Name        string
	PhoneNumber string
	Balance     float64
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

// ListAll 返回全部顾客，不分页，不保证顺序
func (r *CustomerRepository) ListAll(ctx context.Context) ([]*model.Customer, error) {
	customers := make([]*model.Customer, 0)
	err := r.db.WithContext(ctx).Find(&customers).Error
	return customers, err
}

func (r *CustomerRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByPhoneNumber 仅用于创建前的唯一性检查，查不到返回 nil, nil
func (r *CustomerRepository) FindByPhoneNumber(ctx context.Context, tx *gorm.DB, phone string) (*model.Customer, error) {
	var customer model.Customer
	err := r.conn(tx).WithContext(ctx).Where("phone_number = ?", phone).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// FindByName 用于顾客登录
// 重名时返回主键最小的一条，这是已知限制
func (r *CustomerRepository) FindByName(ctx context.Context, name string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Create(ctx context.Context, tx *gorm.DB, customer *model.Customer) error {
	return r.conn(tx).WithContext(ctx).Create(customer).Error
}

// Update 覆盖 name / phone_number / balance，id 与 password 不可改
func (r *CustomerRepository) Update(ctx context.Context, tx *gorm.DB, id int64, fields *CustomerUpdate) (*model.Customer, error) {
	customer, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         fields.Name,
		"phone_number": fields.PhoneNumber,
		"balance":      fields.Balance,
	}

	// RowsAffected 在值未变化时可能为 0（MySQL），所以存在性以上面的查询为准
	err = r.conn(tx).WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}

	customer.Name = fields.Name
	customer.PhoneNumber = fields.PhoneNumber
	customer.Balance = fields.Balance
	return customer, nil
}

// Delete 物理删除
func (r *CustomerRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	result := r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Customer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
