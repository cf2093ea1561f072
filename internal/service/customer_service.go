package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tavern/internal/config"
	"tavern/internal/infrastructure/lock"
	"tavern/internal/model"
	"tavern/internal/repository"
	"tavern/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPhoneNumberExists    = errors.New("手机号已存在")
	ErrBalanceEntryNotFound = errors.New("余额流水不存在")
)

type CustomerService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	customerRepo *repository.CustomerRepository
	entryRepo    *repository.BalanceEntryRepository
	outboxRepo   *repository.OutboxRepository
}

// NewCustomerService redisClient 为 nil 时创建顾客不加分布式锁
func NewCustomerService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CustomerService {
	return &CustomerService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		customerRepo: repository.NewCustomerRepository(db),
		entryRepo:    repository.NewBalanceEntryRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

type CreateCustomerRequest struct {
	Name        string
	PhoneNumber string
	Balance     float64
}

// CreateCustomerResponse 创建结果，密码只在这里返回一次
type CreateCustomerResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type UpdateCustomerRequest struct {
	Name        string
	PhoneNumber string
	Balance     float64
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]*model.Customer, error) {
	return s.customerRepo.ListAll(ctx)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.customerRepo.GetByID(ctx, nil, id)
}

// CreateCustomer 创建顾客
//
// 手机号唯一性是"先查后插"，数据库上没有唯一约束。
// 启用 Redis 时查重和插入在手机号锁内执行；未启用时并发创建同一手机号仍可能重复。
func (s *CustomerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CreateCustomerResponse, error) {
	log.Info().
		Str("name", req.Name).
		Str("phone_number", req.PhoneNumber).
		Float64("balance", req.Balance).
		Msg("收到创建顾客请求")

	if s.redisClient != nil {
		phoneLock := lock.NewPhoneMutex(s.redisClient, req.PhoneNumber, idgen.GenerateRequestNo(), s.lockExpiration())
		if err := phoneLock.Acquire(ctx, lockBackoff, s.lockAttempts()); err != nil {
			return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
		}
		defer func() {
			released, err := phoneLock.Release(ctx)
			if err != nil {
				log.Warn().Err(err).Str("key", phoneLock.Key()).Msg("释放手机号锁失败")
			} else if !released {
				log.Warn().Str("key", phoneLock.Key()).Msg("手机号锁已过期")
			}
		}()
	}

	existing, err := s.customerRepo.FindByPhoneNumber(ctx, nil, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("查询手机号失败: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneNumberExists
	}

	password, err := idgen.GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("生成密码失败: %w", err)
	}

	customer := &model.Customer{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Balance:     req.Balance,
		Password:    password,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.customerRepo.Create(ctx, tx, customer); err != nil {
			return fmt.Errorf("创建顾客失败: %w", err)
		}

		entry := &model.BalanceEntry{
			TransactionNo: idgen.GenerateTransactionNo(),
			CustomerID:    customer.ID,
			Amount:        customer.Balance,
			Type:          model.BalanceEntryTypeOpening,
			BalanceBefore: 0,
			BalanceAfter:  customer.Balance,
			Remark:        "开户",
		}
		if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return s.publish(ctx, tx, model.EventCustomerCreated, customer)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("customer_id", customer.ID).Str("phone_number", customer.PhoneNumber).Msg("顾客创建成功")

	return &CreateCustomerResponse{
		ID:          customer.ID,
		Name:        customer.Name,
		PhoneNumber: customer.PhoneNumber,
		Password:    password,
	}, nil
}

// UpdateCustomer 覆盖 name / phone_number / balance
// 余额有变化时记一笔 ADJUST 流水；修改手机号不做唯一性检查
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *UpdateCustomerRequest) (*model.Customer, error) {
	var updated *model.Customer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.customerRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		updated, err = s.customerRepo.Update(ctx, tx, id, &repository.CustomerUpdate{
			Name:        req.Name,
			PhoneNumber: req.PhoneNumber,
			Balance:     req.Balance,
		})
		if err != nil {
			return err
		}

		if updated.Balance != before.Balance {
			entry := &model.BalanceEntry{
				TransactionNo: idgen.GenerateTransactionNo(),
				CustomerID:    id,
				Amount:        balanceDelta(before.Balance, updated.Balance),
				Type:          model.BalanceEntryTypeAdjust,
				BalanceBefore: before.Balance,
				BalanceAfter:  updated.Balance,
				Remark:        "修改顾客信息",
			}
			if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
		}

		return s.publish(ctx, tx, model.EventCustomerUpdated, updated)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCustomer 物理删除，余额流水保留
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.customerRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.publish(ctx, tx, model.EventCustomerDeleted, customer)
	})
}

// ListBalanceEntries 顾客不存在时返回 ErrCustomerNotFound
func (s *CustomerService) ListBalanceEntries(ctx context.Context, id int64) ([]*model.BalanceEntry, error) {
	if _, err := s.customerRepo.GetByID(ctx, nil, id); err != nil {
		return nil, err
	}
	return s.entryRepo.ListByCustomerID(ctx, id)
}

// GetBalanceEntry 按流水号查单条流水，流水须属于该顾客
func (s *CustomerService) GetBalanceEntry(ctx context.Context, id int64, transactionNo string) (*model.BalanceEntry, error) {
	if _, err := s.customerRepo.GetByID(ctx, nil, id); err != nil {
		return nil, err
	}
	entry, err := s.entryRepo.GetByTransactionNo(ctx, transactionNo)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.CustomerID != id {
		return nil, ErrBalanceEntryNotFound
	}
	return entry, nil
}

// publish 在同一事务内写 outbox，Kafka 未启用时跳过
func (s *CustomerService) publish(ctx context.Context, tx *gorm.DB, event string, customer *model.Customer) error {
	if !s.cfg.Kafka.Enabled {
		return nil
	}

	payload := map[string]interface{}{
		"event":        event,
		"customer_id":  customer.ID,
		"name":         customer.Name,
		"phone_number": customer.PhoneNumber,
		"balance":      customer.Balance,
		"occurred_at":  time.Now().Format(time.RFC3339),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := &model.OutboxMessage{
		MessageKey: strconv.FormatInt(customer.ID, 10),
		Topic:      s.cfg.Kafka.Topic.CustomerEvents,
		Event:      event,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

const lockBackoff = 50 * time.Millisecond

// lockAttempts 等锁总时长按 backoff 折算成次数，至少尝试一次
func (s *CustomerService) lockAttempts() int {
	wait := time.Duration(s.cfg.Business.PhoneLockWaitMs) * time.Millisecond
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if n := int(wait / lockBackoff); n > 1 {
		return n
	}
	return 1
}

func (s *CustomerService) lockExpiration() time.Duration {
	if s.cfg.Business.PhoneLockSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.cfg.Business.PhoneLockSeconds) * time.Second
}

// balanceDelta 按十进制求差，避免 0.3-0.1 这类浮点误差写进流水
func balanceDelta(before, after float64) float64 {
	return decimal.NewFromFloat(after).Sub(decimal.NewFromFloat(before)).InexactFloat64()
}
