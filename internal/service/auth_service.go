package service

import (
	"context"
	"errors"
	"fmt"

	"tavern/internal/config"
	"tavern/internal/repository"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

var (
	ErrInvalidAdminCredentials = errors.New("管理员账号或密码错误")
	ErrInvalidPassword         = errors.New("密码错误")
	ErrInvalidRole             = errors.New("角色只能是 admin 或 customer")
)

// AuthService 登录校验
// 管理员账号来自配置；顾客按姓名查找后明文比对密码
type AuthService struct {
	customerRepo  *repository.CustomerRepository
	adminName     string
	adminPassword string
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		customerRepo:  repository.NewCustomerRepository(db),
		adminName:     cfg.Auth.AdminName,
		adminPassword: cfg.Auth.AdminPassword,
	}
}

type LoginRequest struct {
	Name     string
	Password string
	Role     string
}

type LoginResult struct {
	Name string
	Role string
}

// Login 按角色分支校验
// admin 不访问数据库；customer 重名时只校验按主键排序的第一条
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	switch req.Role {
	case RoleAdmin:
		if req.Name != s.adminName || req.Password != s.adminPassword {
			return nil, ErrInvalidAdminCredentials
		}

	case RoleCustomer:
		customer, err := s.customerRepo.FindByName(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("查询顾客失败: %w", err)
		}
		if customer == nil {
			return nil, repository.ErrCustomerNotFound
		}
		if customer.Password != req.Password {
			return nil, ErrInvalidPassword
		}

	default:
		return nil, ErrInvalidRole
	}

	return &LoginResult{Name: req.Name, Role: req.Role}, nil
}
