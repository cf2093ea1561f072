package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tavern/internal/config"
	"tavern/internal/infrastructure/lock"
	"tavern/internal/model"
	"tavern/internal/repository"
	"tavern/internal/service"
	"tavern/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	db              *gorm.DB
	rdb             *redis.Client
	customerService *service.CustomerService
	authService     *service.AuthService
	outboxRepo      *repository.OutboxRepository
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		db:              db,
		rdb:             rdb,
		customerService: service.NewCustomerService(db, rdb, cfg),
		authService:     service.NewAuthService(db, cfg),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// writeError 把业务错误映射成 HTTP 状态码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound):
		response.NotFound(c, response.DetailCustomerNotFound)
	case errors.Is(err, service.ErrBalanceEntryNotFound):
		response.NotFound(c, response.DetailTransactionMissing)
	case errors.Is(err, service.ErrPhoneNumberExists):
		response.BadRequest(c, response.DetailPhoneNumberExists)
	case errors.Is(err, lock.ErrNotAcquired):
		_ = c.Error(err)
		response.Busy(c, response.DetailPhoneNumberBusy, 1)
	case errors.Is(err, service.ErrInvalidAdminCredentials):
		response.Unauthorized(c, response.DetailInvalidAdmin)
	case errors.Is(err, service.ErrInvalidPassword):
		response.Unauthorized(c, response.DetailInvalidPassword)
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, response.DetailInvalidRole)
	default:
		_ = c.Error(err)
		response.ServerError(c)
	}
}

func customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("customer_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "customer_id 必须是整数")
		return 0, false
	}
	return id, true
}

// ============================================================
// 登录
// ============================================================

// LoginRequest 登录请求，role 取 admin 或 customer
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login 登录
// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &service.LoginRequest{
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"status": http.StatusOK,
		"name":   result.Name,
		"role":   result.Role,
	})
}

// ============================================================
// 顾客相关接口
// ============================================================

// CustomerRequest 创建/修改顾客请求
// name、phone_number 必填（允许空串）；balance 省略时取 0，修改同样整体覆盖
type CustomerRequest struct {
	Name        *string  `json:"name" binding:"required"`
	PhoneNumber *string  `json:"phone_number" binding:"required"`
	Balance     *float64 `json:"balance"`
}

func (r *CustomerRequest) balance() float64 {
	if r.Balance == nil {
		return 0
	}
	return *r.Balance
}

// ListCustomers 查询全部顾客
// GET /customers/
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"customers": customers,
	})
}

// GetCustomer 查询单个顾客
// GET /customers/:customer_id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, customer)
}

// CreateCustomer 创建顾客，密码由系统生成并只在此返回一次
// POST /customers/
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.customerService.CreateCustomer(c.Request.Context(), &service.CreateCustomerRequest{
		Name:        *req.Name,
		PhoneNumber: *req.PhoneNumber,
		Balance:     req.balance(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateCustomer 修改顾客信息
// PUT /customers/:customer_id
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, &service.UpdateCustomerRequest{
		Name:        *req.Name,
		PhoneNumber: *req.PhoneNumber,
		Balance:     req.balance(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, customer)
}

// DeleteCustomer 删除顾客
// DELETE /customers/:customer_id
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"detail": response.DetailCustomerDeleted,
	})
}

// ListBalanceEntries 查询顾客余额流水
// GET /customers/:customer_id/transactions
func (h *Handler) ListBalanceEntries(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	entries, err := h.customerService.ListBalanceEntries(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transactions": entries,
	})
}

// GetBalanceEntry 按流水号查询单条流水
// GET /customers/:customer_id/transactions/:transaction_no
func (h *Handler) GetBalanceEntry(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	entry, err := h.customerService.GetBalanceEntry(c.Request.Context(), id, c.Param("transaction_no"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, entry)
}

// NotFound 未注册的路由，同样返回 {"detail": ...}
func (h *Handler) NotFound(c *gin.Context) {
	response.NotFound(c, response.DetailNotFound)
}

// ============================================================
// 健康检查
// ============================================================

// Health 检查数据库和 Redis 连通性，并带上待投递消息数
// GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, response.DetailServiceUnavailable)
		return
	}

	redisState := "disabled"
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusServiceUnavailable, response.DetailServiceUnavailable)
			return
		}
		redisState = "ok"
	}

	pending, err := h.outboxRepo.CountByStatus(ctx, model.OutboxStatusPending)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"status":         "ok",
		"redis":          redisState,
		"outbox_pending": pending,
	})
}
