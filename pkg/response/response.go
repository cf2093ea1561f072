package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 对外错误文案，客户端按原样展示
const (
	DetailCustomerNotFound   = "Customer not found"
	DetailCustomerDeleted    = "Customer deleted successfully"
	DetailPhoneNumberExists  = "Phone number already exists"
	DetailInvalidAdmin       = "Invalid admin credentials"
	DetailInvalidPassword    = "Invalid password"
	DetailInvalidRole        = "Invalid role. Must be 'admin' or 'customer'"
	DetailInternalError      = "Internal Server Error"
	DetailServiceUnavailable = "Service Unavailable"
	DetailNotFound           = "Not Found"
	DetailTransactionMissing = "Transaction not found"
	DetailPhoneNumberBusy    = "Phone number is being registered, please retry"
)

// ErrorBody 错误响应体：{"detail": "..."}
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Success 200，直接返回业务数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorBody{Detail: detail})
}

func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

func Unauthorized(c *gin.Context, detail string) {
	Error(c, http.StatusUnauthorized, detail)
}

func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// Busy 503，带 Retry-After 提示客户端重试
func Busy(c *gin.Context, detail string, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	Error(c, http.StatusServiceUnavailable, detail)
}

// ParamError 参数类型转换失败，422
func ParamError(c *gin.Context, detail string) {
	Error(c, http.StatusUnprocessableEntity, detail)
}

// ServerError 未预期的存储层错误，不向客户端暴露细节
func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, DetailInternalError)
}
