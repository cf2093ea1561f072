package handler

import (
	"net/http"
	"time"

	"tavern/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestIDMiddleware 沿用调用方的 X-Request-ID，没有则生成一个
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware 每个请求一行访问日志，5xx 记为 error
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		uri := c.Request.URL.RequestURI()

		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}

		event := log.WithLevel(level).
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("uri", uri).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if len(c.Errors) > 0 {
			event = event.Strs("errors", c.Errors.Errors())
		}
		event.Msg("[HTTP]")
	}
}

// RecoveryMiddleware panic 转成 500
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("method", c.Request.Method).
					Str("uri", c.Request.URL.RequestURI()).
					Msg("[PANIC]")
				response.ServerError(c)
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 只放行白名单内的来源；方法和请求头全部放行，允许携带凭证
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if _, ok := allowed[origin]; !ok {
			// 不在白名单：不写 CORS 头，浏览器会拦截响应
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Header("Access-Control-Allow-Methods", c.GetHeader("Access-Control-Request-Method"))
			if headers := c.GetHeader("Access-Control-Request-Headers"); headers != "" {
				c.Header("Access-Control-Allow-Headers", headers)
			}
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
