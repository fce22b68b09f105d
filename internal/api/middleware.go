package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/partida-dev/partida/internal/model"
)

// Header names carrying the caller's identity. An identity provider in
// front of the service is expected to set them.
const (
	HeaderTenant = "X-Tenant-ID"
	HeaderUser   = "X-User-ID"
)

const (
	ctxTenant = "tenant"
	ctxUser   = "user"
)

// TenantMiddleware requires a positive tenant id and reads the optional
// author id.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := strconv.ParseInt(c.GetHeader(HeaderTenant), 10, 64)
		if err != nil || tenant <= 0 {
			BadRequest(c, "missing or invalid "+HeaderTenant+" header")
			return
		}
		var user int64
		if h := c.GetHeader(HeaderUser); h != "" {
			user, err = strconv.ParseInt(h, 10, 64)
			if err != nil || user < 0 {
				BadRequest(c, "invalid "+HeaderUser+" header")
				return
			}
		}
		c.Set(ctxTenant, model.TenantID(tenant))
		c.Set(ctxUser, user)
		c.Next()
	}
}

func tenantOf(c *gin.Context) model.TenantID {
	return c.MustGet(ctxTenant).(model.TenantID)
}

func userOf(c *gin.Context) int64 {
	return c.GetInt64(ctxUser)
}

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if tenant, ok := c.Get(ctxTenant); ok {
			ev = ev.Int64("tenant", int64(tenant.(model.TenantID)))
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("error", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
