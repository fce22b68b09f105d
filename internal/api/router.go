package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/partida-dev/partida/internal/accounts"
	"github.com/partida-dev/partida/internal/config"
	"github.com/partida-dev/partida/internal/journal"
	"github.com/partida-dev/partida/internal/report"
)

// Services are the domain services behind the API.
type Services struct {
	Accounts *accounts.Service
	Journal  *journal.Service
	Reports  *report.Builder
}

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(cfg config.ServerConfig, log zerolog.Logger, svc Services) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accountHandler := NewAccountHandler(svc.Accounts)
	entryHandler := NewEntryHandler(svc.Journal)
	reportHandler := NewReportHandler(svc.Reports)

	v1 := r.Group("/api/v1")
	v1.Use(TenantMiddleware())
	{
		v1.GET("/accounts", accountHandler.List)
		v1.POST("/accounts", accountHandler.Create)
		v1.POST("/accounts/provision", accountHandler.Provision)
		v1.GET("/accounts/export", accountHandler.Export)
		v1.GET("/accounts/:id", accountHandler.Get)
		v1.DELETE("/accounts/:id", accountHandler.Delete)

		v1.GET("/entries", entryHandler.List)
		v1.POST("/entries", entryHandler.Create)
		v1.GET("/entries/export", entryHandler.Export)
		v1.GET("/entries/:id", entryHandler.Get)
		v1.DELETE("/entries/:id", entryHandler.Delete)

		reports := v1.Group("/reports")
		reports.GET("/trial-balance", reportHandler.TrialBalance)
		reports.GET("/ledger/:id", reportHandler.Ledger)
		reports.GET("/income", reportHandler.IncomeStatement)
		reports.GET("/balance-sheet", reportHandler.BalanceSheet)
		reports.GET("/equity", reportHandler.EquityStatement)
		reports.GET("/ratios", reportHandler.Ratios)
		reports.GET("/export", reportHandler.Export)
	}

	return r
}
