package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the financial statements. Every report accepts
// optional from/to query parameters.
type ReportHandler struct {
	builder *report.Builder
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(b *report.Builder) *ReportHandler {
	return &ReportHandler{builder: b}
}

func queryPeriod(c *gin.Context) (model.Period, bool) {
	p, err := model.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		Fail(c, err)
		return model.Period{}, false
	}
	return p, true
}

// TrialBalance returns the trial balance.
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	tb, err := h.builder.TrialBalance(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := report.WriteTrialBalanceCSV(&buf, tb); err != nil {
			Fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	Success(c, tb)
}

// Ledger returns one account's movements.
func (h *ReportHandler) Ledger(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	l, err := h.builder.AccountLedger(c.Request.Context(), tenantOf(c), id, p)
	if err != nil {
		Fail(c, err)
		return
	}
	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := report.WriteLedgerCSV(&buf, l); err != nil {
			Fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	Success(c, ledgerView(l))
}

// IncomeStatement returns revenue, expenses and profit.
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	is, err := h.builder.IncomeStatement(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, is)
}

// BalanceSheet returns the balance sheet and its check.
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	bs, err := h.builder.BalanceSheet(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, bs)
}

// EquityStatement returns balances grouped by category.
func (h *ReportHandler) EquityStatement(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	es, err := h.builder.EquityStatement(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, es)
}

// Ratios returns the financial ratios.
func (h *ReportHandler) Ratios(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	r, err := h.builder.Ratios(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, r)
}

// Export writes every statement to one workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	p, ok := queryPeriod(c)
	if !ok {
		return
	}
	b, err := h.builder.All(c.Request.Context(), tenantOf(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, b); err != nil {
		Fail(c, err)
		return
	}
	name := fmt.Sprintf("reports-%d.xlsx", tenantOf(c))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
