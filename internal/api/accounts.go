package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/partida-dev/partida/internal/accounts"
)

// AccountHandler serves the chart of accounts.
type AccountHandler struct {
	svc *accounts.Service
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(svc *accounts.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// CreateAccountRequest is the body of POST /accounts.
type CreateAccountRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// ProvisionRequest is the body of POST /accounts/provision.
type ProvisionRequest struct {
	Template string `json:"template"`
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// List returns the tenant's chart.
func (h *AccountHandler) List(c *gin.Context) {
	accts, err := h.svc.List(c.Request.Context(), tenantOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]AccountView, len(accts))
	for i, a := range accts {
		views[i] = accountView(a)
	}
	Success(c, views)
}

// Get returns one account.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, accountView(a))
}

// Create adds an account.
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	a, err := h.svc.CreateAccount(c.Request.Context(), tenantOf(c), accounts.Draft{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, accountView(a))
}

// Delete removes an account without journal lines.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteAccount(c.Request.Context(), tenantOf(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// Provision fills an empty chart from a template.
func (h *AccountHandler) Provision(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if req.Template == "" {
		req.Template = accounts.DefaultTemplate
	}
	accts, err := h.svc.Provision(c.Request.Context(), tenantOf(c), req.Template)
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]AccountView, len(accts))
	for i, a := range accts {
		views[i] = accountView(a)
	}
	Created(c, views)
}

// Export writes the chart as CSV.
func (h *AccountHandler) Export(c *gin.Context) {
	accts, err := h.svc.List(c.Request.Context(), tenantOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := accounts.WriteAccounts(&buf, accts); err != nil {
		Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="accounts.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
