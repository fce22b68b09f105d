package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partida-dev/partida/internal/journal"
	"github.com/partida-dev/partida/internal/model"
)

const defaultEntryLimit = 100

// EntryHandler serves journal entries.
type EntryHandler struct {
	svc *journal.Service
}

// NewEntryHandler creates an EntryHandler.
func NewEntryHandler(svc *journal.Service) *EntryHandler {
	return &EntryHandler{svc: svc}
}

// LineRequest is one line of a submitted entry.
type LineRequest struct {
	AccountID int64      `json:"account_id"`
	Side      string     `json:"side"`
	Amount    AmountText `json:"amount"`
}

// CreateEntryRequest is the body of POST /entries.
type CreateEntryRequest struct {
	Date   string        `json:"date"`
	Memo   string        `json:"memo"`
	DocRef string        `json:"doc_ref"`
	Lines  []LineRequest `json:"lines"`
}

func (r CreateEntryRequest) draft(tenant model.TenantID, author int64) (model.EntryDraft, error) {
	d := model.EntryDraft{
		TenantID: tenant,
		Memo:     r.Memo,
		DocRef:   r.DocRef,
		AuthorID: author,
		Lines:    make([]model.LineDraft, len(r.Lines)),
	}
	if r.Date != "" {
		date, err := time.Parse(model.DateFormat, r.Date)
		if err != nil {
			return model.EntryDraft{}, &model.ValidationError{
				Line: -1, Field: "date", Rule: model.RuleDate, Message: "invalid date " + r.Date,
			}
		}
		d.Date = date
	}
	for i, l := range r.Lines {
		d.Lines[i] = model.LineDraft{AccountID: l.AccountID, Side: l.Side, Amount: string(l.Amount)}
	}
	return d, nil
}

// List returns entries newest first, optionally bounded by from/to.
func (h *EntryHandler) List(c *gin.Context) {
	period, err := model.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		Fail(c, err)
		return
	}
	limit := defaultEntryLimit
	if q := c.Query("limit"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil || limit < 0 {
			BadRequest(c, "invalid limit")
			return
		}
	}
	entries, err := h.svc.List(c.Request.Context(), tenantOf(c), period, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = entryView(e)
	}
	Success(c, views)
}

// Get returns one entry with its lines.
func (h *EntryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entryView(e))
}

// Create validates and posts an entry.
func (h *EntryHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	d, err := req.draft(tenantOf(c), userOf(c))
	if err != nil {
		Fail(c, err)
		return
	}
	e, err := h.svc.CreateEntry(c.Request.Context(), d)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, entryView(e))
}

// Delete removes an entry and its lines.
func (h *EntryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(c.Request.Context(), tenantOf(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// Export writes the entries within from/to as CSV.
func (h *EntryHandler) Export(c *gin.Context) {
	period, err := model.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		Fail(c, err)
		return
	}
	entries, err := h.svc.List(c.Request.Context(), tenantOf(c), period, 0)
	if err != nil {
		Fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := journal.WriteRows(&buf, journal.RowsFromEntries(entries)); err != nil {
		Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="entries.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
