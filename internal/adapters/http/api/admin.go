package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/pkg/logger"
)

// Admin response messages.
const (
	MsgEntryCreated = "FAQ added successfully"
	MsgEntryUpdated = "FAQ updated successfully"
	MsgEntryDeleted = "FAQ deleted successfully"
)

// KeywordList accepts either a JSON array of strings or a single
// comma-separated string.
type KeywordList []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *KeywordList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*k = list
		return nil
	}
	var field string
	if err := json.Unmarshal(b, &field); err != nil {
		return fmt.Errorf("keywords must be a string or a list of strings: %w", err)
	}
	*k = model.ParseKeywords(field)
	return nil
}

// EntryRequest is the body of the admin create and update routes.
type EntryRequest struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Keywords KeywordList `json:"keywords"`
	Category string      `json:"category"`
}

func (req EntryRequest) input() model.EntryInput {
	return model.EntryInput{
		Question: req.Question,
		Answer:   req.Answer,
		Keywords: []string(req.Keywords),
		Category: req.Category,
	}
}

// AdminHandler serves the knowledge-base management routes.
type AdminHandler struct {
	deps   AdminDependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, log logger.Logger) *AdminHandler {
	return &AdminHandler{deps: deps, logger: log}
}

// HandleList handles GET /api/admin/faqs requests.
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_list"
	entries, err := h.deps.ListEntries(r.Context(), "")
	if err != nil {
		writeFailure(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCreate handles POST /api/admin/faqs requests.
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_create"
	ctx := r.Context()

	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(ctx, h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.CreateEntry(ctx, req.input())
	if err != nil {
		writeFailure(ctx, h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{ID: e.ID, Message: MsgEntryCreated})
}

// HandleUpdate handles PUT /api/admin/faqs/{id} requests.
func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_update"
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeFailure(ctx, h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(ctx, h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if _, err := h.deps.UpdateEntry(ctx, id, req.input()); err != nil {
		writeFailure(ctx, h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ID: id, Message: MsgEntryUpdated})
}

// HandleDelete handles DELETE /api/admin/faqs/{id} requests.
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_delete"
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeFailure(ctx, h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.DeleteEntry(ctx, id); err != nil {
		writeFailure(ctx, h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ID: id, Message: MsgEntryDeleted})
}

// HandleAnalytics handles GET /api/admin/analytics requests.
func (h *AdminHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_analytics"
	summary, err := h.deps.Analytics(r.Context())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func errInvalidLimit(raw string) error {
	return fmt.Errorf("invalid limit %q", raw)
}
