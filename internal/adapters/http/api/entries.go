package api

import (
	"net/http"
	"strconv"

	"github.com/okian/askdesk/internal/domain/autocomplete"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/pkg/logger"
)

// EntriesHandler serves the public knowledge-base views.
type EntriesHandler struct {
	browser   EntryBrowser
	suggester Suggester
	logger    logger.Logger
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(browser EntryBrowser, suggester Suggester, log logger.Logger) *EntriesHandler {
	return &EntriesHandler{browser: browser, suggester: suggester, logger: log}
}

// HandleList handles GET /api/faqs requests with an optional category filter.
func (h *EntriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_faqs"
	entries, err := h.browser.ListEntries(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeFailure(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCategories handles GET /api/categories requests.
func (h *EntriesHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	const op = "api.categories"
	cats, err := h.browser.Categories(r.Context())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// HandleSuggest handles GET /api/suggest?prefix=&limit= requests.
func (h *EntriesHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest"
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeFailure(r.Context(), h.logger, w, WrapKind(op, ErrBadRequest, errInvalidLimit(raw)))
			return
		}
		limit = n
	}

	out := h.suggester.Suggest(r.Context(), q.Get("prefix"), limit)
	if out == nil {
		out = []autocomplete.Completion{}
	}
	writeJSON(w, http.StatusOK, out)
}
