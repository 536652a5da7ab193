package api

import (
	"net/http"

	"github.com/okian/askdesk/internal/domain/matching"
	"github.com/okian/askdesk/internal/domain/ranking"
	"github.com/okian/askdesk/pkg/logger"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by POST /api/ask. Answer fields are set
// only when Found is true; Message only when it is false. Suggestions is
// emitted whenever it is non-nil, including as an empty list.
type AskResponse struct {
	Found       bool                 `json:"found"`
	Answer      string               `json:"answer,omitempty"`
	Question    string               `json:"question,omitempty"`
	Confidence  *int                 `json:"confidence,omitempty"`
	Category    string               `json:"category,omitempty"`
	Message     string               `json:"message,omitempty"`
	Suggestions []ranking.Suggestion `json:"suggestions,omitzero"`
}

// NewAskResponse renders an outcome in the wire shape.
func NewAskResponse(o matching.Outcome) AskResponse {
	switch o.Status {
	case matching.StatusMatched:
		c := o.Confidence()
		suggestions := o.Suggestions
		if suggestions == nil {
			suggestions = []ranking.Suggestion{}
		}
		return AskResponse{
			Found:       true,
			Answer:      o.Best.Entry.Answer,
			Question:    o.Best.Entry.Question,
			Confidence:  &c,
			Category:    o.Best.Entry.Category,
			Suggestions: suggestions,
		}
	case matching.StatusNoMatch:
		return AskResponse{Message: o.Message(), Suggestions: o.Suggestions}
	default:
		return AskResponse{Message: o.Message()}
	}
}

// AskHandler handles question answering.
type AskHandler struct {
	asker  Asker
	logger logger.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(asker Asker, log logger.Logger) *AskHandler {
	return &AskHandler{asker: asker, logger: log}
}

// HandleAsk handles POST /api/ask requests.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	const op = "api.ask"
	ctx := r.Context()

	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(ctx, h.logger, w, WrapKind(op, ErrBadRequest, err))
		return
	}

	outcome, err := h.asker.Ask(ctx, req.Question)
	if err != nil {
		writeFailure(ctx, h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, NewAskResponse(outcome))
}
