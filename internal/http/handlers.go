package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"dinvox/internal/core"
	applog "dinvox/internal/log"
	"dinvox/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Payload(map[string]string{"status": "ready"}).Write(w)
}

func userParam(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("user"))
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and hidden from the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case services.IsInvalidParams(err):
		BadRequestError(err.Error()).Write(w)
	case core.IsValidation(err):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrDuplicateMessage):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		w.WriteHeader(499)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().
				WithOperation(op).
				WithError(err, applog.ErrorTypeInternal).ToSlice()...)
		InternalServerError("internal error").Write(w)
	}
}

func (s *Server) handleThirds(w http.ResponseWriter, r *http.Request) {
	params, err := ParseAnalyticsParams(r.URL.Query(), s.analytics.CurrentMonth())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.analytics.Thirds(r.Context(), userParam(r), params.Month)
	if err != nil {
		s.writeServiceError(w, r, applog.OpThirds, err)
		return
	}
	NewJSONResponse().Payload(view).Write(w)
}

func (s *Server) handlePace(w http.ResponseWriter, r *http.Request) {
	params, err := ParseAnalyticsParams(r.URL.Query(), s.analytics.CurrentMonth())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.analytics.Pace(r.Context(), userParam(r), params.Month)
	if err != nil {
		s.writeServiceError(w, r, applog.OpPace, err)
		return
	}
	NewJSONResponse().Payload(view).Write(w)
}

func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	params, err := ParseAnalyticsParams(r.URL.Query(), s.analytics.CurrentMonth())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.analytics.Evolution(r.Context(), userParam(r), params.Window, params.CategoryID)
	if err != nil {
		s.writeServiceError(w, r, applog.OpEvolution, err)
		return
	}
	NewJSONResponse().Payload(view).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseAnalyticsParams(r.URL.Query(), s.analytics.CurrentMonth())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.analytics.Dashboard(r.Context(), services.DashboardRequest{
		UserID:     userParam(r),
		Month:      params.Month,
		Window:     params.Window,
		CategoryID: params.CategoryID,
	})
	if err != nil {
		s.writeServiceError(w, r, applog.OpDashboard, err)
		return
	}
	NewJSONResponse().Payload(view).Write(w)
}

// createdExpense is the body returned after a successful POST.
type createdExpense struct {
	Ref         string `json:"ref"`
	UserID      string `json:"userId"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	CategoryID  string `json:"categoryId,omitempty"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	MessageID   string `json:"messageId,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if s.expenses == nil {
		ServiceUnavailableError("expense recording is disabled").Write(w)
		return
	}
	user := userParam(r)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	e, err := ParseExpense(p, user, s.analytics.Today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	ref, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Payload(createdExpense{
			Ref:         ref,
			UserID:      e.UserID,
			Date:        e.Date,
			Amount:      e.Amount.String(),
			AmountCents: e.Amount.Cents,
			CategoryID:  e.CategoryID,
			Description: e.Description,
			Channel:     e.Channel,
			MessageID:   e.MessageID,
		}).
		Write(w)
}
