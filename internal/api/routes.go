package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skillrecordings/support-sub010/internal/correction"
	"github.com/skillrecordings/support-sub010/internal/engine"
	"github.com/skillrecordings/support-sub010/internal/model"
)

// DecideRequest asks for a decision on the newest inbound message. When App is
// set it is used as-is; otherwise the app is looked up by AppID.
type DecideRequest struct {
	App            *model.AppConfig `json:"app,omitempty"`
	AppID          string           `json:"app_id"`
	ConversationID string           `json:"conversation_id"`
	Messages       []model.Message  `json:"messages"`
}

// OutcomeRequest reports what happened to a decision.
type OutcomeRequest struct {
	ID       string         `json:"id,omitempty"`
	AppID    string         `json:"app_id"`
	Category model.Category `json:"category"`
	Outcome  model.Outcome  `json:"outcome"`
}

// OutcomeResponse is the trust row after an outcome.
type OutcomeResponse struct {
	Score   model.TrustScore `json:"score"`
	Applied bool             `json:"applied"`
}

// Decide handles POST /v1/decide.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if !decode(w, r, &req) {
		return
	}

	thread := model.NewThread(req.ConversationID, req.Messages)

	var (
		decision model.RouteDecision
		err      error
	)
	if req.App != nil {
		app := *req.App
		if app.AppID == "" {
			app.AppID = req.AppID
		}
		decision, err = h.engine.Decide(r.Context(), thread, app)
	} else {
		if req.AppID == "" {
			Error(w, http.StatusBadRequest, "app_id is required")
			return
		}
		decision, err = h.engine.DecideForApp(r.Context(), req.AppID, thread)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, decision)
}

// RecordOutcome handles POST /v1/outcomes.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if !decode(w, r, &req) {
		return
	}

	score, applied, err := h.engine.RecordOutcomeEvent(r.Context(), model.OutcomeEvent{
		ID:       req.ID,
		AppID:    req.AppID,
		Category: req.Category,
		Outcome:  req.Outcome,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, OutcomeResponse{Score: score, Applied: applied})
}

// CaptureCorrection handles POST /v1/corrections.
func (h *Handler) CaptureCorrection(w http.ResponseWriter, r *http.Request) {
	var req engine.CorrectionInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.CaptureCorrection(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, res)
}

// ObserveSend handles POST /v1/sends, the webhook fired when a message is sent.
func (h *Handler) ObserveSend(w http.ResponseWriter, r *http.Request) {
	var req correction.CompareInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.ObserveSend(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, res)
}

// GetTrust handles GET /v1/trust/{app}/{category}.
func (h *Handler) GetTrust(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "app")
	category := model.Category(chi.URLParam(r, "category"))

	score, err := h.engine.Trust().GetScore(r.Context(), appID, category)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, score)
}

// ListTrust handles GET /v1/trust/{app}.
func (h *Handler) ListTrust(w http.ResponseWriter, r *http.Request) {
	scores, err := h.engine.Trust().List(r.Context(), chi.URLParam(r, "app"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if scores == nil {
		scores = []model.TrustScore{}
	}

	JSON(w, http.StatusOK, map[string]any{"scores": scores})
}
