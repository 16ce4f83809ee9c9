package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/identity"
)

// AttemptHandler exposes the attempt lifecycle over REST.
type AttemptHandler struct {
	service *app.AttemptService
}

func NewAttemptHandler(service *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

// answersRequest carries answers for update and submit. Omitting answers keeps the stored ones.
type answersRequest struct {
	Answers []domain.AttemptAnswer `json:"answers" validate:"omitempty,dive"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Start(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	attempt, err := h.service.Update(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "attemptId"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	attempt, err := h.service.Submit(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "attemptId"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Get(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "attemptId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.List(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// Latest answers JSON null when nothing has been submitted yet.
func (h *AttemptHandler) Latest(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Latest(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

// InProgress answers JSON null when no attempt is open.
func (h *AttemptHandler) InProgress(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.InProgress(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}
