package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/identity"
)

// QuizHandler serves quiz documents; students only ever receive redacted copies.
type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) ListForCourse(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListForCourse(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "courseId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Get(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Debug(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Debug(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeBody(r, &quiz); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.service.Create(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "courseId"), quiz)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeBody(r, &quiz); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.service.Update(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId"), quiz)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}

func (h *QuizHandler) DeleteForCourse(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.DeleteForCourse(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "courseId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "quizId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
