package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scholarpath-service/internal/domain"
)

func (h *Handler) listQuizzesByBranch(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "branch")
	quizzes, err := h.catalog.ListByBranch(r.Context(), branch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, quizzes)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeJSON(r, &quiz); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.catalog.Create(r.Context(), quiz)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, created)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeJSON(r, &quiz); err != nil {
		h.fail(w, r, err)
		return
	}
	quiz.ID = chi.URLParam(r, "id")
	if err := h.catalog.Update(r.Context(), quiz); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, quiz)
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.QuizID == "" {
		h.fail(w, r, domain.ErrInvalidInput)
		return
	}
	attempt, err := h.attempts.Start(r.Context(), id.UserID, req.QuizID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, attempt)
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	attempt, err := h.attempts.Get(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, attempt)
}

func (h *Handler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionIndex  int `json:"questionIndex"`
		SelectedAnswer int `json:"selectedAnswer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	attempt, err := h.attempts.Record(r.Context(), chi.URLParam(r, "id"), id.UserID, req.QuestionIndex, req.SelectedAnswer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, attempt)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		AttemptID string `json:"attemptId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.AttemptID == "" {
		h.fail(w, r, domain.ErrInvalidInput)
		return
	}
	result, err := h.attempts.Submit(r.Context(), req.AttemptID, id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, result)
}

func (h *Handler) checkTestStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		h.fail(w, r, domain.ErrInvalidInput)
		return
	}
	taken, result, err := h.attempts.Status(r.Context(), id.UserID, quizID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"taken": taken, "result": result})
}

func (h *Handler) resetResults(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.fail(w, r, domain.ErrInvalidInput)
		return
	}
	deleted, err := h.attempts.Reset(r.Context(), userID, r.URL.Query().Get("quizId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func parseIntParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, domain.ErrInvalidInput
	}
	return v, nil
}
