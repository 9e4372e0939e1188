package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	course, err := h.progress.Get(r.Context(), id.UserID, chi.URLParam(r, "course"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, course)
}

func (h *Handler) setModule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	week, err := parseIntParam(r, "week")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Completed bool `json:"completed"`
		// UserID lets an admin roll back another student's week.
		UserID string `json:"userId,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	userID := id.UserID
	if req.UserID != "" && req.UserID != id.UserID {
		if !id.IsAdmin() {
			h.respond(w, http.StatusForbidden, errorBody{Message: "admin access required"})
			return
		}
		userID = req.UserID
	}

	course, err := h.progress.SetWeek(r.Context(), userID, chi.URLParam(r, "course"), week, req.Completed, id.IsAdmin())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, course)
}

func (h *Handler) setTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Week      int  `json:"week"`
		Task      int  `json:"task"`
		Completed bool `json:"completed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	course, err := h.progress.SetTask(r.Context(), id.UserID, chi.URLParam(r, "course"), req.Week, req.Task, req.Completed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, course)
}
