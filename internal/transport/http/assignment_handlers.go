package http

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"scholarpath-service/internal/domain"
)

// submitAssignment accepts either a JSON body with a submission link or a
// multipart form with a bounded-size file attachment. Either way the write
// is an upsert on (student, course, week, assignment).
func (h *Handler) submitAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	course := chi.URLParam(r, "course")
	week, err := parseIntParam(r, "week")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sub := domain.Submission{
		StudentID: id.UserID,
		CourseID:  course,
		Week:      week,
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
		if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
			h.respond(w, http.StatusBadRequest, errorBody{Message: "attachment too large or malformed form"})
			return
		}
		sub.AssignmentID = r.FormValue("assignmentId")
		sub.Link = r.FormValue("link")

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			if !h.extensionAllowed(header.Filename) {
				h.respond(w, http.StatusBadRequest, errorBody{Message: "file type not allowed"})
				return
			}
			key, err := h.assignments.StoreAttachment(r.Context(), id.UserID, course, week, header.Filename, file)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			sub.AttachmentKey = key
		}
	} else {
		var req struct {
			AssignmentID string `json:"assignmentId"`
			Link         string `json:"link"`
		}
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		sub.AssignmentID = req.AssignmentID
		sub.Link = req.Link
	}

	saved, created, err := h.assignments.Submit(r.Context(), sub)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(w, status, saved)
}

func (h *Handler) gradeSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Score    int    `json:"score"`
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.assignments.Grade(r.Context(), chi.URLParam(r, "id"), domain.Grade{
		Score:    req.Score,
		Feedback: req.Feedback,
		GradedBy: id.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, sub)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.assignments.ListByCourse(r.Context(), chi.URLParam(r, "course"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, subs)
}

func (h *Handler) extensionAllowed(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range h.upload.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
