package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scholarpath-service/internal/app"
	"scholarpath-service/internal/auth"
	"scholarpath-service/internal/domain"
)

// Handler holds the use-case services shared by all HTTP endpoints.
type Handler struct {
	attempts    *app.AttemptService
	catalog     *app.CatalogService
	progress    *app.ProgressService
	assignments *app.AssignmentService
	upload      UploadPolicy
	log         *slog.Logger
}

// UploadPolicy bounds assignment attachments.
type UploadPolicy struct {
	MaxBytes    int64
	AllowedExts []string
}

func NewHandler(attempts *app.AttemptService, catalog *app.CatalogService, progress *app.ProgressService, assignments *app.AssignmentService, upload UploadPolicy, log *slog.Logger) *Handler {
	return &Handler{
		attempts:    attempts,
		catalog:     catalog,
		progress:    progress,
		assignments: assignments,
		upload:      upload,
		log:         log,
	}
}

// Routes registers the API under the given router. The verifier guards
// everything below /api and /ws.
func (h *Handler) Routes(r chi.Router, verifier auth.Verifier) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Get("/quizzes/branch/{branch}", h.listQuizzesByBranch)

		r.Post("/attempts", h.startAttempt)
		r.Get("/attempts/{id}", h.getAttempt)
		r.Put("/attempts/{id}/answers", h.recordAnswer)

		r.Post("/quiz-results", h.submitAttempt)
		r.Get("/quiz-results/check-test-status", h.checkTestStatus)

		r.Get("/progress/{course}", h.getProgress)
		r.Put("/progress/{course}/modules/{week}", h.setModule)
		r.Put("/progress/{course}/tasks", h.setTask)
		r.Post("/progress/{course}/assignments/{week}", h.submitAssignment)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/quizzes", h.createQuiz)
			r.Put("/quizzes/{id}", h.updateQuiz)
			r.Delete("/quiz-results/reset", h.resetResults)
			r.Put("/assignments/{id}/grade", h.gradeSubmission)
			r.Get("/assignments/course/{course}", h.listSubmissions)
		})
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		r.Get("/attempts/{id}", h.attemptFeed)
	})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorBody struct {
	Message  string `json:"message"`
	Existing any    `json:"existing,omitempty"`
}

// fail translates the error taxonomy into HTTP statuses. Unexpected errors
// log with detail server-side and return a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		h.respond(w, http.StatusBadRequest, errorBody{Message: conflict.Error(), Existing: conflict.Existing})
	case errors.Is(err, domain.ErrInvalidInput):
		h.respond(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrAttemptSubmitted), errors.Is(err, domain.ErrWeekLocked):
		h.respond(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		h.respond(w, http.StatusNotFound, errorBody{Message: err.Error()})
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		h.respond(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.respond(w, http.StatusUnauthorized, errorBody{Message: "not authenticated"})
	}
	return id, ok
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
