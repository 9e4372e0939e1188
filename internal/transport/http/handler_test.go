package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"scholarpath-service/internal/app"
	"scholarpath-service/internal/auth"
	"scholarpath-service/internal/domain"
	"scholarpath-service/internal/infra/memory"
	"scholarpath-service/internal/scoring"
)

const (
	studentToken = "student-token"
	adminToken   = "admin-token"
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "scholarship-cse",
		Title:  "CSE Scholarship Test",
		Branch: "cse",
		Questions: []domain.Question{
			{Text: "2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1},
			{Text: "FIFO structure?", Options: []string{"stack", "queue"}, CorrectAnswer: 1},
		},
	}
}

func sampleTemplate() domain.Course {
	return domain.Course{
		CourseName:  "fullstack",
		CurrentWeek: 1,
		Weeks: []domain.Week{
			{Number: 1, Title: "HTML"},
			{Number: 2, Title: "CSS", IsLocked: true},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quiz := sampleQuiz()
	catalog := memory.NewCatalogRepository(map[string]domain.Quiz{quiz.ID: quiz})
	attempts := app.NewAttemptService(
		memory.NewQuizCache(catalog, time.Minute),
		memory.NewAttemptStore(),
		memory.NewResultRepository(),
		scoring.DefaultTiers,
		30*time.Minute,
	)
	progress := app.NewProgressService(
		memory.NewProgressRepository(),
		memory.NewStaticTemplates(map[string]domain.Course{"fullstack": sampleTemplate()}),
	)
	assignments := app.NewAssignmentService(memory.NewSubmissionRepository(), memory.NewAttachmentStore())

	handler := NewHandler(attempts, app.NewCatalogService(catalog), progress, assignments, UploadPolicy{
		MaxBytes:    1 << 20,
		AllowedExts: []string{".pdf", ".zip"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	verifier := auth.NewStaticVerifier(map[string]auth.Identity{
		studentToken: {UserID: "u1", FirstName: "Asha", Role: auth.RoleStudent},
		adminToken:   {UserID: "admin-1", FirstName: "Rohan", Role: auth.RoleAdmin},
	})

	router := chi.NewRouter()
	handler.Routes(router, verifier)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) (*nethttp.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := nethttp.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	server := newTestServer(t)
	resp, _ := doJSON(t, server, nethttp.MethodGet, "/api/quizzes/branch/cse", "", nil)
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBranchListingOmitsAnswers(t *testing.T) {
	server := newTestServer(t)
	resp, raw := doJSON(t, server, nethttp.MethodGet, "/api/quizzes/branch/cse", studentToken, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(raw, &quizzes); err != nil || len(quizzes) != 1 {
		t.Fatalf("decode: %v (%s)", err, raw)
	}
	for _, q := range quizzes[0].Questions {
		if q.CorrectAnswer != domain.Unanswered {
			t.Fatalf("answer key leaked: %+v", q)
		}
	}
}

func TestAttemptLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{"quizId": "scholarship-cse"})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}

	resp, raw = doJSON(t, server, nethttp.MethodPut, "/api/attempts/"+attempt.ID+"/answers", studentToken,
		map[string]int{"questionIndex": 0, "selectedAnswer": 1})
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("record: expected 200, got %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, server, nethttp.MethodPost, "/api/quiz-results", studentToken, map[string]string{"attemptId": attempt.ID})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var result domain.QuizResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Score != 50 {
		t.Fatalf("1 of 2 correct, expected 50, got %d", result.Score)
	}

	// check-test-status now reports taken.
	resp, raw = doJSON(t, server, nethttp.MethodGet, "/api/quiz-results/check-test-status?quizId=scholarship-cse", studentToken, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status: expected 200, got %d", resp.StatusCode)
	}
	var status struct {
		Taken  bool               `json:"taken"`
		Result *domain.QuizResult `json:"result"`
	}
	if err := json.Unmarshal(raw, &status); err != nil || !status.Taken || status.Result == nil {
		t.Fatalf("unexpected status: %s err=%v", raw, err)
	}

	// A second attempt is a 400 conflict carrying the existing result.
	resp, raw = doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{"quizId": "scholarship-cse"})
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("re-attempt: expected 400, got %d", resp.StatusCode)
	}
	var conflict struct {
		Message  string          `json:"message"`
		Existing json.RawMessage `json:"existing"`
	}
	if err := json.Unmarshal(raw, &conflict); err != nil || conflict.Message == "" || len(conflict.Existing) == 0 {
		t.Fatalf("expected conflict body with existing record: %s", raw)
	}

	// Admin reset permits a re-take.
	resp, _ = doJSON(t, server, nethttp.MethodDelete, "/api/quiz-results/reset?userId=u1", adminToken, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("reset: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{"quizId": "scholarship-cse"})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("re-take after reset: expected 201, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesForbiddenForStudents(t *testing.T) {
	server := newTestServer(t)
	paths := []struct {
		method, path string
	}{
		{nethttp.MethodDelete, "/api/quiz-results/reset?userId=u1"},
		{nethttp.MethodPost, "/api/quizzes"},
		{nethttp.MethodPut, "/api/assignments/x/grade"},
	}
	for _, p := range paths {
		resp, _ := doJSON(t, server, p.method, p.path, studentToken, map[string]string{})
		if resp.StatusCode != nethttp.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestProgressEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, nethttp.MethodGet, "/api/progress/fullstack", studentToken, nil)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("get progress: expected 200, got %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, server, nethttp.MethodPut, "/api/progress/fullstack/modules/1", studentToken,
		map[string]bool{"completed": true})
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("complete module: expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var course domain.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		t.Fatalf("decode course: %v", err)
	}
	if !course.Weeks[0].IsCompleted || course.Weeks[1].IsLocked || course.OverallProgress != 50 {
		t.Fatalf("unexpected course state: %+v", course)
	}

	// Students cannot write another user's roadmap.
	resp, _ = doJSON(t, server, nethttp.MethodPut, "/api/progress/fullstack/modules/2", studentToken,
		map[string]any{"completed": true, "userId": "u2"})
	if resp.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("cross-user write: expected 403, got %d", resp.StatusCode)
	}

	// Rolling back week 1 locks week 2 again; completing it then fails.
	resp, _ = doJSON(t, server, nethttp.MethodPut, "/api/progress/fullstack/modules/1", studentToken,
		map[string]bool{"completed": false})
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("rollback: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, server, nethttp.MethodPut, "/api/progress/fullstack/modules/2", studentToken,
		map[string]bool{"completed": true})
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("locked week: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, server, nethttp.MethodGet, "/api/progress/unknown-course", studentToken, nil)
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("unknown course: expected 404, got %d", resp.StatusCode)
	}
}

func TestAssignmentSubmissionAndGrading(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, nethttp.MethodPost, "/api/progress/fullstack/assignments/1", studentToken,
		map[string]string{"assignmentId": "a1", "link": "https://github.com/u1/work"})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}

	// Re-submission upserts (scenario E): 200, same id.
	resp, raw = doJSON(t, server, nethttp.MethodPost, "/api/progress/fullstack/assignments/1", studentToken,
		map[string]string{"assignmentId": "a1", "link": "https://github.com/u1/work-v2"})
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("resubmit: expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var resub domain.Submission
	_ = json.Unmarshal(raw, &resub)
	if resub.ID != sub.ID {
		t.Fatalf("upsert changed the id: %s vs %s", sub.ID, resub.ID)
	}

	resp, raw = doJSON(t, server, nethttp.MethodPut, "/api/assignments/"+sub.ID+"/grade", adminToken,
		map[string]any{"score": 90, "feedback": "nice"})
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("grade: expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var graded domain.Submission
	_ = json.Unmarshal(raw, &graded)
	if graded.Status != domain.SubmissionGraded || graded.GradedBy != "admin-1" {
		t.Fatalf("unexpected graded submission: %+v", graded)
	}
}

func TestMultipartUploadRespectsAllowList(t *testing.T) {
	server := newTestServer(t)

	upload := func(filename string) *nethttp.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("assignmentId", "a1")
		fw, _ := mw.CreateFormFile("file", filename)
		fmt.Fprint(fw, "content")
		_ = mw.Close()

		req, _ := nethttp.NewRequest(nethttp.MethodPost, server.URL+"/api/progress/fullstack/assignments/1", &buf)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := server.Client().Do(req)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		return resp
	}

	resp := upload("report.pdf")
	if resp.StatusCode != nethttp.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("pdf upload: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	resp.Body.Close()

	resp = upload("malware.exe")
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("exe upload: expected 400, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(raw), "not allowed") {
		t.Fatalf("expected allow-list message, got %s", raw)
	}
}

func TestValidationErrorsReturn400(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{})
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("missing quizId: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, server, nethttp.MethodGet, "/api/quiz-results/check-test-status", studentToken, nil)
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("missing quizId param: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, server, nethttp.MethodPost, "/api/progress/fullstack/assignments/1", studentToken,
		map[string]string{"assignmentId": "a1"})
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("no link or file: expected 400, got %d", resp.StatusCode)
	}
}
