package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scholarpath-service/internal/app"
	"scholarpath-service/internal/domain"
	"scholarpath-service/internal/infra/memory"
)

func newTestAssignmentService(t *testing.T) (*app.AssignmentService, *memory.AttachmentStore) {
	t.Helper()
	attachments := memory.NewAttachmentStore()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	service := app.NewAssignmentService(memory.NewSubmissionRepository(), attachments).WithClock(clock.now)
	return service, attachments
}

func TestSubmitThenResubmitUpserts(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAssignmentService(t)

	first, created, err := service.Submit(ctx, domain.Submission{
		StudentID:    "u1",
		CourseID:     "fullstack",
		Week:         1,
		AssignmentID: "a1",
		Link:         "https://github.com/u1/landing-page",
	})
	if err != nil || !created {
		t.Fatalf("first submit: created=%v err=%v", created, err)
	}
	if first.Status != domain.SubmissionPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	second, created, err := service.Submit(ctx, domain.Submission{
		StudentID:    "u1",
		CourseID:     "fullstack",
		Week:         1,
		AssignmentID: "a1",
		Link:         "https://github.com/u1/landing-page-v2",
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if created {
		t.Fatal("expected upsert, not a new row")
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must keep the row id: %s vs %s", first.ID, second.ID)
	}
	if second.Link != "https://github.com/u1/landing-page-v2" {
		t.Fatalf("expected replaced link, got %s", second.Link)
	}

	subs, err := service.ListByCourse(ctx, "fullstack")
	if err != nil || len(subs) != 1 {
		t.Fatalf("expected exactly one submission, got %d err=%v", len(subs), err)
	}
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAssignmentService(t)

	cases := []domain.Submission{
		{CourseID: "c", Week: 1, AssignmentID: "a", Link: "x"},  // no student
		{StudentID: "u", Week: 1, AssignmentID: "a", Link: "x"}, // no course
		{StudentID: "u", CourseID: "c", AssignmentID: "a", Link: "x"},
		{StudentID: "u", CourseID: "c", Week: 1, Link: "x"},
		{StudentID: "u", CourseID: "c", Week: 1, AssignmentID: "a"}, // no link or file
	}
	for i, sub := range cases {
		if _, _, err := service.Submit(ctx, sub); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestGradeTransitionsSubmission(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAssignmentService(t)

	sub, _, err := service.Submit(ctx, domain.Submission{
		StudentID:    "u1",
		CourseID:     "fullstack",
		Week:         2,
		AssignmentID: "a2",
		Link:         "https://example.com/work",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	graded, err := service.Grade(ctx, sub.ID, domain.Grade{Score: 85, Feedback: "solid", GradedBy: "admin-1"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.Status != domain.SubmissionGraded || graded.Score == nil || *graded.Score != 85 {
		t.Fatalf("unexpected graded submission: %+v", graded)
	}
	if graded.GradedBy != "admin-1" || graded.GradedAt == nil {
		t.Fatalf("grader identity missing: %+v", graded)
	}
}

func TestGradeValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAssignmentService(t)

	if _, err := service.Grade(ctx, "missing", domain.Grade{Score: 50, GradedBy: "admin-1"}); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if _, err := service.Grade(ctx, "x", domain.Grade{Score: 200, GradedBy: "admin-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected score range error, got %v", err)
	}
	if _, err := service.Grade(ctx, "x", domain.Grade{Score: 50}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected missing grader error, got %v", err)
	}
}

func TestStoreAttachment(t *testing.T) {
	ctx := context.Background()
	service, attachments := newTestAssignmentService(t)

	key, err := service.StoreAttachment(ctx, "u1", "fullstack", 1, "report.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("store attachment: %v", err)
	}
	if !strings.HasPrefix(key, "assignments/fullstack/u1/week-1/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected key shape: %s", key)
	}
	if _, err := attachments.Get(key); err != nil {
		t.Fatalf("attachment not stored: %v", err)
	}
}
