package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"scholarpath-service/internal/domain"
)

// AssignmentService handles weekly assignment submission and grading.
type AssignmentService struct {
	submissions SubmissionRepository
	attachments AttachmentStore
	now         func() time.Time
}

func NewAssignmentService(submissions SubmissionRepository, attachments AttachmentStore) *AssignmentService {
	return &AssignmentService{submissions: submissions, attachments: attachments, now: time.Now}
}

// WithClock is test-only.
func (s *AssignmentService) WithClock(now func() time.Time) *AssignmentService {
	s.now = now
	return s
}

// Submit upserts the student's submission for one (course, week, assignment).
// A second submission for the same key replaces the first instead of
// creating a duplicate. The returned bool is true for a fresh submission.
func (s *AssignmentService) Submit(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error) {
	if sub.StudentID == "" || sub.CourseID == "" || sub.AssignmentID == "" || sub.Week <= 0 {
		return domain.Submission{}, false, domain.ErrInvalidInput
	}
	if sub.Link == "" && sub.AttachmentKey == "" {
		return domain.Submission{}, false, domain.ErrInvalidInput
	}
	sub.ID = uuid.NewString()
	sub.Status = domain.SubmissionPending
	sub.SubmittedAt = s.now()
	sub.Score = nil
	sub.Feedback = ""
	sub.GradedBy = ""
	sub.GradedAt = nil
	return s.submissions.Upsert(ctx, sub)
}

// StoreAttachment uploads an assignment file and returns its storage key.
// Size and extension checks happen at the HTTP boundary; this only names
// and stores the object.
func (s *AssignmentService) StoreAttachment(ctx context.Context, studentID, courseID string, week int, filename string, data io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("assignments/%s/%s/week-%d/%s%s", courseID, studentID, week, uuid.NewString(), ext)
	if err := s.attachments.Upload(ctx, key, data); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return key, nil
}

// Grade records an admin grading action, moving the submission to graded.
func (s *AssignmentService) Grade(ctx context.Context, submissionID string, grade domain.Grade) (domain.Submission, error) {
	if grade.GradedBy == "" || grade.Score < 0 || grade.Score > 100 {
		return domain.Submission{}, domain.ErrInvalidInput
	}
	return s.submissions.Grade(ctx, submissionID, grade)
}

// Get returns one submission.
func (s *AssignmentService) Get(ctx context.Context, id string) (domain.Submission, error) {
	return s.submissions.Get(ctx, id)
}

// ListByCourse returns all submissions for a course, newest first per the
// store's ordering.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]domain.Submission, error) {
	return s.submissions.ListByCourse(ctx, courseID)
}
