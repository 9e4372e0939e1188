package app

import (
	"context"
	"io"

	"scholarpath-service/internal/domain"
)

// QuizReader loads quiz definitions on the hot test-taking path; the redis
// implementation caches, the memory one wraps a loader directly.
type QuizReader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// CatalogRepository is the admin-facing quiz store.
type CatalogRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListByBranch(ctx context.Context, branch string) ([]domain.Quiz, error)
	Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	Update(ctx context.Context, quiz domain.Quiz) error
}

// ResultRepository persists final quiz results. Insert must be atomic
// insert-if-absent: a duplicate (user, quiz) returns a *domain.ConflictError
// wrapping domain.ErrAlreadyAttempted with the existing result attached.
type ResultRepository interface {
	Insert(ctx context.Context, result domain.QuizResult) error
	Find(ctx context.Context, userID, quizID string) (domain.QuizResult, error)
	// Delete removes a user's results; empty quizID means all of them.
	Delete(ctx context.Context, userID, quizID string) (int, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.QuizResult, error)
}

// AttemptStore holds in-progress attempts. Implementations may expire
// entries shortly after the attempt deadline.
type AttemptStore interface {
	Put(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	Delete(ctx context.Context, attemptID string) error
}

// ProgressRepository stores one course document per (user, course).
// Save is a whole-document upsert; the store's per-row atomicity is the
// only write-write protection (last write wins).
type ProgressRepository interface {
	Get(ctx context.Context, userID, courseName string) (domain.Course, error)
	Save(ctx context.Context, course domain.Course) error
}

// TemplateSource supplies the pristine roadmap for a course, used to seed a
// student's progress document on first access.
type TemplateSource interface {
	Template(courseName string) (domain.Course, bool)
}

// SubmissionRepository stores assignment submissions keyed uniquely by
// (student, course, week, assignment). Upsert reports whether the call
// created a new row or replaced an existing one.
type SubmissionRepository interface {
	Upsert(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error)
	Get(ctx context.Context, id string) (domain.Submission, error)
	Grade(ctx context.Context, id string, grade domain.Grade) (domain.Submission, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Submission, error)
}

// AttachmentStore keeps uploaded assignment files.
type AttachmentStore interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Delete(ctx context.Context, key string) error
}
