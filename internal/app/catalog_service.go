package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"scholarpath-service/internal/domain"
)

// CatalogService is the quiz catalog: admin CRUD plus the sanitized
// student-facing listing.
type CatalogService struct {
	catalog CatalogRepository
}

func NewCatalogService(catalog CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ListByBranch returns quizzes for a branch with correct answers and
// explanations stripped; test-takers never see the answer key.
func (s *CatalogService) ListByBranch(ctx context.Context, branch string) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListByBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = Sanitize(q)
	}
	return out, nil
}

// Get returns the full quiz, answer key included. Admin-only.
func (s *CatalogService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.catalog.GetQuiz(ctx, quizID)
}

// Create validates and stores a new quiz.
func (s *CatalogService) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := validateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	return s.catalog.Create(ctx, quiz)
}

// Update validates and replaces an existing quiz.
func (s *CatalogService) Update(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return domain.ErrInvalidInput
	}
	if err := validateQuiz(quiz); err != nil {
		return err
	}
	return s.catalog.Update(ctx, quiz)
}

// Sanitize strips the answer key from a quiz for student consumption.
func Sanitize(quiz domain.Quiz) domain.Quiz {
	out := quiz
	out.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectAnswer = domain.Unanswered
		q.Explanation = ""
		out.Questions[i] = q
	}
	return out
}

func validateQuiz(quiz domain.Quiz) error {
	if quiz.Title == "" || quiz.Branch == "" {
		return fmt.Errorf("%w: title and branch are required", domain.ErrInvalidInput)
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("%w: need at least one question", domain.ErrInvalidInput)
	}
	for i, q := range quiz.Questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", domain.ErrInvalidInput, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", domain.ErrInvalidInput, i)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct answer out of range", domain.ErrInvalidInput, i)
		}
	}
	return nil
}
