package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"scholarpath-service/internal/domain"
)

// CatalogRepository is the in-memory quiz catalog, doubling as the loader
// behind the quiz cache in demo mode.
type CatalogRepository struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewCatalogRepository(seed map[string]domain.Quiz) *CatalogRepository {
	quizzes := make(map[string]domain.Quiz, len(seed))
	for id, q := range seed {
		quizzes[id] = q
	}
	return &CatalogRepository{quizzes: quizzes}
}

func (r *CatalogRepository) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// LoadQuiz makes the catalog usable as a QuizLoader.
func (r *CatalogRepository) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.GetQuiz(ctx, quizID)
}

func (r *CatalogRepository) ListByBranch(_ context.Context, branch string) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Quiz
	for _, q := range r.quizzes {
		if q.Branch == branch {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *CatalogRepository) Create(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (r *CatalogRepository) Update(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	r.quizzes[quiz.ID] = quiz
	return nil
}

// ResultRepository keeps quiz results keyed by (user, quiz), mirroring the
// unique index the postgres implementation relies on.
type ResultRepository struct {
	mu      sync.Mutex
	results map[[2]string]domain.QuizResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{results: make(map[[2]string]domain.QuizResult)}
}

func (r *ResultRepository) Insert(_ context.Context, result domain.QuizResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{result.UserID, result.QuizID}
	if existing, ok := r.results[key]; ok {
		return &domain.ConflictError{Err: domain.ErrAlreadyAttempted, Existing: existing}
	}
	r.results[key] = result
	return nil
}

func (r *ResultRepository) Find(_ context.Context, userID, quizID string) (domain.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[[2]string{userID, quizID}]
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (r *ResultRepository) Delete(_ context.Context, userID, quizID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key := range r.results {
		if key[0] == userID && (quizID == "" || key[1] == quizID) {
			delete(r.results, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *ResultRepository) ListByQuiz(_ context.Context, quizID string) ([]domain.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.QuizResult
	for key, result := range r.results {
		if key[1] == quizID {
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// AttemptStore keeps in-progress attempts in a map.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.Attempt)}
}

func (s *AttemptStore) Put(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := attempt
	stored.Answers = append([]int(nil), attempt.Answers...)
	s.attempts[attempt.ID] = stored
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	attempt.Answers = append([]int(nil), attempt.Answers...)
	return attempt, nil
}

func (s *AttemptStore) Delete(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
	return nil
}

// ProgressRepository stores course documents keyed by (user, course).
type ProgressRepository struct {
	mu      sync.RWMutex
	courses map[[2]string]domain.Course
}

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{courses: make(map[[2]string]domain.Course)}
}

func (r *ProgressRepository) Get(_ context.Context, userID, courseName string) (domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	course, ok := r.courses[[2]string{userID, courseName}]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (r *ProgressRepository) Save(_ context.Context, course domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[[2]string{course.UserID, course.CourseName}] = course
	return nil
}

// StaticTemplates serves course roadmap templates from a fixed map.
type StaticTemplates struct {
	templates map[string]domain.Course
}

func NewStaticTemplates(templates map[string]domain.Course) *StaticTemplates {
	return &StaticTemplates{templates: templates}
}

func (t *StaticTemplates) Template(courseName string) (domain.Course, bool) {
	course, ok := t.templates[courseName]
	return course, ok
}

type submissionKey struct {
	studentID, courseID, assignmentID string
	week                              int
}

// SubmissionRepository keeps assignment submissions with the same compound
// uniqueness the postgres table enforces.
type SubmissionRepository struct {
	mu    sync.Mutex
	byKey map[submissionKey]domain.Submission
	byID  map[string]submissionKey
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		byKey: make(map[submissionKey]domain.Submission),
		byID:  make(map[string]submissionKey),
	}
}

func (r *SubmissionRepository) Upsert(_ context.Context, sub domain.Submission) (domain.Submission, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := submissionKey{sub.StudentID, sub.CourseID, sub.AssignmentID, sub.Week}
	existing, ok := r.byKey[key]
	if ok {
		// Keep the original id stable across re-submissions.
		sub.ID = existing.ID
	}
	r.byKey[key] = sub
	r.byID[sub.ID] = key
	return sub, !ok, nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return r.byKey[key], nil
}

func (r *SubmissionRepository) Grade(_ context.Context, id string, grade domain.Grade) (domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	sub := r.byKey[key]
	score := grade.Score
	now := time.Now()
	sub.Status = domain.SubmissionGraded
	sub.Score = &score
	sub.Feedback = grade.Feedback
	sub.GradedBy = grade.GradedBy
	sub.GradedAt = &now
	r.byKey[key] = sub
	return sub, nil
}

func (r *SubmissionRepository) ListByCourse(_ context.Context, courseID string) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, sub := range r.byKey {
		if sub.CourseID == courseID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}
