package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarpath-service/internal/domain"
	"scholarpath-service/internal/scoring"
)

// AttemptEvent is pushed to watchers of a test-taking session.
type AttemptEvent struct {
	Type      string             `json:"type"` // "submitted"
	AttemptID string             `json:"attemptId"`
	Result    *domain.QuizResult `json:"result,omitempty"`
}

// AttemptService drives the test-taking state machine:
// NotStarted → InProgress → Submitted. Submitted is terminal; a re-take
// requires an admin reset that deletes the prior result.
type AttemptService struct {
	quizzes  QuizReader
	attempts AttemptStore
	results  ResultRepository
	tiers    scoring.TierTable
	duration time.Duration
	now      func() time.Time

	mu       sync.Mutex
	watchers map[string]map[chan AttemptEvent]struct{}
}

func NewAttemptService(quizzes QuizReader, attempts AttemptStore, results ResultRepository, tiers scoring.TierTable, duration time.Duration) *AttemptService {
	return &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		results:  results,
		tiers:    tiers,
		duration: duration,
		now:      time.Now,
		watchers: make(map[string]map[chan AttemptEvent]struct{}),
	}
}

// WithClock is test-only for deterministic deadlines.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Start opens an attempt for the user. Users holding a result for the quiz
// are rejected with a conflict carrying that result.
func (s *AttemptService) Start(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	// Eligibility gate; the unique index on results is the real guarantee
	// at submit time, this just fails fast for the common case.
	if existing, err := s.results.Find(ctx, userID, quizID); err == nil {
		return domain.Attempt{}, &domain.ConflictError{Err: domain.ErrAlreadyAttempted, Existing: existing}
	} else if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.Attempt{}, err
	}

	duration := s.duration
	if quiz.DurationSeconds > 0 {
		duration = time.Duration(quiz.DurationSeconds) * time.Second
	}

	now := s.now()
	answers := make([]int, len(quiz.Questions))
	for i := range answers {
		answers[i] = domain.Unanswered
	}
	attempt := domain.Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		Status:    domain.AttemptInProgress,
		Answers:   answers,
		StartedAt: now,
		Deadline:  now.Add(duration),
	}
	if err := s.attempts.Put(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// Get returns the caller's attempt.
func (s *AttemptService) Get(ctx context.Context, attemptID, userID string) (domain.Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.UserID != userID {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Record stores one selected answer on an in-progress attempt. Reaching the
// deadline forces submission with whatever was recorded so far.
func (s *AttemptService) Record(ctx context.Context, attemptID, userID string, questionIndex, selected int) (domain.Attempt, error) {
	attempt, err := s.Get(ctx, attemptID, userID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Status == domain.AttemptSubmitted {
		return domain.Attempt{}, domain.ErrAttemptSubmitted
	}
	if !s.now().Before(attempt.Deadline) {
		if _, err := s.finalize(ctx, attempt); err != nil {
			return domain.Attempt{}, err
		}
		return domain.Attempt{}, domain.ErrAttemptSubmitted
	}
	if questionIndex < 0 || questionIndex >= len(attempt.Answers) {
		return domain.Attempt{}, domain.ErrInvalidInput
	}
	if selected < domain.Unanswered {
		return domain.Attempt{}, domain.ErrInvalidInput
	}

	attempt.Answers[questionIndex] = selected
	if err := s.attempts.Put(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// Submit finalizes the attempt and persists the result exactly once.
func (s *AttemptService) Submit(ctx context.Context, attemptID, userID string) (domain.QuizResult, error) {
	attempt, err := s.Get(ctx, attemptID, userID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if attempt.Status == domain.AttemptSubmitted {
		return domain.QuizResult{}, domain.ErrAttemptSubmitted
	}
	return s.finalize(ctx, attempt)
}

// ExpireIfDue force-submits an attempt whose countdown has run out. It is
// called by the live feed when the timer reaches zero. Returns the result
// and true when the attempt was finalized.
func (s *AttemptService) ExpireIfDue(ctx context.Context, attemptID string) (domain.QuizResult, bool, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.QuizResult{}, false, err
	}
	if attempt.Status == domain.AttemptSubmitted || s.now().Before(attempt.Deadline) {
		return domain.QuizResult{}, false, nil
	}
	result, err := s.finalize(ctx, attempt)
	if err != nil {
		return domain.QuizResult{}, false, err
	}
	return result, true, nil
}

func (s *AttemptService) finalize(ctx context.Context, attempt domain.Attempt) (domain.QuizResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}

	now := s.now()
	submittedAt := now
	if submittedAt.After(attempt.Deadline) {
		submittedAt = attempt.Deadline
	}

	breakdown := scoring.Score(quiz, attempt.Answers)
	result := domain.QuizResult{
		UserID:      attempt.UserID,
		QuizID:      attempt.QuizID,
		QuizTitle:   quiz.Title,
		Score:       breakdown.Score,
		Answers:     breakdown.Answers,
		TimeTaken:   int(submittedAt.Sub(attempt.StartedAt).Seconds()),
		Discount:    scoring.Discount(breakdown.Score, s.tiers),
		CompletedAt: now,
	}

	// The unique index is the single source of truth for "one attempt per
	// user"; a lost race surfaces here as a conflict, not a crash.
	if err := s.results.Insert(ctx, result); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			_ = s.attempts.Delete(ctx, attempt.ID)
			return domain.QuizResult{}, err
		}
		// Persistence failed: keep the attempt so the client can retry.
		return domain.QuizResult{}, err
	}

	attempt.Status = domain.AttemptSubmitted
	if err := s.attempts.Put(ctx, attempt); err != nil {
		return domain.QuizResult{}, err
	}
	s.broadcast(attempt.ID, AttemptEvent{Type: "submitted", AttemptID: attempt.ID, Result: &result})
	return result, nil
}

// Status reports whether the user already took the quiz and returns the
// result if so.
func (s *AttemptService) Status(ctx context.Context, userID, quizID string) (bool, *domain.QuizResult, error) {
	result, err := s.results.Find(ctx, userID, quizID)
	if errors.Is(err, domain.ErrResultNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, &result, nil
}

// Reset deletes a user's results, permitting a re-take. Empty quizID wipes
// all of the user's results.
func (s *AttemptService) Reset(ctx context.Context, userID, quizID string) (int, error) {
	return s.results.Delete(ctx, userID, quizID)
}

// Watch returns a channel receiving events for one attempt. The caller must
// invoke cancel to avoid leaks.
func (s *AttemptService) Watch(attemptID string) (<-chan AttemptEvent, func()) {
	ch := make(chan AttemptEvent, 4)

	s.mu.Lock()
	set, ok := s.watchers[attemptID]
	if !ok {
		set = make(map[chan AttemptEvent]struct{})
		s.watchers[attemptID] = set
	}
	set[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.watchers[attemptID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(s.watchers, attemptID)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *AttemptService) broadcast(attemptID string, event AttemptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers[attemptID] {
		select {
		case ch <- event:
		default:
			// Drop the oldest update rather than block the submitter.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
