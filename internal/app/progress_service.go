package app

import (
	"context"
	"errors"
	"time"

	"scholarpath-service/internal/domain"
	"scholarpath-service/internal/roadmap"
)

// ProgressService owns course roadmap progress. All tree math lives in the
// roadmap package; this layer only loads, applies, and saves whole
// documents (last write wins, per-row atomicity at the store).
type ProgressService struct {
	progress  ProgressRepository
	templates TemplateSource
	now       func() time.Time
}

func NewProgressService(progress ProgressRepository, templates TemplateSource) *ProgressService {
	return &ProgressService{progress: progress, templates: templates, now: time.Now}
}

// WithClock is test-only.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// Get returns the user's progress document, seeding it from the course
// template on first access.
func (s *ProgressService) Get(ctx context.Context, userID, courseName string) (domain.Course, error) {
	course, err := s.progress.Get(ctx, userID, courseName)
	if err == nil {
		return course, nil
	}
	if !errors.Is(err, domain.ErrCourseNotFound) {
		return domain.Course{}, err
	}

	template, ok := s.templates.Template(courseName)
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	template.UserID = userID
	template.UpdatedAt = s.now()
	if err := s.progress.Save(ctx, template); err != nil {
		return domain.Course{}, err
	}
	return template, nil
}

// SetWeek marks a weekly module complete or incomplete. Students can only
// touch unlocked weeks; admin callers bypass the lock check so a rollback
// of an earlier week is possible.
func (s *ProgressService) SetWeek(ctx context.Context, userID, courseName string, week int, completed, admin bool) (domain.Course, error) {
	course, err := s.Get(ctx, userID, courseName)
	if err != nil {
		return domain.Course{}, err
	}
	idx := weekIndex(course, week)
	if idx < 0 {
		return domain.Course{}, domain.ErrNodeNotFound
	}
	if !admin && course.Weeks[idx].IsLocked {
		return domain.Course{}, domain.ErrWeekLocked
	}

	updated, err := roadmap.SetWeekCompletion(course, idx, completed, s.now())
	if err != nil {
		return domain.Course{}, err
	}
	if err := s.progress.Save(ctx, updated); err != nil {
		return domain.Course{}, err
	}
	return updated, nil
}

// SetTask marks a single task complete or incomplete.
func (s *ProgressService) SetTask(ctx context.Context, userID, courseName string, week, task int, completed bool) (domain.Course, error) {
	course, err := s.Get(ctx, userID, courseName)
	if err != nil {
		return domain.Course{}, err
	}
	idx := weekIndex(course, week)
	if idx < 0 {
		return domain.Course{}, domain.ErrNodeNotFound
	}
	if course.Weeks[idx].IsLocked {
		return domain.Course{}, domain.ErrWeekLocked
	}

	updated, err := roadmap.SetLeafCompletion(course, roadmap.Path{Week: idx, Task: task}, completed, s.now())
	if err != nil {
		return domain.Course{}, err
	}
	if err := s.progress.Save(ctx, updated); err != nil {
		return domain.Course{}, err
	}
	return updated, nil
}

// weekIndex maps a 1-based week number to its slice index.
func weekIndex(course domain.Course, number int) int {
	for i, w := range course.Weeks {
		if w.Number == number {
			return i
		}
	}
	return -1
}
