// Package roadmap implements the course-progress tree: leaf completion,
// bottom-up cascade to parents, the forward-only week lock policy, and the
// overall percentage. All functions work on a copy of the course and never
// mutate their input, so a failed update leaves the stored document intact.
package roadmap

import (
	"time"

	"scholarpath-service/internal/domain"
)

// Path addresses a single leaf. Task == WholeWeek targets the week itself,
// which is only valid for weeks without tasks (flat weekly variant).
type Path struct {
	Week int
	Task int
}

// WholeWeek marks a path that stops at the week level.
const WholeWeek = -1

// SetLeafCompletion returns a copy of course with the addressed leaf set to
// completed and every derived field recomputed. An out-of-range path returns
// domain.ErrNodeNotFound and no change.
func SetLeafCompletion(course domain.Course, path Path, completed bool, now time.Time) (domain.Course, error) {
	if path.Week < 0 || path.Week >= len(course.Weeks) {
		return domain.Course{}, domain.ErrNodeNotFound
	}
	week := course.Weeks[path.Week]
	if path.Task == WholeWeek {
		if len(week.Tasks) != 0 {
			// A week with tasks is not a leaf; use SetWeekCompletion.
			return domain.Course{}, domain.ErrNodeNotFound
		}
	} else if path.Task < 0 || path.Task >= len(week.Tasks) {
		return domain.Course{}, domain.ErrNodeNotFound
	}

	out := clone(course)
	w := &out.Weeks[path.Week]
	if path.Task == WholeWeek {
		setWeekFlag(w, completed, now)
	} else {
		setTaskFlag(&w.Tasks[path.Task], completed, now)
	}
	recompute(&out, path.Week, completed, now)
	return out, nil
}

// SetWeekCompletion returns a copy of course with week weekIdx (zero-based)
// marked complete or incomplete. Completing a week completes all of its
// tasks; clearing it clears them. Week-level completion drives the
// forward-lock policy: completing week N unlocks week N+1, clearing week N
// re-locks and clears every later week.
func SetWeekCompletion(course domain.Course, weekIdx int, completed bool, now time.Time) (domain.Course, error) {
	if weekIdx < 0 || weekIdx >= len(course.Weeks) {
		return domain.Course{}, domain.ErrNodeNotFound
	}

	out := clone(course)
	w := &out.Weeks[weekIdx]
	for i := range w.Tasks {
		setTaskFlag(&w.Tasks[i], completed, now)
	}
	setWeekFlag(w, completed, now)
	recompute(&out, weekIdx, completed, now)
	return out, nil
}

// Consistent reports whether every week's completion flag matches the AND of
// its tasks. Exposed for tests and for store-side sanity checks on documents
// written by older code.
func Consistent(course domain.Course) bool {
	for _, w := range course.Weeks {
		if len(w.Tasks) == 0 {
			continue
		}
		all := true
		for _, t := range w.Tasks {
			if !t.IsCompleted {
				all = false
				break
			}
		}
		if w.IsCompleted != all {
			return false
		}
	}
	return true
}

// recompute re-derives week flags, locks, CurrentWeek, and the overall
// percentage after the leaf at week touched changed to completed.
func recompute(course *domain.Course, touched int, completed bool, now time.Time) {
	// Parent derivation for weeks with tasks.
	for i := range course.Weeks {
		w := &course.Weeks[i]
		if len(w.Tasks) == 0 {
			continue
		}
		all := true
		for _, t := range w.Tasks {
			if !t.IsCompleted {
				all = false
				break
			}
		}
		setWeekFlag(w, all, now)
	}

	if !completed && !course.Weeks[touched].IsCompleted {
		// Forward-only invalidation: a rollback of week N re-locks and
		// clears everything after it so nobody skips ahead later.
		for i := touched + 1; i < len(course.Weeks); i++ {
			w := &course.Weeks[i]
			for j := range w.Tasks {
				setTaskFlag(&w.Tasks[j], false, now)
			}
			setWeekFlag(w, false, now)
			w.IsLocked = true
		}
		course.CurrentWeek = course.Weeks[touched].Number
	}

	// Unlock forward: each week unlocks once its predecessor is complete.
	// Week 1 is always open.
	if len(course.Weeks) > 0 {
		course.Weeks[0].IsLocked = false
	}
	for i := 1; i < len(course.Weeks); i++ {
		if course.Weeks[i-1].IsCompleted {
			course.Weeks[i].IsLocked = false
		}
	}
	for i := range course.Weeks {
		w := course.Weeks[i]
		if w.IsCompleted && i+1 < len(course.Weeks) {
			if next := course.Weeks[i+1].Number; course.CurrentWeek < next {
				course.CurrentWeek = next
			}
		}
	}
	if course.CurrentWeek == 0 && len(course.Weeks) > 0 {
		course.CurrentWeek = course.Weeks[0].Number
	}

	course.OverallProgress = overallProgress(*course)
	course.UpdatedAt = now
}

// overallProgress is round(100 * completed leaves / total leaves) over the
// flat leaf count: tasks where a week has them, the week itself otherwise.
func overallProgress(course domain.Course) int {
	total, done := 0, 0
	for _, w := range course.Weeks {
		if len(w.Tasks) == 0 {
			total++
			if w.IsCompleted {
				done++
			}
			continue
		}
		for _, t := range w.Tasks {
			total++
			if t.IsCompleted {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return (done*100 + total/2) / total
}

func setTaskFlag(t *domain.Task, completed bool, now time.Time) {
	if t.IsCompleted == completed {
		return
	}
	t.IsCompleted = completed
	if completed {
		ts := now
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
}

func setWeekFlag(w *domain.Week, completed bool, now time.Time) {
	if w.IsCompleted == completed {
		return
	}
	w.IsCompleted = completed
	if completed {
		ts := now
		w.CompletedAt = &ts
	} else {
		w.CompletedAt = nil
	}
}

func clone(course domain.Course) domain.Course {
	out := course
	out.Weeks = make([]domain.Week, len(course.Weeks))
	copy(out.Weeks, course.Weeks)
	for i := range out.Weeks {
		if len(course.Weeks[i].Tasks) == 0 {
			continue
		}
		out.Weeks[i].Tasks = make([]domain.Task, len(course.Weeks[i].Tasks))
		copy(out.Weeks[i].Tasks, course.Weeks[i].Tasks)
	}
	return out
}
