package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scholarpath-service/internal/domain"
)

// ProgressRepository stores one JSONB course document per (user, course).
// Save is ON CONFLICT DO UPDATE: last write wins, the row's atomicity is
// the only concurrency control.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

func (r *ProgressRepository) Get(ctx context.Context, userID, courseName string) (domain.Course, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM course_progress WHERE user_id=$1 AND course_name=$2`,
		userID, courseName).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("load progress: %w", err)
	}
	var course domain.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return domain.Course{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	return course, nil
}

func (r *ProgressRepository) Save(ctx context.Context, course domain.Course) error {
	raw, err := json.Marshal(course)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO course_progress (user_id, course_name, doc, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, course_name) DO UPDATE SET doc=EXCLUDED.doc, updated_at=EXCLUDED.updated_at`,
		course.UserID, course.CourseName, raw, course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
