package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scholarpath-service/internal/domain"
)

// SubmissionRepository stores assignment submissions. The unique index on
// (student_id, course_id, week, assignment_id) turns re-submission into an
// upsert keeping the original row id.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) Upsert(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO assignment_submissions
		   (id, student_id, course_id, week, assignment_id, link, attachment_key, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (student_id, course_id, week, assignment_id) DO UPDATE SET
		   link=EXCLUDED.link,
		   attachment_key=EXCLUDED.attachment_key,
		   status=EXCLUDED.status,
		   score=NULL,
		   feedback='',
		   graded_by='',
		   graded_at=NULL,
		   submitted_at=EXCLUDED.submitted_at
		 RETURNING id, (xmax = 0)`,
		sub.ID, sub.StudentID, sub.CourseID, sub.Week, sub.AssignmentID,
		sub.Link, sub.AttachmentKey, string(sub.Status), sub.SubmittedAt)

	var (
		id      string
		created bool
	)
	if err := row.Scan(&id, &created); err != nil {
		return domain.Submission{}, false, fmt.Errorf("upsert submission: %w", err)
	}
	sub.ID = id
	return sub, created, nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (domain.Submission, error) {
	row := r.pool.QueryRow(ctx, selectSubmission+` WHERE id=$1`, id)
	return scanSubmission(row)
}

func (r *SubmissionRepository) Grade(ctx context.Context, id string, grade domain.Grade) (domain.Submission, error) {
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignment_submissions
		 SET status=$2, score=$3, feedback=$4, graded_by=$5, graded_at=$6
		 WHERE id=$1`,
		id, string(domain.SubmissionGraded), grade.Score, grade.Feedback, grade.GradedBy, now)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("grade submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return r.Get(ctx, id)
}

func (r *SubmissionRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx, selectSubmission+` WHERE course_id=$1 ORDER BY submitted_at DESC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

const selectSubmission = `SELECT id, student_id, course_id, week, assignment_id, link, attachment_key,
	status, score, feedback, graded_by, graded_at, submitted_at
	FROM assignment_submissions`

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var (
		sub    domain.Submission
		status string
	)
	err := row.Scan(&sub.ID, &sub.StudentID, &sub.CourseID, &sub.Week, &sub.AssignmentID,
		&sub.Link, &sub.AttachmentKey, &status, &sub.Score, &sub.Feedback,
		&sub.GradedBy, &sub.GradedAt, &sub.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	sub.Status = domain.SubmissionStatus(status)
	return sub, nil
}
