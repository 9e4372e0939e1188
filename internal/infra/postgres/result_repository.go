package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scholarpath-service/internal/domain"
)

// uniqueViolation is the postgres error code for a unique-index conflict.
const uniqueViolation = "23505"

// ResultRepository persists final quiz results. The primary key on
// (user_id, quiz_id) makes Insert an atomic insert-if-absent; the race two
// concurrent submits would otherwise win is settled by the index.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) Insert(ctx context.Context, result domain.QuizResult) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_results (user_id, quiz_id, quiz_title, score, discount, time_taken, answers, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.UserID, result.QuizID, result.QuizTitle, result.Score, result.Discount,
		result.TimeTaken, answers, result.CompletedAt)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		existing, findErr := r.Find(ctx, result.UserID, result.QuizID)
		if findErr != nil {
			return &domain.ConflictError{Err: domain.ErrAlreadyAttempted}
		}
		return &domain.ConflictError{Err: domain.ErrAlreadyAttempted, Existing: existing}
	}
	return fmt.Errorf("insert result: %w", err)
}

func (r *ResultRepository) Find(ctx context.Context, userID, quizID string) (domain.QuizResult, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, quiz_id, quiz_title, score, discount, time_taken, answers, completed_at
		 FROM quiz_results WHERE user_id=$1 AND quiz_id=$2`, userID, quizID)
	return scanResult(row)
}

func (r *ResultRepository) Delete(ctx context.Context, userID, quizID string) (int, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if quizID == "" {
		tag, err = r.pool.Exec(ctx, `DELETE FROM quiz_results WHERE user_id=$1`, userID)
	} else {
		tag, err = r.pool.Exec(ctx, `DELETE FROM quiz_results WHERE user_id=$1 AND quiz_id=$2`, userID, quizID)
	}
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ResultRepository) ListByQuiz(ctx context.Context, quizID string) ([]domain.QuizResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, quiz_id, quiz_title, score, discount, time_taken, answers, completed_at
		 FROM quiz_results WHERE quiz_id=$1 ORDER BY score DESC, completed_at`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

func scanResult(row pgx.Row) (domain.QuizResult, error) {
	var (
		result domain.QuizResult
		raw    []byte
	)
	err := row.Scan(&result.UserID, &result.QuizID, &result.QuizTitle, &result.Score,
		&result.Discount, &result.TimeTaken, &raw, &result.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("scan result: %w", err)
	}
	if err := json.Unmarshal(raw, &result.Answers); err != nil {
		return domain.QuizResult{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return result, nil
}
