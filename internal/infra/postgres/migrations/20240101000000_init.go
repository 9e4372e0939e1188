package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS quizzes (
	id TEXT PRIMARY KEY,
	branch TEXT NOT NULL,
	data JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS quizzes_branch_idx ON quizzes (branch);

CREATE TABLE IF NOT EXISTS quiz_results (
	user_id TEXT NOT NULL,
	quiz_id TEXT NOT NULL,
	quiz_title TEXT NOT NULL,
	score INT NOT NULL,
	discount INT NOT NULL,
	time_taken INT NOT NULL,
	answers JSONB NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, quiz_id)
);

CREATE TABLE IF NOT EXISTS course_progress (
	user_id TEXT NOT NULL,
	course_name TEXT NOT NULL,
	doc JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, course_name)
);

CREATE TABLE IF NOT EXISTS assignment_submissions (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	course_id TEXT NOT NULL,
	week INT NOT NULL,
	assignment_id TEXT NOT NULL,
	link TEXT NOT NULL DEFAULT '',
	attachment_key TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	score INT,
	feedback TEXT NOT NULL DEFAULT '',
	graded_by TEXT NOT NULL DEFAULT '',
	graded_at TIMESTAMPTZ,
	submitted_at TIMESTAMPTZ NOT NULL,
	UNIQUE (student_id, course_id, week, assignment_id)
);
CREATE INDEX IF NOT EXISTS assignment_submissions_course_idx ON assignment_submissions (course_id);
`

const dropTablesSQL = `
DROP TABLE IF EXISTS assignment_submissions;
DROP TABLE IF EXISTS course_progress;
DROP TABLE IF EXISTS quiz_results;
DROP TABLE IF EXISTS quizzes;
`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, dropTablesSQL)
			return err
		},
	)
}
