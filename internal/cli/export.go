package cli

import (
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"scholarpath-service/internal/config"
	"scholarpath-service/internal/export"
	pg "scholarpath-service/internal/infra/postgres"
)

// NewExportCmd dumps quiz results or assignment grades to a spreadsheet.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		quizID   string
		courseID string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz results or assignment grades as xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (quizID == "") == (courseID == "") {
				return fmt.Errorf("exactly one of --quiz or --course is required")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if quizID != "" {
				results, err := pg.NewResultRepository(pool).ListByQuiz(ctx, quizID)
				if err != nil {
					return err
				}
				if err := export.WriteResults(output, results); err != nil {
					return err
				}
				log.Printf("exported %d results to %s", len(results), output)
				return nil
			}

			subs, err := pg.NewSubmissionRepository(pool).ListByCourse(ctx, courseID)
			if err != nil {
				return err
			}
			if err := export.WriteGrades(output, subs); err != nil {
				return err
			}
			log.Printf("exported %d submissions to %s", len(subs), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id to export results for")
	cmd.Flags().StringVar(&courseID, "course", "", "course id to export grades for")
	cmd.Flags().StringVarP(&output, "output", "o", "export.xlsx", "output file path")
	return cmd
}
