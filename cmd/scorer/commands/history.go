package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/scheduler"
	"github.com/wonny/campaign-scorer/internal/scheduler/jobs"
	"github.com/wonny/campaign-scorer/pkg/config"
	"github.com/wonny/campaign-scorer/pkg/database"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "예측 이력 조회/정리",
	Long: `DATABASE_URL 의 PostgreSQL 에 저장된 예측 이력을 다룹니다.

Example:
  go run ./cmd/scorer history summary --recent 5
  go run ./cmd/scorer history prune`,
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "전체/YES/NO 건수와 최근 예측",
	RunE:  runHistorySummary,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "보관 기간(HISTORY_RETENTION)이 지난 이력 삭제",
	RunE:  runHistoryPrune,
}

var historyRecent int

func init() {
	historySummaryCmd.Flags().IntVar(&historyRecent, "recent", history.SummaryRecent, "number of latest predictions to list")
	historyCmd.AddCommand(historySummaryCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

// storePruner prunes a history store directly
type storePruner struct {
	store history.Store
}

func (p storePruner) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return p.store.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

// openStore connects the Postgres history store; unlike the API there is no memory fallback
func openStore(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, nil, database.ErrDisabled
	}
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return history.NewPostgres(db.Pool), db.Close, nil
}

func runHistorySummary(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if historyRecent <= 0 {
		return fmt.Errorf("--recent must be positive, got %d", historyRecent)
	}

	ctx := cmd.Context()
	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	sum, err := store.Summary(ctx, historyRecent)
	if err != nil {
		return err
	}
	printSummary(cmd, sum)
	return nil
}

func printSummary(cmd *cobra.Command, sum history.Summary) {
	w := cmd.OutOrStdout()
	printHeader(w, "Prediction History")
	printField(w, "Total", sum.Total)
	printField(w, "YES", sum.Predictions.Yes)
	printField(w, "NO", sum.Predictions.No)
	if len(sum.Recent) > 0 {
		fmt.Fprintln(w, lightRule)
		for _, e := range sum.Recent {
			fmt.Fprintf(w, "  %s  %-3s  p=%.4f  %s\n",
				e.CreatedAt.Format(time.RFC3339), e.Result.Label, e.Result.Probability, e.Source)
		}
	}
	printFooter(w)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// 스케줄러와 같은 재시도/타임아웃 경로로 1회 실행
	job := jobs.NewHistoryPruneJob(storePruner{store: store}, cfg.History.Retention, cfg.History.PruneSchedule, log)
	sched := scheduler.New(log, scheduler.WithRetry(1, 5*time.Second))
	if err := sched.AddJob(job); err != nil {
		return err
	}

	res, err := sched.RunNow(ctx, job.Name())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printHeader(w, "History Prune")
	printField(w, "Retention", cfg.History.Retention)
	printField(w, "Attempts", res.Attempts)
	printField(w, "Duration", res.Duration.Round(time.Millisecond))
	printField(w, "Success", res.Success)
	if !res.Success {
		printField(w, "Error", res.Error)
	}
	printFooter(w)

	if !res.Success {
		return fmt.Errorf("history prune failed: %s", res.Error)
	}
	return nil
}
