package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/permitworks/permit-management/internal/permit"
	"github.com/permitworks/permit-management/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the permit date-transition sweep once",
	Long:  `Expire overdue pending permits and complete permits past their end date, then exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweepOnce()
	},
}

// startSweeper schedules the date-transition sweep inside the server process.
// A nil return means the schedule was invalid and the sweep is disabled.
func startSweeper(schedule string, svc *permit.Service, log *slog.Logger) *cron.Cron {
	if schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		changed, err := svc.SweepDateTransitions(context.Background())
		if err != nil {
			log.Error("date-transition sweep failed", "error", err)
			return
		}
		if changed > 0 {
			log.Info("date-transition sweep applied changes", "permits_changed", changed)
		}
	})
	if err != nil {
		log.Error("invalid sweep schedule, sweeper disabled", "schedule", schedule, "error", err)
		return nil
	}

	c.Start()
	log.Info("permit sweeper started", "schedule", schedule)
	return c
}

func runSweepOnce() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.SqlxDB.Close()

	changed, err := deps.PermitService.SweepDateTransitions(context.Background())
	if err != nil {
		logger.L().Error("sweep failed", "error", err)
		os.Exit(1)
	}

	logger.L().Info("sweep complete", "permits_changed", changed)
}
