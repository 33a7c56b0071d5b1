package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/scheduler"
	"github.com/wonny/insider-edge/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Starts the cron scheduler with the nightly signal generation
job and the weekly backtest job, then blocks until interrupted.

Example:
  go run ./cmd/insider scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Scheduler ===")

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	sched := scheduler.New(log)
	jobList := []scheduler.Job{
		jobs.NewSignalJob(pool, newProfiler(cfg, log), cfg, log),
		jobs.NewBacktestJob(pool, cfg, log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job %s: %w", job.Name(), err)
		}
		fmt.Printf("⏰ %s scheduled (%s)\n", job.Name(), job.Schedule())
	}

	sched.Start()
	PrintSuccess("Scheduler started, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n🛑 Stopping scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}
