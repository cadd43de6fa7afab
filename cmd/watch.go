package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Optimize resumes as they appear in the input folder",
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd, "input-folder", "output-folder")
	},
	Run: func(cmd *cobra.Command, _ []string) {
		watch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", intake.DefaultDebounce, "how long to wait for a file to settle")
	watchCmd.Flags().Bool("skip-existing", false, "do not process documents already in the folder on start")
	watchCmd.Flags().StringP("input-folder", "i", "", "folder to watch")
	watchCmd.Flags().StringP("output-folder", "o", "", "folder for optimized resumes")
}

func watch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	logger.Info("starting the ats-tuner watcher", zap.String("version", resolveVersion()), zap.String("folder", config.InputFolder))

	p, err := newPipeline(ctx, config, batchOptions{}, logger)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil || debounce <= 0 {
		debounce = intake.DefaultDebounce
	}

	// Subscribe before the initial pass so nothing dropped meanwhile is lost.
	watcher, err := intake.NewWatcher(config.InputFolder, debounce, logger)
	if err != nil {
		logger.Fatal("watching the input folder", zap.Error(err))
	}

	if !flagBool(cmd, "skip-existing") {
		summary, err := p.RunFolder(ctx, config.InputFolder)
		if err != nil {
			logger.Fatal("processing existing documents", zap.Error(err))
		}
		logOutcomes(summary, logger)
	}

	err = watcher.Run(ctx, func(paths []string) {
		started := time.Now()
		summary, err := p.RunPaths(ctx, paths)
		if err != nil {
			logger.Error("batch failed", zap.Error(err))
			return
		}
		logOutcomes(summary, logger)
		logger.Debug("batch took", zap.Duration("duration", time.Since(started)))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("watcher stopped", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "interrupted"))
}
