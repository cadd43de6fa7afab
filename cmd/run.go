package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimize every resume in the input folder",
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd, "input-folder", "output-folder", "exclude-file", "concurrency")
	},
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before processing")
	runCmd.Flags().BoolP("force", "f", false, "process documents even if they were already optimized")
	runCmd.Flags().StringP("input-folder", "i", "", "folder with resumes to optimize")
	runCmd.Flags().StringP("output-folder", "o", "", "folder for optimized resumes")
	runCmd.Flags().StringP("exclude-file", "e", "", "file listing documents (names or hashes) to skip")
	runCmd.Flags().IntP("concurrency", "c", 0, "documents processed in parallel")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	logger.Info("starting the ats-tuner", zap.String("version", resolveVersion()))

	paths, err := intake.Scan(config.InputFolder)
	if err != nil {
		logger.Fatal("scanning the input folder", zap.Error(err))
	}

	if len(paths) == 0 {
		logger.Info("exiting", zap.String("reason", "no documents found"), zap.String("folder", config.InputFolder))
		return
	}

	logger.Info("documents found", zap.Int("count", len(paths)), zap.String("folder", config.InputFolder))

	if !flagBool(cmd, "auto-approve") {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Optimize %d documents", len(paths)),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	p, err := newPipeline(ctx, config, batchOptions{force: flagBool(cmd, "force")}, logger)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	summary, err := p.RunPaths(ctx, paths)
	if err != nil {
		logger.Fatal("running the batch", zap.Error(err))
	}

	logOutcomes(summary, logger)

	if summary.Failed() {
		logger.Sync()
		os.Exit(1)
	}
}

// bindFlags binds the flags of the running command only. run and watch share
// flag names, so binding them in init would let one shadow the other.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

func flagBool(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && flag.Value.String() == "true"
}
