package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/ai/providers"
	"github.com/spigell/ats-tuner/internal/filtering"
	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/logger"
	"github.com/spigell/ats-tuner/internal/output"
	"github.com/spigell/ats-tuner/internal/pipeline"
	"github.com/spigell/ats-tuner/internal/resume"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/state"
)

// setup loads the logger and the validated config. It exits on failure the
// same way for every command.
func setup() (*Config, *zap.Logger) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// Credentials stay out of the dump.
	pretty, _ := json.MarshalIndent(config.Iteration, "", "  ")
	logger.Debug(fmt.Sprintf("starting with iteration config: \n %s", pretty),
		zap.String("input_folder", config.InputFolder),
		zap.String("output_folder", config.OutputFolder),
		zap.Int("concurrency", config.Concurrency),
	)

	return config, logger
}

// newEvaluator builds the scorer from the weights file and the cache settings.
func newEvaluator(config *Config, logger *zap.Logger) (*scoring.Evaluator, error) {
	weights, warnings, err := scoring.LoadWeights(config.Scoring.WeightsFile)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("weights file", zap.String("warning", w))
	}
	if err := scoring.ValidateWeights(weights); err != nil {
		return nil, err
	}

	cache, err := scoring.NewCache(config.Scoring.CacheSize)
	if err != nil {
		return nil, err
	}

	evaluator := scoring.NewEvaluator(weights, cache, logger, scoring.WithSampleSize(config.Scoring.SampleSize))
	logger.Debug("scoring ready",
		zap.String("weights_file", config.Scoring.WeightsFile),
		zap.String("weights_hash", evaluator.WeightsHash()),
	)
	return evaluator, nil
}

// loadTarget returns nil when no target is configured.
func loadTarget(config *Config) (*scoring.Target, error) {
	t := config.Target
	if t == nil {
		return nil, nil
	}
	if strings.TrimSpace(t.File) != "" {
		return intake.LoadTarget(t.File)
	}
	if strings.TrimSpace(t.Description) == "" {
		return nil, nil
	}
	return &scoring.Target{
		Title:       t.Title,
		Company:     t.Company,
		Description: t.Description,
		URL:         t.URL,
	}, nil
}

type batchOptions struct {
	force bool
}

// newPipeline wires every component a batch needs.
func newPipeline(ctx context.Context, config *Config, opts batchOptions, logger *zap.Logger) (*pipeline.Pipeline, error) {
	factory, err := providers.NewFactory(ctx, config.Credentials)
	if err != nil {
		return nil, err
	}

	registry, err := ai.NewRegistry(config.Agents, factory.Build, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("agents registered", zap.Strings("roles", registry.Roles()))

	evaluator, err := newEvaluator(config, logger)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	validator, err := resume.LoadValidator(config.SchemaFile)
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(config.OutputFormat)
	if err != nil {
		return nil, err
	}
	writer, err := output.New(config.OutputFolder, format)
	if err != nil {
		return nil, err
	}
	logger.Info("writing optimized documents", zap.String("folder", config.OutputFolder), zap.String("format", string(writer.Format())))

	store, err := state.Open(config.StateFile, logger)
	if err != nil {
		return nil, err
	}

	target, err := loadTarget(config)
	if err != nil {
		return nil, err
	}
	target = pipeline.PrepareTarget(ctx, registry, target, logger)

	processor, err := pipeline.NewProcessor(pipeline.Options{
		Agents:    registry,
		Scorer:    evaluator,
		Iteration: config.Iteration,
		State:     store,
		Output:    writer,
		Validator: validator,
		Target:    target,
		Goals:     config.Goals,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	filterCfg := &filtering.Config{
		ExcludeFile:    config.ExcludeFile,
		MinTargetScore: config.MinTargetScore,
		Weights:        evaluator.Weights(),
		Force:          opts.force,
	}
	deps := filtering.Deps{
		Logger: logger,
		State:  store,
		Target: target,
	}

	steps := filtering.Default()
	if opts.force {
		filtering.DisableByName(steps, "already_processed", "force flag is set")
	}
	logger.Debug("filters prepared", zap.Any("steps", filtering.Describe(steps)))

	return pipeline.New(processor, steps, filterCfg, deps, config.Concurrency, logger), nil
}

// logOutcomes reports what happened to every document of a batch. The
// pipeline logs the counts itself.
func logOutcomes(summary pipeline.Summary, logger *zap.Logger) {
	for _, o := range summary.Outcomes {
		fields := []zap.Field{
			zap.String("document", o.Path),
			zap.String("status", string(o.Status)),
		}
		if o.Reason != "" {
			fields = append(fields, zap.String("reason", o.Reason))
		}
		if o.OutputPath != "" {
			fields = append(fields, zap.String("output", o.OutputPath))
		}
		if o.Iterations > 0 || o.FinalScore > 0 {
			fields = append(fields,
				zap.Float64("initial_score", o.InitialScore),
				zap.Float64("final_score", o.FinalScore),
				zap.Int("iterations", o.Iterations),
				zap.String("stop_reason", string(o.StopReason)),
			)
		}
		if len(o.Warnings) > 0 {
			fields = append(fields, zap.Strings("warnings", o.Warnings))
		}
		if o.Err != nil {
			fields = append(fields, zap.Error(o.Err))
		}

		if o.Status == pipeline.StatusFailed {
			logger.Error("document processed", fields...)
			continue
		}
		logger.Info("document processed", fields...)
	}
}
