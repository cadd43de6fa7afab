package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <resume.json|resume.yaml>",
	Short: "Score a structured resume, optionally against a target",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("target", "t", "", "target file (yaml, json or plain text); overrides the configured target")
	scoreCmd.Flags().Bool("report", false, "print the full reports as json")
}

type scoreOutput struct {
	Evaluation      scoring.Evaluation       `json:"evaluation"`
	Target          *scoring.Report          `json:"target,omitempty"`
	Recommendations []scoring.Recommendation `json:"recommendations"`
}

func score(cmd *cobra.Command, path string) {
	config, logger := setup()

	sub, err := intake.Load(path)
	if err != nil {
		logger.Fatal("loading the document", zap.Error(err))
	}
	if sub.Structured == nil {
		logger.Fatal("only structured documents can be scored",
			zap.String("document", path),
			zap.String("hint", "run the enhancer through the run command first"),
		)
	}

	target, err := loadTarget(config)
	if override := cmd.Flag("target").Value.String(); override != "" {
		target, err = intake.LoadTarget(override)
	}
	if err != nil {
		logger.Fatal("loading the target", zap.Error(err))
	}

	evaluator, err := newEvaluator(config, logger)
	if err != nil {
		logger.Fatal("preparing the scorer", zap.Error(err))
	}

	ev := evaluator.Evaluate(sub.Structured, target)
	out := scoreOutput{
		Evaluation:      ev,
		Recommendations: scoring.Recommendations(ev.Reports()...),
	}
	if target != nil {
		report := scoring.ScoreTarget(*target, evaluator.Weights())
		out.Target = &report
	}

	if flagBool(cmd, "report") {
		pretty, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			logger.Fatal("encoding the report", zap.Error(err))
		}
		fmt.Fprintln(os.Stdout, string(pretty))
		return
	}

	printScore(out)
}

func printScore(out scoreOutput) {
	ev := out.Evaluation
	fmt.Printf("score: %.2f (%s)\n", ev.Score, ev.Mode)
	for _, report := range ev.Reports() {
		printReport(report)
	}
	if out.Target != nil {
		printReport(*out.Target)
	}

	if len(out.Recommendations) == 0 {
		return
	}
	fmt.Println("recommendations:")
	for _, r := range out.Recommendations {
		fmt.Printf("  %s\n", r)
	}
}

func printReport(report scoring.Report) {
	fmt.Printf("%s: %.2f\n", report.Kind, report.Total)
	for _, c := range report.Categories {
		fmt.Printf("  %-24s %6.2f  (weight %.2f)\n", c.Name, c.Score, c.Weight)
	}
}
