package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the record of processed documents",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every processed document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		stateList(cmd)
	},
}

var stateLookupCmd = &cobra.Command{
	Use:   "lookup <file>",
	Short: "Show where the optimized version of a file was written",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		stateLookup(args[0])
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateListCmd, stateLookupCmd)

	stateListCmd.Flags().Bool("raw", false, "print entries as json")
}

func openState() (*state.Store, *zap.Logger) {
	config, logger := setup()

	store, err := state.Open(config.StateFile, logger)
	if err != nil {
		logger.Fatal("opening the state file", zap.Error(err))
	}
	return store, logger
}

func stateList(cmd *cobra.Command) {
	store, logger := openState()
	items := store.List()

	if flagBool(cmd, "raw") {
		pretty, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			logger.Fatal("encoding entries", zap.Error(err))
		}
		fmt.Println(string(pretty))
		return
	}

	if len(items) == 0 {
		logger.Info("no documents processed yet", zap.String("filename", store.Path()))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tSCORE\tRECORDED\tOUTPUT")
	for _, item := range items {
		recorded := "-"
		if !item.RecordedAt.IsZero() {
			recorded = humanize.Time(item.RecordedAt)
		}
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", item.Hash[:min(12, len(item.Hash))], item.Score, recorded, item.OutputPath)
	}
	w.Flush()
}

func stateLookup(path string) {
	store, logger := openState()

	sub, err := intake.Load(path)
	if err != nil {
		logger.Fatal("loading the document", zap.Error(err))
	}

	hash := sub.Hash()
	entry, ok := store.Lookup(hash)
	if !ok {
		logger.Info("document was not processed yet", zap.String("document", path), zap.String("hash", hash))
		return
	}

	fmt.Printf("%s\n  hash:     %s\n  output:   %s\n  score:    %.2f\n  recorded: %s\n",
		path, hash, entry.OutputPath, entry.Score, humanize.Time(entry.RecordedAt))
}
