package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/headhunter"
	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/secrets"
)

const PromptExit = "exit"

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search vacancies on hh.ru and save one as the optimization target",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("save", "s", "target.yaml", "where to save the selected vacancy")
	searchCmd.Flags().IntP("max-pages", "p", 0, "limit the number of result pages fetched")
}

func search(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	config, logger := setup()

	params := &headhunter.SearchParams{}
	hhConfig := config.Headhunter
	if hhConfig != nil && hhConfig.Search != nil {
		params = hhConfig.Search
	}
	if len(args) == 1 {
		params.Text = args[0]
	}
	if pages, err := cmd.Flags().GetInt("max-pages"); err == nil && pages > 0 {
		params.MaxPages = pages
	}
	if strings.TrimSpace(params.Text) == "" {
		logger.Fatal("search text is required", zap.String("hint", "pass it as an argument or set headhunter.search.text"))
	}

	hh := headhunter.New(logger, resolveToken(hhConfig, logger))
	if hhConfig != nil && hhConfig.UserAgent != "" {
		hh.UserAgent = hhConfig.UserAgent
	}

	logger.Info("starting the search", zap.String("search", params.Text))

	vacancies, err := hh.Search(ctx, params)
	if err != nil {
		logger.Fatal("searching vacancies", zap.Error(err))
	}

	logger.Info("getting vacancies", zap.Int("count", vacancies.Len()))
	if vacancies.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no vacancies found"))
		return
	}

	selected, err := selectVacancy(vacancies)
	if err != nil {
		if errors.Is(err, errExit) {
			return
		}
		logger.Fatal("selecting a vacancy", zap.Error(err))
	}

	// Search results carry only a snippet.
	full, err := hh.Vacancy(ctx, selected.ID)
	if err != nil {
		logger.Warn("fetching the full description failed, using the snippet", zap.Error(err))
		full = selected
	}

	target := full.Target()
	weights, _, err := scoring.LoadWeights(config.Scoring.WeightsFile)
	if err != nil {
		logger.Warn("weights file is not usable, using defaults", zap.Error(err))
	}
	report := scoring.ScoreTarget(target, weights)

	path := cmd.Flag("save").Value.String()
	if err := intake.SaveTarget(path, target); err != nil {
		logger.Fatal("saving the target", zap.Error(err))
	}

	logger.Info("target saved",
		zap.String("filename", path),
		zap.String("vacancy_id", target.ID),
		zap.Float64("target_score", report.Total),
		zap.String("hint", "set target.file in the config to use it"),
	)
}

var errExit = errors.New("exit requested")

func selectVacancy(vacancies *headhunter.Vacancies) (*headhunter.Vacancy, error) {
	items := make([]string, 0, vacancies.Len()+1)
	for _, v := range vacancies.Items {
		items = append(items, fmt.Sprintf("%s %s", v.ID, v.Label()))
	}

	prompt := promptui.Select{
		Label: "Choose a vacancy and press ENTER",
		Items: append(items, PromptExit),
		Size:  15,
	}

	_, selected, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	if selected == PromptExit {
		return nil, errExit
	}

	id := strings.Split(selected, " ")[0]
	vacancy := vacancies.FindByID(id)
	if vacancy == nil {
		return nil, fmt.Errorf("there is no such vacancy id %s", id)
	}
	return vacancy, nil
}

// resolveToken returns an empty token when none is configured; search works
// anonymously.
func resolveToken(config *HeadhunterConfig, logger *zap.Logger) string {
	if config == nil {
		return ""
	}
	src := config.Token
	if src.Value == "" && src.File == "" && src.Env == "" {
		return ""
	}
	src.Name = "headhunter token"

	token, err := secrets.Load(src)
	if err != nil {
		logger.Warn("headhunter token is not usable, searching anonymously", zap.Error(err))
		return ""
	}
	return token
}
