package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/export"
	"github.com/spigell/jobmatcher/internal/scoring"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a profile against every vacancy, or candidates against one vacancy",
	Long: `Score runs the multi-criteria scorer in one of two directions:
  --profile FILE                      best vacancies for the candidate
  --vacancy ID --candidates FILE      best candidates for the vacancy
The results can be saved as an Excel report with --export.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runScore(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("profile", "p", "", "a JSON file with the candidate profile")
	scoreCmd.Flags().StringP("vacancy", "v", "", "vacancy id to rank candidates for")
	scoreCmd.Flags().StringP("candidates", "c", "", "a JSON file with an array of candidate profiles")
	scoreCmd.Flags().IntP("limit", "l", 0, "how many results to keep (default is all)")
	scoreCmd.Flags().StringP("export", "o", "", "write an Excel report to this path")
	scoreCmd.Flags().String("title", "Match report", "report title")
	scoreCmd.MarkFlagsMutuallyExclusive("profile", "vacancy")
	scoreCmd.MarkFlagsRequiredTogether("vacancy", "candidates")
	scoreCmd.MarkFlagsOneRequired("profile", "vacancy")
}

func runScore(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	profilePath, _ := cmd.Flags().GetString("profile")
	vacancyID, _ := cmd.Flags().GetString("vacancy")
	candidatesPath, _ := cmd.Flags().GetString("candidates")
	limit, _ := cmd.Flags().GetInt("limit")
	exportPath, _ := cmd.Flags().GetString("export")
	title, _ := cmd.Flags().GetString("title")

	corpus := vacancy.NewCorpus(rt.vacancies(ctx))

	var results []scoring.MatchResult
	if vacancyID != "" {
		v, ok := corpus.Get(vacancyID)
		if !ok {
			rt.logger.Fatal("vacancy not found", zap.String("vacancy_id", vacancyID))
		}

		profiles, err := candidate.ReadFiles(candidatesPath)
		if err != nil {
			rt.logger.Fatal("reading candidates", zap.Error(err))
		}

		results = scoring.BestCandidates(v, profiles, limit)
	} else {
		profile, err := candidate.ReadFile(profilePath)
		if err != nil {
			rt.logger.Fatal("reading a profile", zap.Error(err))
		}

		results = scoring.BestVacancies(profile, corpus.All(), limit)
	}

	rt.logger.Info("scored matches", zap.Int("count", len(results)))

	if exportPath != "" {
		path, err := export.ToExcel(results, title, exportPath)
		if err != nil {
			rt.logger.Fatal("exporting the report", zap.Error(err))
		}
		rt.logger.Info("match report saved", zap.String("filename", path))
		return
	}

	if err := printJSON(results); err != nil {
		rt.logger.Fatal("printing results", zap.Error(err))
	}
}
