package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/feedback"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record a like, dislike or favorite for a vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		runFeedback(cmd)
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List the favorite vacancies of a user",
	Run: func(cmd *cobra.Command, _ []string) {
		runFavorites(cmd)
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(favoritesCmd)

	feedbackCmd.Flags().StringP("user", "u", "", "user id")
	feedbackCmd.Flags().StringP("vacancy", "v", "", "vacancy id")
	feedbackCmd.Flags().StringP("action", "a", "", "one of like, dislike, favorite, unfavorite")
	feedbackCmd.MarkFlagRequired("user")
	feedbackCmd.MarkFlagRequired("vacancy")
	feedbackCmd.MarkFlagRequired("action")

	favoritesCmd.Flags().StringP("user", "u", "", "user id")
	favoritesCmd.MarkFlagRequired("user")
}

// feedbackService resolves vacancies against the raw corpus; nothing is embedded.
func feedbackService(ctx context.Context, rt *runtime) *feedback.Service {
	corpus := vacancy.NewCorpus(rt.vacancies(ctx))
	prefs := preference.NewStore(rt.kv(ctx), rt.logger)
	return feedback.NewService(catalog{corpus: corpus}, prefs, rt.logger)
}

func runFeedback(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	userID, _ := cmd.Flags().GetString("user")
	vacancyID, _ := cmd.Flags().GetString("vacancy")
	action, _ := cmd.Flags().GetString("action")

	message, err := feedbackService(ctx, rt).Handle(ctx, userID, feedback.Event{
		Action:    feedback.Action(action),
		VacancyID: vacancyID,
	})
	if err != nil {
		rt.logger.Fatal("recording feedback", zap.Error(err))
	}

	rt.logger.Info(message)
}

func runFavorites(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	userID, _ := cmd.Flags().GetString("user")

	favorites, err := feedbackService(ctx, rt).Favorites(ctx, userID)
	if err != nil {
		rt.logger.Fatal("listing favorites", zap.Error(err))
	}

	rt.logger.Info("favorite vacancies", zap.String("user_id", userID), zap.Int("count", len(favorites)))
	if err := printJSON(favorites); err != nil {
		rt.logger.Fatal("printing favorites", zap.Error(err))
	}
}
