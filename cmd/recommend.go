package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/feedback"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/recommend"
)

const (
	PromptBack = "back"
	PromptExit = "exit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "What do you think about it?",
	Items: []string{
		string(feedback.ActionLike),
		string(feedback.ActionDislike),
		string(feedback.ActionFavorite),
		string(feedback.ActionUnfavorite),
		PromptBack,
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend vacancies for a candidate profile",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("profile", "p", "", "a JSON file with the candidate profile")
	recommendCmd.Flags().StringP("user", "u", "", "user id; the stored profile is used when --profile is not set")
	recommendCmd.Flags().IntP("limit", "l", 0, "how many vacancies to return (default is recommend.limit from config)")
	recommendCmd.Flags().Bool("explain", false, "attach the criteria breakdown to every vacancy")
	recommendCmd.Flags().BoolP("interactive", "i", false, "choose vacancies and leave feedback after every ranking")
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	profilePath, _ := cmd.Flags().GetString("profile")
	userID, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	explain, _ := cmd.Flags().GetBool("explain")
	interactive, _ := cmd.Flags().GetBool("interactive")

	kv := rt.kv(ctx)
	profiles := candidate.NewStore(kv)
	prefs := preference.NewStore(kv, rt.logger)

	profile, userID := loadProfile(ctx, rt.logger, profiles, profilePath, userID)
	if interactive && userID == "" {
		rt.logger.Fatal("user id is required in interactive mode", zap.String("hint", "set --user or an id in the profile file"))
	}

	engine := rt.engine(ctx)
	service := feedback.NewService(engine, prefs, rt.logger)

	for {
		var vector *preference.Vector
		if userID != "" {
			var err error
			vector, err = prefs.Get(ctx, userID)
			if err != nil {
				rt.logger.Fatal("loading preferences", zap.Error(err))
			}
		}

		recs, err := engine.Recommend(ctx, profile, vector, rt.limit(limit))
		if err != nil {
			rt.logger.Fatal("recommending vacancies", zap.Error(err))
		}

		rt.logger.Info("current list of vacancies", zap.Int("count", len(recs)))

		var out any = recs
		if explain {
			out = recommend.Explain(profile, recs)
		}
		if err := printJSON(out); err != nil {
			rt.logger.Fatal("printing recommendations", zap.Error(err))
		}

		if !interactive || len(recs) == 0 {
			return
		}

		if err := leaveFeedback(ctx, rt.logger, service, userID, recs); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			rt.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// loadProfile reads the profile from a file, or from storage by user id. The
// returned user id falls back to the profile id.
func loadProfile(ctx context.Context, logger *zap.Logger, profiles *candidate.Store, path, userID string) (*candidate.Profile, string) {
	userID = strings.TrimSpace(userID)

	if path != "" {
		profile, err := candidate.ReadFile(path)
		if err != nil {
			logger.Fatal("reading a profile", zap.Error(err))
		}
		if userID == "" {
			userID = profile.ID
		}
		return profile, userID
	}

	if userID == "" {
		logger.Fatal("a profile is required", zap.String("hint", "set --profile or --user"))
	}

	profile, err := profiles.Load(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			logger.Fatal("no stored profile for the user",
				zap.String("user_id", userID),
				zap.String("hint", "save one with the profile command"),
			)
		}
		logger.Fatal("loading a profile", zap.Error(err))
	}
	return profile, userID
}

// leaveFeedback lets the user pick one of the ranked vacancies and react to it.
func leaveFeedback(ctx context.Context, logger *zap.Logger, service *feedback.Service, userID string, recs []recommend.Recommendation) error {
	items := make([]string, 0, len(recs)+1)
	for _, rec := range recs {
		items = append(items, fmt.Sprintf("%s %s / %s / %.3f",
			rec.Vacancy.ID, rec.Vacancy.Title, rec.Vacancy.Company, rec.Score,
		))
	}

	vacancyPrompt := promptui.Select{
		Label: "Choose a vacancy and press ENTER",
		Items: append(items, PromptExit),
	}

	_, selected, err := vacancyPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptExit {
		return errExit
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}
	if action == PromptBack {
		return nil
	}

	vacancyID := strings.Split(selected, " ")[0]
	message, err := service.Handle(ctx, userID, feedback.Event{
		Action:    feedback.Action(action),
		VacancyID: vacancyID,
	})
	if err != nil {
		return err
	}

	logger.Info(message)
	return nil
}
