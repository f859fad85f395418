package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/ai/gemini"
	"github.com/spigell/jobmatcher/internal/candidate"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored candidate profiles",
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store a profile from a JSON file",
	Run: func(cmd *cobra.Command, _ []string) {
		runProfileSave(cmd)
	},
}

var profileExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a profile from a plain text resume with Gemini and store it",
	Run: func(cmd *cobra.Command, _ []string) {
		runProfileExtract(cmd)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile of a user",
	Run: func(cmd *cobra.Command, _ []string) {
		runProfileShow(cmd)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSaveCmd, profileExtractCmd, profileShowCmd)

	for _, c := range []*cobra.Command{profileSaveCmd, profileExtractCmd, profileShowCmd} {
		c.Flags().StringP("user", "u", "", "user id")
	}

	profileSaveCmd.Flags().StringP("file", "f", "", "a JSON file with the candidate profile")
	profileSaveCmd.MarkFlagRequired("file")

	profileExtractCmd.Flags().StringP("resume", "r", "", "a text file with the resume")
	profileExtractCmd.MarkFlagRequired("resume")
	profileExtractCmd.MarkFlagRequired("user")

	profileShowCmd.MarkFlagRequired("user")
}

func runProfileSave(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	file, _ := cmd.Flags().GetString("file")
	userID, _ := cmd.Flags().GetString("user")

	profile, err := candidate.ReadFile(file)
	if err != nil {
		rt.logger.Fatal("reading a profile", zap.Error(err))
	}
	if userID = strings.TrimSpace(userID); userID != "" {
		profile.ID = userID
	}

	if err := candidate.NewStore(rt.kv(ctx)).Save(ctx, profile); err != nil {
		rt.logger.Fatal("saving a profile", zap.Error(err))
	}

	rt.logger.Info("profile saved", zap.String("user_id", profile.ID))
}

func runProfileExtract(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	resumePath, _ := cmd.Flags().GetString("resume")
	userID, _ := cmd.Flags().GetString("user")

	text, err := os.ReadFile(resumePath)
	if err != nil {
		rt.logger.Fatal("reading the resume", zap.Error(err))
	}

	g := rt.geminiConfig()
	extractor, err := gemini.NewExtractor(ctx, rt.geminiKey(), gemini.ExtractorConfig{
		Model:        g.ExtractModel,
		MaxRetries:   g.MaxRetries,
		MaxLogLength: g.MaxLogLength,
	}, rt.logger)
	if err != nil {
		rt.logger.Fatal("creating gemini extractor", zap.Error(err))
	}

	profile, err := extractor.Extract(ctx, strings.TrimSpace(userID), string(text))
	if err != nil {
		rt.logger.Fatal("extracting a profile", zap.Error(err))
	}

	if err := candidate.NewStore(rt.kv(ctx)).Save(ctx, profile); err != nil {
		rt.logger.Fatal("saving a profile", zap.Error(err))
	}

	rt.logger.Info("profile extracted", zap.String("user_id", profile.ID), zap.Int("skills", len(profile.HardSkills)))
	if err := printJSON(profile); err != nil {
		rt.logger.Fatal("printing the profile", zap.Error(err))
	}
}

func runProfileShow(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	userID, _ := cmd.Flags().GetString("user")

	profile, err := candidate.NewStore(rt.kv(ctx)).Load(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			rt.logger.Fatal("no stored profile for the user", zap.String("user_id", userID))
		}
		rt.logger.Fatal("loading a profile", zap.Error(err))
	}

	if err := printJSON(profile); err != nil {
		rt.logger.Fatal("printing the profile", zap.Error(err))
	}
}
