package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/vacancy"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert vacancies from a JSON file into postgres",
	Run: func(cmd *cobra.Command, _ []string) {
		runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("file", "f", "", "a JSON file with an array of vacancies")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap()
	defer rt.close()

	file, _ := cmd.Flags().GetString("file")

	records, err := vacancy.NewFileSource(file).Load(ctx)
	if err != nil {
		rt.logger.Fatal("reading vacancies", zap.Error(err))
	}

	source := vacancy.NewPostgresSource(rt.postgres(ctx), rt.logger)
	if err := source.EnsureSchema(ctx); err != nil {
		rt.logger.Fatal("preparing the schema", zap.Error(err))
	}

	count, err := source.Upsert(ctx, records)
	if err != nil {
		rt.logger.Fatal("importing vacancies", zap.Error(err))
	}

	rt.logger.Info("vacancies imported", zap.String("filename", file), zap.Int("count", count))
}
