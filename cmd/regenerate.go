package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"newsdesk/internal/ai"
	"newsdesk/internal/imagegen"
	"newsdesk/internal/pipeline"
	"newsdesk/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	regenAnalyze  bool
	regenLinkedIn bool
	regenImage    bool
	regenAll      bool
)

// regenerateCmd re-runs enrichment for one or all stored articles.
var regenerateCmd = &cobra.Command{
	Use:   "regenerate [article_id]",
	Short: "Regenerate specific aspects of one or all news articles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := context.Background()

		sel := pipeline.Selection{
			Analysis: regenAnalyze || regenAll,
			Post:     regenLinkedIn || regenAll,
			Image:    regenImage || regenAll,
		}
		if !sel.Any() {
			slog.Warn("no regeneration options selected; use --analyze, --linkedin, --image, or --all")
			return nil
		}

		var articleID int64
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			articleID = id
		}

		slog.Info("regenerate: starting",
			"article_id", articleID,
			"analysis", sel.Analysis, "post", sel.Post, "image", sel.Image)

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		st := store.NewArticleStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		aic := ai.New(ai.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			ChatModel:      cfg.OpenAI.ChatModel,
			AnalysisModel:  cfg.OpenAI.AnalysisModel,
			ContentContext: cfg.OpenAI.ContentContext,
			PostLanguage:   cfg.OpenAI.PostLanguage,
		})
		img := imagegen.NewDallE(imagegen.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			ChatModel:  cfg.OpenAI.ChatModel,
			ImageModel: cfg.Image.Model,
			Size:       cfg.Image.Size,
			Quality:    cfg.Image.Quality,
			StorageDir: cfg.Image.StorageDir,
		})

		reg := pipeline.NewRegenerator(aic, aic, img, st)
		report, err := reg.Run(ctx, articleID, sel)
		if err != nil {
			return err
		}

		saveRunReport(ctx, cfg, report)

		fmt.Fprintf(cmd.OutOrStdout(), "Regeneration complete: %d updated, %d skipped, %d failed\n",
			report.Count(pipeline.OutcomeUpdated),
			report.Count(pipeline.OutcomeSkipped),
			report.Count(pipeline.OutcomeFailed))
		if report.HasFailures() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Errors encountered:")
			for _, f := range report.Failures() {
				fmt.Fprintf(cmd.ErrOrStderr(), "article #%d - %s: %s\n", f.ArticleID, f.Title, f.Error)
			}
			return fmt.Errorf("%d articles failed during regeneration", report.Count(pipeline.OutcomeFailed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regenerateCmd)
	regenerateCmd.Flags().BoolVar(&regenAnalyze, "analyze", false, "regenerate category, summary, and relevance score")
	regenerateCmd.Flags().BoolVar(&regenLinkedIn, "linkedin", false, "regenerate LinkedIn post")
	regenerateCmd.Flags().BoolVar(&regenImage, "image", false, "regenerate image")
	regenerateCmd.Flags().BoolVar(&regenAll, "all", false, "regenerate everything")
}
