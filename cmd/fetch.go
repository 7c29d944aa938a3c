package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/config"
	"newsdesk/internal/imagegen"
	"newsdesk/internal/newsapi"
	"newsdesk/internal/pipeline"
	"newsdesk/internal/redisclient"
	"newsdesk/internal/runstate"
	"newsdesk/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	fetchFrom string
	fetchTo   string
)

// fetchCmd ingests one batch of workplace news articles.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and process workplace news with optional date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := context.Background()

		var from, to time.Time
		if (fetchFrom == "") != (fetchTo == "") {
			return fmt.Errorf("both --from and --to must be set for a date range")
		}
		if fetchFrom != "" {
			var err error
			if from, err = time.Parse("2006-01-02", fetchFrom); err != nil {
				return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
			}
			if to, err = time.Parse("2006-01-02", fetchTo); err != nil {
				return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
			}
		}

		slog.Info("fetch: starting news ingestion", "from", fetchFrom, "to", fetchTo)

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		st := store.NewArticleStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		src := newsapi.NewClient(cfg.NewsAPI)
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

		ing := pipeline.NewIngestor(src, aic, aic, img, st)
		report, err := ing.Run(ctx, from, to)
		if err != nil {
			return err
		}

		saveRunReport(ctx, cfg, report)

		fmt.Fprintf(cmd.OutOrStdout(), "Ingestion complete: %d saved, %d skipped, %d failed\n",
			report.Count(pipeline.OutcomeSaved),
			report.Count(pipeline.OutcomeSkipped),
			report.Count(pipeline.OutcomeFailed))
		// Per-article failures are already in the report; only a fetch-side
		// failure fails the command.
		for _, f := range report.Failures() {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s (%s): %s\n", f.Title, f.SourceURL, f.Error)
		}
		return nil
	},
}

// saveRunReport records the run for the review API; failures only warn.
func saveRunReport(ctx context.Context, cfg config.Config, report *pipeline.Report) {
	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()
	if err := runstate.New(rdb).SaveReport(ctx, report.Kind, report); err != nil {
		slog.Warn("run report not recorded", "kind", report.Kind, "err", err)
	}
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD)")
}
