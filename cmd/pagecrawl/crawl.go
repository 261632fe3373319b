package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pagecrawl/internal/app"
	"pagecrawl/internal/config"
	"pagecrawl/internal/storage"
)

var (
	flagJob   string
	flagStore bool
	flagLimit int
)

func init() {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl job and print the result as JSON",
		RunE:  runCrawl,
	}

	crawlCmd.Flags().StringVar(&flagJob, "job", "", "path to the job YAML file")
	crawlCmd.Flags().BoolVar(&flagStore, "store", false, "save records into the configured storage")
	crawlCmd.Flags().IntVar(&flagLimit, "limit", 0, "keep at most N records (0 means all)")
	_ = crawlCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	d, err := bootstrap()
	if err != nil {
		return err
	}
	defer d.close()

	job, err := config.LoadJob(flagJob)
	if err != nil {
		return err
	}

	ctx, cancel := app.GracefulShutdown(cmd.Context(), d.logger)
	defer cancel()

	var opts []app.RunOption
	if flagLimit > 0 {
		opts = append(opts, app.WithLimit(flagLimit))
	}
	result := d.orchestrator.Run(ctx, job, opts...)

	if err := writeJSON(os.Stdout, result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("crawl failed: %s", result.Error)
	}

	if flagStore {
		return storeResult(ctx, d, job.Source, result)
	}
	return nil
}

func storeResult(ctx context.Context, d *deps, source string, result *app.CrawlResult) error {
	repo, err := openRepository(d.cfg, d.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			d.logger.Error("Failed to close repository", "error", err.Error())
		}
	}()

	run := storage.CrawlRun{RunID: result.RunID, Source: source, CrawledAt: result.StartedAt}
	saved, err := repo.SaveRecords(ctx, run, result.Data)
	if err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	d.logger.Info("Stored crawl result", "run_id", result.RunID, "saved", saved, "total", len(result.Data))
	return nil
}
