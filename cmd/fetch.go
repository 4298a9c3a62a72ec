package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/archive"
	"github.com/rouki-watch/rouki-cli/internal/fetcher"
)

var fetchSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download publication PDFs into the archive",
	Long: "Pulls PDFs from the MHLW page, the Wayback Machine captures and the " +
		"configured H-CRISIS mirrors, deduplicating by URL and content hash " +
		"against the document index.",
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "all", "which source to pull: latest, wayback, hcrisis or all")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f := fetcher.NewHTTP(fetcher.HTTPOptions{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:    cfg.Fetch.MaxRetries,
		RatePerSecond: cfg.Fetch.RatePerSecond,
	})

	var jobs []fetcher.Job
	switch fetchSource {
	case "latest":
		job, err := f.LatestJob(ctx, cfg.Fetch.MHLWPageURL)
		if err != nil {
			return err
		}
		jobs = []fetcher.Job{job}
	case "wayback":
		jobs = fetcher.WaybackJobs()
	case "hcrisis":
		jobs = fetcher.HCrisisJobs(cfg.Fetch.HCrisisSources)
	case "all":
		jobs = append(jobs, fetcher.WaybackJobs()...)
		jobs = append(jobs, fetcher.HCrisisJobs(cfg.Fetch.HCrisisSources)...)
		if job, err := f.LatestJob(ctx, cfg.Fetch.MHLWPageURL); err != nil {
			zap.L().Warn("could not resolve latest publication PDF", zap.Error(err))
		} else {
			jobs = append(jobs, job)
		}
	default:
		return eris.Errorf("unknown source %q", fetchSource)
	}

	store, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		return eris.Wrap(err, "opening document index")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrating document index")
	}

	stats, err := f.Run(ctx, jobs, cfg.Archive.PDFDir, store, cfg.Fetch.MaxConcurrent)
	if err != nil {
		return err
	}

	fmt.Printf("%d downloaded, %d skipped, %d failed\n",
		stats.Downloaded, stats.Skipped, stats.Failed)
	if stats.Failed > 0 {
		return eris.Errorf("%d downloads failed", stats.Failed)
	}
	return nil
}
