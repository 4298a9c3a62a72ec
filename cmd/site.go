package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/reconcile"
	"github.com/rouki-watch/rouki-cli/internal/site"
)

var siteDocsDir string

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Generate the static site from the ledger and change log",
	RunE:  runSite,
}

func init() {
	siteCmd.Flags().StringVar(&siteDocsDir, "docs", "", "output directory (overrides config)")
	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, args []string) error {
	docsDir := cfg.Site.DocsDir
	if siteDocsDir != "" {
		docsDir = siteDocsDir
	}

	led, malformed, err := ledger.Load(cfg.Timeline.AppearancesPath)
	if err != nil {
		return eris.Wrapf(err, "loading ledger %s", cfg.Timeline.AppearancesPath)
	}
	if len(malformed) > 0 {
		return eris.Errorf("ledger has %d malformed rows, run lint first", len(malformed))
	}

	changes, err := reconcile.LoadChanges(cfg.Timeline.ChangesPath)
	if err != nil {
		return eris.Wrapf(err, "loading change log %s", cfg.Timeline.ChangesPath)
	}

	records := led.All()
	stats := site.Compute(records, changes, time.Now())
	if err := site.Generate(docsDir, records, changes, stats); err != nil {
		return err
	}

	fmt.Printf("site written to %s (%d records, %d changes)\n", docsDir, len(records), len(changes))
	return nil
}
