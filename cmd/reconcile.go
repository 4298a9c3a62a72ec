package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/config"
	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
	"github.com/rouki-watch/rouki-cli/internal/reconcile"
	"github.com/rouki-watch/rouki-cli/internal/snapshot"
)

var (
	reconcileDate        string
	reconcileLedgerPath  string
	reconcileChangesPath string
	reconcileForce       bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <snapshot.tsv>",
	Short: "Apply a publication snapshot to the appearance ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&reconcileDate, "date", "d", "", "observation date YYYY-MM-DD (default today)")
	reconcileCmd.Flags().StringVarP(&reconcileLedgerPath, "appearances", "a", "", "appearance ledger path (overrides config)")
	reconcileCmd.Flags().StringVarP(&reconcileChangesPath, "changes", "c", "", "change log path (overrides config)")
	reconcileCmd.Flags().BoolVar(&reconcileForce, "force", false, "allow an observation date older than the latest change-log entry")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	snapshotPath := args[0]

	ledgerPath := cfg.Timeline.AppearancesPath
	if reconcileLedgerPath != "" {
		ledgerPath = reconcileLedgerPath
	}
	changesPath := cfg.Timeline.ChangesPath
	if reconcileChangesPath != "" {
		changesPath = reconcileChangesPath
	}

	observed := time.Now().UTC().Truncate(24 * time.Hour)
	if reconcileDate != "" {
		var err error
		observed, err = model.ParseDate(reconcileDate)
		if err != nil {
			return eris.Wrapf(err, "invalid --date %q", reconcileDate)
		}
	}

	if latest, ok, err := reconcile.LatestDate(changesPath); err != nil {
		return eris.Wrap(err, "reading change log")
	} else if ok && observed.Before(latest) && !reconcileForce {
		return eris.Errorf("observation date %s predates latest change-log entry %s (use --force to override)",
			model.FormatDate(observed), model.FormatDate(latest))
	}

	table, err := normalize.LoadCorruptionTable(cfg.Timeline.CorruptionTable)
	if err != nil {
		return eris.Wrap(err, "loading corruption table")
	}

	snap, snapStats, err := snapshot.Load(snapshotPath, normalize.New(table))
	if err != nil {
		return eris.Wrapf(err, "loading snapshot %s", snapshotPath)
	}

	led, malformed, err := ledger.Load(ledgerPath)
	if err != nil {
		return eris.Wrapf(err, "loading ledger %s", ledgerPath)
	}
	if len(malformed) > 0 {
		return eris.Errorf("ledger %s has %d malformed rows, run lint first", ledgerPath, len(malformed))
	}

	gap, err := gapInterval(cfg.Gap)
	if err != nil {
		return err
	}
	engine := reconcile.Engine{Gap: gap}

	event, stats, err := engine.Reconcile(led, snap, observed)
	if err != nil {
		return eris.Wrap(err, "reconciling")
	}

	if err := ledger.Save(ledgerPath, led); err != nil {
		return eris.Wrapf(err, "saving ledger %s", ledgerPath)
	}
	if err := reconcile.AppendChange(changesPath, event); err != nil {
		return eris.Wrapf(err, "appending change log %s", changesPath)
	}

	zap.L().Info("reconcile complete",
		zap.String("date", model.FormatDate(observed)),
		zap.Int("added", stats.Added),
		zap.Int("removed", stats.Removed),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("skipped", snapStats.Skipped()),
		zap.Int("total_active", event.TotalActive))

	fmt.Printf("%s: +%d -%d =%d active, %d rows skipped\n",
		model.FormatDate(observed), stats.Added, stats.Removed, event.TotalActive, snapStats.Skipped())
	return nil
}

func gapInterval(gc config.GapConfig) (reconcile.GapInterval, error) {
	var gap reconcile.GapInterval
	if gc.Start == "" || gc.End == "" {
		return gap, nil
	}
	start, err := model.ParseDate(gc.Start)
	if err != nil {
		return gap, eris.Wrapf(err, "invalid gap start %q", gc.Start)
	}
	end, err := model.ParseDate(gc.End)
	if err != nil {
		return gap, eris.Wrapf(err, "invalid gap end %q", gc.End)
	}
	return reconcile.GapInterval{Start: start, End: end}, nil
}
