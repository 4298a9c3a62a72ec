package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/lint"
	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

var (
	lintFix    bool
	lintBackup bool
	lintOut    string
)

var lintCmd = &cobra.Command{
	Use:   "lint [ledger.tsv]",
	Short: "Scan the appearance ledger for data-quality issues",
	Long: "Checks dates, company names, locations and ledger integrity. " +
		"With --fix, pattern-matched issues are repaired and the ledger rewritten; " +
		"integrity violations are always reported, never auto-fixed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "apply pattern-matched repairs and rewrite the ledger")
	lintCmd.Flags().BoolVar(&lintBackup, "backup", false, "write a .bak copy before rewriting")
	lintCmd.Flags().StringVarP(&lintOut, "output", "o", "", "write the repaired ledger here instead of in place")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	ledgerPath := cfg.Timeline.AppearancesPath
	if len(args) == 1 {
		ledgerPath = args[0]
	}

	table, err := normalize.LoadCorruptionTable(cfg.Timeline.CorruptionTable)
	if err != nil {
		return eris.Wrap(err, "loading corruption table")
	}

	led, malformed, err := ledger.Load(ledgerPath)
	if err != nil {
		return eris.Wrapf(err, "loading ledger %s", ledgerPath)
	}

	linter := lint.New(table, lint.DefaultChecks())

	if !lintFix {
		issues := linter.Scan(led, malformed)
		printIssues(issues)
		if countSeverity(issues, model.SeverityError) > 0 {
			return eris.Errorf("%d errors found", countSeverity(issues, model.SeverityError))
		}
		return nil
	}

	if lintBackup {
		if err := copyFile(ledgerPath, ledgerPath+".bak"); err != nil {
			return eris.Wrap(err, "writing backup")
		}
		zap.L().Info("backup written", zap.String("path", ledgerPath+".bak"))
	}

	fixed, issues := linter.Repair(led, malformed, true)
	printIssues(issues)

	outPath := ledgerPath
	if lintOut != "" {
		outPath = lintOut
	}
	if err := ledger.Save(outPath, fixed); err != nil {
		return eris.Wrapf(err, "saving repaired ledger %s", outPath)
	}

	var fixedN, droppedN int
	for _, is := range issues {
		if is.Fixed {
			fixedN++
		}
		if is.Dropped {
			droppedN++
		}
	}
	fmt.Printf("%d issues, %d fixed, %d rows dropped, ledger written to %s\n",
		len(issues), fixedN, droppedN, outPath)
	return nil
}

func printIssues(issues []model.Issue) {
	for _, is := range issues {
		suffix := ""
		if is.Fixed {
			suffix = " [fixed]"
		}
		if is.Dropped {
			suffix = " [dropped]"
		}
		fmt.Printf("%s %s %s: %s%s\n", is.Severity, is.Category, is.RecordKey, is.Description, suffix)
	}
}

func countSeverity(issues []model.Issue, sev model.IssueSeverity) int {
	n := 0
	for _, is := range issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
