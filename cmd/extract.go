package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/archive"
	"github.com/rouki-watch/rouki-cli/internal/extract"
	"github.com/rouki-watch/rouki-cli/internal/fetcher"
	"github.com/rouki-watch/rouki-cli/internal/ocr"
)

var (
	extractOut    string
	extractBureau string
	extractText   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <publication.pdf|publication.txt>",
	Short: "Extract company records from a publication PDF into a snapshot TSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "output", "o", "", "snapshot TSV path (default input with .tsv extension)")
	extractCmd.Flags().StringVar(&extractBureau, "bureau", "", "initial labor bureau for pages missing a header")
	extractCmd.Flags().BoolVar(&extractText, "text", false, "treat the input as already-extracted layout text")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	inPath := args[0]

	var text string
	if extractText || strings.HasSuffix(inPath, ".txt") {
		data, err := os.ReadFile(inPath)
		if err != nil {
			return eris.Wrapf(err, "reading %s", inPath)
		}
		text = string(data)
	} else {
		extractor, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}
		text, err = extractor.ExtractText(cmd.Context(), inPath)
		if err != nil {
			return eris.Wrapf(err, "extracting text from %s", inPath)
		}
	}

	records := extract.FromLayoutText(text, extractBureau)
	if len(records) == 0 {
		records = extract.FromTabular(text)
	}
	if len(records) == 0 {
		return eris.Errorf("no records found in %s", inPath)
	}

	outPath := extractOut
	if outPath == "" {
		outPath = strings.TrimSuffix(strings.TrimSuffix(inPath, ".pdf"), ".txt") + ".tsv"
	}
	if err := extract.WriteSnapshot(outPath, records); err != nil {
		return eris.Wrapf(err, "writing snapshot %s", outPath)
	}

	if err := recordExtraction(cmd, inPath, outPath, len(records)); err != nil {
		zap.L().Warn("could not record extraction in document index", zap.Error(err))
	}

	zap.L().Info("extraction complete",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("records", len(records)))
	fmt.Printf("%d records -> %s\n", len(records), outPath)
	return nil
}

// recordExtraction links the snapshot back to the archived document, if
// the input PDF is in the index.
func recordExtraction(cmd *cobra.Command, inPath, outPath string, rows int) error {
	sha, err := hashIfFile(inPath)
	if err != nil || sha == "" {
		return err
	}
	store, err := archive.Open(cmd.Context(), cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.FindBySHA256(cmd.Context(), sha)
	if err != nil || doc == nil {
		return err
	}
	_, err = store.RecordExtraction(cmd.Context(), archive.Extraction{
		DocumentID:   doc.ID,
		RowCount:     rows,
		SnapshotPath: outPath,
		ExtractedAt:  time.Now().UTC(),
	})
	return err
}

func hashIfFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", nil
	}
	return fetcher.HashFile(path)
}
