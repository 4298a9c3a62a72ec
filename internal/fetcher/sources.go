package fetcher

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rouki-watch/rouki-cli/internal/archive"
	"github.com/rouki-watch/rouki-cli/internal/config"
)

// Source identifiers recorded in the document index.
const (
	SourceMHLW    = "mhlw"
	SourceWayback = "wayback"
	SourceHCrisis = "hcrisis"
)

// pdfLinkRe matches the publication PDF link on the MHLW page,
// e.g. href="/content/001527991.pdf".
var pdfLinkRe = regexp.MustCompile(`href="(/content/\d+\.pdf)"`)

// waybackSnapshots lists the archive.org captures of the original
// publication URL from before the page moved. The if_ marker makes
// archive.org serve the raw file instead of the replay banner.
var waybackSnapshots = []string{
	"20170510130509", "20170601175704", "20170629074816", "20170803143610",
	"20170825030103", "20170901051945", "20171007124050", "20171118150048",
	"20171228054905", "20180131040742", "20180302010953", "20180402212926",
	"20180507075929", "20180604070156", "20180701014448", "20180726081611",
}

const waybackOriginalURL = "http://www.mhlw.go.jp/kinkyu/dl/170510-01.pdf"

// Job is one PDF to pull into the archive.
type Job struct {
	Source      string
	URL         string
	PublishedAt string
	Filename    string
}

// FindLatestPDF scrapes the MHLW publication page and returns the URL
// of the current PDF.
func (f *HTTPFetcher) FindLatestPDF(ctx context.Context, pageURL string) (string, error) {
	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return "", eris.Wrap(err, "fetching publication page")
	}
	m := pdfLinkRe.FindSubmatch(body)
	if m == nil {
		return "", eris.Errorf("no PDF link found on %s", pageURL)
	}
	return "https://www.mhlw.go.jp" + string(m[1]), nil
}

// LatestJob builds the download job for today's publication.
func (f *HTTPFetcher) LatestJob(ctx context.Context, pageURL string) (Job, error) {
	pdfURL, err := f.FindLatestPDF(ctx, pageURL)
	if err != nil {
		return Job{}, err
	}
	today := time.Now().Format("2006-01-02")
	return Job{
		Source:      SourceMHLW,
		URL:         pdfURL,
		PublishedAt: today,
		Filename:    fmt.Sprintf("%s_%s", today, path.Base(pdfURL)),
	}, nil
}

// WaybackJobs returns download jobs for every known archive.org capture.
func WaybackJobs() []Job {
	jobs := make([]Job, 0, len(waybackSnapshots))
	for _, ts := range waybackSnapshots {
		date := fmt.Sprintf("%s-%s-%s", ts[:4], ts[4:6], ts[6:8])
		jobs = append(jobs, Job{
			Source:      SourceWayback,
			URL:         fmt.Sprintf("https://web.archive.org/web/%sif_/%s", ts, waybackOriginalURL),
			PublishedAt: date,
			Filename:    fmt.Sprintf("%s_%s", date, path.Base(waybackOriginalURL)),
		})
	}
	return jobs
}

// HCrisisJobs converts configured H-CRISIS mirror entries into jobs.
func HCrisisJobs(sources []config.HCrisisSource) []Job {
	jobs := make([]Job, 0, len(sources))
	for _, s := range sources {
		jobs = append(jobs, Job{
			Source:      SourceHCrisis,
			URL:         s.URL,
			PublishedAt: s.Date,
			Filename:    fmt.Sprintf("%s_%s", s.Date, path.Base(s.URL)),
		})
	}
	return jobs
}

// RunStats summarizes a fetch run.
type RunStats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Run downloads each job into pdfDir, skipping URLs already present in
// the document index and deduplicating by content hash afterwards.
func (f *HTTPFetcher) Run(ctx context.Context, jobs []Job, pdfDir string, store archive.Store, maxConcurrent int) (RunStats, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	type outcome struct {
		job Job
		res *DownloadResult
		err error
	}
	outcomes := make([]outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, job := range jobs {
		g.Go(func() error {
			existing, err := store.FindByURL(gctx, job.URL)
			if err != nil {
				outcomes[i] = outcome{job: job, err: err}
				return nil
			}
			if existing != nil {
				outcomes[i] = outcome{job: job}
				return nil
			}
			year := "unknown"
			if len(job.PublishedAt) >= 4 {
				year = job.PublishedAt[:4]
			}
			dest := path.Join(pdfDir, year, job.Filename)
			res, err := f.DownloadToFile(gctx, job.URL, dest)
			outcomes[i] = outcome{job: job, res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunStats{}, err
	}

	var stats RunStats
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			stats.Failed++
			zap.L().Warn("fetch failed",
				zap.String("url", o.job.URL),
				zap.Error(o.err))
		case o.res == nil:
			stats.Skipped++
		default:
			dup, err := store.FindBySHA256(ctx, o.res.SHA256)
			if err != nil {
				return stats, eris.Wrap(err, "checking document index")
			}
			if dup != nil {
				stats.Skipped++
				zap.L().Info("duplicate content, already indexed",
					zap.String("url", o.job.URL),
					zap.String("sha256", o.res.SHA256))
				continue
			}
			_, err = store.InsertDocument(ctx, archive.Document{
				Source:      o.job.Source,
				URL:         o.job.URL,
				SHA256:      o.res.SHA256,
				PublishedAt: o.job.PublishedAt,
				FetchedAt:   time.Now().UTC(),
				Path:        o.res.Path,
			})
			if err != nil {
				return stats, eris.Wrap(err, "indexing document")
			}
			stats.Downloaded++
		}
	}
	return stats, nil
}
