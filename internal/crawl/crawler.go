// Package crawl fetches a range of chapter viewer pages in parallel and
// assembles the ordered chapter statistics sequence.
package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toonstats/toonstats/internal/fetcher"
	"github.com/toonstats/toonstats/internal/metrics"
	"github.com/toonstats/toonstats/internal/progress"
	"github.com/toonstats/toonstats/internal/webtoon"
)

// maxWorkers caps the pool. Eight is around the line at which the site
// starts stalling or rejecting connections when pinged this hard, so the cap
// holds no matter how large a range the caller requests.
const maxWorkers = 8

// Request describes one crawl: an inclusive chapter range, the series title
// id, the caller's classifiers, and the skip predicate.
type Request struct {
	Start   int
	End     int
	TitleNo int

	Season        webtoon.SeasonFn
	SeasonChapter webtoon.SeasonChapterFn
	Arc           webtoon.ArcFn
	Skip          webtoon.SkipFn

	// ViewerURL overrides the chapter page URL builder; nil means the real
	// site.
	ViewerURL func(titleNo, episode int) string
}

// Fetcher is the resilient page fetcher the workers share.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Response, error)
}

// Crawler runs detail crawls.
type Crawler struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// New builds a Crawler.
func New(f Fetcher, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{fetcher: f, logger: logger}
}

// Crawl fetches every chapter in [req.Start, req.End] through a fixed-size
// worker pool and returns the emitted records sorted ascending by chapter
// number. Skipped ids and non-OK responses are dropped silently; a chapter
// page that fails required-field extraction is logged and dropped; a fetch
// that exhausts its retry budget aborts the whole run and cancels in-flight
// work. Published dates are backfilled from the frozen publish map.
func (c *Crawler) Crawl(ctx context.Context, req Request, published webtoon.PublishMap) ([]webtoon.Chapter, error) {
	if req.Start < 1 || req.End < req.Start {
		return nil, fmt.Errorf("crawl: invalid chapter range [%d, %d]", req.Start, req.End)
	}
	req = withDefaults(req)

	runID := uuid.NewString()
	total := req.End - req.Start + 1
	tracker := progress.NewTracker(runID, total, c.logger)
	logger := c.logger.With(zap.String("run_id", runID))

	logger.Info("starting detail crawl",
		zap.Int("start", req.Start),
		zap.Int("end", req.End),
		zap.Int("title_no", req.TitleNo),
		zap.Int("workers", maxWorkers),
	)

	jobs := make(chan int)
	results := make(chan outcome)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for number := req.Start; number <= req.End; number++ {
			select {
			case jobs <- number:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	workers := maxWorkers
	if total < workers {
		workers = total
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for number := range jobs {
				metrics.IncActiveWorkers()
				out, err := c.chapter(ctx, req, number, published)
				metrics.DecActiveWorkers()
				if err != nil {
					return err
				}
				select {
				case results <- out:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	collected := collect(results, tracker)

	waitErr := g.Wait()
	close(results)
	chapters := <-collected

	if waitErr != nil {
		logger.Error("crawl aborted", zap.Error(waitErr))
		return nil, fmt.Errorf("crawl aborted: %w", waitErr)
	}

	logger.Info("detail crawl finished",
		zap.Int("requested", total),
		zap.Int("emitted", len(chapters)),
		zap.Int("processed", tracker.Processed()),
	)
	return chapters, nil
}

// chapter executes the full unit of work for one chapter number. The only
// non-nil error it returns is fatal to the run.
func (c *Crawler) chapter(ctx context.Context, req Request, number int, published webtoon.PublishMap) (outcome, error) {
	if req.Skip(number) {
		return outcome{number: number, result: progress.OutcomeSkipped}, nil
	}

	url := req.ViewerURL(req.TitleNo, number)
	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return outcome{}, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("chapter returned non-OK status, skipping",
			zap.Int("chapter", number),
			zap.Int("status", resp.StatusCode),
		)
		return outcome{number: number, result: progress.OutcomeSkipped}, nil
	}

	record, ok := c.build(req, number, resp, published)
	if !ok {
		return outcome{number: number, result: progress.OutcomeDropped}, nil
	}
	return outcome{number: number, result: progress.OutcomeEmitted, chapter: record}, nil
}

// build extracts every field from a fetched viewer page. Required-field
// failures drop the chapter; comment failures degrade to the sentinel.
func (c *Crawler) build(req Request, number int, resp fetcher.Response, published webtoon.PublishMap) (*webtoon.Chapter, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		c.dropMalformed(number, resp.URL, err)
		return nil, false
	}

	pageNumber, err := webtoon.ChapterNumber(doc)
	if err != nil {
		c.dropMalformed(number, resp.URL, err)
		return nil, false
	}
	likes, err := webtoon.Likes(doc)
	if err != nil {
		c.dropMalformed(number, resp.URL, err)
		return nil, false
	}
	length, err := webtoon.PanelCount(doc)
	if err != nil {
		c.dropMalformed(number, resp.URL, err)
		return nil, false
	}

	comments, err := webtoon.Comments(doc)
	if err != nil {
		c.logger.Warn("comment extraction failed, substituting placeholder",
			zap.Int("chapter", number),
			zap.String("url", resp.URL),
			zap.Error(err),
		)
		comments = webtoon.SentinelComments()
	}

	return &webtoon.Chapter{
		Number:        number,
		Likes:         likes,
		Length:        length,
		Comments:      comments.Comments,
		Replies:       comments.Replies,
		Season:        req.Season(doc, pageNumber),
		SeasonChapter: req.SeasonChapter(doc, pageNumber),
		Arc:           req.Arc(doc, pageNumber),
		UserComments:  comments.UserComments,
		Published:     published[number],
	}, true
}

func (c *Crawler) dropMalformed(number int, url string, err error) {
	c.logger.Error("chapter page did not match expected structure, dropping chapter",
		zap.Int("chapter", number),
		zap.String("url", url),
		zap.Error(err),
	)
}

func withDefaults(req Request) Request {
	if req.Season == nil {
		req.Season = func(*goquery.Document, int) int { return 1 }
	}
	if req.SeasonChapter == nil {
		req.SeasonChapter = func(_ *goquery.Document, chapter int) int { return chapter }
	}
	if req.Arc == nil {
		req.Arc = func(*goquery.Document, int) string { return "" }
	}
	if req.Skip == nil {
		req.Skip = func(int) bool { return false }
	}
	if req.ViewerURL == nil {
		req.ViewerURL = webtoon.ViewerURL
	}
	return req
}
