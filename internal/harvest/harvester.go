// Package harvest paginates a series' chapter list and merges every page
// into a single chapter-number -> publish-date map.
package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toonstats/toonstats/internal/fetcher"
	"github.com/toonstats/toonstats/internal/webtoon"
)

// Fetcher is the resilient page fetcher the harvester drives.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Response, error)
}

// Delayer desynchronizes the page requests.
type Delayer interface {
	Wait(ctx context.Context) error
}

// Harvester fetches every catalog page of a series in parallel.
type Harvester struct {
	fetcher Fetcher
	delayer Delayer
	logger  *zap.Logger
}

// New builds a Harvester.
func New(f Fetcher, d Delayer, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{fetcher: f, delayer: d, logger: logger}
}

// Harvest fetches pages 1..lastPage of the list at baseURL and returns the
// merged publish map. A page that fails extraction contributes zero entries;
// a page whose fetch exhausts its retry budget aborts the harvest. Pages are
// fetched in parallel but merged in page order, so on duplicate chapter
// numbers the later page's date wins deterministically.
func (h *Harvester) Harvest(ctx context.Context, lastPage int, baseURL string) (webtoon.PublishMap, error) {
	if lastPage < 1 {
		return nil, fmt.Errorf("harvest: lastPage must be >= 1, got %d", lastPage)
	}

	pages := make([][]webtoon.ListEntry, lastPage)

	g, ctx := errgroup.WithContext(ctx)
	for page := 1; page <= lastPage; page++ {
		g.Go(func() error {
			entries, err := h.page(ctx, page, baseURL)
			if err != nil {
				return err
			}
			pages[page-1] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}

	published := make(webtoon.PublishMap)
	for _, entries := range pages {
		for _, entry := range entries {
			published[entry.Number] = entry.Date
		}
	}
	return published, nil
}

// page returns the entries of one list page, or nil when the page is
// malformed. Only fetch failure is an error.
func (h *Harvester) page(ctx context.Context, page int, baseURL string) ([]webtoon.ListEntry, error) {
	if h.delayer != nil {
		if err := h.delayer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	url := webtoon.ListURL(baseURL, page)
	resp, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("chapter list page returned non-OK status, skipping page",
			zap.Int("page", page),
			zap.Int("status", resp.StatusCode),
		)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		h.logger.Error("failed to parse chapter list page", zap.Int("page", page), zap.Error(err))
		return nil, nil
	}

	entries, err := webtoon.ListEntries(doc)
	if err != nil {
		h.logger.Error("failed to extract chapter list page", zap.Int("page", page), zap.Error(err))
		return nil, nil
	}
	return entries, nil
}
