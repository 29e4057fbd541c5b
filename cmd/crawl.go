package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toonstats/toonstats/internal/api"
	"github.com/toonstats/toonstats/internal/config"
	"github.com/toonstats/toonstats/internal/crawl"
	"github.com/toonstats/toonstats/internal/export"
	"github.com/toonstats/toonstats/internal/fetcher"
	"github.com/toonstats/toonstats/internal/harvest"
	"github.com/toonstats/toonstats/internal/logging"
	"github.com/toonstats/toonstats/internal/metrics"
	"github.com/toonstats/toonstats/internal/ratelimit"
	"github.com/toonstats/toonstats/internal/webtoon"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Harvest the chapter list and crawl the configured chapter range",
		RunE:  runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = "toonstats.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := api.NewServer(cfg.Metrics.Addr)
		go func() {
			logger.Info("ops server listening", zap.String("addr", cfg.Metrics.Addr))
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Warn("ops server stopped", zap.Error(serveErr))
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	f := fetcher.New(fetcher.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Referer:     cfg.HTTP.Referer,
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
		HostRPS:     cfg.HTTP.HostRPS,
		HostBurst:   cfg.HTTP.HostBurst,
	}, logger)

	logger.Info("harvesting chapter list",
		zap.String("series", cfg.Series.Name),
		zap.Int("pages", cfg.Series.Pages),
	)
	harvester := harvest.New(f, ratelimit.NewJitter(), logger)
	published, err := harvester.Harvest(ctx, cfg.Series.Pages, cfg.Series.ListURL)
	if err != nil {
		return fmt.Errorf("harvest chapter list: %w", err)
	}
	logger.Info("chapter list harvested", zap.Int("entries", len(published)))

	skip := skipSet(cfg.Series.Skip)
	season, seasonChapter := webtoon.SeasonClassifiers(cfg.Series.SeasonStarts)
	crawler := crawl.New(f, logger)
	chapters, err := crawler.Crawl(ctx, crawl.Request{
		Start:         cfg.Series.Start,
		End:           cfg.Series.End,
		TitleNo:       cfg.Series.TitleNo,
		Season:        season,
		SeasonChapter: seasonChapter,
		Arc:           webtoon.ArcClassifier(arcSpans(cfg.Series.Arcs)),
		Skip:          func(chapter int) bool { return skip[chapter] },
	}, published)
	if err != nil {
		return err
	}

	dir, err := export.DateDir(cfg.Output.Dir)
	if err != nil {
		return err
	}
	path, err = export.WriteCSV(dir, cfg.Series.Name, chapters)
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	logger.Info("crawl complete",
		zap.Int("chapters", len(chapters)),
		zap.String("output", path),
	)
	return nil
}

func skipSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}

func arcSpans(arcs []config.ArcConfig) []webtoon.ArcSpan {
	spans := make([]webtoon.ArcSpan, len(arcs))
	for i, a := range arcs {
		spans[i] = webtoon.ArcSpan{Start: a.Start, Name: a.Name}
	}
	return spans
}
