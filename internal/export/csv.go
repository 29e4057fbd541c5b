// Package export writes finished crawl results to date-stamped CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/toonstats/toonstats/internal/webtoon"
)

var header = []string{
	"series", "chapter", "season", "season_chapter", "arc",
	"likes", "length", "comments", "replies", "published",
}

// DateDir ensures a UTC date-stamped subdirectory under base and returns its
// path, e.g. output/2026-08-26.
func DateDir(base string) (string, error) {
	dir := filepath.Join(base, time.Now().UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return dir, nil
}

// WriteCSV writes one row per chapter to <dir>/<series>.csv.
func WriteCSV(dir, series string, chapters []webtoon.Chapter) (string, error) {
	path := filepath.Join(dir, series+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, ch := range chapters {
		row := []string{
			series,
			strconv.Itoa(ch.Number),
			strconv.Itoa(ch.Season),
			strconv.Itoa(ch.SeasonChapter),
			ch.Arc,
			strconv.Itoa(ch.Likes),
			strconv.Itoa(ch.Length),
			strconv.Itoa(ch.Comments),
			strconv.Itoa(ch.Replies),
			ch.Published,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write chapter %d: %w", ch.Number, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}
