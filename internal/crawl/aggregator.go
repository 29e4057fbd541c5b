package crawl

import (
	"sort"

	"github.com/toonstats/toonstats/internal/progress"
	"github.com/toonstats/toonstats/internal/webtoon"
)

// outcome is one worker's report for a single chapter number.
type outcome struct {
	number  int
	result  progress.Outcome
	chapter *webtoon.Chapter
}

// collect drains worker outcomes into the final sequence. Workers finish in
// arbitrary order; the emitted records are sorted ascending by chapter number
// before the sequence is delivered. Zero emitted records yields an empty
// slice, not an error.
func collect(results <-chan outcome, tracker *progress.Tracker) <-chan []webtoon.Chapter {
	done := make(chan []webtoon.Chapter, 1)
	go func() {
		var chapters []webtoon.Chapter
		for out := range results {
			tracker.Done(out.number, out.result)
			if out.result == progress.OutcomeEmitted && out.chapter != nil {
				chapters = append(chapters, *out.chapter)
			}
		}
		sort.Slice(chapters, func(i, j int) bool {
			return chapters[i].Number < chapters[j].Number
		})
		done <- chapters
	}()
	return done
}
