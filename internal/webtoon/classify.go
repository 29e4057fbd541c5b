package webtoon

import (
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// ArcSpan names the story arc that begins at a chapter number.
type ArcSpan struct {
	Start int
	Name  string
}

// SeasonClassifiers builds season and season-chapter classifiers from the
// chapter numbers at which seasons after the first begin. With no starts
// everything is season 1 and season chapter equals chapter number.
func SeasonClassifiers(starts []int) (SeasonFn, SeasonChapterFn) {
	sorted := append([]int(nil), starts...)
	sort.Ints(sorted)

	season := func(_ *goquery.Document, chapter int) int {
		n := 1
		for _, s := range sorted {
			if chapter >= s {
				n++
			}
		}
		return n
	}
	seasonChapter := func(_ *goquery.Document, chapter int) int {
		base := 1
		for _, s := range sorted {
			if chapter >= s {
				base = s
			}
		}
		return chapter - base + 1
	}
	return season, seasonChapter
}

// ArcClassifier maps a chapter to the latest arc starting at or before it.
// Chapters before the first span get an empty arc name.
func ArcClassifier(spans []ArcSpan) ArcFn {
	sorted := append([]ArcSpan(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	return func(_ *goquery.Document, chapter int) string {
		name := ""
		for _, s := range sorted {
			if chapter >= s.Start {
				name = s.Name
			}
		}
		return name
	}
}
