// Package webtoon defines the chapter data model and the field extractors
// that read it out of webtoons.com list and viewer markup.
package webtoon

import "github.com/PuerkitoBio/goquery"

// Chapter is one finalized unit of crawl output.
type Chapter struct {
	Number        int
	Likes         int
	Length        int
	Comments      int
	Replies       int
	Season        int
	SeasonChapter int
	Arc           string
	UserComments  []UserComment
	// Published is an ISO date backfilled from the chapter list; empty when
	// the chapter never appeared there.
	Published string
}

// UserComment is raw comment metadata from a chapter's comment section.
type UserComment struct {
	Username     string
	Replies      int
	Upvotes      int
	Downvotes    int
	Contents     string
	ProfileType  string
	AuthProvider string
	Country      string
	PostDate     string
}

// ListEntry is one chapter row from a catalog list page.
type ListEntry struct {
	Number int
	Likes  int
	Date   string
}

// PublishMap maps chapter number to its ISO publish date. It is built once by
// the harvester and read-only afterwards.
type PublishMap map[int]string

// SeasonFn, SeasonChapterFn and ArcFn classify a chapter from its rendered
// document and number. They are caller-supplied, pure, and must not fail.
type (
	SeasonFn        func(doc *goquery.Document, chapter int) int
	SeasonChapterFn func(doc *goquery.Document, chapter int) int
	ArcFn           func(doc *goquery.Document, chapter int) string
)

// SkipFn reports whether a chapter number should be excluded from fetching.
type SkipFn func(chapter int) bool
