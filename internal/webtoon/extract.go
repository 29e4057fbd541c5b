package webtoon

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FieldError reports a failed extraction of a named field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
}

// ChapterNumber reads the displayed chapter number from a viewer document,
// e.g. the "#550" marker.
func ChapterNumber(doc *goquery.Document) (int, error) {
	sel := doc.Find("span.tx").First()
	if sel.Length() == 0 {
		return 0, &FieldError{Field: "chapter number", Reason: "no span.tx element"}
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(sel.Text(), "#", ""))
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, &FieldError{Field: "chapter number", Reason: fmt.Sprintf("parse %q: %v", cleaned, err)}
	}
	return n, nil
}

// Likes reads the like counter from a document. The element text mixes the
// "like" icon label with a comma-grouped count, so only digits are kept.
func Likes(doc *goquery.Document) (int, error) {
	sel := doc.Find(`span.like_area._likeitArea`).First()
	if sel.Length() == 0 {
		return 0, &FieldError{Field: "likes", Reason: "no like_area element"}
	}
	digits := keepDigits(sel.Text())
	if digits == "" {
		return 0, &FieldError{Field: "likes", Reason: fmt.Sprintf("no digits in %q", sel.Text())}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &FieldError{Field: "likes", Reason: fmt.Sprintf("parse %q: %v", digits, err)}
	}
	return n, nil
}

// PanelCount counts the panel images in a viewer document.
func PanelCount(doc *goquery.Document) (int, error) {
	n := doc.Find("div#_imageList > img").Length()
	if n == 0 {
		return 0, &FieldError{Field: "length", Reason: "no panel images under #_imageList"}
	}
	return n, nil
}

// ListEntries extracts all (number, likes, date) rows from a catalog list
// page. An error from any row fails the whole page.
func ListEntries(doc *goquery.Document) ([]ListEntry, error) {
	var (
		entries []ListEntry
		rowErr  error
	)
	doc.Find("ul#_listUl > li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		entry, err := listEntry(li)
		if err != nil {
			rowErr = err
			return false
		}
		entries = append(entries, entry)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if entries == nil {
		return nil, &FieldError{Field: "chapter list", Reason: "no rows under ul#_listUl"}
	}
	return entries, nil
}

func listEntry(li *goquery.Selection) (ListEntry, error) {
	numText := li.Find("span.tx").First().Text()
	if numText == "" {
		return ListEntry{}, &FieldError{Field: "list chapter number", Reason: "no span.tx in row"}
	}
	number, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(numText, "#", "")))
	if err != nil {
		return ListEntry{}, &FieldError{Field: "list chapter number", Reason: fmt.Sprintf("parse %q: %v", numText, err)}
	}

	likeSel := li.Find(`span.like_area._likeitArea`).First()
	if likeSel.Length() == 0 {
		return ListEntry{}, &FieldError{Field: "list likes", Reason: "no like_area in row"}
	}
	likes, err := strconv.Atoi(keepDigits(likeSel.Text()))
	if err != nil {
		return ListEntry{}, &FieldError{Field: "list likes", Reason: fmt.Sprintf("parse %q: %v", likeSel.Text(), err)}
	}

	rawDate := strings.TrimSpace(li.Find("span.date").First().Text())
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return ListEntry{}, err
	}

	return ListEntry{Number: number, Likes: likes, Date: date}, nil
}

// NormalizeDate converts the site's "Nov 20, 2022" date text to ISO 8601.
func NormalizeDate(raw string) (string, error) {
	t, err := time.Parse("Jan 2, 2006", raw)
	if err != nil {
		return "", &FieldError{Field: "date", Reason: fmt.Sprintf("parse %q: %v", raw, err)}
	}
	return t.Format("2006-01-02"), nil
}

func keepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
