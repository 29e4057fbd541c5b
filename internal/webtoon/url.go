package webtoon

import (
	"fmt"
	"strings"
)

// ListURL appends the page parameter to a series list URL. Catalog URLs
// normally carry a title_no query already, but a bare base works too.
func ListURL(base string, page int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}

// ViewerURL builds a chapter viewer URL from a title id and episode number.
func ViewerURL(titleNo, episode int) string {
	return fmt.Sprintf("https://www.webtoons.com/en/*/*/*/viewer?title_no=%d&episode_no=%d", titleNo, episode)
}
