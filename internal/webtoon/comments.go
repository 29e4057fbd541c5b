package webtoon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CommentSummary is the comment section of a single chapter: the top-level
// and reply totals plus the individual comments shown on the page.
type CommentSummary struct {
	Comments     int
	Replies      int
	UserComments []UserComment
}

// Comments extracts the comment section from a viewer document. Comment data
// is non-essential; callers degrade to SentinelComments on error.
func Comments(doc *goquery.Document) (CommentSummary, error) {
	countText := strings.TrimSpace(doc.Find("span.u_cbox_count").First().Text())
	if countText == "" {
		return CommentSummary{}, &FieldError{Field: "comments", Reason: "no u_cbox_count element"}
	}
	total, err := strconv.Atoi(keepDigits(countText))
	if err != nil {
		return CommentSummary{}, &FieldError{Field: "comments", Reason: fmt.Sprintf("parse %q: %v", countText, err)}
	}

	var (
		comments []UserComment
		replies  int
		rowErr   error
	)
	doc.Find("ul.u_cbox_list > li.u_cbox_comment").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		c, err := userComment(li)
		if err != nil {
			rowErr = err
			return false
		}
		replies += c.Replies
		comments = append(comments, c)
		return true
	})
	if rowErr != nil {
		return CommentSummary{}, rowErr
	}

	return CommentSummary{Comments: total, Replies: replies, UserComments: comments}, nil
}

func userComment(li *goquery.Selection) (UserComment, error) {
	username := strings.TrimSpace(li.Find("span.u_cbox_nick").First().Text())
	if username == "" {
		return UserComment{}, &FieldError{Field: "comment username", Reason: "no u_cbox_nick in comment"}
	}

	replies, err := optionalCount(li, "span.u_cbox_reply_cnt")
	if err != nil {
		return UserComment{}, err
	}
	upvotes, err := optionalCount(li, "em.u_cbox_cnt_recomm")
	if err != nil {
		return UserComment{}, err
	}
	downvotes, err := optionalCount(li, "em.u_cbox_cnt_unrecomm")
	if err != nil {
		return UserComment{}, err
	}

	return UserComment{
		Username:     username,
		Replies:      replies,
		Upvotes:      upvotes,
		Downvotes:    downvotes,
		Contents:     strings.TrimSpace(li.Find("span.u_cbox_contents").First().Text()),
		ProfileType:  li.AttrOr("data-profile-type", ""),
		AuthProvider: li.AttrOr("data-auth-provider", ""),
		Country:      li.AttrOr("data-country", ""),
		PostDate:     strings.TrimSpace(li.Find("span.u_cbox_date").First().Text()),
	}, nil
}

func optionalCount(li *goquery.Selection, selector string) (int, error) {
	text := strings.TrimSpace(li.Find(selector).First().Text())
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(keepDigits(text))
	if err != nil {
		return 0, &FieldError{Field: "comment counter", Reason: fmt.Sprintf("parse %q: %v", text, err)}
	}
	return n, nil
}

// SentinelComments is the degraded stand-in used when comment extraction
// fails: zero totals and a single placeholder with every field empty, so a
// record is still emitted for the chapter.
func SentinelComments() CommentSummary {
	return CommentSummary{
		Comments:     0,
		Replies:      0,
		UserComments: []UserComment{{}},
	}
}
