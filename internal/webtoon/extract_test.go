package webtoon

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const listRowHTML = `<ul id="_listUl"><li class="_episodeItem" id="episode_24" data-episode-no="24">
	<a href="https://www.webtoons.com/en/supernatural/to-tame-a-fire/episode-24/viewer?title_no=3763&amp;episode_no=24">
		<span class="subj"><span>Episode 24</span></span>
		<span class="manage_blank"></span>
		<span class="date">Nov 20, 2022</span>
		<span class="like_area _likeitArea"><em class="ico_like _btnLike _likeMark">like</em>7,779</span>
		<span class="tx">#24</span>
	</a>
</li></ul>`

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestChapterNumber(t *testing.T) {
	t.Parallel()
	d := doc(t, `<span class="tx _btnOpenEpisodeList NPI=a:current,g:en_en">#550</span>`)

	n, err := ChapterNumber(d)
	require.NoError(t, err)
	require.Equal(t, 550, n)
}

func TestChapterNumberMissing(t *testing.T) {
	t.Parallel()
	d := doc(t, `<div>no marker here</div>`)

	_, err := ChapterNumber(d)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "chapter number", fieldErr.Field)
}

func TestListEntries(t *testing.T) {
	t.Parallel()
	d := doc(t, listRowHTML)

	entries, err := ListEntries(d)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ListEntry{Number: 24, Likes: 7779, Date: "2022-11-20"}, entries[0])
}

func TestListEntriesEmptyPage(t *testing.T) {
	t.Parallel()
	d := doc(t, `<div>not a list page</div>`)

	_, err := ListEntries(d)
	require.Error(t, err)
}

func TestLikes(t *testing.T) {
	t.Parallel()
	d := doc(t, `<span class="like_area _likeitArea"><em class="ico_like">like</em>7,779</span>`)

	likes, err := Likes(d)
	require.NoError(t, err)
	require.Equal(t, 7779, likes)
}

func TestPanelCount(t *testing.T) {
	t.Parallel()
	d := doc(t, `<div id="_imageList"><img src="1.jpg"/><img src="2.jpg"/><img src="3.jpg"/></div>`)

	n, err := PanelCount(d)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestPanelCountMissing(t *testing.T) {
	t.Parallel()
	d := doc(t, `<div id="_imageList"></div>`)

	_, err := PanelCount(d)
	require.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	got, err := NormalizeDate("Nov 20, 2022")
	require.NoError(t, err)
	require.Equal(t, "2022-11-20", got)

	got, err = NormalizeDate("Jun 3, 2022")
	require.NoError(t, err)
	require.Equal(t, "2022-06-03", got)

	_, err = NormalizeDate("20/11/2022")
	require.Error(t, err)
}

func TestViewerURL(t *testing.T) {
	t.Parallel()
	require.Equal(t,
		"https://www.webtoons.com/en/*/*/*/viewer?title_no=95&episode_no=2",
		ViewerURL(95, 2),
	)
}

func TestListURL(t *testing.T) {
	t.Parallel()
	require.Equal(t,
		"https://example.com/list?title_no=95&page=3",
		ListURL("https://example.com/list?title_no=95", 3),
	)
	require.Equal(t,
		"https://example.com/list?page=3",
		ListURL("https://example.com/list", 3),
	)
}
