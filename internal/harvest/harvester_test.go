package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toonstats/toonstats/internal/fetcher"
	"github.com/toonstats/toonstats/internal/ratelimit"
)

func listPage(rows ...string) string {
	page := `<html><body><ul id="_listUl">`
	for _, row := range rows {
		page += row
	}
	return page + `</ul></body></html>`
}

func listRow(number int, likes string, date string) string {
	return fmt.Sprintf(`<li class="_episodeItem" data-episode-no="%d"><a>
		<span class="subj"><span>Episode %d</span></span>
		<span class="date">%s</span>
		<span class="like_area _likeitArea"><em class="ico_like">like</em>%s</span>
		<span class="tx">#%d</span>
	</a></li>`, number, number, date, likes, number)
}

func testHarvester(t *testing.T, pages map[string]http.HandlerFunc) (*Harvester, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range pages {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := fetcher.New(fetcher.Config{
		MaxRetries:  1,
		BackoffBase: time.Millisecond,
		Timeout:     2 * time.Second,
	}, zap.NewNop())
	return New(f, ratelimit.NewJitter(time.Millisecond), zap.NewNop()), srv
}

func TestHarvestMergesPages(t *testing.T) {
	t.Parallel()
	h, srv := testHarvester(t, map[string]http.HandlerFunc{
		"/list": func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte(listPage(
					listRow(24, "7,779", "Nov 20, 2022"),
					listRow(25, "8,001", "Nov 27, 2022"),
				)))
			case "2":
				_, _ = w.Write([]byte(listPage(listRow(26, "12", "Dec 4, 2022"))))
			default:
				http.NotFound(w, r)
			}
		},
	})

	published, err := h.Harvest(context.Background(), 2, srv.URL+"/list?title_no=95")
	require.NoError(t, err)
	require.Equal(t, map[int]string{
		24: "2022-11-20",
		25: "2022-11-27",
		26: "2022-12-04",
	}, map[int]string(published))
}

func TestHarvestDuplicateIDLaterPageWins(t *testing.T) {
	t.Parallel()
	h, srv := testHarvester(t, map[string]http.HandlerFunc{
		"/list": func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte(listPage(listRow(24, "1", "Nov 20, 2022"))))
			case "2":
				_, _ = w.Write([]byte(listPage(listRow(24, "1", "Dec 25, 2022"))))
			default:
				http.NotFound(w, r)
			}
		},
	})

	published, err := h.Harvest(context.Background(), 2, srv.URL+"/list?title_no=95")
	require.NoError(t, err)
	require.Equal(t, "2022-12-25", published[24])
}

func TestHarvestToleratesMalformedPage(t *testing.T) {
	t.Parallel()
	h, srv := testHarvester(t, map[string]http.HandlerFunc{
		"/list": func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte(`<html><body>maintenance page</body></html>`))
			case "2":
				_, _ = w.Write([]byte(listPage(listRow(26, "12", "Dec 4, 2022"))))
			default:
				http.NotFound(w, r)
			}
		},
	})

	published, err := h.Harvest(context.Background(), 2, srv.URL+"/list?title_no=95")
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "2022-12-04", published[26])
}

func TestHarvestInvalidPageCount(t *testing.T) {
	t.Parallel()
	h, _ := testHarvester(t, nil)

	_, err := h.Harvest(context.Background(), 0, "http://example.com/list?title_no=95")
	require.Error(t, err)
}
