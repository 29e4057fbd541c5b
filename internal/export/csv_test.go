package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toonstats/toonstats/internal/webtoon"
)

func TestDateDir(t *testing.T) {
	t.Parallel()
	base := t.TempDir()

	dir, err := DateDir(base)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, time.Now().UTC().Format("2006-01-02")), dir)
	require.DirExists(t, dir)

	// Idempotent.
	again, err := DateDir(base)
	require.NoError(t, err)
	require.Equal(t, dir, again)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	chapters := []webtoon.Chapter{
		{Number: 1, Likes: 7779, Length: 40, Comments: 12, Replies: 3, Season: 1, SeasonChapter: 1, Published: "2022-11-20"},
		{Number: 2, Likes: 8000, Length: 42, Comments: 9, Replies: 1, Season: 1, SeasonChapter: 2, Arc: "festival"},
	}

	path, err := WriteCSV(dir, "to-tame-a-fire", chapters)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "to-tame-a-fire.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"series,chapter,season,season_chapter,arc,likes,length,comments,replies,published\n"+
			"to-tame-a-fire,1,1,1,,7779,40,12,3,2022-11-20\n"+
			"to-tame-a-fire,2,1,2,festival,8000,42,9,1,\n",
		string(raw),
	)
}

func TestWriteCSVEmpty(t *testing.T) {
	t.Parallel()
	path, err := WriteCSV(t.TempDir(), "empty", nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "series,chapter,season,season_chapter,arc,likes,length,comments,replies,published\n", string(raw))
}
