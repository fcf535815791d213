package corpus

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "essays.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSQLiteRoundTripsFileCorpus(t *testing.T) {
	ctx := context.Background()
	files := testdataSource()
	essays, err := files.Essays(ctx)
	require.NoError(t, err)
	contents, err := files.Contents(ctx)
	require.NoError(t, err)

	db := openTestSQLite(t)
	n, err := db.Import(ctx, essays, contents)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	want, _, err := Load(ctx, files, time.Second)
	require.NoError(t, err)
	got, stats, err := Load(ctx, db, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Essays)
	assert.Equal(t, 5, stats.WithContent)

	require.Equal(t, want.Len(), got.Len())
	for i, w := range want.Documents() {
		g := got.Documents()[i]
		wantJSON, err := json.Marshal(w.Essay)
		require.NoError(t, err)
		gotJSON, err := json.Marshal(g.Essay)
		require.NoError(t, err)
		assert.JSONEq(t, string(wantJSON), string(gotJSON), "essay %s", w.ID)
		assert.Equal(t, w.HasBody(), g.HasBody(), "essay %s", w.ID)
		assert.Equal(t, w.BodyText(), g.BodyText(), "essay %s", w.ID)
	}
}

func TestSQLiteImportReplacesContents(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := db.Import(ctx, []Essay{{ID: "a", Title: "First", Year: 2001}}, []Content{{ID: "a", Content: "one"}})
	require.NoError(t, err)

	n, err := db.Import(ctx,
		[]Essay{{ID: "b", Title: "Second", Year: 2002}, {ID: "b", Title: "Dup"}, {ID: "c", Title: "Third", Year: 2003}},
		[]Content{{ID: "b", Content: "two"}, {ID: "b", Content: "ignored"}, {ID: "zz", Content: "orphan"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, _, err := Load(ctx, db, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, ID("b"), c.Documents()[0].ID)
	assert.Equal(t, "Second", c.Documents()[0].Title)
	assert.Equal(t, "two", c.Documents()[0].BodyText())
	assert.False(t, c.Documents()[1].HasBody())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	c, stats, err := Load(context.Background(), openTestSQLite(t), time.Second)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	assert.Zero(t, stats.Essays)
}
