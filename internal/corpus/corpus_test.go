package corpus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataSource() FileSource {
	return FileSource{
		EssaysPath:  filepath.Join("testdata", "essays.json"),
		ContentPath: filepath.Join("testdata", "essay-content.json"),
	}
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var got []ID
	require.NoError(t, json.Unmarshal([]byte(`[1, "2", 30, "abc", null]`), &got))
	assert.Equal(t, []ID{"1", "2", "30", "abc", ""}, got)

	var bad ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestLoadFromFiles(t *testing.T) {
	c, stats, err := Load(context.Background(), testdataSource(), time.Second)
	require.NoError(t, err)

	require.Equal(t, 6, c.Len())
	assert.Equal(t, 6, stats.Essays)
	assert.Equal(t, 5, stats.WithContent)

	docs := c.Documents()
	assert.Equal(t, ID("1"), docs[0].ID, "corpus order is preserved")
	assert.Equal(t, ID("4"), docs[3].ID, "string ids join with string content ids")
	assert.True(t, docs[3].HasBody())

	untitled, ok := c.Get("6")
	require.True(t, ok)
	assert.False(t, untitled.HasBody())
	assert.Equal(t, "", untitled.BodyText())

	_, ok = c.Get("99")
	assert.False(t, ok, "orphaned content does not create an essay")

	first := docs[0]
	require.Len(t, first.Topics, 1)
	assert.Equal(t, "Getting Started", first.Topics[0].Subtopics[0].Category)
	assert.Equal(t, []string{"Founders"}, first.Audience)
}

func TestLoadWithoutContent(t *testing.T) {
	src := FileSource{EssaysPath: filepath.Join("testdata", "essays.json")}
	c, stats, err := Load(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.WithContent)
	for _, d := range c.Documents() {
		assert.False(t, d.HasBody())
	}
}

func TestLoadMissingFile(t *testing.T) {
	src := FileSource{EssaysPath: filepath.Join(t.TempDir(), "missing.json")}
	_, _, err := Load(context.Background(), src, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)
}

func TestNewJoin(t *testing.T) {
	essays := []Essay{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	contents := []Content{
		{ID: "b", Content: "first"},
		{ID: "b", Content: "second"},
		{ID: "a", Content: ""},
	}
	c := New(essays, contents)
	a, _ := c.Get("a")
	b, _ := c.Get("b")
	assert.True(t, a.HasBody(), "empty content is present, not absent")
	assert.Equal(t, "first", b.BodyText(), "first content entry wins")
}

func TestNewEmpty(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Documents())
}

func TestValidate(t *testing.T) {
	body := "text"
	docs := []Document{
		{Essay: Essay{ID: "1", Title: "ok"}, Body: &body},
		{Essay: Essay{ID: "1", Title: "dup"}, Body: &body},
		{Essay: Essay{ID: "2", Title: "  "}, Body: &body},
		{Essay: Essay{ID: "3", Title: "no body"}},
		{Essay: Essay{Title: "no id"}, Body: &body},
	}
	warnings := Validate(docs)
	assert.ElementsMatch(t, []Warning{
		{ID: "1", Problem: "duplicate id"},
		{ID: "2", Problem: "blank title"},
		{ID: "3", Problem: "no content"},
		{ID: "", Problem: "missing id"},
	}, warnings)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	essays, err := os.ReadFile(filepath.Join("testdata", "essays.json"))
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join("testdata", "essay-content.json"))
	require.NoError(t, err)

	var essayCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/essays.json":
			if essayCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write(essays)
		case "/essay-content.json":
			w.Write(content)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/essays.json", srv.URL+"/essay-content.json", 3)
	src.Retry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	c, stats, err := Load(context.Background(), src, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
	assert.Equal(t, 5, stats.WithContent)
	assert.Equal(t, int32(2), essayCalls.Load())
}

func TestHTTPSourceDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/essays.json", "", 5)
	src.Retry.InitialDelay = time.Millisecond

	_, _, err := Load(context.Background(), src, 5*time.Second)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
