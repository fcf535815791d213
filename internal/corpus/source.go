package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
)

// Source supplies the two corpus payloads. Contents may return an empty
// slice when no essay text is available; every essay then has no body.
type Source interface {
	Essays(ctx context.Context) ([]Essay, error)
	Contents(ctx context.Context) ([]Content, error)
}

// FileSource reads essays.json and essay-content.json from disk.
// An empty ContentPath means no essay text.
type FileSource struct {
	EssaysPath  string
	ContentPath string
}

func (s FileSource) Essays(ctx context.Context) ([]Essay, error) {
	var payload essaysPayload
	if err := decodeFile(s.EssaysPath, &payload); err != nil {
		return nil, err
	}
	return payload.Essays, nil
}

func (s FileSource) Contents(ctx context.Context) ([]Content, error) {
	if s.ContentPath == "" {
		return []Content{}, nil
	}
	var payload contentPayload
	if err := decodeFile(s.ContentPath, &payload); err != nil {
		return nil, err
	}
	return payload.Content, nil
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// HTTPSource fetches the payloads over HTTP, retrying transient failures.
// Malformed JSON and 4xx responses are not retried.
type HTTPSource struct {
	EssaysURL  string
	ContentURL string
	Client     *http.Client
	Retry      resilience.RetryConfig
}

func NewHTTPSource(essaysURL, contentURL string, maxAttempts int) *HTTPSource {
	return &HTTPSource{
		EssaysURL:  essaysURL,
		ContentURL: contentURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Retry:      resilience.RetryConfig{MaxAttempts: maxAttempts},
	}
}

func (s *HTTPSource) Essays(ctx context.Context) ([]Essay, error) {
	var payload essaysPayload
	if err := s.fetch(ctx, s.EssaysURL, &payload); err != nil {
		return nil, err
	}
	return payload.Essays, nil
}

func (s *HTTPSource) Contents(ctx context.Context) ([]Content, error) {
	if s.ContentURL == "" {
		return []Content{}, nil
	}
	var payload contentPayload
	if err := s.fetch(ctx, s.ContentURL, &payload); err != nil {
		return nil, err
	}
	return payload.Content, nil
}

func (s *HTTPSource) fetch(ctx context.Context, url string, v any) error {
	return resilience.Retry(ctx, "fetch "+url, s.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("building request: %w", err))
		}
		resp, err := s.Client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			err := fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return resilience.Permanent(err)
			}
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return resilience.Permanent(fmt.Errorf("decoding %s: %w", url, err))
		}
		return nil
	})
}
