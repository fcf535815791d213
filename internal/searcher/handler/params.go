package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
)

// ParseRequest reads a browse request from query parameters:
//
//	q          search text
//	topic      repeatable; "topic", "topic|category", "topic|category|item"
//	type       repeatable essay type
//	audience   repeatable audience
//	year_min, year_max, time_min, time_max   inclusive bounds
//	sort, then primary and secondary sort keys
//	limit      page size, clamped to maxResults
//	facets     "true" to include facet counts
func ParseRequest(q url.Values, defaultLimit, maxResults int) (browse.Request, error) {
	req := browse.Request{Query: q.Get("q")}

	for _, raw := range q["topic"] {
		path, err := parseTopicPath(raw)
		if err != nil {
			return req, err
		}
		req.Criteria.TopicPaths = append(req.Criteria.TopicPaths, path)
	}
	req.Criteria.EssayTypes = nonEmpty(q["type"])
	req.Criteria.Audiences = nonEmpty(q["audience"])

	bounds := []struct {
		name string
		dst  *int
	}{
		{"year_min", &req.Criteria.YearMin},
		{"year_max", &req.Criteria.YearMax},
		{"time_min", &req.Criteria.TimeMin},
		{"time_max", &req.Criteria.TimeMax},
	}
	for _, b := range bounds {
		v, err := nonNegativeInt(q, b.name)
		if err != nil {
			return req, err
		}
		*b.dst = v
	}
	c := req.Criteria
	if c.YearMin > 0 && c.YearMax > 0 && c.YearMin > c.YearMax {
		return req, apperrors.InvalidInput("year_min (%d) is after year_max (%d)", c.YearMin, c.YearMax)
	}
	if c.TimeMin > 0 && c.TimeMax > 0 && c.TimeMin > c.TimeMax {
		return req, apperrors.InvalidInput("time_min (%d) exceeds time_max (%d)", c.TimeMin, c.TimeMax)
	}

	order, err := sorter.NewOrder(q.Get("sort"), q.Get("then"))
	if err != nil {
		return req, err
	}
	req.Order = order

	req.Limit = defaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, apperrors.InvalidInput("limit must be a positive integer")
		}
		req.Limit = n
	}
	if maxResults > 0 && (req.Limit <= 0 || req.Limit > maxResults) {
		req.Limit = maxResults
	}

	if v := q.Get("facets"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, apperrors.InvalidInput("facets must be true or false")
		}
		req.WithFacets = b
	}
	return req, nil
}

func parseTopicPath(raw string) ([]string, error) {
	parts := strings.Split(raw, filter.TopicKeySep)
	if len(parts) > 3 {
		return nil, apperrors.InvalidInput("topic %q has more than three levels", raw)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, apperrors.InvalidInput("topic %q has an empty level", raw)
		}
	}
	return parts, nil
}

func nonNegativeInt(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidInput("%s must be a non-negative integer", name)
	}
	return n, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
