// Package corpus defines the essay data model and loads the two corpus
// payloads (essay metadata and essay text) from files, HTTP or PostgreSQL,
// joining them into an immutable, ordered document list.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies an essay. The metadata and content payloads share this
// identifier space. JSON numbers and strings are both accepted.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding essay id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding essay id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Subtopic is the second level of the topic tree. With a Category the items
// sit on a third level (topic -> category -> item); without one they hang
// directly off the topic.
type Subtopic struct {
	Category string   `json:"category,omitempty"`
	Items    []string `json:"items,omitempty"`
}

// TopicTag places an essay in the topic tree.
type TopicTag struct {
	Topic     string     `json:"topic"`
	Subtopics []Subtopic `json:"subtopics,omitempty"`
}

// Essay is one metadata record from essays.json.
type Essay struct {
	ID          ID         `json:"ID"`
	Title       string     `json:"Title"`
	URL         string     `json:"URL,omitempty"`
	Year        int        `json:"Year"`
	Month       int        `json:"Month,omitempty"`
	Date        string     `json:"Date,omitempty"`
	WordCount   int        `json:"WordCount"`
	ReadingTime int        `json:"ReadingTime"`
	Topics      []TopicTag `json:"Topics,omitempty"`
	EssayType   []string   `json:"EssayType,omitempty"`
	Audience    []string   `json:"Audience,omitempty"`
}

// Content is one record from essay-content.json.
type Content struct {
	ID      ID     `json:"ID"`
	Content string `json:"Content"`
}

// Document is an essay joined with its text. Body is nil when the content
// payload has no entry for the essay.
type Document struct {
	Essay
	Body *string `json:"-"`
}

// BodyText returns the body, or "" when it is absent.
func (d Document) BodyText() string {
	if d.Body == nil {
		return ""
	}
	return *d.Body
}

// HasBody reports whether the content payload supplied text for d.
func (d Document) HasBody() bool {
	return d.Body != nil
}

// essaysPayload is the top-level shape of essays.json.
type essaysPayload struct {
	Essays []Essay `json:"essays"`
}

// contentPayload is the top-level shape of essay-content.json.
type contentPayload struct {
	Content []Content `json:"content"`
}
