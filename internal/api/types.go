package api

import (
	"strings"
	"time"
)

// Message roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Content part types.
const (
	PartText  = "text"
	PartImage = "image"
)

// App is a project: the container riffs live in.
type App struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	RiffCount int       `json:"riff_count,omitempty"`
}

// Riff is conversation metadata without its messages, as returned by the
// list endpoint.
type Riff struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// Conversation is a riff with its full ordered message list.
type Conversation struct {
	Riff
	Messages []Message `json:"messages"`
}

// Message is one entry in a conversation. Content carries plain text;
// richer messages use Parts instead (text segments and image references).
type Message struct {
	Role      string        `json:"role"`
	Content   string        `json:"content,omitempty"`
	Parts     []ContentPart `json:"parts,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Text flattens a message to displayable text. Image parts render as their
// URL placeholder.
func (m *Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var b strings.Builder
	for i, p := range m.Parts {
		if i > 0 {
			b.WriteString("\n")
		}
		switch p.Type {
		case PartImage:
			b.WriteString("[image: " + p.URL + "]")
		default:
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Event is an opaque append-only log record. The client never decodes
// events; it only counts them to detect that a conversation changed.
type Event []byte

func (e *Event) UnmarshalJSON(data []byte) error {
	*e = append((*e)[:0], data...)
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return e, nil
}
