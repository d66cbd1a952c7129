package tools

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const version = "0.1.0"

// EnvelopeMeta carries response-shaping facts alongside the result.
type EnvelopeMeta struct {
	ApproxTokens        int            `json:"approx_tokens"`
	Truncated           bool           `json:"truncated"`
	Limits              map[string]int `json:"limits,omitempty"`
	NextQuerySuggestion string         `json:"next_query_suggestion,omitempty"`
}

// Envelope is the uniform tool response wrapper.
type Envelope struct {
	Tool        string       `json:"tool"`
	Version     string       `json:"version"`
	RequestID   string       `json:"request_id"`
	GeneratedAt string       `json:"generated_at"`
	Workspace   string       `json:"workspace"`
	Result      any          `json:"result"`
	Meta        EnvelopeMeta `json:"meta"`
}

// envelope wraps a tool result. ApproxTokens is filled from the result
// size when the caller left it zero.
func (s *Server) envelope(tool string, result any, meta EnvelopeMeta) *Envelope {
	if meta.ApproxTokens == 0 {
		meta.ApproxTokens = approxTokens(result)
	}
	return &Envelope{
		Tool:        tool,
		Version:     version,
		RequestID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Workspace:   s.workspace,
		Result:      result,
		Meta:        meta,
	}
}

// approxTokens estimates the token cost of a result at roughly four
// bytes of JSON per token.
func approxTokens(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b) / 4
}
