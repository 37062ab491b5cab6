package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
)

// MockLLM is a local stand-in that never calls a model. Platform prompts get a
// minimal valid post built from the heading; command analysis is refused so the
// keyword fallback runs.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if prompt.System == analyzerSystemPrompt {
		return "", &GenerationError{Err: errors.New("mock llm does not analyze commands")}
	}
	heading := lineValue(prompt.User, "ENCABEZADO:")
	material := lineValue(prompt.User, "MATERIAL:")
	reply := map[string]any{
		"text":            strings.TrimSpace(heading + "\n\n" + material),
		"hashtags":        []string{"#demo"},
		"character_count": 0,
		"tone":            "neutral",
	}
	if strings.Contains(prompt.User, "suggested_image_prompt") {
		reply["suggested_image_prompt"] = "ilustración de " + heading
	}
	if strings.Contains(prompt.User, "suggested_video_prompt") {
		reply["suggested_video_prompt"] = "video corto sobre " + heading
	}
	b, err := json.Marshal(reply)
	if err != nil {
		return "", err
	}
	return "```json\n" + string(b) + "\n```", nil
}

func lineValue(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

// ScriptRule answers prompts whose system or user text contains Match.
type ScriptRule struct {
	Match string
	Reply string
	Err   error
}

// ScriptedLLM replays canned replies, first matching rule wins. It records
// every prompt it receives and is safe for concurrent use.
type ScriptedLLM struct {
	Rules    []ScriptRule
	Fallback ScriptRule

	mu    sync.Mutex
	calls []Prompt
}

func (s *ScriptedLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, prompt)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Err: err}
	}
	rule := s.Fallback
	for _, r := range s.Rules {
		if strings.Contains(prompt.User, r.Match) || strings.Contains(prompt.System, r.Match) {
			rule = r
			break
		}
	}
	if rule.Err != nil {
		return "", rule.Err
	}
	if strings.TrimSpace(rule.Reply) == "" {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}
	return rule.Reply, nil
}

// Calls returns a copy of the prompts seen so far.
func (s *ScriptedLLM) Calls() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.calls))
	copy(out, s.calls)
	return out
}
