// Package envelope decodes model replies into the response envelope the
// controller acts on. A reply is valid when it is a JSON object with exactly
// one of the keys "command", "configure", or "answer":
//
//	{"command":   ["show version", ...]}   // ordered CLI commands
//	{"configure": ["interface Gi1", ...]}  // ordered config lines
//	{"answer":    "markdown text"}
//
// Anything else produces a *DecodeError carrying a reason suitable for
// quoting back to the model in a repair turn.
package envelope

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind tags which envelope variant is populated.
type Kind string

const (
	KindCommand   Kind = "command"
	KindConfigure Kind = "configure"
	KindAnswer    Kind = "answer"
)

// Envelope is one decoded model reply. Exactly one variant is populated,
// selected by Kind: Commands for KindCommand, ConfigLines for KindConfigure,
// Answer for KindAnswer. Command and config line order is the order the
// model submitted them and is never reordered or deduplicated.
type Envelope struct {
	Kind        Kind
	Commands    []string
	ConfigLines []string
	Answer      string
}

// DecodeError reports why raw model output failed envelope validation.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "envelope decode: " + e.Reason
}

func decodeErrf(format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Parse validates raw model output and returns the decoded Envelope.
// On malformed structured data it strips one exactly-matching pair of
// wrapping code-fence markers, if present, and retries once. Pure function
// of its input.
func Parse(raw string) (*Envelope, error) {
	env, err := parse(raw)
	if err == nil {
		return env, nil
	}

	if stripped, ok := stripFence(raw); ok {
		if env, retryErr := parse(stripped); retryErr == nil {
			return env, nil
		}
	}

	return nil, err
}

func parse(raw string) (*Envelope, error) {
	trimmed := strings.TrimSpace(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
		return nil, decodeErrf("reply is not a JSON object: %v", err)
	}

	switch len(top) {
	case 0:
		return nil, decodeErrf("JSON object has no keys; exactly one of %q, %q, %q is required",
			KindCommand, KindConfigure, KindAnswer)
	case 1:
	default:
		keys := make([]string, 0, len(top))
		for k := range top {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, decodeErrf("JSON object has %d top-level keys (%s); exactly one is allowed",
			len(top), strings.Join(keys, ", "))
	}

	for key, value := range top {
		switch Kind(key) {
		case KindCommand:
			list, err := stringList(key, value)
			if err != nil {
				return nil, err
			}
			return &Envelope{Kind: KindCommand, Commands: list}, nil

		case KindConfigure:
			list, err := stringList(key, value)
			if err != nil {
				return nil, err
			}
			return &Envelope{Kind: KindConfigure, ConfigLines: list}, nil

		case KindAnswer:
			var text string
			if err := json.Unmarshal(value, &text); err != nil {
				return nil, decodeErrf("value of %q must be a single string", key)
			}
			return &Envelope{Kind: KindAnswer, Answer: text}, nil

		default:
			return nil, decodeErrf("unknown top-level key %q; expected one of %q, %q, %q",
				key, KindCommand, KindConfigure, KindAnswer)
		}
	}

	// Unreachable: the single map entry is always handled above.
	return nil, decodeErrf("internal: empty envelope")
}

func stringList(key string, value json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, decodeErrf("value of %q must be an array of strings", key)
	}
	if len(list) == 0 {
		return nil, decodeErrf("value of %q must be a non-empty array", key)
	}
	return list, nil
}

// stripFence removes one wrapping pair of ``` fence markers. The opening
// fence may carry a language tag (```json). Returns false when the text is
// not fence-wrapped, so the caller surfaces the original decode error.
func stripFence(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return "", false
	}

	body := strings.TrimPrefix(trimmed, "```")
	body = strings.TrimSuffix(body, "```")

	// Drop the language tag on the opening fence line, if any.
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		first := strings.TrimSpace(body[:idx])
		if first != "" && !strings.ContainsAny(first, "{}[]\"") {
			body = body[idx+1:]
		}
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return "", false
	}
	return body, true
}
