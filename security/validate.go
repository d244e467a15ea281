package security

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vivatalk/mediator/domain"
)

const (
	MaxContentLength  = 5000
	MaxUserNameLength = 50

	// ChatHistoryLimit is how many validated messages a chat request keeps.
	ChatHistoryLimit = 20

	// MaxStringBytes caps every string in a request body before it is
	// sanitized. It fits MaxContentLength characters of any encoding.
	MaxStringBytes = MaxContentLength * utf8.UTFMax
)

// RequestError is a request shape error. It is always the caller's fault and
// Details names the offending field.
type RequestError struct {
	Label   string
	Details string
}

func (e *RequestError) Error() string { return e.Label + ": " + e.Details }

var errInvalidBody = &RequestError{
	Label:   "Invalid request body",
	Details: "Request body must be a JSON object",
}

var errStringTooLong = &RequestError{
	Label:   "Message too long",
	Details: fmt.Sprintf("Text fields must be at most %d characters", MaxContentLength),
}

// DecodeJSON reads a JSON object from r and sanitizes every string in it.
func DecodeJSON(r io.Reader) (map[string]any, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errInvalidBody
	}
	if hasLongString(raw) {
		return nil, errStringTooLong
	}
	body, ok := Sanitize(raw).(map[string]any)
	if !ok {
		return nil, errInvalidBody
	}
	return body, nil
}

func hasLongString(v any) bool {
	switch t := v.(type) {
	case string:
		return len(t) > MaxStringBytes
	case []any:
		for _, item := range t {
			if hasLongString(item) {
				return true
			}
		}
	case map[string]any:
		for k, item := range t {
			if len(k) > MaxStringBytes || hasLongString(item) {
				return true
			}
		}
	}
	return false
}

// ConversationType returns the persona id named by body, which must exist in
// personas.
func ConversationType(body map[string]any, personas *domain.PersonaRegistry) (string, error) {
	raw := body["conversationType"]
	if raw == nil || raw == "" {
		return "", &RequestError{
			Label:   "Conversation type is required",
			Details: "Please specify the type of conversation (" + strings.Join(personas.IDs(), ", ") + ")",
		}
	}
	id, ok := raw.(string)
	if !ok {
		return "", &RequestError{Label: "Invalid conversation type", Details: "conversationType must be a string"}
	}
	if _, err := personas.Get(id); err != nil {
		return "", UnknownPersona(personas)
	}
	return id, nil
}

func UnknownPersona(personas *domain.PersonaRegistry) *RequestError {
	return &RequestError{
		Label:   "Invalid conversation type",
		Details: "Supported types: " + strings.Join(personas.IDs(), ", "),
	}
}

// Messages validates every entry of body["messages"], then keeps the most
// recent ChatHistoryLimit of them.
func Messages(body map[string]any) ([]domain.ChatMessage, error) {
	raw := body["messages"]
	if raw == nil {
		return nil, &RequestError{Label: "Messages array is required", Details: "Please provide the conversation messages"}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &RequestError{Label: "Messages array is required", Details: "messages must be an array"}
	}
	if len(list) == 0 {
		return nil, &RequestError{Label: "At least one message is required", Details: "messages must not be empty"}
	}

	out := make([]domain.ChatMessage, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, invalidMessage("messages[%d] must be an object", i)
		}
		role, _ := entry["role"].(string)
		if !domain.Role(role).Valid() {
			return nil, invalidMessage("messages[%d].role must be one of: user, assistant, system", i)
		}
		content, ok := entry["content"].(string)
		if !ok || content == "" {
			return nil, invalidMessage("messages[%d].content must be a non-empty string", i)
		}
		if utf8.RuneCountInString(content) > MaxContentLength {
			return nil, &RequestError{
				Label:   "Message too long",
				Details: fmt.Sprintf("messages[%d].content must be at most %d characters", i, MaxContentLength),
			}
		}
		out = append(out, domain.ChatMessage{Role: domain.Role(role), Content: content})
	}

	if len(out) > ChatHistoryLimit {
		out = out[len(out)-ChatHistoryLimit:]
	}
	return out, nil
}

func invalidMessage(format string, i int) *RequestError {
	return &RequestError{Label: "Invalid message format", Details: fmt.Sprintf(format, i)}
}

// UserName returns the optional display name in body.
func UserName(body map[string]any) (string, error) {
	raw := body["userName"]
	if raw == nil {
		return "", nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", &RequestError{Label: "Invalid user name", Details: "userName must be a string"}
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return "", &RequestError{
			Label:   "Invalid user name",
			Details: fmt.Sprintf("userName must be at most %d characters", MaxUserNameLength),
		}
	}
	return name, nil
}
