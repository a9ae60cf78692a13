package queryanalyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSONObject = errors.New("NO_JSON_OBJECT")
	ErrInvalidReply = errors.New("INVALID_REPLY")
)

// parseReply turns raw generator text into a validated reply.
func parseReply(raw string) (*generativeReply, error) {
	obj, ok := firstJSONObject(stripFences(raw))
	if !ok {
		return nil, ErrNoJSONObject
	}

	if result := replyValidator.ValidateJSON([]byte(obj)); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReply, result.Error())
	}

	var reply generativeReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return &reply, nil
}

// stripFences removes markdown code fence lines such as ```json.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// firstJSONObject returns the first balanced {...} in s, honouring string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
