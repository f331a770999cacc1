package logwatch

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// ExtractFirstValue evaluates a JMESPath expression against each event's
// message (decoded as JSON when possible, otherwise wrapped as
// {"message": raw}) and returns the first non-empty scalar found. Array
// results use the first element only. Returns (value, true, nil) on a
// match, ("", false, nil) when nothing matched, or an error for an invalid
// expression.
func ExtractFirstValue(events []Event, expr string) (string, bool, error) {
	for _, e := range events {
		var input any
		var decoded any
		if err := json.Unmarshal([]byte(e.Message), &decoded); err == nil {
			input = decoded
		} else {
			input = map[string]any{"message": e.Message}
		}

		res, err := jmespath.Search(expr, input)
		if err != nil {
			return "", false, fmt.Errorf("jmespath search failed: %w", err)
		}
		if seq, ok := res.([]any); ok {
			if len(seq) == 0 {
				continue
			}
			res = seq[0]
		}

		switch v := res.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
			return v, true, nil
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return "", false, fmt.Errorf("marshal result failed: %w", err)
			}
			s := string(b)
			if s == "" || s == "null" || s == "[]" || s == "{}" {
				continue
			}
			return s, true, nil
		}
	}
	return "", false, nil
}
