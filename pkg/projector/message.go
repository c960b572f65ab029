package projector

import "encoding/json"

// Message is the shape the projector expects a log payload to unmarshal
// into: a content-addressed envelope around a signed value.
type Message struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
	Value     struct {
		Author    string          `json:"author"`
		Sequence  uint64          `json:"sequence"`
		Timestamp int64           `json:"timestamp"`
		Content   json.RawMessage `json:"content"`
	} `json:"value"`
}

// extractContentField pulls a string field out of a message's content
// object by name, tolerating content that isn't a JSON object or that
// lacks the field — both simply yield ok=false.
func extractContentField(content json.RawMessage, field string) (string, bool) {
	if len(content) == 0 {
		return "", false
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(content, &fields); err != nil {
		return "", false
	}

	v, ok := fields[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
