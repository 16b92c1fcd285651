package events

import "fmt"

const TypeRulesChanged = "RULES_CHANGED"

// NewRulesChanged reports that the listed documents ("proxy", "direct")
// were rewritten.
func NewRulesChanged(documents ...string) BaseEvent {
	list := make([]interface{}, 0, len(documents))
	for _, d := range documents {
		list = append(list, d)
	}
	return New(TypeRulesChanged, map[string]interface{}{
		"documents": list,
	})
}

// ChangedDocuments reads the document list back out of a RULES_CHANGED
// event, whatever transport it came through.
func ChangedDocuments(e Event) ([]string, error) {
	if e.EventType() != TypeRulesChanged {
		return nil, fmt.Errorf("unexpected event type %q", e.EventType())
	}
	raw, ok := e.Payload()["documents"]
	if !ok {
		return nil, fmt.Errorf("event %s has no documents", e.EventID())
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("event %s: document %v is not a string", e.EventID(), item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("event %s: documents has type %T", e.EventID(), raw)
}
