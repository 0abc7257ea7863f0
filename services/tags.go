package services

import (
	"encoding/json"
	"errors"
	"strings"
)

// TagList accepts either a comma separated string or a JSON list of strings.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("tags must be a string or a list of strings")
	}
	*t = SplitTags(raw)
	return nil
}

// SplitTags splits a comma separated tag string.
func SplitTags(raw string) TagList {
	return TagList(strings.Split(raw, ","))
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates keeping first-seen order.
// Tags differing only in case are duplicates; the first spelling wins.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
