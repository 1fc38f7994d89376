package similarity

import (
	"strconv"
	"strings"
)

// DefaultDelimiter separates tags in a delimited tag string.
const DefaultDelimiter = "|"

// Tag is a weighted label attached to an entity.
type Tag struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ParseTags converts a table cell into a tag list. It accepts []Tag,
// []string, or a delimited string whose entries are "name" or
// "name:weight". Missing or malformed weights default to 1. Empty names are
// skipped.
func ParseTags(value any, delimiter string) []Tag {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	switch v := value.(type) {
	case nil:
		return nil
	case []Tag:
		return v
	case []string:
		tags := make([]Tag, 0, len(v))
		for _, s := range v {
			if t, ok := parseTag(s); ok {
				tags = append(tags, t)
			}
		}
		return tags
	case string:
		return ParseTags(strings.Split(v, delimiter), delimiter)
	default:
		return nil
	}
}

func parseTag(s string) (Tag, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tag{}, false
	}
	if i := strings.LastIndex(s, ":"); i > 0 {
		if w, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64); err == nil {
			name := strings.TrimSpace(s[:i])
			if name == "" {
				return Tag{}, false
			}
			return Tag{Name: name, Weight: w}, true
		}
	}
	return Tag{Name: s, Weight: 1}, true
}
