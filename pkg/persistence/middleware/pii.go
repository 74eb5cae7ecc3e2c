package middleware

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// DefaultRedactPatterns match keys that commonly hold credentials.
var DefaultRedactPatterns = []string{`(?i)pass(word)?`, `(?i)secret`, `(?i)token`, `(?i)card`}

// Redactor masks values of payload keys matching any of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles patterns into a Redactor.
func NewRedactor(patternStrings []string) (*Redactor, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return &Redactor{patterns: patterns}, nil
}

// Redact returns a copy of a JSON object payload with matching keys masked at any depth.
// Payloads that are not JSON objects are returned unchanged with ok=false.
func (r *Redactor) Redact(payload []byte) (out []byte, ok bool) {
	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return payload, false
	}
	maskMap(values, r.patterns)
	masked, err := json.Marshal(values)
	if err != nil {
		return payload, false
	}
	return masked, true
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				masked = true
				break
			}
		}
		if masked {
			continue
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
