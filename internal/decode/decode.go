// Package decode turns loosely typed configuration mappings into typed structs.
package decode

import (
	"strings"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Into decodes input onto out, which must be a pointer to a struct with mapstructure tags.
// Fields absent from input keep their current value, so decoding onto defaults is an overlay.
// Scalars are weakly typed ("11211" decodes into an int). With strict set, unknown keys are rejected.
func Into(op string, input map[string]any, out any, strict bool) error {
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		Result:           out,
	})
	if err != nil {
		return domain.NewConfigError(op, "", err.Error())
	}
	if err := dec.Decode(input); err != nil {
		return domain.NewConfigError(op, "", err.Error())
	}
	return nil
}

// Has reports whether key is present in m, ignoring case.
func Has(m map[string]any, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Get returns the value stored under key, ignoring case.
func Get(m map[string]any, key string) (any, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Without returns a copy of m without key (case-insensitive).
func Without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !strings.EqualFold(k, key) {
			out[k] = v
		}
	}
	return out
}

// Normalize converts the map shapes configuration loaders produce into map[string]any.
// It reports false for anything that is not a mapping.
func Normalize(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}
