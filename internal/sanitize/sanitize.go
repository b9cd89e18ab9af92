// Package sanitize redacts policy-named fields from log and trace records
// before they leave the process (spec §4 Sanitizer, §6 Telemetry).
package sanitize

import "strings"

const redactedValue = "***"

// Sanitizer replaces the value of any field whose name (case-insensitive)
// matches a configured redaction field, anywhere in a nested structure.
type Sanitizer struct {
	fields map[string]struct{}
}

// New builds a Sanitizer from the policy's data_policy.redact_fields list.
func New(redactFields []string) *Sanitizer {
	fields := make(map[string]struct{}, len(redactFields))
	for _, f := range redactFields {
		fields[strings.ToLower(f)] = struct{}{}
	}
	return &Sanitizer{fields: fields}
}

// Redact returns a copy of record with every top-level or nested key
// matching a redaction field replaced by "***". A nil Sanitizer, or one with
// no redaction fields, returns record itself. Input is never mutated.
func (s *Sanitizer) Redact(record map[string]interface{}) map[string]interface{} {
	if s == nil || len(s.fields) == 0 {
		return record
	}
	return s.redactMap(record).(map[string]interface{})
}

func (s *Sanitizer) redactMap(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			if _, hit := s.fields[strings.ToLower(k)]; hit {
				out[k] = redactedValue
				continue
			}
			out[k] = s.redactMap(nested)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.redactMap(item)
		}
		return out
	default:
		return v
	}
}

// Fields reports the configured redaction field names, lowercased.
func (s *Sanitizer) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	return out
}
