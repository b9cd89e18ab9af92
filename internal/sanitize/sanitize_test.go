package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactTopLevelField(t *testing.T) {
	s := New([]string{"ssn", "card_number"})
	out := s.Redact(map[string]interface{}{
		"order_id": "ord_1",
		"ssn":      "123-45-6789",
	})
	assert.Equal(t, "ord_1", out["order_id"])
	assert.Equal(t, redactedValue, out["ssn"])
}

func TestRedactIsCaseInsensitive(t *testing.T) {
	s := New([]string{"SSN"})
	out := s.Redact(map[string]interface{}{"ssn": "secret"})
	assert.Equal(t, redactedValue, out["ssn"])
}

func TestRedactNestedStructures(t *testing.T) {
	s := New([]string{"card_number"})
	out := s.Redact(map[string]interface{}{
		"customer": map[string]interface{}{
			"card_number": "4111111111111111",
			"name":        "Jane",
		},
		"items": []interface{}{
			map[string]interface{}{"card_number": "4222222222222222"},
		},
	})
	customer := out["customer"].(map[string]interface{})
	assert.Equal(t, redactedValue, customer["card_number"])
	assert.Equal(t, "Jane", customer["name"])

	items := out["items"].([]interface{})
	firstItem := items[0].(map[string]interface{})
	assert.Equal(t, redactedValue, firstItem["card_number"])
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	s := New([]string{"ssn"})
	input := map[string]interface{}{"ssn": "123-45-6789"}
	_ = s.Redact(input)
	assert.Equal(t, "123-45-6789", input["ssn"])
}

func TestNilSanitizerIsNoOp(t *testing.T) {
	var s *Sanitizer
	input := map[string]interface{}{"ssn": "123-45-6789"}
	out := s.Redact(input)
	assert.Equal(t, "123-45-6789", out["ssn"])
}
