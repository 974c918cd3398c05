package ledger

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric request field that keeps the caller's raw text.
// It accepts a JSON number or a JSON string so that parsing (and rejecting
// garbage) happens in Validate instead of in the JSON decoder.
type Number struct {
	raw string
	set bool
}

// NewNumber wraps raw text as a present Number.
func NewNumber(raw string) Number {
	return Number{raw: strings.TrimSpace(raw), set: true}
}

// NumberFrom wraps a decimal as a present Number.
func NumberFrom(d decimal.Decimal) Number {
	return Number{raw: d.String(), set: true}
}

// IsSet reports whether the field was supplied with a non-null value.
func (n Number) IsSet() bool { return n.set }

// Raw returns the text as supplied.
func (n Number) Raw() string { return n.raw }

// Decimal parses the raw text.
func (n Number) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(n.raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NewNumber(s)
		return nil
	}
	*n = NewNumber(string(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	if _, err := decimal.NewFromString(n.raw); err == nil {
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}
