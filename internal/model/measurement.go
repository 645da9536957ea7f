package model

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// Measurement is a nullable decimal (inches or ounces).  It scans from
// DECIMAL/NUMERIC columns and renders as a JSON string such as "4.25".
// Form posts send "" for an empty input, which decodes as null.
type Measurement struct {
	decimal.NullDecimal
}

// NewMeasurement builds a valid Measurement from a decimal literal.  It
// panics on malformed input and is meant for constants and tests.
func NewMeasurement(s string) Measurement {
	return Measurement{decimal.NewNullDecimal(decimal.RequireFromString(s))}
}

// MeasurementOf wraps a decimal value.
func MeasurementOf(d decimal.Decimal) Measurement {
	return Measurement{decimal.NewNullDecimal(d)}
}

func (m *Measurement) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		m.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	return m.NullDecimal.UnmarshalJSON(b)
}
