package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// LayoutFecha is the wire format for calendar dates.
const LayoutFecha = "2006-01-02"

// Fecha is a calendar date without time-zone semantics. Values are normalised
// to midnight UTC so equality comparisons against DATE columns are stable.
type Fecha struct {
	time.Time
}

// NuevaFecha truncates t to its wall-clock date.
func NuevaFecha(t time.Time) Fecha {
	return Fecha{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseFecha parses a YYYY-MM-DD string.
func ParseFecha(s string) (Fecha, error) {
	t, err := time.Parse(LayoutFecha, s)
	if err != nil {
		return Fecha{}, fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	return NuevaFecha(t), nil
}

// FechaPtr converts a nullable column value.
func FechaPtr(t *time.Time) *Fecha {
	if t == nil {
		return nil
	}
	f := NuevaFecha(*t)
	return &f
}

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Format(LayoutFecha)
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Format(LayoutFecha))
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		f.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		f.Time = time.Time{}
		return nil
	}
	// Accept full timestamps too; only the date part is kept.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*f = NuevaFecha(t)
		return nil
	}
	parsed, err := ParseFecha(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
