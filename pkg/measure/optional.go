package measure

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// OptInt is an integer reading that may be absent
type OptInt struct {
	Int64 int64
	Valid bool
}

// Int returns a present OptInt
func Int(v int64) OptInt {
	return OptInt{Int64: v, Valid: true}
}

// Ptr returns nil when absent
func (o OptInt) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Int64
	return &v
}

func (o OptInt) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatInt(o.Int64, 10)
}

// MarshalCSV writes an absent value as an empty cell
func (o OptInt) MarshalCSV() (string, error) {
	return o.String(), nil
}

// UnmarshalCSV reads an empty cell as absent
func (o *OptInt) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*o = OptInt{}
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*o = Int(v)
	return nil
}

// Value implements driver.Valuer; absent becomes NULL
func (o OptInt) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Int64, nil
}

// OptFloat is a decimal reading that may be absent
type OptFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a present OptFloat
func Float(v float64) OptFloat {
	return OptFloat{Float64: v, Valid: true}
}

// Ptr returns nil when absent
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Float64
	return &v
}

func (o OptFloat) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatFloat(o.Float64, 'f', -1, 64)
}

// MarshalCSV writes an absent value as an empty cell
func (o OptFloat) MarshalCSV() (string, error) {
	return o.String(), nil
}

// UnmarshalCSV reads an empty cell as absent
func (o *OptFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*o = OptFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	*o = Float(v)
	return nil
}

// Value implements driver.Valuer; absent becomes NULL
func (o OptFloat) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Float64, nil
}
