package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	dErrors "taxdesk/pkg/domain-errors"
)

// Money is an amount in cents. On the wire it is a decimal dollar amount.
type Money int64

// MaxAmount bounds any single amount and any running total, so sums of
// amounts never overflow.
const MaxAmount Money = 100_000_000_000

// Dollars formats the amount as "$1,234.56".
func (m Money) Dollars() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := strconv.FormatInt(v/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), v%100)
}

func (m Money) String() string { return m.Dollars() }

// Decimal formats the amount as a plain decimal such as "-1234.50".
func (m Money) Decimal() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes dollars as a JSON number, e.g. 500.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON reads dollars from a JSON number (250, 250.5) or a string
// ("$1,250.00"). An empty string is zero; null leaves m unchanged.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
		}
		if strings.TrimSpace(raw) == "" {
			*m = 0
			return nil
		}
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseAmount reads user input such as "250", "250.5", "$1,200.00" into
// cents. Anything that is not a number with at most two decimals is
// CodeInvalidAmount. Zero and negative values parse; callers decide whether
// they are allowed.
func ParseAmount(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
	}
	if w > uint64(MaxAmount/100) || Money(w*100+f) > MaxAmount {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "Amount cannot exceed "+MaxAmount.Dollars())
	}
	cents := Money(w*100 + f)
	if neg {
		cents = -cents
	}
	return cents, nil
}
