package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errEmpty = errors.New("empty value")

// currency symbols accepted in front of an amount, longest first
var currencyPrefixes = []string{"PGK", "$", "K"}

func coerce(kind Kind, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, errEmpty
	}
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindDecimal:
		d, err := parseAmount(raw)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse count %q: %w", raw, err)
		}
		return IntValue(n), nil
	case KindDate:
		t, err := parseDate(raw)
		if err != nil {
			return Value{}, err
		}
		return DateValue(t), nil
	case KindFlag:
		return FlagValue(), nil
	default:
		return Value{}, fmt.Errorf("unknown kind %d", kind)
	}
}

// parseAmount strips a currency symbol and thousands separators.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(upper, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

// parseDate reads day/month/year with '/' or '-' separators and a 2 or 4 digit year.
func parseDate(raw string) (time.Time, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "-", "/")
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("parse date %q: expected day/month/year", raw)
	}
	var layout string
	switch len(parts[2]) {
	case 4:
		layout = "2/1/2006"
	case 2:
		layout = "2/1/06"
	default:
		return time.Time{}, fmt.Errorf("parse date %q: year must have 2 or 4 digits", raw)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}
