package common

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9.\-]`)

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9", "٫", ".",
)

// Location is used for timestamps stored without a zone offset.
var Location = time.Local

// CleanDecimal parses a string into a decimal.Decimal, removing non-numeric characters
func CleanDecimal(text string) (decimal.Decimal, error) {
	cleanText := nonNumericRegex.ReplaceAllString(arabicDigits.Replace(text), "")
	if cleanText == "" || cleanText == "-" || cleanText == "." {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ParseAmount is CleanDecimal with malformed input coerced to zero.
func ParseAmount(text string) decimal.Decimal {
	amount, err := CleanDecimal(text)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate accepts the timestamp shapes PostgREST and the database emit.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// Amount is a money value that decodes malformed or missing input as zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func AmountFromInt(n int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(n)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	a.Decimal = ParseAmount(unquote(b))
	return nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.Decimal = decimal.Zero
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
	case int64:
		a.Decimal = decimal.NewFromInt(v)
	case string:
		a.Decimal = ParseAmount(v)
	case []byte:
		a.Decimal = ParseAmount(string(v))
	default:
		a.Decimal = ParseAmount(fmt.Sprint(v))
	}
	return nil
}

// NullInt is a lenient optional integer; numeric strings are accepted and
// anything else decodes as absent.
type NullInt struct {
	Int64 int64
	Valid bool
}

func IntOf(n int64) NullInt {
	return NullInt{Int64: n, Valid: true}
}

func (n NullInt) Ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func (n *NullInt) UnmarshalJSON(b []byte) error {
	*n = parseNullInt(unquote(b))
	return nil
}

func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(n.Int64, 10)), nil
}

func (n *NullInt) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = NullInt{}
	case int64:
		*n = IntOf(v)
	case int32:
		*n = IntOf(int64(v))
	case float64:
		*n = IntOf(int64(v))
	case string:
		*n = parseNullInt(v)
	case []byte:
		*n = parseNullInt(string(v))
	default:
		*n = parseNullInt(fmt.Sprint(v))
	}
	return nil
}

func (n NullInt) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Int64, nil
}

func parseNullInt(s string) NullInt {
	s = strings.TrimSpace(arabicDigits.Replace(s))
	if s == "" || s == "null" {
		return NullInt{}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntOf(v)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return IntOf(int64(f))
	}
	return NullInt{}
}

// Date is an optional calendar timestamp. The zero value means absent, and
// unparseable input decodes as absent.
type Date struct {
	time.Time
}

func DateOf(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.Time.MarshalJSON()
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v
	case string:
		d.Time, _ = ParseDate(v)
	case []byte:
		d.Time, _ = ParseDate(string(v))
	default:
		d.Time = time.Time{}
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// DateRange bounds payment dates. A bound given as a bare date (midnight)
// covers that whole day.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (r DateRange) IsSet() bool {
	return r.From != nil || r.To != nil
}

// Upper returns the exclusive upper bound of the range, if any.
func (r DateRange) Upper() *time.Time {
	if r.To == nil {
		return nil
	}
	upper := *r.To
	if upper.Hour() == 0 && upper.Minute() == 0 && upper.Second() == 0 && upper.Nanosecond() == 0 {
		upper = upper.AddDate(0, 0, 1)
	} else {
		upper = upper.Add(time.Nanosecond)
	}
	return &upper
}

// Contains reports whether d falls in the range. Absent dates only match an
// unbounded range.
func (r DateRange) Contains(d Date) bool {
	if !r.IsSet() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if upper := r.Upper(); upper != nil && !d.Before(*upper) {
		return false
	}
	return true
}

// ParseRange builds a range from optional textual bounds.
func ParseRange(from, to string) (DateRange, error) {
	var r DateRange
	if strings.TrimSpace(from) != "" {
		t, err := ParseDate(from)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid from date: %w", err)
		}
		r.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := ParseDate(to)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid to date: %w", err)
		}
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return DateRange{}, fmt.Errorf("date range ends before it starts")
	}
	return r, nil
}

func unquote(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		if s, err := strconv.Unquote(string(b)); err == nil {
			return strings.TrimSpace(s)
		}
		b = b[1 : len(b)-1]
	}
	return strings.TrimSpace(string(b))
}
