package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDecimal_SimpleNumber(t *testing.T) {
	result, err := CleanDecimal("123.45")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "123.45" {
		t.Errorf("Expected '123.45', got '%s'", result.String())
	}
}

func TestCleanDecimal_WithCommas(t *testing.T) {
	result, err := CleanDecimal("1,234.56")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234.56" {
		t.Errorf("Expected '1234.56', got '%s'", result.String())
	}
}

func TestCleanDecimal_WithCurrencySuffix(t *testing.T) {
	result, err := CleanDecimal("1,234.56 LYD")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234.56" {
		t.Errorf("Expected '1234.56', got '%s'", result.String())
	}
}

func TestCleanDecimal_ArabicIndicDigits(t *testing.T) {
	result, err := CleanDecimal("١٢٣٤")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "1234" {
		t.Errorf("Expected '1234', got '%s'", result.String())
	}
}

func TestCleanDecimal_NegativeSign(t *testing.T) {
	result, err := CleanDecimal("-123.45")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.String() != "-123.45" {
		t.Errorf("Expected '-123.45', got '%s'", result.String())
	}
}

func TestCleanDecimal_EmptyString(t *testing.T) {
	result, err := CleanDecimal("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsZero() {
		t.Errorf("Expected zero, got '%s'", result.String())
	}
}

func TestCleanDecimal_Malformed(t *testing.T) {
	if _, err := CleanDecimal("1.2.3"); err == nil {
		t.Error("Expected error for '1.2.3', got nil")
	}
}

func TestParseAmount_MalformedIsZero(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "--", "null"} {
		if got := ParseAmount(input); !got.IsZero() {
			t.Errorf("ParseAmount(%q) = %s, expected 0", input, got)
		}
	}
}

func TestParseDate_Layouts(t *testing.T) {
	tests := []struct {
		input string
		year  int
		month time.Month
		day   int
	}{
		{"2024-02-01", 2024, time.February, 1},
		{"2024-02-01T10:30:00", 2024, time.February, 1},
		{"2024-02-01T10:30:00Z", 2024, time.February, 1},
		{"2024-02-01T10:30:00.123456+00:00", 2024, time.February, 1},
		{"2024-02-01 10:30:00", 2024, time.February, 1},
		{"2024-02-01 10:30:00.5+00", 2024, time.February, 1},
	}

	for _, tt := range tests {
		result, err := ParseDate(tt.input)
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if result.Year() != tt.year || result.Month() != tt.month || result.Day() != tt.day {
			t.Errorf("ParseDate(%q) = %v", tt.input, result)
		}
	}
}

func TestParseDate_InvalidDate(t *testing.T) {
	_, err := ParseDate("invalid")
	if err == nil {
		t.Error("Expected error for invalid date, got nil")
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var rec struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
		E Amount `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 5000, "b": "1,250.50", "c": null, "d": "n/a", "e": true}`), &rec)
	require.NoError(t, err)

	assert.True(t, rec.A.Equal(decimal.NewFromInt(5000)))
	assert.True(t, rec.B.Equal(decimal.RequireFromString("1250.5")))
	assert.True(t, rec.C.IsZero())
	assert.True(t, rec.D.IsZero())
	assert.True(t, rec.E.IsZero())
}

func TestAmount_Scan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("42.10"))
	assert.Equal(t, "42.1", a.String())

	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())

	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7", a.String())
}

func TestNullInt_UnmarshalJSON(t *testing.T) {
	var rec struct {
		A NullInt `json:"a"`
		B NullInt `json:"b"`
		C NullInt `json:"c"`
		D NullInt `json:"d"`
		E NullInt `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 1127, "b": "88", "c": null, "d": "abc"}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, IntOf(1127), rec.A)
	assert.Equal(t, IntOf(88), rec.B)
	assert.False(t, rec.C.Valid)
	assert.False(t, rec.D.Valid)
	assert.False(t, rec.E.Valid)
	assert.Nil(t, rec.E.Ptr())
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var rec struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": "2024-01-01", "b": "not a date", "c": null}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, 2024, rec.A.Year())
	assert.True(t, rec.B.IsZero())
	assert.True(t, rec.C.IsZero())
	assert.Nil(t, rec.C.Ptr())

	out, err := json.Marshal(rec.C)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDateRange_Contains(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	r := DateRange{From: &from, To: &to}

	assert.True(t, r.Contains(DateOf(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	assert.True(t, r.Contains(DateOf(time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC))))
	assert.False(t, r.Contains(DateOf(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))))
	assert.False(t, r.Contains(DateOf(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC))))
	assert.False(t, r.Contains(Date{}))

	assert.True(t, DateRange{}.Contains(Date{}))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("", "")
	require.NoError(t, err)
	assert.False(t, r.IsSet())

	r, err = ParseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.NotNil(t, r.From)
	require.NotNil(t, r.To)
	assert.Equal(t, 31, r.To.Day())

	_, err = ParseRange("yesterday", "")
	assert.Error(t, err)

	_, err = ParseRange("2024-02-01", "2024-01-01")
	assert.Error(t, err)
}
