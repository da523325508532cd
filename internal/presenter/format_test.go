package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func ptr(v float64) *float64 { return &v }

func TestFormatterNumber(t *testing.T) {
	f := newFormatter(language.English)

	tests := []struct {
		name  string
		value *float64
		want  string
	}{
		{"absent", nil, "-"},
		{"zero", ptr(0), "0"},
		{"grouped", ptr(255000), "255,000"},
		{"fraction digits kept", ptr(1234567.891), "1,234,567.891"},
		{"at most three fraction digits", ptr(0.12345), "0.123"},
		{"negative", ptr(-4200), "-4,200"},
		{"trailing zeros dropped", ptr(132500.5), "132,500.5"},
		{"tie at third digit rounds up", ptr(0.0625), "0.063"},
		{"negative tie rounds away from zero", ptr(-1.0625), "-1.063"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.number(tt.value))
		})
	}
}

func TestFixedAndPercentages(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"current ratio two decimals", fixed(ptr(1.8), 2), "1.80"},
		{"current ratio rounds", fixed(ptr(1.234), 2), "1.23"},
		{"dso one decimal", fixed(ptr(34.2), 1), "34.2"},
		{"dso tie rounds up", fixed(ptr(41.25), 1), "41.3"},
		{"absent fixed", fixed(nil, 2), "-"},
		{"fraction", fraction(ptr(0.153)), "15.3%"},
		{"fraction rounds", fraction(ptr(0.2627)), "26.3%"},
		{"fraction zero", fraction(ptr(0)), "0.0%"},
		{"negative fraction", fraction(ptr(-0.05)), "-5.0%"},
		{"absent fraction", fraction(nil), "-"},
		{"percent is not scaled", percent(ptr(42.5)), "42.5%"},
		{"percent one decimal", percent(ptr(7)), "7.0%"},
		{"absent percent", percent(nil), "-"},
		{"shortest decimal", shortest(ptr(1.5)), "1.5"},
		{"shortest integer", shortest(ptr(45)), "45"},
		{"absent shortest", shortest(nil), "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestToFixedTies(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"exact tie two decimals", fixed(ptr(1.125), 2), "1.13"},
		{"exact tie one decimal", fixed(ptr(34.25), 1), "34.3"},
		{"fraction tie", fraction(ptr(0.0025)), "0.3%"},
		{"percent tie", percent(ptr(42.25)), "42.3%"},
		{"below the tie in binary", fixed(ptr(1.005), 2), "1.00"},
		{"above the tie in binary carries", fixed(ptr(99.95), 1), "100.0"},
		{"negative tie", fixed(ptr(-2.5), 0), "-3"},
		{"no decimals", fixed(ptr(7.4), 0), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestTextAndAt(t *testing.T) {
	s := "Good"
	assert.Equal(t, "Good", text(&s))
	assert.Equal(t, "-", text(nil))

	values := []*float64{ptr(1), nil}
	assert.Equal(t, 1.0, *at(values, 0))
	assert.Nil(t, at(values, 1))
	assert.Nil(t, at(values, 2))
	assert.Nil(t, at(nil, 0))
}
