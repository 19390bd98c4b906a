package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCardNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "partial group", input: "411", expected: "411"},
		{name: "exactly one group", input: "4111", expected: "4111"},
		{name: "groups digits", input: "4111111111111111", expected: "4111 1111 1111 1111"},
		{name: "collapses existing spacing", input: "41 11 1111  1111 1111", expected: "4111 1111 1111 1111"},
		{name: "truncates to 19 characters", input: "41111111111111112222", expected: "4111 1111 1111 1111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCardNumber(tt.input))
		})
	}
}

func TestFormatCardNumber_Idempotent(t *testing.T) {
	formatted := "4111 1111 1111 1111"
	assert.Equal(t, formatted, FormatCardNumber(formatted))
	assert.Equal(t, formatted, FormatCardNumber(FormatCardNumber(formatted)))
}

func TestFormatExpiryDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "1", expected: "1"},
		{input: "12", expected: "12/"},
		{input: "123", expected: "12/3"},
		{input: "1225", expected: "12/25"},
		{input: "12/25", expected: "12/25"},
		{input: "122599", expected: "12/25"},
		{input: "ab12cd25", expected: "12/25"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatExpiryDate(tt.input))
		})
	}
}

func TestFormatCVV(t *testing.T) {
	assert.Equal(t, "", FormatCVV("abc"))
	assert.Equal(t, "12", FormatCVV("12"))
	assert.Equal(t, "123", FormatCVV("1234"))
	assert.Equal(t, "123", FormatCVV("1a2b3c"))
}

func TestFormatCPF(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "123", expected: "123"},
		{input: "1234", expected: "123.4"},
		{input: "123456", expected: "123.456"},
		{input: "1234567", expected: "123.456.7"},
		{input: "123456789", expected: "123.456.789"},
		{input: "1234567890", expected: "123.456.789-0"},
		{input: "12345678901", expected: "123.456.789-01"},
		{input: "123456789012345", expected: "123.456.789-01"},
		{input: "123.456.789-01", expected: "123.456.789-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCPF(tt.input))
		})
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "11", expected: "11"},
		{input: "119", expected: "(11) 9"},
		{input: "1198765", expected: "(11) 98765"},
		{input: "11987654", expected: "(11) 98765-4"},
		{input: "11987654321", expected: "(11) 98765-4321"},
		{input: "1198765432199", expected: "(11) 98765-4321"},
		{input: "(11) 98765-4321", expected: "(11) 98765-4321"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPhone(tt.input))
		})
	}
}

func TestFormatBirthDate(t *testing.T) {
	assert.Equal(t, "01", FormatBirthDate("01"))
	assert.Equal(t, "01/0", FormatBirthDate("010"))
	assert.Equal(t, "01/01/2", FormatBirthDate("01012"))
	assert.Equal(t, "01/01/2000", FormatBirthDate("01012000"))
	assert.Equal(t, "01/01/2000", FormatBirthDate("010120001"))
	assert.Equal(t, "01/01/2000", FormatBirthDate("01/01/2000"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "12345678901", DigitsOnly("123.456.789-01"))
	assert.Equal(t, "", DigitsOnly("abc"))
}
