package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s`)
	nonDigitRegex   = regexp.MustCompile(`\D`)
	cardGroupRegex  = regexp.MustCompile(`(\d{4})`)
)

// DigitsOnly strips every non-digit character
func DigitsOnly(value string) string {
	return nonDigitRegex.ReplaceAllString(value, "")
}

// FormatCardNumber groups the card number in blocks of four digits
// separated by a single space, at most 19 characters.
func FormatCardNumber(value string) string {
	compact := whitespaceRegex.ReplaceAllString(value, "")
	grouped := strings.TrimSpace(cardGroupRegex.ReplaceAllString(compact, "${1} "))
	return truncate(grouped, 19)
}

// FormatExpiryDate renders MM/YY
func FormatExpiryDate(value string) string {
	digits := DigitsOnly(value)
	if len(digits) < 2 {
		return digits
	}
	month := digits[:2]
	year := digits[2:min(len(digits), 4)]
	rest := digits[min(len(digits), 4):]
	return truncate(month+"/"+year+rest, 5)
}

// FormatCVV keeps at most three digits
func FormatCVV(value string) string {
	return truncate(DigitsOnly(value), 3)
}

// FormatCPF applies XXX.XXX.XXX-XX progressively as digits are typed
func FormatCPF(value string) string {
	d := DigitsOnly(value)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:min(len(d), 11)]
	}
}

// FormatPhone applies (XX) XXXXX-XXXX progressively
func FormatPhone(value string) string {
	d := DigitsOnly(value)
	if len(d) <= 2 {
		return d
	}
	area, number := d[:2], d[2:]
	if len(number) > 5 {
		number = number[:5] + "-" + number[5:min(len(number), 9)]
	}
	return "(" + area + ") " + number
}

// FormatBirthDate applies DD/MM/YYYY progressively
func FormatBirthDate(value string) string {
	d := DigitsOnly(value)
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 4:
		return d[:2] + "/" + d[2:]
	default:
		return d[:2] + "/" + d[2:4] + "/" + d[4:min(len(d), 8)]
	}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
