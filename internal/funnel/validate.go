package funnel

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseNumber разбирает число с запятой или точкой в качестве разделителя
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// validNumber — положительное число (вес, объём, стоимость)
func validNumber(s string) (float64, bool) {
	n, ok := parseNumber(s)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// validPhone — минимально правдоподобный телефон:
// не короче 6 символов и хотя бы одна цифра
func validPhone(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 6 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// validPlace — название страны/города/груза, введённое вручную
func validPlace(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= 2
}
