package conversation

import (
	"regexp"
	"strings"
)

// localDigits maps Arabic-Indic and Extended Arabic-Indic (Persian) digits to ASCII.
var localDigits = func() map[rune]rune {
	table := make(map[rune]rune, 20)
	for i := rune(0); i < 10; i++ {
		table['٠'+i] = '0' + i
		table['۰'+i] = '0' + i
	}
	return table
}()

var canonicalPhone = regexp.MustCompile(`^07[0-9]{8}$`)

// NormalizeDigits rewrites locale digits to ASCII and leaves every other rune untouched.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := localDigits[r]; ok {
			return d
		}
		return r
	}, s)
}

// NormalizePhone keeps only decimal digits, converting locale digits to ASCII.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := localDigits[r]; ok {
			return d
		}
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidatePhone normalizes s and accepts it only in the canonical 07XXXXXXXX form.
func ValidatePhone(s string) (string, bool) {
	phone := NormalizePhone(s)
	if !canonicalPhone.MatchString(phone) {
		return "", false
	}
	return phone, true
}
