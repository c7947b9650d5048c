package isbn

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"isbndate/internal/services"
)

const bookland = "978"

// Clean folds full-width characters to ASCII and strips everything except
// digits and the ISBN-10 check character X.
func Clean(raw string) string {
	folded := width.Fold.String(raw)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// IsISBN10 reports whether s is a cleaned ISBN-10 with a valid check digit.
func IsISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		d, ok := digit(s[i])
		if !ok {
			return false
		}
		sum += d * (10 - i)
	}
	last := s[9]
	switch {
	case last == 'X':
		sum += 10
	default:
		d, ok := digit(last)
		if !ok {
			return false
		}
		sum += d
	}
	return sum%11 == 0
}

// IsISBN13 reports whether s is a cleaned ISBN-13 with a valid check digit.
func IsISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if _, ok := digit(s[i]); !ok {
			return false
		}
	}
	return checkDigit13(s[:12]) == s[12]
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
func ToISBN13(isbn10 string) (string, error) {
	if !IsISBN10(isbn10) {
		return "", fmt.Errorf("%w: %q is not a valid ISBN-10", services.ErrInvalidIdentifier, isbn10)
	}
	body := bookland + isbn10[:9]
	return body + string(checkDigit13(body)), nil
}

// ToISBN10 converts a 978-prefixed ISBN-13 back to ISBN-10. 979 values have
// no ISBN-10 equivalent.
func ToISBN10(isbn13 string) (string, error) {
	if !IsISBN13(isbn13) || !strings.HasPrefix(isbn13, bookland) {
		return "", fmt.Errorf("%w: %q has no ISBN-10 form", services.ErrInvalidIdentifier, isbn13)
	}
	body := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		d, _ := digit(body[i])
		sum += d * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X", nil
	}
	return body + string(rune('0'+check)), nil
}

// Normalize returns the canonical ISBN-13 for raw input, or an error wrapping
// services.ErrInvalidIdentifier.
func Normalize(raw string) (string, error) {
	cleaned := Clean(raw)
	switch {
	case IsISBN13(cleaned):
		return cleaned, nil
	case IsISBN10(cleaned):
		return ToISBN13(cleaned)
	case cleaned == "":
		return "", fmt.Errorf("%w: empty identifier", services.ErrInvalidIdentifier)
	default:
		return "", fmt.Errorf("%w: %q failed checksum validation", services.ErrInvalidIdentifier, strings.TrimSpace(raw))
	}
}

// Valid reports whether raw normalizes to an ISBN.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

func checkDigit13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d, _ := digit(body[i])
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func digit(c byte) (int, bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}
