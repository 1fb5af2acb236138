package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// Normalize lowercases input and drops every rune outside [a-z0-9]. Two
// human-entered names are treated as the same entity when their normalized
// forms are equal (or, for roster matching, overlap).
func Normalize(input string) string {
	s := strings.ToLower(input)
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func NormalizeHeader(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// SplitFullName splits on the first space. The remainder becomes the last
// name, or fallbackLast when the input is a single word.
func SplitFullName(fullName, fallbackLast string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", fallbackLast
	}
	if len(parts) == 1 {
		return parts[0], fallbackLast
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
