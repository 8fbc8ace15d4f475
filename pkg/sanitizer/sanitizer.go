package sanitizer

import (
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func StripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

var formField = Pipeline{
	StripNUL,
	strings.TrimSpace,
}

// SanitizeString prepares a submitted form field for validation.
func SanitizeString(input string) string {
	return formField.Apply(input)
}
