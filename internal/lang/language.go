// Package lang normalizes the language identifiers reported by speech
// services. Sarvam reports BCP-47 locales ("hi-IN"), Whisper reports lowercase
// English names ("hindi"); both resolve to the same display name.
package lang

import (
	"fmt"
	"strings"
)

// Unknown is the language reported when a service does not name one.
const Unknown = "unknown"

// languages maps ISO 639-1 base codes of the Indic locales the speech
// service recognizes, plus English, to display names.
var languages = map[string]string{
	"bn": "Bengali",
	"en": "English",
	"gu": "Gujarati",
	"hi": "Hindi",
	"kn": "Kannada",
	"ml": "Malayalam",
	"mr": "Marathi",
	"od": "Odia",
	"or": "Odia",
	"pa": "Punjabi",
	"ta": "Tamil",
	"te": "Telugu",
	"ur": "Urdu",
}

// byName indexes languages by lowercase display name for Whisper-style reports.
var byName = func() map[string]string {
	m := make(map[string]string, len(languages))
	for code, name := range languages {
		if _, ok := m[strings.ToLower(name)]; !ok || code != "or" {
			m[strings.ToLower(name)] = code
		}
	}
	return m
}()

// Normalize lowercases a code and uses a hyphen separator.
// Accepts: "hi-IN", "hi_IN", "HI-in" -> "hi-in"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// BaseCode extracts the base language from a locale or language name.
// Examples: "hi-IN" -> "hi", "Tamil" -> "ta", "xx" -> "xx".
func BaseCode(code string) string {
	n := Normalize(code)
	if c, ok := byName[n]; ok {
		return c
	}
	if idx := strings.Index(n, "-"); idx != -1 {
		return n[:idx]
	}
	return n
}

// Known reports whether code names an actual language rather than the
// "unknown" placeholder or nothing.
func Known(code string) bool {
	n := Normalize(code)
	return n != "" && n != Unknown
}

// DisplayName returns a human-readable name, falling back to the code itself.
func DisplayName(code string) string {
	if !Known(code) {
		return Unknown
	}
	if name, ok := languages[BaseCode(code)]; ok {
		return name
	}
	return code
}

// Validate checks that code is a language the speech service can report.
// The empty string and "auto-detect" are valid and mean detection.
func Validate(code string) error {
	n := Normalize(code)
	if n == "" || n == "auto-detect" {
		return nil
	}
	if _, ok := languages[BaseCode(n)]; !ok {
		return fmt.Errorf("invalid language code %q (use a locale like 'hi-IN' or 'auto-detect'): %w",
			code, ErrInvalid)
	}
	return nil
}
