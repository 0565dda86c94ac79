// Package language holds the fixed set of recognition languages the
// providers accept, keyed by BCP 47 tag.
package language

import "strings"

type Language struct {
	Tag  string
	Name string
}

// Supported is ordered for menu display.
var Supported = []Language{
	{Tag: "en-US", Name: "English (US)"},
	{Tag: "en-GB", Name: "English (UK)"},
	{Tag: "es-ES", Name: "Spanish (Spain)"},
	{Tag: "es-MX", Name: "Spanish (Mexico)"},
	{Tag: "fr-FR", Name: "French"},
	{Tag: "de-DE", Name: "German"},
	{Tag: "it-IT", Name: "Italian"},
	{Tag: "pt-BR", Name: "Portuguese (Brazil)"},
	{Tag: "ru-RU", Name: "Russian"},
	{Tag: "ja-JP", Name: "Japanese"},
	{Tag: "ko-KR", Name: "Korean"},
	{Tag: "zh-CN", Name: "Chinese (Simplified)"},
	{Tag: "ar-SA", Name: "Arabic"},
}

// Normalize canonicalizes user input like "en_us" or "EN-US" to the
// supported tag spelling. Unknown input is returned trimmed but otherwise
// untouched so the provider can reject it with its own error.
func Normalize(tag string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	for _, lang := range Supported {
		if strings.EqualFold(lang.Tag, trimmed) {
			return lang.Tag
		}
	}
	return trimmed
}

// IsSupported reports whether tag names one of the supported languages.
func IsSupported(tag string) bool {
	normalized := Normalize(tag)
	for _, lang := range Supported {
		if lang.Tag == normalized {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable name for tag, or the tag itself
// when it is not in the supported table.
func DisplayName(tag string) string {
	normalized := Normalize(tag)
	for _, lang := range Supported {
		if lang.Tag == normalized {
			return lang.Name
		}
	}
	return tag
}

// Base returns the primary subtag, e.g. "en" for "en-US". The whisper
// provider wants ISO 639-1 codes rather than full locale tags.
func Base(tag string) string {
	normalized := Normalize(tag)
	if idx := strings.Index(normalized, "-"); idx > 0 {
		return strings.ToLower(normalized[:idx])
	}
	return strings.ToLower(normalized)
}
