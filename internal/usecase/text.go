package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex     = regexp.MustCompile(`[^\w\s]`)
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
	digitRegex           = regexp.MustCompile(`\d`)
)

// extendedStopWords includes basic English stop words plus listing noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"this": true, "that": true, "into": true, "your": true, "their": true,
	// Vision descriptions lean on these
	"approximately": true, "approx": true, "style": true, "looking": true,
	"visible": true, "appears": true, "features": true, "featuring": true,
	// Storefront noise
	"buy": true, "shop": true, "online": true, "price": true, "best": true,
	"free": true, "delivery": true, "sale": true, "offer": true, "offers": true,
	"kuwait": true, "uae": true, "ksa": true, "saudi": true, "dubai": true,
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words, and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// significantWords returns the unique tokens of s longer than minLen characters
func significantWords(s string, minLen int) []string {
	var words []string
	seen := make(map[string]bool)
	for _, t := range tokenize(s) {
		if len(t) <= minLen || seen[t] {
			continue
		}
		seen[t] = true
		words = append(words, t)
	}
	return words
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// hasDigit reports whether s contains any decimal digit
func hasDigit(s string) bool {
	return digitRegex.MatchString(s)
}

// wordCount counts space-separated words the way listing titles are written
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, turns runs of anything but letters and digits in any
// script into a single space, and trims.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// truncate shortens s for log lines
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
