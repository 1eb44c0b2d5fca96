// Package analyzer turns listing and product text into comparable terms.
// It lower-cases input and splits on every rune that is neither a letter
// nor a digit. There is no stop-word removal and no stemming: the same
// analysis runs on both sides of a match, so "sd500" in a product model and
// "SD500" in a listing title meet as the same term.
package analyzer

import (
	"strings"
	"unicode"
)

// Token is a single normalised term and its ordinal position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lowercased Tokens. Empty input yields an empty
// slice.
func Tokenize(text string) []Token {
	words := split(text)
	tokens := make([]Token, 0, len(words))
	for pos, word := range words {
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
	}
	return tokens
}

// Analyze returns the ordered terms of text.
func Analyze(text string) []string {
	return split(text)
}

func split(text string) []string {
	if text == "" {
		return []string{}
	}
	// FieldsFunc never yields zero-length fields.
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
