// Package lexical provides tokenisation and sentence splitting shared by the
// offline embedder and the grounding checks of the verifier.
package lexical

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.][\p{L}\p{N}]+)*`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into",
		"about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now", "any", "all", "each", "which", "what",
		"who", "whom", "how", "when", "where", "why", "do", "does", "did", "has", "have", "had", "may",
		"must", "shall", "would", "could", "there", "their", "they", "them", "he", "she", "his", "her",
		"we", "our", "you", "your", "i", "me", "my", "not", "no", "also", "per",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether a lowercase token carries no content.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Tokenize lowercases text and splits it into word and number tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// ContentTokens returns tokens with stopwords removed and light suffix
// stemming applied, so "notice" and "notices" share a stem.
func ContentTokens(text string) []string {
	raw := Tokenize(text)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, Stem(t))
	}
	return out
}

var suffixes = []string{"ments", "ment", "ings", "ing", "ions", "ion", "ed", "es", "s"}

// Stem strips one common English suffix and a trailing "e".
// Tokens of three runes or fewer and numbers are returned unchanged.
func Stem(token string) string {
	r := []rune(token)
	if len(r) <= 3 || unicode.IsDigit(r[0]) {
		return token
	}
	if strings.HasSuffix(token, "ies") && len(r) > 4 {
		return strings.TrimSuffix(token, "ies") + "y"
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(token, suf) && len(token)-len(suf) >= 3 {
			token = strings.TrimSuffix(token, suf)
			break
		}
	}
	if len(token) > 4 && strings.HasSuffix(token, "e") {
		token = strings.TrimSuffix(token, "e")
	}
	return token
}

// SplitSentences splits text into trimmed sentences. A sentence ends at
// '.', '!', '?' or a newline followed by whitespace or end of text.
// Decimal points and abbreviations inside numbers do not split.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i, r := range runes {
		switch r {
		case '\n':
			flush(i + 1)
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush(i + 1)
			}
		}
	}
	flush(len(runes))

	return sentences
}

// Overlap returns the fraction of claim content tokens present in source.
// A claim without content tokens has overlap 1.
func Overlap(claim string, source map[string]struct{}) float64 {
	tokens := ContentTokens(claim)
	if len(tokens) == 0 {
		return 1
	}
	hit := 0
	for _, t := range tokens {
		if _, ok := source[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(tokens))
}

// UnmatchedNumbers returns the numeric tokens of claim that do not occur
// in source. A claim can share most words with a source and still state a
// different figure.
func UnmatchedNumbers(claim string, source map[string]struct{}) []string {
	var out []string
	for _, t := range ContentTokens(claim) {
		if !hasNumber(t) {
			continue
		}
		if _, ok := source[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func hasNumber(token string) bool {
	for _, r := range token {
		if unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// SurfaceTerms returns the content words of text in their original form,
// keyed by stem. The first surface form seen for a stem wins, and order
// follows text.
func SurfaceTerms(text string) []Term {
	var terms []Term
	seen := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		if IsStopword(t) {
			continue
		}
		stem := Stem(t)
		if _, dup := seen[stem]; dup {
			continue
		}
		seen[stem] = struct{}{}
		terms = append(terms, Term{Stem: stem, Surface: t})
	}
	return terms
}

// Term is a content word with its stem.
type Term struct {
	Stem    string
	Surface string
}

// TokenSet returns the set of content tokens in texts.
func TokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, t := range ContentTokens(text) {
			set[t] = struct{}{}
		}
	}
	return set
}
