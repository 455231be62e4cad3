package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minTokenRunes = 3

var nonTokenChars = regexp.MustCompile(`[^a-zа-яё0-9+#./\s-]`)

// TokenSet is a set of unique tokens that remembers insertion order.
type TokenSet struct {
	items []string
	index map[string]struct{}
}

func NewTokenSet(tokens ...string) *TokenSet {
	s := &TokenSet{index: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		s.Add(t)
	}
	return s
}

// Add inserts a token unless it is already present.
func (s *TokenSet) Add(token string) {
	if _, ok := s.index[token]; ok {
		return
	}
	s.index[token] = struct{}{}
	s.items = append(s.items, token)
}

func (s *TokenSet) Has(token string) bool {
	_, ok := s.index[token]
	return ok
}

func (s *TokenSet) Len() int {
	return len(s.items)
}

// Items returns the tokens in insertion order.
func (s *TokenSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Tokenize lower-cases text, strips everything except Latin and Cyrillic
// letters, digits and "+#./-", and returns the unique significant tokens.
func (m *Matcher) Tokenize(text string) *TokenSet {
	return NewTokenSet(m.tokens(text)...)
}

func (m *Matcher) tokens(text string) []string {
	cleaned := nonTokenChars.ReplaceAllString(strings.ToLower(text), " ")

	out := make([]string, 0)
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) < minTokenRunes {
			continue
		}
		if m.vocab.IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
