package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a file name (or a chunk of file content) matches
// the query string. In plain mode the match is a case-insensitive substring
// test; in regex mode the pattern is compiled once, before dispatch.
type Matcher struct {
	term string // lowercased query for substring mode
	re   *regexp.Regexp
}

// NewMatcher builds a matcher for term. If regexMode is set the term is
// compiled as a case-insensitive regular expression; a compile failure
// returns ErrInvalidPattern so the caller can refuse to dispatch.
func NewMatcher(term string, regexMode bool) (*Matcher, error) {
	if !regexMode {
		return &Matcher{term: strings.ToLower(term)}, nil
	}
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &Matcher{re: re}, nil
}

// MatchName reports whether a file name matches the query.
func (m *Matcher) MatchName(name string) bool {
	if m.re != nil {
		return m.re.MatchString(name)
	}
	return strings.Contains(strings.ToLower(name), m.term)
}

// MatchContent reports whether a content chunk matches the query.
func (m *Matcher) MatchContent(chunk []byte) bool {
	if m.re != nil {
		return m.re.Match(chunk)
	}
	return strings.Contains(strings.ToLower(string(chunk)), m.term)
}

// Pattern returns the compiled pattern in regex mode, nil otherwise.
func (m *Matcher) Pattern() *regexp.Regexp { return m.re }

// Term returns the raw (lowercased) substring term. Empty in regex mode.
func (m *Matcher) Term() string { return m.term }
