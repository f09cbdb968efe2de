package search

import (
	"strings"
	"unicode"
)

// defaultMaxGroupTerms is the number of extra group members appended when a
// domain term group matches.
const defaultMaxGroupTerms = 2

// QueryExpander expands search queries with domain term groups and synonym
// substitutions. Expansion is strictly additive: original terms are always
// kept, so exact matches keep working.
//
// Example:
//
//	Input:  "vacation policy"
//	Output: "vacation policy leave pto guideline procedure"
type QueryExpander struct {
	groups        [][]string
	synonyms      map[string]string
	maxGroupTerms int
}

// QueryExpanderOption configures the query expander.
type QueryExpanderOption func(*QueryExpander)

// WithTermGroups replaces the default domain term groups.
func WithTermGroups(groups [][]string) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.groups = groups
	}
}

// WithSynonyms adds custom synonym substitutions.
func WithSynonyms(synonyms map[string]string) QueryExpanderOption {
	return func(e *QueryExpander) {
		for k, v := range synonyms {
			e.synonyms[k] = v
		}
	}
}

// WithMaxGroupTerms sets how many extra members of a matching term group are
// appended.
func WithMaxGroupTerms(n int) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.maxGroupTerms = n
	}
}

// NewQueryExpander creates a query expander with the default domain
// vocabulary.
func NewQueryExpander(opts ...QueryExpanderOption) *QueryExpander {
	e := &QueryExpander{
		groups:        DomainTermGroups,
		synonyms:      make(map[string]string),
		maxGroupTerms: defaultMaxGroupTerms,
	}
	for k, v := range SynonymSubstitutions {
		e.synonyms[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand lowercases the query and appends related terms:
//  1. For each domain term group with a member in the query, up to
//     maxGroupTerms other members not already present.
//  2. For each query term with a synonym substitution, the substitute.
//
// Terms are never removed and never duplicated.
func (e *QueryExpander) Expand(query string) string {
	lowered := strings.ToLower(strings.TrimSpace(query))
	terms := splitQueryTerms(lowered)
	if len(terms) == 0 {
		return lowered
	}

	present := make(map[string]bool, len(terms))
	for _, t := range terms {
		present[t] = true
	}

	expanded := []string{lowered}

	for _, group := range e.groups {
		if !anyInSet(group, present) {
			continue
		}
		added := 0
		for _, member := range group {
			if added >= e.maxGroupTerms {
				break
			}
			if !present[member] {
				expanded = append(expanded, member)
				present[member] = true
				added++
			}
		}
	}

	for _, t := range terms {
		sub, ok := e.synonyms[t]
		if ok && !present[sub] {
			expanded = append(expanded, sub)
			present[sub] = true
		}
	}

	return strings.Join(expanded, " ")
}

// splitQueryTerms splits a lowercased query into terms on anything that is
// not a letter or digit.
func splitQueryTerms(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func anyInSet(terms []string, set map[string]bool) bool {
	for _, t := range terms {
		if set[t] {
			return true
		}
	}
	return false
}
