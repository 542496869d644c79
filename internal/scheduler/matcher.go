package scheduler

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minOverlapWordLen excludes short connective words ("hoc", "su") from word overlap.
const minOverlapWordLen = 3

// Matches reports whether a teacher specialty is compatible with a subject name.
// Checks run in order and stop at the first positive: direct containment,
// word overlap, then the category table.
func Matches(specialty, subject string) bool {
	s := Normalize(specialty)
	t := Normalize(subject)
	if s == "" || t == "" {
		return false
	}
	if strings.Contains(s, t) || strings.Contains(t, s) {
		return true
	}
	if wordOverlap(s, t) {
		return true
	}
	return sameFamily(s, t)
}

func wordOverlap(specialty, subject string) bool {
	specialtyWords := make(map[string]struct{})
	for _, w := range words(specialty) {
		specialtyWords[w] = struct{}{}
	}
	for _, w := range words(subject) {
		if utf8.RuneCountInString(w) <= minOverlapWordLen {
			continue
		}
		if _, ok := specialtyWords[w]; ok {
			return true
		}
	}
	return false
}

func sameFamily(specialty, subject string) bool {
	for _, family := range familyIndex {
		if family.matches(subject) && family.matches(specialty) {
			return true
		}
	}
	return false
}

// Matcher memoizes Matches decisions for the lifetime of one generation run. It
// is owned by a single AllocationState and is not safe for concurrent use.
type Matcher struct {
	cache map[matchKey]bool
}

type matchKey struct {
	specialty string
	subject   string
}

// NewMatcher returns an empty memoizing matcher.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[matchKey]bool)}
}

// Matches is the memoized form of the package level Matches.
func (m *Matcher) Matches(specialty, subject string) bool {
	key := matchKey{specialty: specialty, subject: subject}
	if v, ok := m.cache[key]; ok {
		return v
	}
	v := Matches(specialty, subject)
	m.cache[key] = v
	return v
}

// RankCandidates filters teachers whose specialty matches the subject and orders them
// by descending remaining weekly capacity. When no teacher matches, every input
// teacher is returned and specialist is false: a generalist is acceptable.
func (m *Matcher) RankCandidates(teachers []Teacher, subject string, remaining func(Teacher) int) (ranked []Teacher, specialist bool) {
	ranked = make([]Teacher, 0, len(teachers))
	for _, t := range teachers {
		if m.Matches(t.Specialty, subject) {
			ranked = append(ranked, t)
		}
	}
	specialist = len(ranked) > 0
	if !specialist {
		ranked = append(ranked, teachers...)
	}
	if remaining != nil {
		sort.SliceStable(ranked, func(i, j int) bool {
			return remaining(ranked[i]) > remaining(ranked[j])
		})
	}
	return ranked, specialist
}

// RankCandidates is RankCandidates on a fresh Matcher.
func RankCandidates(teachers []Teacher, subject string, remaining func(Teacher) int) ([]Teacher, bool) {
	return NewMatcher().RankCandidates(teachers, subject, remaining)
}
