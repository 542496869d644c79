package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		name      string
		specialty string
		subject   string
		expected  bool
	}{
		{name: "containment", specialty: "Thạc sĩ Toán", subject: "Toán", expected: true},
		{name: "accent insensitive", specialty: "Cu nhan Hoa hoc", subject: "Hoá học", expected: true},
		{name: "word overlap", specialty: "Chemistry teacher", subject: "Organic chemistry", expected: true},
		{name: "category table vi", specialty: "Cử nhân Công nghệ thông tin", subject: "Tin học", expected: true},
		{name: "category table en", specialty: "M.Sc. Mathematics", subject: "Đại số", expected: true},
		{name: "degree phrasing", specialty: "Sư phạm Lý", subject: "Vật Lý", expected: true},
		{name: "different family", specialty: "Thạc sĩ Toán", subject: "Vật Lý", expected: false},
		{name: "short words ignored", specialty: "Tin học", subject: "Hóa học", expected: false},
		{name: "empty specialty", specialty: "", subject: "Toán", expected: false},
		{name: "empty subject", specialty: "Toán", subject: "  ", expected: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Matches(tc.specialty, tc.subject))
		})
	}
}

func TestMatchesSymmetricWithinFamily(t *testing.T) {
	for _, family := range SubjectFamilies {
		phrases := append([]string{family.Key}, family.Synonyms...)
		for _, a := range phrases {
			for _, b := range phrases {
				assert.True(t, Matches(a, b), "%s: %q vs %q", family.Key, a, b)
				assert.Equal(t, Matches(a, b), Matches(b, a), "%s: %q vs %q", family.Key, a, b)
			}
		}
	}
}

func TestFamiliesOf(t *testing.T) {
	assert.Equal(t, []string{"physics"}, FamiliesOf("Cử nhân Vật lý"))
	assert.Contains(t, FamiliesOf("Công nghệ thông tin"), "informatics")
	assert.Empty(t, FamiliesOf("Giáo viên chủ nhiệm"))
}

func TestMatcherMemoizes(t *testing.T) {
	m := NewMatcher()
	assert.True(t, m.Matches("Thạc sĩ Toán", "Toán"))
	assert.True(t, m.Matches("Thạc sĩ Toán", "Toán"))
	assert.False(t, m.Matches("Thạc sĩ Toán", "Âm nhạc"))
	assert.Len(t, m.cache, 2)
}

func TestRankCandidatesSpecialists(t *testing.T) {
	teachers := []Teacher{
		{ID: "a", Specialty: "Toán"},
		{ID: "b", Specialty: "Vật lý"},
		{ID: "c", Specialty: "Sư phạm Toán Tin"},
	}
	remaining := map[string]int{"a": 2, "b": 5, "c": 6}

	ranked, specialist := RankCandidates(teachers, "Toán", func(t Teacher) int { return remaining[t.ID] })
	require.True(t, specialist)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "a", ranked[1].ID)
}

func TestRankCandidatesGeneralistFallback(t *testing.T) {
	teachers := []Teacher{
		{ID: "a", Specialty: "Toán"},
		{ID: "b", Specialty: "Vật lý"},
		{ID: "c", Specialty: "Ngữ văn"},
	}
	remaining := map[string]int{"a": 2, "b": 4, "c": 4}

	ranked, specialist := RankCandidates(teachers, "Âm nhạc", func(t Teacher) int { return remaining[t.ID] })
	assert.False(t, specialist)
	require.Len(t, ranked, 3)
	// equal capacity keeps input order
	assert.Equal(t, []string{"b", "c", "a"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}

func TestRankCandidatesEmpty(t *testing.T) {
	ranked, specialist := RankCandidates(nil, "Toán", nil)
	assert.Empty(t, ranked)
	assert.False(t, specialist)
}
