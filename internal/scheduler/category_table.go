package scheduler

// SubjectFamily groups the phrases that identify one subject family, on either the
// subject side ("Vật lý") or the teacher specialty side ("Cử nhân Vật lý").
type SubjectFamily struct {
	Key      string
	Synonyms []string
}

// SubjectFamilies is the category table used by the matcher. Phrases are normalized
// before use, so accented and unaccented spellings are equivalent. Keep one family
// per line group; adding a synonym is a one-line change.
var SubjectFamilies = []SubjectFamily{
	{Key: "mathematics", Synonyms: []string{
		"toán", "toán học", "đại số", "hình học", "giải tích", "sư phạm toán", "cử nhân toán", "thạc sĩ toán",
		"math", "maths", "M.Sc. Mathematics", "B.Sc. Mathematics", "algebra", "geometry",
	}},
	{Key: "physics", Synonyms: []string{
		"vật lý", "vật lí", "sư phạm lý", "sư phạm vật lý", "cử nhân vật lý", "thạc sĩ vật lý",
		"M.Sc. Physics", "B.Sc. Physics", "physique",
	}},
	{Key: "chemistry", Synonyms: []string{
		"hóa học", "hoá học", "sư phạm hóa", "cử nhân hóa", "thạc sĩ hóa",
		"M.Sc. Chemistry", "B.Sc. Chemistry", "chimie",
	}},
	{Key: "biology", Synonyms: []string{
		"sinh học", "sinh vật", "sư phạm sinh", "cử nhân sinh", "thạc sĩ sinh",
		"M.Sc. Biology", "B.Sc. Biology", "biologie",
	}},
	{Key: "literature", Synonyms: []string{
		"ngữ văn", "văn học", "tiếng việt", "sư phạm văn", "cử nhân văn", "thạc sĩ văn",
		"vietnamese literature", "M.A. Literature",
	}},
	{Key: "english", Synonyms: []string{
		"tiếng anh", "anh văn", "ngôn ngữ anh", "sư phạm anh", "cử nhân anh", "thạc sĩ anh",
		"english language", "TESOL", "ESL",
	}},
	{Key: "foreign languages", Synonyms: []string{
		"ngoại ngữ", "tiếng pháp", "tiếng trung", "tiếng nhật", "tiếng hàn", "french", "chinese", "japanese", "korean",
	}},
	{Key: "informatics", Synonyms: []string{
		"tin học", "tin", "công nghệ thông tin", "cntt", "khoa học máy tính", "sư phạm tin",
		"computer science", "information technology", "IT", "M.Sc. Computer Science",
	}},
	{Key: "history", Synonyms: []string{
		"lịch sử", "sư phạm sử", "cử nhân sử", "thạc sĩ lịch sử", "M.A. History",
	}},
	{Key: "geography", Synonyms: []string{
		"địa lý", "địa lí", "địa", "sư phạm địa", "cử nhân địa lý", "thạc sĩ địa lý", "M.Sc. Geography",
	}},
	{Key: "civic education", Synonyms: []string{
		"giáo dục công dân", "gdcd", "giáo dục kinh tế và pháp luật", "kinh tế pháp luật", "chính trị", "civics",
	}},
	{Key: "physical education", Synonyms: []string{
		"thể dục", "giáo dục thể chất", "gdtc", "thể thao", "PE", "sports science",
	}},
	{Key: "technology", Synonyms: []string{
		"công nghệ", "kỹ thuật", "kĩ thuật", "kỹ thuật công nghiệp", "kỹ thuật nông nghiệp", "engineering",
	}},
	{Key: "national defense", Synonyms: []string{
		"giáo dục quốc phòng", "giáo dục quốc phòng và an ninh", "gdqp", "quốc phòng", "quốc phòng an ninh",
		"defense education",
	}},
	{Key: "music", Synonyms: []string{
		"âm nhạc", "nhạc", "sư phạm âm nhạc", "thanh nhạc",
	}},
	{Key: "fine arts", Synonyms: []string{
		"mỹ thuật", "mĩ thuật", "hội họa", "sư phạm mỹ thuật", "art", "arts", "visual arts",
	}},
}

type normalizedFamily struct {
	key     string
	phrases []string
}

var familyIndex = buildFamilyIndex(SubjectFamilies)

func buildFamilyIndex(families []SubjectFamily) []normalizedFamily {
	index := make([]normalizedFamily, 0, len(families))
	for _, family := range families {
		seen := make(map[string]bool, len(family.Synonyms)+1)
		entry := normalizedFamily{key: Normalize(family.Key)}
		for _, phrase := range append([]string{family.Key}, family.Synonyms...) {
			p := Normalize(phrase)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			entry.phrases = append(entry.phrases, p)
		}
		index = append(index, entry)
	}
	return index
}

// FamiliesOf returns the keys of every family whose key or synonym occurs in text.
func FamiliesOf(text string) []string {
	normalized := Normalize(text)
	var keys []string
	for _, family := range familyIndex {
		if family.matches(normalized) {
			keys = append(keys, family.key)
		}
	}
	return keys
}

func (f normalizedFamily) matches(normalized string) bool {
	for _, phrase := range f.phrases {
		if containsPhrase(normalized, phrase) {
			return true
		}
	}
	return false
}
