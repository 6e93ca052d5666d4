package history

import (
	"sort"

	"evaladmin/internal/textnorm"
)

// SectionOrder is the display priority of evaluation sections.
var SectionOrder = []string{
	"Instructional Competence",
	"Classroom Management",
	"Professionalism",
	"Student Support",
	"Research",
	CommentsSection,
	OtherSection,
}

// Known sections rank 2*i in SectionOrder; unlisted ones sit between
// Research and Comments.
const unlistedRank = 2*4 + 1

// SectionGroup is one rendered section of a professor's results. Comments
// groups are never charted: their questions carry verbatim answers only.
type SectionGroup struct {
	Key        string              `json:"key"`
	Label      string              `json:"label"`
	IsComments bool                `json:"isComments"`
	Questions  []QuestionAggregate `json:"questions"`
}

type sectionBucket struct {
	rank  int
	group SectionGroup
}

// Sections buckets a professor's question aggregates by section. Labels are
// matched fuzzily against SectionOrder, so "B. Classroom Management" and
// "Classroom Management" render as one section.
func Sections(p ProfessorNode) []SectionGroup {
	buckets := make(map[string]*sectionBucket)
	var keys []string

	for _, q := range p.Questions {
		key, label, rank := classifySection(q.Section)
		b := buckets[key]
		if b == nil {
			b = &sectionBucket{rank: rank, group: SectionGroup{
				Key:        key,
				Label:      label,
				IsComments: key == textnorm.NormalizeSection(CommentsSection),
			}}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.group.Questions = append(b.group.Questions, q)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		bi, bj := buckets[keys[i]], buckets[keys[j]]
		if bi.rank != bj.rank {
			return bi.rank < bj.rank
		}
		return bi.group.Key < bj.group.Key
	})

	out := make([]SectionGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k].group)
	}
	return out
}

func classifySection(section string) (key, label string, rank int) {
	for i, known := range SectionOrder {
		if textnorm.SectionMatches(section, known) {
			return textnorm.NormalizeSection(known), known, 2 * i
		}
	}
	key = textnorm.NormalizeSection(section)
	if key == "" {
		return textnorm.NormalizeSection(OtherSection), OtherSection, 2 * (len(SectionOrder) - 1)
	}
	return key, section, unlistedRank
}
