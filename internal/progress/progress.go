// Package progress works out which evaluations a student owes: one per
// (subject, professor) pair where the professor teaches one of the student's
// subjects to the student's section.
package progress

import (
	"fmt"
	"strings"

	"evaladmin/internal/model"
)

type Item struct {
	Subject       string `json:"subject"`
	ProfessorID   string `json:"professorId"`
	ProfessorName string `json:"professorName"`
	IsComplete    bool   `json:"isComplete"`
}

// Reconcile lists the evaluations owed by student, in professor order.
// Resigned and inactive professors are skipped. An item is complete when a
// submitted evaluation from the student to that professor exists.
func Reconcile(student model.Student, professors []model.Professor, submissions []model.Submission) []Item {
	enrolled := make(map[string]struct{}, len(student.Subjects))
	for _, s := range student.Subjects {
		if k := fold(s); k != "" {
			enrolled[k] = struct{}{}
		}
	}
	section := fold(student.Section)

	done := make(map[string]bool)
	email := fold(student.Email)
	for _, sub := range submissions {
		if sub.Completed() && email != "" && fold(sub.StudentEmail) == email {
			done[sub.ProfessorID] = true
		}
	}

	items := []Item{}
	if section == "" || len(enrolled) == 0 {
		return items
	}
	seen := make(map[string]struct{})
	for _, p := range professors {
		if !p.Teaching() {
			continue
		}
		for _, ss := range p.SubjectSections {
			subj := fold(ss.Subject)
			if _, ok := enrolled[subj]; !ok || !hasSection(ss.Sections, section) {
				continue
			}
			key := p.ID + "\x00" + subj
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, Item{
				Subject:       strings.TrimSpace(ss.Subject),
				ProfessorID:   p.ID,
				ProfessorName: p.Name,
				IsComplete:    done[p.ID],
			})
		}
	}
	return items
}

func hasSection(sections []string, want string) bool {
	for _, s := range sections {
		if fold(s) == want {
			return true
		}
	}
	return false
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Status is the badge shown next to a student.
type Status struct {
	Total         int  `json:"total"`
	Pending       int  `json:"pending"`
	NotApplicable bool `json:"notApplicable"`
}

func Summarize(items []Item) Status {
	st := Status{Total: len(items), NotApplicable: len(items) == 0}
	for _, it := range items {
		if !it.IsComplete {
			st.Pending++
		}
	}
	return st
}

// Label renders "N/A" when nothing is owed, otherwise "<n> pending".
func (s Status) Label() string {
	if s.NotApplicable {
		return "N/A"
	}
	return fmt.Sprintf("%d pending", s.Pending)
}
