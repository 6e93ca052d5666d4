package spreadsheet

import (
	"fmt"
	"sort"
	"strings"

	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

// Header contracts.
var (
	ProfessorColumns = []string{"NAME", "DEPARTMENT", "SUBJECTS", "HANDLED SECTION", "COURSE HANDLE", "GMAIL", "PASSWORD"}
	StudentColumns   = []string{"FIRST NAME", "LAST NAME", "SUFFIX", "STUDENT ID", "GMAIL", "YEAR LEVEL", "COURSE", "SECTION", "SUBJECTS", "STATUS"}
	QuestionColumns  = []string{"QUESTION", "TYPE", "OPTIONS", "SECTION", "WEIGHT"}
)

type ProfessorSheet struct {
	Records  []model.ParsedProfessor `json:"records"`
	Warnings []string                `json:"warnings"`
	// BySection lists professor emails per handled section, keyed by the
	// section label as first written.
	BySection map[string][]string `json:"bySection"`
}

type StudentSheet struct {
	Records  []model.ParsedStudent `json:"records"`
	Warnings []string              `json:"warnings"`
}

type QuestionSheet struct {
	Records  []model.ParsedQuestion `json:"records"`
	Warnings []string               `json:"warnings"`
}

// ParseProfessors reads professor rows. Rows sharing a GMAIL merge into one
// record: the first non-blank name, department and password win, and each
// row adds its subjects. The same subject on several rows unions sections.
func ParseProfessors(rows [][]string) (ProfessorSheet, error) {
	t, err := newTable(rows, ProfessorColumns...)
	if err != nil {
		return ProfessorSheet{}, err
	}
	out := ProfessorSheet{BySection: map[string][]string{}}
	index := map[string]int{}
	var warnings []string

	t.each(func(n int, row []string) {
		email := t.cell(row, "GMAIL")
		if email == "" {
			warnings = append(warnings, fmt.Sprintf("Row %d: missing GMAIL", n))
			return
		}
		key := textnorm.EmailKey(email)
		subjects := splitList(t.cell(row, "SUBJECTS"))
		sections := splitList(t.cell(row, "HANDLED SECTION"))
		course := t.cell(row, "COURSE HANDLE")

		i, seen := index[key]
		if !seen {
			rec := model.ParsedProfessor{
				RowIndex:       n,
				Name:           t.cell(row, "NAME"),
				DepartmentName: t.cell(row, "DEPARTMENT"),
				Email:          email,
				Password:       t.cell(row, "PASSWORD"),
			}
			if ws := rowWarnings(n, rec); len(ws) > 0 {
				warnings = append(warnings, ws...)
				return
			}
			out.Records = append(out.Records, rec)
			i = len(out.Records) - 1
			index[key] = i
		} else {
			rec := &out.Records[i]
			if rec.Name == "" {
				rec.Name = t.cell(row, "NAME")
			}
			if rec.DepartmentName == "" {
				rec.DepartmentName = t.cell(row, "DEPARTMENT")
			}
			if rec.Password == "" {
				rec.Password = t.cell(row, "PASSWORD")
			}
		}
		rec := &out.Records[i]
		if len(subjects) == 0 && len(sections) > 0 {
			warnings = append(warnings, fmt.Sprintf("Row %d: HANDLED SECTION given without SUBJECTS", n))
		}
		for _, subj := range subjects {
			rec.SubjectSections = mergeSubject(rec.SubjectSections, subj, sections, course)
		}
		for _, sec := range sections {
			addSection(out.BySection, sec, rec.Email)
		}
	})

	out.Warnings = warnings
	return out, nil
}

func mergeSubject(list []model.SubjectSection, subject string, sections []string, course string) []model.SubjectSection {
	for i := range list {
		if strings.EqualFold(list[i].Subject, subject) {
			for _, s := range sections {
				if !containsFold(list[i].Sections, s) {
					list[i].Sections = append(list[i].Sections, s)
				}
			}
			if list[i].Course == "" {
				list[i].Course = course
			}
			return list
		}
	}
	secs := make([]string, 0, len(sections))
	for _, s := range sections {
		if !containsFold(secs, s) {
			secs = append(secs, s)
		}
	}
	return append(list, model.SubjectSection{Subject: subject, Sections: secs, Course: course})
}

func addSection(by map[string][]string, section, email string) {
	for label, emails := range by {
		if strings.EqualFold(label, section) {
			if !containsFold(emails, email) {
				by[label] = append(emails, email)
			}
			return
		}
	}
	by[section] = []string{email}
}

// SectionNames returns the BySection keys sorted case-insensitively.
func (s ProfessorSheet) SectionNames() []string {
	names := make([]string, 0, len(s.BySection))
	for k := range s.BySection {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })
	return names
}

// ParseStudents reads student rows. A blank STUDENT ID is derived from the
// email's local part and a blank STATUS means Regular.
func ParseStudents(rows [][]string) (StudentSheet, error) {
	t, err := newTable(rows, StudentColumns...)
	if err != nil {
		return StudentSheet{}, err
	}
	var out StudentSheet
	t.each(func(n int, row []string) {
		rec := model.ParsedStudent{
			RowIndex:  n,
			FirstName: t.cell(row, "FIRST NAME"),
			LastName:  t.cell(row, "LAST NAME"),
			Suffix:    t.cell(row, "SUFFIX"),
			StudentID: t.cell(row, "STUDENT ID"),
			Email:     t.cell(row, "GMAIL"),
			YearLevel: t.cell(row, "YEAR LEVEL"),
			Course:    t.cell(row, "COURSE"),
			Section:   t.cell(row, "SECTION"),
			Subjects:  splitList(t.cell(row, "SUBJECTS")),
			Status:    studentStatus(t.cell(row, "STATUS")),
		}
		if ws := rowWarnings(n, rec); len(ws) > 0 {
			out.Warnings = append(out.Warnings, ws...)
			return
		}
		if rec.StudentID == "" {
			rec.StudentID = textnorm.StudentIDFromEmail(rec.Email)
		}
		out.Records = append(out.Records, rec)
	})
	return out, nil
}

func studentStatus(raw string) string {
	for _, s := range []string{model.StudentRegular, model.StudentIrregular, model.StudentGraduated, model.StudentDrop} {
		if strings.EqualFold(raw, s) {
			return s
		}
	}
	return raw
}

// ParseQuestions reads question rows. TYPE accepts "likert"/"likert scale"
// and "text"; a blank TYPE is Likert. Likert rows without OPTIONS get the
// default four-point scale, text rows drop any options, and a blank SECTION
// becomes "Other".
func ParseQuestions(rows [][]string) (QuestionSheet, error) {
	t, err := newTable(rows, QuestionColumns...)
	if err != nil {
		return QuestionSheet{}, err
	}
	var out QuestionSheet
	t.each(func(n int, row []string) {
		rec := model.ParsedQuestion{
			RowIndex:     n,
			QuestionText: t.cell(row, "QUESTION"),
			QuestionType: questionType(t.cell(row, "TYPE")),
			Options:      splitList(t.cell(row, "OPTIONS")),
			Section:      t.cell(row, "SECTION"),
			Weight:       t.cell(row, "WEIGHT"),
		}
		if ws := rowWarnings(n, rec); len(ws) > 0 {
			out.Warnings = append(out.Warnings, ws...)
			return
		}
		switch rec.QuestionType {
		case model.QuestionLikert:
			if len(rec.Options) == 0 {
				rec.Options = append([]string(nil), model.DefaultLikertScale...)
			}
		case model.QuestionText:
			rec.Options = nil
		}
		if rec.Section == "" {
			rec.Section = "Other"
		}
		out.Records = append(out.Records, rec)
	})
	return out, nil
}

func questionType(raw string) string {
	switch textnorm.Normalize(raw) {
	case "", "likert", "likert scale", "likert-scale", "scale":
		return model.QuestionLikert
	case "text", "open", "open-ended", "open ended", "comment", "comments", "essay":
		return model.QuestionText
	}
	return raw
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
