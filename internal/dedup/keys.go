package dedup

import (
	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

// Identity keys per record kind. People are identified by email; students also
// by the student id derived from the email's local part. Questions are
// identified by their normalized text.

func ProfessorKeys(p model.Professor) []string { return []string{p.Email} }

func ParsedProfessorKeys(p model.ParsedProfessor) []string { return []string{p.Email} }

func StudentKeys(s model.Student) []string {
	return []string{s.Email, textnorm.StudentIDFromEmail(s.Email)}
}

func ParsedStudentKeys(s model.ParsedStudent) []string {
	return []string{s.Email, textnorm.StudentIDFromEmail(s.Email)}
}

func QuestionKeys(q model.EvaluationQuestion) []string { return []string{q.QuestionText} }

func ParsedQuestionKeys(q model.ParsedQuestion) []string { return []string{q.QuestionText} }
