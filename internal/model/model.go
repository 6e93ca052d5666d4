// Package model holds the records managed by the admin backend. They are plain
// values; the document store owns the persisted copies.
package model

import (
	"strings"
	"time"
)

// Collection names in the document store.
const (
	CollectionProfessors  = "professors"
	CollectionStudents    = "students"
	CollectionQuestions   = "evaluationQuestions"
	CollectionHistory     = "evaluationHistory"
	CollectionEvaluations = "evaluations"
	CollectionDepartments = "departments"
)

// Professor statuses.
const (
	ProfessorActive   = "active"
	ProfessorInactive = "inactive"
	ProfessorResigned = "resigned"
	ProfessorRetired  = "retired"
)

// Student statuses and account statuses.
const (
	StudentRegular   = "Regular"
	StudentIrregular = "Irregular"
	StudentGraduated = "Graduated"
	StudentDrop      = "Drop"

	AccountActive   = "active"
	AccountInactive = "inactive"
)

// Question types.
const (
	QuestionLikert = "Likert Scale"
	QuestionText   = "text"
)

// Submission statuses.
const (
	SubmissionDraft     = "draft"
	SubmissionSubmitted = "submitted"
	SubmissionComplete  = "complete"
	SubmissionCompleted = "completed"
)

// DefaultLikertScale is used when a Likert response carries no options.
var DefaultLikertScale = []string{"Strongly Agree", "Agree", "Disagree", "Strongly Disagree"}

// SubjectSection maps one subject to the class sections a professor teaches it to.
type SubjectSection struct {
	Subject  string   `json:"subject" firestore:"subject"`
	Sections []string `json:"sections" firestore:"sections"`
	Course   string   `json:"course" firestore:"course"`
}

type Professor struct {
	ID              string           `json:"id" firestore:"-"`
	Name            string           `json:"name" firestore:"name"`
	Email           string           `json:"email" firestore:"email"`
	DepartmentName  string           `json:"departmentName" firestore:"departmentName"`
	Password        string           `json:"password,omitempty" firestore:"-"`
	Status          string           `json:"status" firestore:"status"`
	ImageURL        string           `json:"imageUrl,omitempty" firestore:"imageUrl"`
	SubjectSections []SubjectSection `json:"subjectSections" firestore:"subjectSections"`
}

// Teaching reports whether the professor can still receive evaluations.
func (p Professor) Teaching() bool {
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case ProfessorResigned, ProfessorInactive:
		return false
	}
	return true
}

type Student struct {
	ID            string   `json:"id" firestore:"-"`
	FirstName     string   `json:"firstName" firestore:"firstName"`
	LastName      string   `json:"lastName" firestore:"lastName"`
	Suffix        string   `json:"suffix,omitempty" firestore:"suffix"`
	StudentID     string   `json:"studentId" firestore:"studentId"`
	Email         string   `json:"email" firestore:"email"`
	YearLevel     string   `json:"yearLevel" firestore:"yearLevel"`
	Course        string   `json:"course" firestore:"course"`
	Section       string   `json:"section" firestore:"section"`
	Subjects      []string `json:"subjects" firestore:"subjects"`
	Status        string   `json:"status" firestore:"status"`
	AccountStatus string   `json:"accountStatus" firestore:"accountStatus"`
}

// FullName joins the name parts, skipping the blank ones.
func (s Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.LastName, s.Suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// EvaluationQuestion is stored once per professor; rows sharing a normalized
// question text are the same logical question.
type EvaluationQuestion struct {
	ID           string   `json:"id" firestore:"-"`
	TeacherID    string   `json:"teacherId" firestore:"teacherId"`
	TeacherName  string   `json:"teacherName" firestore:"teacherName"`
	QuestionText string   `json:"questionText" firestore:"questionText"`
	QuestionType string   `json:"questionType" firestore:"questionType"`
	Options      []string `json:"options,omitempty" firestore:"options"`
	Section      string   `json:"section" firestore:"section"`
	Weight       string   `json:"weight,omitempty" firestore:"weight"`
	IsActive     bool     `json:"isActive" firestore:"isActive"`
}

type Department struct {
	ID          string `json:"id" firestore:"-"`
	Name        string `json:"name" firestore:"name"`
	Description string `json:"description,omitempty" firestore:"description"`
}

// Response is one answer inside a submitted evaluation.
type Response struct {
	QuestionID   string   `json:"questionId" firestore:"questionId"`
	QuestionText string   `json:"questionText" firestore:"questionText"`
	QuestionType string   `json:"questionType" firestore:"questionType"`
	Options      []string `json:"options,omitempty" firestore:"options"`
	Section      string   `json:"section,omitempty" firestore:"section"`
	Answer       string   `json:"answer" firestore:"answer"`
}

// Submission is a student's questionnaire for one professor.
type Submission struct {
	ID           string     `json:"id" firestore:"-"`
	StudentEmail string     `json:"studentEmail" firestore:"studentEmail"`
	ProfessorID  string     `json:"professorId" firestore:"professorId"`
	Status       string     `json:"status" firestore:"status"`
	SubmittedAt  time.Time  `json:"submittedAt" firestore:"submittedAt"`
	Responses    []Response `json:"responses" firestore:"responses"`
}

// Submitted reports whether the submission is final, not a draft.
func (s Submission) Submitted() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), SubmissionSubmitted)
}

// Completed is the looser check used for progress: submitted or complete.
func (s Submission) Completed() bool {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case SubmissionSubmitted, SubmissionComplete, SubmissionCompleted:
		return true
	}
	return false
}

type ProfessorEvaluation struct {
	ProfessorID     string       `json:"professorId" firestore:"professorId"`
	ProfessorName   string       `json:"professorName" firestore:"professorName"`
	DepartmentName  string       `json:"departmentName" firestore:"departmentName"`
	EvaluationCount int          `json:"evaluationCount" firestore:"evaluationCount"`
	Evaluations     []Submission `json:"evaluations" firestore:"evaluations"`
}

// HistoryEntry is one closed evaluation period.
type HistoryEntry struct {
	ID                   string                `json:"id" firestore:"-"`
	StartDate            time.Time             `json:"startDate" firestore:"startDate"`
	EndDate              time.Time             `json:"endDate" firestore:"endDate"`
	ProfessorEvaluations []ProfessorEvaluation `json:"professorEvaluations" firestore:"professorEvaluations"`
}
