package model

// Kind tags which entity a parsed spreadsheet row describes.
type Kind string

const (
	KindProfessor Kind = "professor"
	KindStudent   Kind = "student"
	KindQuestion  Kind = "question"
)

// ParsedProfessor is one professor assembled from spreadsheet rows. Rows that
// share an email are merged, so RowIndex is the first row seen.
type ParsedProfessor struct {
	RowIndex        int              `json:"rowIndex"`
	Name            string           `json:"name" validate:"required"`
	DepartmentName  string           `json:"departmentName"`
	Email           string           `json:"email" validate:"required,email"`
	Password        string           `json:"-" validate:"omitempty,min=6"`
	SubjectSections []SubjectSection `json:"subjectSections"`
}

func (ParsedProfessor) Kind() Kind { return KindProfessor }

// Professor converts the row into a new active professor.
func (p ParsedProfessor) Professor() Professor {
	return Professor{
		Name:            p.Name,
		Email:           p.Email,
		DepartmentName:  p.DepartmentName,
		Password:        p.Password,
		Status:          ProfessorActive,
		SubjectSections: p.SubjectSections,
	}
}

type ParsedStudent struct {
	RowIndex  int      `json:"rowIndex"`
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName" validate:"required"`
	Suffix    string   `json:"suffix,omitempty"`
	StudentID string   `json:"studentId"`
	Email     string   `json:"email" validate:"required,email"`
	YearLevel string   `json:"yearLevel"`
	Course    string   `json:"course"`
	Section   string   `json:"section" validate:"required"`
	Subjects  []string `json:"subjects"`
	Status    string   `json:"status" validate:"omitempty,oneof=Regular Irregular Graduated Drop"`
}

func (ParsedStudent) Kind() Kind { return KindStudent }

// Student converts the row into a new active student account.
func (p ParsedStudent) Student() Student {
	status := p.Status
	if status == "" {
		status = StudentRegular
	}
	return Student{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Suffix:        p.Suffix,
		StudentID:     p.StudentID,
		Email:         p.Email,
		YearLevel:     p.YearLevel,
		Course:        p.Course,
		Section:       p.Section,
		Subjects:      p.Subjects,
		Status:        status,
		AccountStatus: AccountActive,
	}
}

type ParsedQuestion struct {
	RowIndex     int      `json:"rowIndex"`
	QuestionText string   `json:"questionText" validate:"required"`
	QuestionType string   `json:"questionType" validate:"oneof='Likert Scale' text"`
	Options      []string `json:"options,omitempty"`
	Section      string   `json:"section"`
	Weight       string   `json:"weight,omitempty" validate:"omitempty,numeric"`
}

func (ParsedQuestion) Kind() Kind { return KindQuestion }

// Question builds the row stored for one professor.
func (p ParsedQuestion) Question(prof Professor) EvaluationQuestion {
	return EvaluationQuestion{
		TeacherID:    prof.ID,
		TeacherName:  prof.Name,
		QuestionText: p.QuestionText,
		QuestionType: p.QuestionType,
		Options:      p.Options,
		Section:      p.Section,
		Weight:       p.Weight,
		IsActive:     true,
	}
}
