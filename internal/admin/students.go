package admin

import (
	"context"
	"sort"
	"strings"

	"evaladmin/internal/apperr"
	"evaladmin/internal/importer"
	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

type StudentInput struct {
	FirstName     string   `json:"firstName" validate:"required"`
	LastName      string   `json:"lastName" validate:"required"`
	Suffix        string   `json:"suffix"`
	StudentID     string   `json:"studentId"`
	Email         string   `json:"email" validate:"required,email"`
	YearLevel     string   `json:"yearLevel"`
	Course        string   `json:"course"`
	Section       string   `json:"section" validate:"required"`
	Subjects      []string `json:"subjects"`
	Status        string   `json:"status" validate:"omitempty,oneof=Regular Irregular Graduated Drop"`
	AccountStatus string   `json:"accountStatus" validate:"omitempty,oneof=active inactive"`
}

func (in StudentInput) student() model.Student {
	st := model.Student{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Suffix:        strings.TrimSpace(in.Suffix),
		StudentID:     strings.TrimSpace(in.StudentID),
		Email:         strings.TrimSpace(in.Email),
		YearLevel:     strings.TrimSpace(in.YearLevel),
		Course:        strings.TrimSpace(in.Course),
		Section:       strings.TrimSpace(in.Section),
		Status:        in.Status,
		AccountStatus: in.AccountStatus,
	}
	for _, subj := range in.Subjects {
		if subj = strings.TrimSpace(subj); subj != "" {
			st.Subjects = append(st.Subjects, subj)
		}
	}
	if st.StudentID == "" {
		st.StudentID = textnorm.StudentIDFromEmail(st.Email)
	}
	if st.Status == "" {
		st.Status = model.StudentRegular
	}
	if st.AccountStatus == "" {
		st.AccountStatus = model.AccountActive
	}
	return st
}

// ListStudents returns students sorted by last then first name.
func (s *Service) ListStudents(ctx context.Context) ([]model.Student, error) {
	sts, err := s.students.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sts, func(i, j int) bool {
		a, b := strings.ToLower(sts[i].LastName), strings.ToLower(sts[j].LastName)
		if a != b {
			return a < b
		}
		return strings.ToLower(sts[i].FirstName) < strings.ToLower(sts[j].FirstName)
	})
	return sts, nil
}

func (s *Service) GetStudent(ctx context.Context, id string) (model.Student, error) {
	return s.students.Get(ctx, id)
}

// CreateStudent adds a student unless the email or the student id derived
// from it already belongs to someone.
func (s *Service) CreateStudent(ctx context.Context, in StudentInput) (model.Student, error) {
	if err := check(in); err != nil {
		return model.Student{}, err
	}
	st := in.student()
	existing, err := s.students.GetAll(ctx)
	if err != nil {
		return model.Student{}, err
	}
	if studentTaken(existing, st, "") {
		return model.Student{}, apperr.NewValidationError("a student with this email already exists",
			apperr.FieldError{Field: "email", Error: "already exists"})
	}
	id, err := s.students.Create(ctx, st)
	if err != nil {
		return model.Student{}, err
	}
	st.ID = id
	return st, nil
}

func (s *Service) UpdateStudent(ctx context.Context, id string, in StudentInput) (model.Student, error) {
	if err := check(in); err != nil {
		return model.Student{}, err
	}
	if _, err := s.students.Get(ctx, id); err != nil {
		return model.Student{}, err
	}
	st := in.student()
	existing, err := s.students.GetAll(ctx)
	if err != nil {
		return model.Student{}, err
	}
	if studentTaken(existing, st, id) {
		return model.Student{}, apperr.NewValidationError("a student with this email already exists",
			apperr.FieldError{Field: "email", Error: "already exists"})
	}
	if err := s.students.Replace(ctx, id, st); err != nil {
		return model.Student{}, err
	}
	st.ID = id
	return st, nil
}

func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	return s.students.Delete(ctx, id)
}

func (s *Service) DeleteStudents(ctx context.Context, ids []string) importer.Summary {
	return importer.Run(ctx, uniqueIDs(ids), s.DeleteStudent, runOpts[string](s, 0, nil))
}

func studentTaken(existing []model.Student, st model.Student, exceptID string) bool {
	email := textnorm.EmailKey(st.Email)
	derived := textnorm.Normalize(textnorm.StudentIDFromEmail(st.Email))
	for _, e := range existing {
		if e.ID == exceptID {
			continue
		}
		if textnorm.EmailKey(e.Email) == email {
			return true
		}
		if derived != "" && textnorm.Normalize(textnorm.StudentIDFromEmail(e.Email)) == derived {
			return true
		}
	}
	return false
}
