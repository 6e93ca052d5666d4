package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"evaladmin/internal/apperr"
	"evaladmin/internal/importer"
	"evaladmin/internal/model"
	"evaladmin/internal/queue"
	"evaladmin/internal/textnorm"
)

// ProfessorInput is the create/update payload for a professor.
type ProfessorInput struct {
	Name            string                 `json:"name" validate:"required"`
	Email           string                 `json:"email" validate:"required,email"`
	DepartmentName  string                 `json:"departmentName"`
	Password        string                 `json:"password,omitempty" validate:"omitempty,min=6"`
	Status          string                 `json:"status" validate:"omitempty,oneof=active inactive resigned retired"`
	SubjectSections []model.SubjectSection `json:"subjectSections"`
}

func (in ProfessorInput) professor() model.Professor {
	status := in.Status
	if status == "" {
		status = model.ProfessorActive
	}
	return model.Professor{
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		DepartmentName:  strings.TrimSpace(in.DepartmentName),
		Password:        in.Password,
		Status:          status,
		SubjectSections: cleanSubjectSections(in.SubjectSections),
	}
}

func cleanSubjectSections(in []model.SubjectSection) []model.SubjectSection {
	out := make([]model.SubjectSection, 0, len(in))
	for _, ss := range in {
		subject := strings.TrimSpace(ss.Subject)
		if subject == "" {
			continue
		}
		secs := make([]string, 0, len(ss.Sections))
		for _, sec := range ss.Sections {
			if sec = strings.TrimSpace(sec); sec != "" {
				secs = append(secs, sec)
			}
		}
		out = append(out, model.SubjectSection{Subject: subject, Sections: secs, Course: strings.TrimSpace(ss.Course)})
	}
	return out
}

// ListProfessors returns professors sorted by name.
func (s *Service) ListProfessors(ctx context.Context) ([]model.Professor, error) {
	profs, err := s.professors.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(profs, func(i, j int) bool {
		return strings.ToLower(profs[i].Name) < strings.ToLower(profs[j].Name)
	})
	return profs, nil
}

func (s *Service) GetProfessor(ctx context.Context, id string) (model.Professor, error) {
	return s.professors.Get(ctx, id)
}

// CreateProfessor adds a professor. The email must not belong to another
// professor; a password, when given, creates the login account.
func (s *Service) CreateProfessor(ctx context.Context, in ProfessorInput) (model.Professor, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := check(in); err != nil {
		return model.Professor{}, err
	}
	existing, err := s.professors.GetAll(ctx)
	if err != nil {
		return model.Professor{}, err
	}
	if emailTaken(existing, in.Email, "") {
		return model.Professor{}, apperr.NewValidationError("a professor with this email already exists",
			apperr.FieldError{Field: "email", Error: "already exists"})
	}
	p := in.professor()
	if err := s.persistProfessor(ctx, &p); err != nil {
		return model.Professor{}, err
	}
	p.Password = ""
	return p, nil
}

// persistProfessor stores p and, when a password is given, creates its login
// account. A failed account creation removes the stored record again.
func (s *Service) persistProfessor(ctx context.Context, p *model.Professor) error {
	if p.Password != "" && s.identity == nil {
		return fmt.Errorf("create account: %w", apperr.ErrUnavailable)
	}
	id, err := s.professors.Create(ctx, *p)
	if err != nil {
		return err
	}
	if p.Password != "" {
		if err := s.identity.CreateAccount(ctx, p.Email, p.Password, p.Name); err != nil {
			if derr := s.professors.Delete(context.WithoutCancel(ctx), id); derr != nil {
				s.log.Error("orphaned professor record", zap.String("professor", id), zap.Error(derr))
			}
			return fmt.Errorf("create account: %w", err)
		}
	}
	p.ID = id
	return nil
}

// UpdateProfessor replaces a professor's fields. A non-empty password is
// sent to the identity provider, never stored.
func (s *Service) UpdateProfessor(ctx context.Context, id string, in ProfessorInput) (model.Professor, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := check(in); err != nil {
		return model.Professor{}, err
	}
	cur, err := s.professors.Get(ctx, id)
	if err != nil {
		return model.Professor{}, err
	}
	existing, err := s.professors.GetAll(ctx)
	if err != nil {
		return model.Professor{}, err
	}
	if emailTaken(existing, in.Email, id) {
		return model.Professor{}, apperr.NewValidationError("a professor with this email already exists",
			apperr.FieldError{Field: "email", Error: "already exists"})
	}
	p := in.professor()
	p.ID = id
	p.ImageURL = cur.ImageURL
	if in.Password != "" {
		if s.identity == nil {
			return model.Professor{}, apperr.ErrUnavailable
		}
		if err := s.identity.UpdatePassword(ctx, p.Email, in.Password); err != nil {
			return model.Professor{}, fmt.Errorf("update password: %w", err)
		}
	}
	if err := s.professors.Replace(ctx, id, p); err != nil {
		return model.Professor{}, err
	}
	if cur.Name != p.Name {
		s.renameQuestionOwner(ctx, id, p.Name)
	}
	p.Password = ""
	return p, nil
}

func (s *Service) renameQuestionOwner(ctx context.Context, professorID, name string) {
	qs, err := s.questions.GetAll(ctx)
	if err != nil {
		s.log.Warn("list questions for rename failed", zap.Error(err))
		return
	}
	for _, q := range qs {
		if q.TeacherID != professorID {
			continue
		}
		if err := s.questions.Update(ctx, q.ID, map[string]any{"teacherName": name}); err != nil {
			s.log.Warn("rename question owner failed", zap.String("question", q.ID), zap.Error(err))
		}
	}
}

// DeleteProfessor removes a professor and schedules the cascade that removes
// its questions and image.
func (s *Service) DeleteProfessor(ctx context.Context, id string) error {
	p, err := s.professors.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.professors.Delete(ctx, id); err != nil {
		return err
	}
	s.scheduleCascade(ctx, p)
	return nil
}

// DeleteProfessors removes several professors concurrently. Unknown ids are
// reported as failures; the rest still go through.
func (s *Service) DeleteProfessors(ctx context.Context, ids []string) importer.Summary {
	return importer.Run(ctx, uniqueIDs(ids), func(ctx context.Context, id string) error {
		return s.DeleteProfessor(ctx, id)
	}, runOpts[string](s, 0, nil))
}

func (s *Service) scheduleCascade(ctx context.Context, p model.Professor) {
	job := queue.ProfessorDeleted{ProfessorID: p.ID, Name: p.Name, ImageURL: p.ImageURL}
	if s.queue != nil {
		msg, err := queue.NewProfessorDeleted(job)
		if err == nil {
			err = s.queue.Publish(ctx, msg)
		}
		if err == nil {
			return
		}
		s.log.Warn("cascade publish failed, running inline", zap.String("professor", p.ID), zap.Error(err))
	}
	if err := s.Cascade(context.WithoutCancel(ctx), job); err != nil {
		s.log.Error("cascade failed", zap.String("professor", p.ID), zap.Error(err))
	}
}

// Cascade removes what belonged to a deleted professor: its evaluation
// questions and its profile image.
func (s *Service) Cascade(ctx context.Context, job queue.ProfessorDeleted) error {
	qs, err := s.questions.GetAll(ctx)
	if err != nil {
		return err
	}
	var owned []model.EvaluationQuestion
	for _, q := range qs {
		if q.TeacherID == job.ProfessorID {
			owned = append(owned, q)
		}
	}
	sum := importer.Run(ctx, owned, func(ctx context.Context, q model.EvaluationQuestion) error {
		return s.questions.Delete(ctx, q.ID)
	}, runOpts(s, 0, func(q model.EvaluationQuestion) string { return q.QuestionText }))

	var errs []error
	if sum.Failed() > 0 {
		errs = append(errs, fmt.Errorf("delete questions: %s", strings.Join(sum.Errors, "; ")))
	}
	if s.images != nil && job.ImageURL != "" {
		if err := s.images.DeleteByOwnerName(ctx, job.Name); err != nil {
			errs = append(errs, fmt.Errorf("delete image: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HandleJob runs one queue message; the worker calls it for every message.
func (s *Service) HandleJob(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case queue.TypeProfessorDeleted:
		job, err := queue.DecodeProfessorDeleted(msg)
		if err != nil {
			s.metrics.Cascade("invalid")
			return err
		}
		if err := s.Cascade(ctx, job); err != nil {
			s.metrics.Cascade("failed")
			return err
		}
		s.metrics.Cascade("ok")
		return nil
	default:
		return fmt.Errorf("unknown job type %q", msg.Type)
	}
}

// ImageResult is returned by UploadProfessorImage. MetadataSaved is false
// when the image was stored but the professor record could not be updated in
// time.
type ImageResult struct {
	URL           string `json:"imageUrl"`
	MetadataSaved bool   `json:"metadataSaved"`
}

// UploadProfessorImage stores a profile image and then records its URL on
// the professor. The record update is best effort and bounded by the
// metadata timeout.
func (s *Service) UploadProfessorImage(ctx context.Context, id string, data []byte, filename string) (ImageResult, error) {
	if s.images == nil {
		return ImageResult{}, apperr.ErrUnavailable
	}
	if len(data) == 0 {
		return ImageResult{}, apperr.NewValidationError("image file is empty",
			apperr.FieldError{Field: "file", Error: "is required"})
	}
	p, err := s.professors.Get(ctx, id)
	if err != nil {
		return ImageResult{}, err
	}
	url, err := s.images.Upload(ctx, data, p.Name, filename)
	if err != nil {
		return ImageResult{}, fmt.Errorf("upload image: %w", err)
	}

	res := ImageResult{URL: url}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.metadataTimeout)
	defer cancel()
	if err := s.professors.Update(mctx, id, map[string]any{"imageUrl": url}); err != nil {
		s.log.Warn("image metadata write failed", zap.String("professor", id), zap.Error(err))
		return res, nil
	}
	res.MetadataSaved = true
	return res, nil
}

// PasswordInput is the payload for a password change.
type PasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UpdatePassword changes a user's password at the identity provider.
func (s *Service) UpdatePassword(ctx context.Context, in PasswordInput) error {
	if err := check(in); err != nil {
		return err
	}
	if s.identity == nil {
		return apperr.ErrUnavailable
	}
	return s.identity.UpdatePassword(ctx, strings.TrimSpace(in.Email), in.NewPassword)
}

func emailTaken(profs []model.Professor, email, exceptID string) bool {
	key := textnorm.EmailKey(email)
	for _, p := range profs {
		if p.ID != exceptID && textnorm.EmailKey(p.Email) == key {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
