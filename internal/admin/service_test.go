package admin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaladmin/internal/apperr"
	"evaladmin/internal/docstore"
	"evaladmin/internal/identity"
	"evaladmin/internal/model"
	"evaladmin/internal/queue"
	"evaladmin/internal/spreadsheet"
)

type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, data []byte, owner, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, owner)
	return "https://res.cloudinary.com/demo/" + filename, nil
}

func (f *fakeImages) DeleteByOwnerName(_ context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, owner)
	return nil
}

// failingStore rejects creates whose fields contain a poisoned email.
type failingStore struct {
	*docstore.Memory
	poison string
}

func (f *failingStore) Create(ctx context.Context, coll string, fields map[string]any) (string, error) {
	if fields["email"] == f.poison {
		return "", errors.New("rpc error: code = PermissionDenied desc = missing permissions")
	}
	return f.Memory.Create(ctx, coll, fields)
}

type harness struct {
	svc    *Service
	mem    *docstore.Memory
	ids    *identity.Memory
	images *fakeImages
}

func newHarness(t *testing.T, backend docstore.Backend) harness {
	t.Helper()
	mem := docstore.NewMemory()
	if backend == nil {
		backend = mem
	} else if fs, ok := backend.(*failingStore); ok {
		mem = fs.Memory
	}
	h := harness{mem: mem, ids: identity.NewMemory(), images: &fakeImages{}}
	h.svc = New(Deps{Store: backend, Images: h.images, Identity: h.ids, Concurrency: 4})
	return h
}

func (h harness) addProfessor(t *testing.T, p model.Professor) string {
	t.Helper()
	if p.Status == "" {
		p.Status = model.ProfessorActive
	}
	id, err := h.svc.professors.Create(context.Background(), p)
	require.NoError(t, err)
	return id
}

func professorSheet(t *testing.T, rows ...[]string) spreadsheet.ProfessorSheet {
	t.Helper()
	sheet, err := spreadsheet.ParseProfessors(append([][]string{spreadsheet.ProfessorColumns}, rows...))
	require.NoError(t, err)
	return sheet
}

func TestImportProfessors_previewThenCommit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.addProfessor(t, model.Professor{Name: "Old One", Email: "old1@school.edu"})
	h.addProfessor(t, model.Professor{Name: "Old Two", Email: "old2@school.edu"})

	sheet := professorSheet(t,
		[]string{"Ana Cruz", "CCS", "Math", "1A", "BSIT", "ana@school.edu", "secret1"},
		[]string{"Old One", "CCS", "Math", "1A", "BSIT", "OLD1@school.edu", ""},
		[]string{"Ben Reyes", "CBA", "Accounting", "2A", "BSA", "ben@school.edu", ""},
		[]string{"Old Two", "CBA", "Accounting", "2A", "BSA", "old2@school.edu", ""},
		[]string{"Cy Lim", "CCS", "Physics", "1B", "BSIT", "cy@school.edu", ""},
	)

	preview, err := h.svc.ImportProfessors(ctx, sheet, true)
	require.NoError(t, err)
	assert.Equal(t, 5, preview.Total)
	assert.Equal(t, 3, preview.New)
	assert.Equal(t, 2, preview.Duplicate)
	assert.Nil(t, preview.Summary)
	all, err := h.svc.ListProfessors(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "dry run writes nothing")

	res, err := h.svc.ImportProfessors(ctx, sheet, false)
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 3, res.Summary.Success)
	assert.Equal(t, "3 professors added, 2 skipped (duplicates)", res.Message)

	all, err = h.svc.ListProfessors(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, p := range all {
		assert.Empty(t, p.Password)
	}
	pw, ok := h.ids.Password("ana@school.edu")
	assert.True(t, ok)
	assert.Equal(t, "secret1", pw)

	depts, err := h.svc.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, "CBA", depts[0].Name)

	again, err := h.svc.ImportProfessors(ctx, sheet, false)
	require.NoError(t, err)
	assert.Equal(t, 0, again.New)
	assert.Equal(t, "0 professors added, 5 skipped (duplicates)", again.Message)
}

func TestImportProfessors_partialFailure(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: docstore.NewMemory(), poison: "ben@school.edu"}
	h := newHarness(t, fs)

	sheet := professorSheet(t,
		[]string{"Ana Cruz", "CCS", "Math", "1A", "BSIT", "ana@school.edu", ""},
		[]string{"Ben Reyes", "CBA", "Accounting", "2A", "BSA", "ben@school.edu", ""},
	)
	res, err := h.svc.ImportProfessors(ctx, sheet, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Success)
	require.Len(t, res.Summary.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Summary.Errors[0], "ben@school.edu: "))
	assert.NotContains(t, res.Summary.Errors[0], "rpc error")
	assert.Equal(t, "1 professor added, 0 skipped (duplicates), 1 failed", res.Message)
}

func TestImportStudents_derivedIDDuplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	_, err := h.svc.CreateStudent(ctx, StudentInput{FirstName: "Ana", LastName: "Cruz", Email: "ana.cruz@school.edu", Section: "1A"})
	require.NoError(t, err)

	sheet, err := spreadsheet.ParseStudents([][]string{
		spreadsheet.StudentColumns,
		{"Ana", "Cruz", "", "", "ana.cruz@gmail.com", "1", "BSIT", "1A", "Math", ""},
		{"Ben", "Reyes", "", "", "ben@school.edu", "1", "BSIT", "1A", "Math", ""},
		{"Ben", "Reyes", "", "", "BEN@school.edu", "1", "BSIT", "1A", "Math", ""},
	})
	require.NoError(t, err)

	res, err := h.svc.ImportStudents(ctx, sheet, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 2, res.Duplicate)
	assert.Equal(t, "1 student added, 2 skipped (duplicates)", res.Message)

	students, err := h.svc.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, model.StudentRegular, students[1].Status)
	assert.Equal(t, model.AccountActive, students[1].AccountStatus)
}

func TestImportQuestions_onePerProfessor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.addProfessor(t, model.Professor{Name: "Ana", Email: "ana@school.edu"})
	h.addProfessor(t, model.Professor{Name: "Ben", Email: "ben@school.edu"})
	h.addProfessor(t, model.Professor{Name: "Gone", Email: "gone@school.edu", Status: model.ProfessorResigned})
	_, err := h.svc.questions.Create(ctx, model.EvaluationQuestion{TeacherID: a, QuestionText: "Explains clearly.", QuestionType: model.QuestionLikert})
	require.NoError(t, err)

	sheet, err := spreadsheet.ParseQuestions([][]string{
		spreadsheet.QuestionColumns,
		{"explains   clearly", "likert", "", "Instructional Competence", ""},
		{"Starts on time", "likert", "", "Classroom Management", ""},
		{"Any comments?", "text", "", "Comments", ""},
	})
	require.NoError(t, err)

	res, err := h.svc.ImportQuestions(ctx, sheet, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 4, res.Summary.Total, "two professors times two new questions")
	assert.Equal(t, 4, res.Summary.Success)
	assert.Equal(t, 1, res.Summary.Skipped)

	groups, err := h.svc.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	byKey := map[string]QuestionGroup{}
	for _, g := range groups {
		byKey[g.Key] = g
	}
	assert.Equal(t, 1, byKey["explains clearly"].Professors)
	assert.Equal(t, 2, byKey["starts on time"].Professors)
	assert.Equal(t, model.DefaultLikertScale, byKey["starts on time"].Options)
	assert.Nil(t, byKey["any comments"].Options)
}

func TestImportQuestions_needsProfessors(t *testing.T) {
	h := newHarness(t, nil)
	sheet := spreadsheet.QuestionSheet{Records: []model.ParsedQuestion{{QuestionText: "Q", QuestionType: model.QuestionText}}}

	preview, err := h.svc.ImportQuestions(context.Background(), sheet, true)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.New)

	_, err = h.svc.ImportQuestions(context.Background(), sheet, false)
	assert.True(t, apperr.IsValidation(err))
}

func TestQuestionsByText(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.addProfessor(t, model.Professor{Name: "Ana", Email: "ana@school.edu"})
	h.addProfessor(t, model.Professor{Name: "Ben", Email: "ben@school.edu"})

	sum, err := h.svc.CreateQuestion(ctx, QuestionInput{QuestionText: "Is punctual", QuestionType: model.QuestionLikert, Section: "Professionalism"})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Success)

	_, err = h.svc.CreateQuestion(ctx, QuestionInput{QuestionText: "is punctual!", QuestionType: model.QuestionText})
	assert.True(t, apperr.IsValidation(err))

	sum, err = h.svc.UpdateQuestionByText(ctx, "IS PUNCTUAL", QuestionInput{QuestionText: "Arrives on time", QuestionType: model.QuestionText, Section: "Comments"})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Success)

	groups, err := h.svc.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Arrives on time", groups[0].QuestionText)
	assert.Equal(t, model.QuestionText, groups[0].QuestionType)
	assert.Empty(t, groups[0].Options)

	_, err = h.svc.UpdateQuestionByText(ctx, "missing", QuestionInput{QuestionText: "x", QuestionType: model.QuestionText})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	sum, err = h.svc.DeleteQuestionByText(ctx, "arrives on time.")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Success)
	groups, err = h.svc.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestDeleteProfessor_cascadeInline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.addProfessor(t, model.Professor{Name: "Ana", Email: "ana@school.edu", ImageURL: "https://res.cloudinary.com/demo/ana.jpg"})
	h.addProfessor(t, model.Professor{Name: "Ben", Email: "ben@school.edu"})
	_, err := h.svc.CreateQuestion(ctx, QuestionInput{QuestionText: "Is fair", QuestionType: model.QuestionLikert})
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteProfessor(ctx, a))

	groups, err := h.svc.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Professors)
	assert.Equal(t, []string{"Ana"}, h.images.deleted)

	assert.True(t, errors.Is(h.svc.DeleteProfessor(ctx, a), apperr.ErrNotFound))
}

func TestDeleteProfessors_queuedCascade(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mem := docstore.NewMemory()
	q := queue.NewInMemory(8)
	svc := New(Deps{Store: mem, Queue: q})

	a, err := svc.professors.Create(ctx, model.Professor{Name: "Ana", Email: "ana@school.edu", Status: model.ProfessorActive})
	require.NoError(t, err)
	_, err = svc.questions.Create(ctx, model.EvaluationQuestion{TeacherID: a, QuestionText: "Q"})
	require.NoError(t, err)

	sum := svc.DeleteProfessors(ctx, []string{a, a, "missing", ""})
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Success)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, "record 2: record not found", sum.Errors[0])

	qs, err := svc.questions.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, qs, 1, "cascade waits for the worker")

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		require.NoError(t, svc.HandleJob(ctx, msg))
	case <-time.After(time.Second):
		t.Fatal("no cascade job published")
	}
	qs, err = svc.questions.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, qs)

	assert.Error(t, svc.HandleJob(ctx, queue.Message{Type: "unknown"}))
}

func TestUploadProfessorImage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.addProfessor(t, model.Professor{Name: "Ana", Email: "ana@school.edu"})

	res, err := h.svc.UploadProfessorImage(ctx, a, []byte("img"), "ana.jpg")
	require.NoError(t, err)
	assert.True(t, res.MetadataSaved)
	assert.Equal(t, "https://res.cloudinary.com/demo/ana.jpg", res.URL)
	p, err := h.svc.GetProfessor(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, res.URL, p.ImageURL)

	_, err = h.svc.UploadProfessorImage(ctx, "missing", []byte("img"), "x.jpg")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = h.svc.UploadProfessorImage(ctx, a, nil, "x.jpg")
	assert.True(t, apperr.IsValidation(err))

	noImages := New(Deps{Store: h.mem})
	_, err = noImages.UploadProfessorImage(ctx, a, []byte("img"), "x.jpg")
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
}

func TestCreateAndUpdateProfessor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	_, err := h.svc.CreateProfessor(ctx, ProfessorInput{Name: "Ana", Email: "bad"})
	require.Error(t, err)
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Fields[0].Field)

	p, err := h.svc.CreateProfessor(ctx, ProfessorInput{Name: "Ana", Email: "ana@school.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.ProfessorActive, p.Status)
	assert.Empty(t, p.Password)

	_, err = h.svc.CreateProfessor(ctx, ProfessorInput{Name: "Other", Email: "ANA@school.edu"})
	assert.True(t, apperr.IsValidation(err))

	_, err = h.svc.CreateQuestion(ctx, QuestionInput{QuestionText: "Q", QuestionType: model.QuestionText})
	require.NoError(t, err)

	up, err := h.svc.UpdateProfessor(ctx, p.ID, ProfessorInput{Name: "Ana Cruz", Email: "ana@school.edu", Status: "Resigned", Password: "newpass"})
	require.NoError(t, err)
	assert.Equal(t, model.ProfessorResigned, up.Status)
	pw, _ := h.ids.Password("ana@school.edu")
	assert.Equal(t, "newpass", pw)

	qs, err := h.svc.questions.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Ana Cruz", qs[0].TeacherName)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.ids.CreateAccount(ctx, "ana@school.edu", "old", ""))

	err := h.svc.UpdatePassword(ctx, PasswordInput{Email: "ana@school.edu", NewPassword: "123"})
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, h.svc.UpdatePassword(ctx, PasswordInput{Email: "ana@school.edu", NewPassword: "123456"}))
	err = h.svc.UpdatePassword(ctx, PasswordInput{Email: "nobody@school.edu", NewPassword: "123456"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	d, err := h.svc.CreateDepartment(ctx, DepartmentInput{Name: "College of Computing"})
	require.NoError(t, err)
	_, err = h.svc.CreateDepartment(ctx, DepartmentInput{Name: "  college of  computing."})
	assert.True(t, apperr.IsValidation(err))

	up, err := h.svc.UpdateDepartment(ctx, d.ID, DepartmentInput{Name: "College of Computing", Description: "CCS"})
	require.NoError(t, err)
	assert.Equal(t, "CCS", up.Description)

	require.NoError(t, h.svc.DeleteDepartment(ctx, d.ID))
	_, err = h.svc.UpdateDepartment(ctx, d.ID, DepartmentInput{Name: "X"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

type rejectingIdentity struct{}

func (rejectingIdentity) UpdatePassword(context.Context, string, string) error {
	return errors.New("auth: quota exceeded")
}

func (rejectingIdentity) CreateAccount(context.Context, string, string, string) error {
	return errors.New("auth: quota exceeded")
}

func TestCreateProfessor_password(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		identity identity.Provider
		wantErr  error
	}{
		{name: "no identity provider", identity: nil, wantErr: apperr.ErrUnavailable},
		{name: "account creation fails", identity: rejectingIdentity{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := docstore.NewMemory()
			svc := New(Deps{Store: mem, Identity: tt.identity})

			_, err := svc.CreateProfessor(ctx, ProfessorInput{Name: "Ana", Email: "ana@school.edu", Password: "secret123"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}

			profs, err := svc.ListProfessors(ctx)
			require.NoError(t, err)
			assert.Empty(t, profs)
		})
	}
}

func TestImportProfessors_passwordWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	svc := New(Deps{Store: docstore.NewMemory()})
	sheet := professorSheet(t,
		[]string{"With Pass", "CS", "Math", "A", "BSCS", "pass@school.edu", "secret123"},
		[]string{"No Pass", "CS", "Math", "A", "BSCS", "nopass@school.edu", ""},
	)

	res, err := svc.ImportProfessors(ctx, sheet, false)
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.Success)
	assert.Equal(t, 1, res.Summary.Failed())

	profs, err := svc.ListProfessors(ctx)
	require.NoError(t, err)
	require.Len(t, profs, 1)
	assert.Equal(t, "nopass@school.edu", profs[0].Email)
}

func TestUpdateStudent_clearsSuffix(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	in := StudentInput{FirstName: "Ana", LastName: "Cruz", Suffix: "Jr.", Email: "ana@school.edu", Section: "A"}
	st, err := h.svc.CreateStudent(ctx, in)
	require.NoError(t, err)

	in.Suffix = ""
	_, err = h.svc.UpdateStudent(ctx, st.ID, in)
	require.NoError(t, err)

	got, err := h.svc.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Suffix)
}

func TestUpdateDepartment_clearsDescription(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	d, err := h.svc.CreateDepartment(ctx, DepartmentInput{Name: "Engineering", Description: "COE"})
	require.NoError(t, err)

	_, err = h.svc.UpdateDepartment(ctx, d.ID, DepartmentInput{Name: "Engineering"})
	require.NoError(t, err)

	ds, err := h.svc.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Empty(t, ds[0].Description)
}
