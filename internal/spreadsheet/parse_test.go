package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"evaladmin/internal/apperr"
	"evaladmin/internal/model"
)

func professorRows(data ...[]string) [][]string {
	return append([][]string{ProfessorColumns}, data...)
}

func TestParseProfessorsMergesByEmail(t *testing.T) {
	sheet, err := ParseProfessors(professorRows(
		[]string{"Ana Cruz", "CCS", "Math, Physics", "1A, 1B", "BSIT", "ana@school.edu", "secret1"},
		[]string{"", "", "Math", "1C", "", "ANA@school.edu ", ""},
		[]string{"Ben Reyes", "CBA", "Accounting", "2A", "BSA", "ben@school.edu", ""},
	))
	require.NoError(t, err)
	assert.Empty(t, sheet.Warnings)
	require.Len(t, sheet.Records, 2)

	ana := sheet.Records[0]
	assert.Equal(t, 2, ana.RowIndex)
	assert.Equal(t, "secret1", ana.Password)
	assert.Equal(t, []model.SubjectSection{
		{Subject: "Math", Sections: []string{"1A", "1B", "1C"}, Course: "BSIT"},
		{Subject: "Physics", Sections: []string{"1A", "1B"}, Course: "BSIT"},
	}, ana.SubjectSections)

	assert.Equal(t, []string{"1A", "1B", "1C", "2A"}, sheet.SectionNames())
	assert.Equal(t, []string{"ana@school.edu"}, sheet.BySection["1C"])
	assert.Equal(t, []string{"ben@school.edu"}, sheet.BySection["2A"])
}

func TestParseProfessorsWarnings(t *testing.T) {
	sheet, err := ParseProfessors(professorRows(
		[]string{"No Mail", "CCS", "Math", "1A", "BSIT", "", ""},
		[]string{"Bad Mail", "CCS", "Math", "1A", "BSIT", "not-an-email", ""},
		[]string{"", "CCS", "Math", "1A", "BSIT", "anon@school.edu", ""},
		[]string{"Short Pw", "CCS", "Math", "1A", "BSIT", "short@school.edu", "123"},
		[]string{"", "", "", "", "", "", ""},
		[]string{"Ok", "CCS", "Math", "1A", "BSIT", "ok@school.edu", ""},
	))
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, "ok@school.edu", sheet.Records[0].Email)
	assert.Equal(t, []string{
		"Row 2: missing GMAIL",
		`Row 3: invalid GMAIL "not-an-email"`,
		"Row 4: missing NAME",
		"Row 5: PASSWORD must be at least 6 characters",
	}, sheet.Warnings)
}

func TestMissingColumns(t *testing.T) {
	_, err := ParseProfessors([][]string{{"NAME", "GMAIL"}})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "HANDLED SECTION")

	_, err = ParseStudents(nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestHeaderAfterBlankRowsAndCase(t *testing.T) {
	rows := [][]string{
		{},
		{"question", "type", "options", "section", "weight"},
		{"Explains clearly", "likert", "", "A. Instructional Competence", "2"},
		{"Other remarks", "Text", "x, y", "", ""},
		{"", "essay", "", "", ""},
		{"Bad weight", "", "", "", "heavy"},
		{"Bad type", "multiple choice", "", "", ""},
	}
	sheet, err := ParseQuestions(rows)
	require.NoError(t, err)
	require.Len(t, sheet.Records, 2)

	q := sheet.Records[0]
	assert.Equal(t, 3, q.RowIndex)
	assert.Equal(t, model.QuestionLikert, q.QuestionType)
	assert.Equal(t, model.DefaultLikertScale, q.Options)
	assert.Equal(t, "2", q.Weight)

	txt := sheet.Records[1]
	assert.Equal(t, model.QuestionText, txt.QuestionType)
	assert.Nil(t, txt.Options)
	assert.Equal(t, "Other", txt.Section)

	assert.Equal(t, []string{
		"Row 5: missing QUESTION",
		`Row 6: WEIGHT "heavy" is not a number`,
		`Row 7: TYPE "multiple choice" must be one of Likert Scale text`,
	}, sheet.Warnings)
}

func TestParseStudents(t *testing.T) {
	rows := [][]string{
		StudentColumns,
		{"Ana", "Cruz", "", "", "ana.cruz@school.edu", "1", "BSIT", "1A", "Math; Physics", "irregular"},
		{"Ben", "", "", "2020-1", "ben@school.edu", "2", "BSA", "2A", "", ""},
		{"Cy", "Lim", "Jr.", "2020-2", "cy@school.edu", "2", "BSA", "2A", "Accounting", "Alumni"},
	}
	sheet, err := ParseStudents(rows)
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	ana := sheet.Records[0]
	assert.Equal(t, "ana.cruz", ana.StudentID)
	assert.Equal(t, model.StudentIrregular, ana.Status)
	assert.Equal(t, []string{"Math", "Physics"}, ana.Subjects)
	assert.Equal(t, []string{
		"Row 3: missing LAST NAME",
		`Row 4: STATUS "Alumni" must be one of Regular Irregular Graduated Drop`,
	}, sheet.Warnings)
}

func TestReadRowsXLSXAndCSV(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"QUESTION", "TYPE", "OPTIONS", "SECTION", "WEIGHT"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Is punctual", "Likert Scale", "Yes, No", "Professionalism", 1}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(buf.Bytes()), "questions.xlsx")
	require.NoError(t, err)
	sheet, err := ParseQuestions(rows)
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, []string{"Yes", "No"}, sheet.Records[0].Options)
	assert.Equal(t, "1", sheet.Records[0].Weight)

	csvRows, err := ReadRows(strings.NewReader("QUESTION,TYPE,OPTIONS,SECTION,WEIGHT\n\"Is fair\",text,,Comments,\n"), "q.CSV")
	require.NoError(t, err)
	assert.Equal(t, "Is fair", csvRows[1][0])

	_, err = ReadRows(strings.NewReader("not a zip"), "q.xlsx")
	assert.True(t, apperr.IsValidation(err))
}

func TestCapWarnings(t *testing.T) {
	var ws []string
	for i := 0; i < 13; i++ {
		ws = append(ws, "w")
	}
	capped := CapWarnings(ws, 10)
	assert.Len(t, capped, 11)
	assert.Equal(t, "+3 more", capped[10])
	assert.Len(t, CapWarnings(ws[:10], 10), 10)
	assert.Nil(t, CapWarnings(nil, 10))
}
