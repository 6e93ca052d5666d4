package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"evaladmin/internal/admin"
	"evaladmin/internal/apperr"
	"evaladmin/internal/spreadsheet"
)

// readUpload returns the bytes of the multipart "file" field, bounded by
// limit.
func readUpload(c *gin.Context, limit int64) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", apperr.NewValidationError("file is required",
			apperr.FieldError{Field: "file", Error: "is required"})
	}
	if fh.Size > limit {
		return nil, "", apperr.NewValidationError("file is too large",
			apperr.FieldError{Field: "file", Error: "exceeds " + strconv.FormatInt(limit>>20, 10) + "MB"})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", apperr.NewValidationError("file is too large")
	}
	return data, fh.Filename, nil
}

// importSheet parses an uploaded workbook and previews or commits it.
// dry_run=true stops after duplicate classification.
func (h *Handler) importSheet(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	data, name, err := readUpload(c, h.maxImportBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := spreadsheet.ReadRows(bytes.NewReader(data), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var res admin.ImportResult
	switch c.Param("kind") {
	case "professors":
		sheet, perr := spreadsheet.ParseProfessors(rows)
		if perr != nil {
			h.fail(c, perr)
			return
		}
		res, err = h.svc.ImportProfessors(ctx, sheet, dryRun)
	case "students":
		sheet, perr := spreadsheet.ParseStudents(rows)
		if perr != nil {
			h.fail(c, perr)
			return
		}
		res, err = h.svc.ImportStudents(ctx, sheet, dryRun)
	case "questions":
		sheet, perr := spreadsheet.ParseQuestions(rows)
		if perr != nil {
			h.fail(c, perr)
			return
		}
		res, err = h.svc.ImportQuestions(ctx, sheet, dryRun)
	default:
		h.fail(c, apperr.ErrNotFound)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res.Message, res)
}
