package spreadsheet

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// columnFor maps struct json names to the sheet header shown in warnings.
var columnFor = map[string]string{
	"name":           "NAME",
	"departmentName": "DEPARTMENT",
	"email":          "GMAIL",
	"password":       "PASSWORD",
	"firstName":      "FIRST NAME",
	"lastName":       "LAST NAME",
	"studentId":      "STUDENT ID",
	"section":        "SECTION",
	"status":         "STATUS",
	"questionText":   "QUESTION",
	"questionType":   "TYPE",
	"weight":         "WEIGHT",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.ToLower(fld.Name[:1]) + fld.Name[1:]
		}
		if col, ok := columnFor[name]; ok {
			return col
		}
		return name
	})
	return v
}

// rowWarnings validates v and renders each failure as "Row N: ...".
func rowWarnings(n int, v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("Row %d: %v", n, err)}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("Row %d: %s", n, describe(fe)))
	}
	return out
}

func describe(fe validator.FieldError) string {
	col := fe.Field()
	switch fe.Tag() {
	case "required":
		return "missing " + col
	case "email":
		return fmt.Sprintf("invalid %s %q", col, fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", col, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of %s", col, fe.Value(), strings.ReplaceAll(fe.Param(), "'", ""))
	case "numeric":
		return fmt.Sprintf("%s %q is not a number", col, fe.Value())
	default:
		return fmt.Sprintf("invalid %s", col)
	}
}
