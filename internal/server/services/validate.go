package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput checks the validate tags of in. The first failing field is
// reported as a common.ErrorBadRequest.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %T: %w", in, err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return common.NewError(common.ErrorBadRequest, field+" is required")
	case "email":
		return common.NewError(common.ErrorBadRequest, field+" is malformed")
	default:
		return common.NewError(common.ErrorBadRequest, field+" is invalid")
	}
}
