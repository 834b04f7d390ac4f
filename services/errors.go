package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAlreadyVerified = errors.New("order already verified")
	ErrInvalidAction        = errors.New("invalid verification action")
	ErrAmountMismatch       = errors.New("gross amount does not match order total")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SettlementError means the approval was rolled back because a settlement step failed.
type SettlementError struct {
	OrderID string
	Step    string
	Err     error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement of order %s failed at %s: %v", e.OrderID, e.Step, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct turns validator failures into an Indonesian ValidationError for the first failing field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: "Data permintaan tidak valid"}
	}

	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("Field %s wajib diisi", field)
	case "oneof":
		msg = fmt.Sprintf("Nilai %s tidak valid, gunakan salah satu dari: %s", field, fe.Param())
	case "min":
		msg = fmt.Sprintf("Field %s minimal berisi %s", field, fe.Param())
	case "email":
		msg = fmt.Sprintf("Format %s tidak valid", field)
	default:
		msg = fmt.Sprintf("Field %s tidak valid", field)
	}
	return &ValidationError{Field: field, Message: msg}
}
