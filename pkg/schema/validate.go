package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report payload fields by their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
		return variableName.MatchString(fl.Field().String())
	})
	return v
}

// ValidateNode checks a typed node against its variant's schema.
func ValidateNode(node domain.Node) error {
	if node.ID == "" {
		return &SchemaError{Variant: node.Variant(), Field: "id", Reason: "is required"}
	}
	if node.Data == nil {
		return &SchemaError{NodeID: node.ID, Reason: "payload is missing"}
	}
	if reflect.ValueOf(node.Data).Kind() == reflect.Pointer {
		return &SchemaError{NodeID: node.ID, Variant: node.Variant(), Reason: "payload must be a value, not a pointer"}
	}
	if !node.Variant().Valid() {
		return &SchemaError{NodeID: node.ID, Variant: node.Variant(), Field: "type", Reason: "unknown variant"}
	}
	return checkPayload(node.ID, node.Data)
}

// ValidateFlow checks every node of the flow and aggregates the failures.
func ValidateFlow(f *domain.Flow) error {
	var errs []error
	for _, n := range f.Nodes {
		if err := ValidateNode(n); err != nil {
			for _, se := range SchemaErrors(err) {
				errs = append(errs, se)
			}
		}
	}
	return join(errs)
}

func checkPayload(nodeID string, payload domain.Payload) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &SchemaError{NodeID: nodeID, Variant: payload.Variant(), Reason: err.Error()}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &SchemaError{
			NodeID:  nodeID,
			Variant: payload.Variant(),
			Field:   fe.Field(),
			Reason:  reason(fe),
		})
	}
	return join(errs)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "varname":
		return fmt.Sprintf("%q is not a valid variable name", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
