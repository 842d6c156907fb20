package types

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.Split(f.Tag.Get(tag), ",")[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

// SeedExample is a labelled classification example supplied at ingestion.
type SeedExample struct {
	Text  string `json:"example_text" validate:"required,max=10000"`
	Label string `json:"example_label" validate:"required,max=128"`
}

// IngestMetadata is the optional `metadata` part of an ingest upload.
type IngestMetadata struct {
	Examples []SeedExample `json:"classification_examples" validate:"omitempty,max=100,dive"`
}

type ReprocessParams struct {
	Examples []SeedExample `json:"classification_examples" validate:"omitempty,max=100,dive"`
}

type DiffParams struct {
	FromVersion int `query:"from_version" validate:"required,min=1"`
	ToVersion   int `query:"to_version" validate:"required,min=1"`
}

type SearchParams struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type FeedbackParams struct {
	PredictionID   string          `json:"prediction_id" validate:"required,uuid"`
	PredictionType string          `json:"prediction_type" validate:"required,max=64"`
	FeedbackType   string          `json:"feedback_type" validate:"required,max=64"`
	OriginalData   json.RawMessage `json:"original_data"`
	CorrectedData  json.RawMessage `json:"corrected_data" validate:"required"`
	UserContext    *string         `json:"user_context"`
}

func (params *IngestMetadata) Validate() map[string]string {
	return validateStruct(params)
}

func (params *ReprocessParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *DiffParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SearchParams) Validate() map[string]string {
	errors := validateStruct(params)
	if strings.TrimSpace(params.Query) == "" {
		if errors == nil {
			errors = make(map[string]string)
		}
		errors["query"] = "failed on 'required' tag"
	}
	return errors
}

func (params *FeedbackParams) Validate() map[string]string {
	errors := validateStruct(params)
	if len(params.CorrectedData) > 0 && !json.Valid(params.CorrectedData) {
		if errors == nil {
			errors = make(map[string]string)
		}
		errors["corrected_data"] = "must be valid JSON"
	}
	return errors
}

func validateStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	errors := make(map[string]string, len(errs))
	for _, e := range errs {
		errors[fieldPath(e)] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return errors
}

// fieldPath drops the root struct name from the namespace so nested
// failures read like "classification_examples[0].example_label".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}
