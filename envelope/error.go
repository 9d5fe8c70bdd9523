package envelope

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// CodePattern matches every code produced by Normalize.
var CodePattern = regexp.MustCompile(`^[A-Z_]+_FAILED$`)

// Kind classifies the origin of a failure.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindRemote       Kind = "remote"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindCanceled     Kind = "canceled"
	KindInternal     Kind = "internal"
)

// ErrorEnvelope is the single error shape returned by orchestrated operations.
// It is created once per failure and never mutated afterwards.
type ErrorEnvelope struct {
	ID        string
	Code      string
	Message   string
	Details   error
	Timestamp time.Time
	Context   string
	Operation string
	Kind      Kind
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the raw error so errors.Is/As keep working.
func (e *ErrorEnvelope) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Details
}

// HTTPStatus maps the failure kind to a response status.
func (e *ErrorEnvelope) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindCanceled:
		return http.StatusGatewayTimeout
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// ToServiceError converts the envelope into a go-errors value for transport
// layers that already speak that format.
func (e *ErrorEnvelope) ToServiceError() *goerrors.Error {
	var out *goerrors.Error
	if e.Details != nil {
		out = goerrors.Wrap(e.Details, kindCategory(e.Kind), e.Message)
	} else {
		out = goerrors.New(e.Message, kindCategory(e.Kind))
	}
	return out.
		WithCode(e.HTTPStatus()).
		WithTextCode(e.Code).
		WithMetadata(map[string]any{
			"id":        e.ID,
			"context":   e.Context,
			"operation": e.Operation,
			"kind":      string(e.Kind),
		})
}

type errorJSON struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context"`
	Operation string    `json:"operation"`
	Kind      Kind      `json:"kind"`
}

// MarshalJSON renders Details as its message.
func (e *ErrorEnvelope) MarshalJSON() ([]byte, error) {
	out := errorJSON{
		ID:        e.ID,
		Code:      e.Code,
		Message:   e.Message,
		Timestamp: e.Timestamp,
		Context:   e.Context,
		Operation: e.Operation,
		Kind:      e.Kind,
	}
	if e.Details != nil {
		out.Details = e.Details.Error()
	}
	return json.Marshal(out)
}

// Code synthesizes "<CONTEXT>_<OPERATION>_FAILED".
func Code(context, operation string) string {
	var parts []string
	for _, s := range []string{context, operation} {
		if seg := codeSegment(s); seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "OPERATION")
	}
	return strings.Join(parts, "_") + "_FAILED"
}

// Normalize converts raw into an ErrorEnvelope for context/operation. An
// envelope passed in is returned unchanged so every failure produces exactly
// one envelope. A nil raw error returns nil.
func Normalize(raw error, context, operation string) *ErrorEnvelope {
	if raw == nil {
		return nil
	}

	var existing *ErrorEnvelope
	if errors.As(raw, &existing) {
		return existing
	}

	return build(raw, context, operation, classify(raw))
}

// Validation builds a ValidationFailure envelope for raw.
func Validation(raw error, context, operation string) *ErrorEnvelope {
	if raw == nil {
		return nil
	}
	var existing *ErrorEnvelope
	if errors.As(raw, &existing) {
		return existing
	}
	return build(raw, context, operation, KindValidation)
}

func build(raw error, context, operation string, kind Kind) *ErrorEnvelope {
	message := strings.TrimSpace(raw.Error())
	if message == "" {
		message = fmt.Sprintf("Failed to %s", operation)
	}

	return &ErrorEnvelope{
		ID:        uuid.NewString(),
		Code:      Code(context, operation),
		Message:   message,
		Details:   raw,
		Timestamp: time.Now(),
		Context:   context,
		Operation: operation,
		Kind:      kind,
	}
}

// IsKind reports whether err carries an ErrorEnvelope of the given kind.
func IsKind(err error, kind Kind) bool {
	var env *ErrorEnvelope
	if errors.As(err, &env) {
		return env.Kind == kind
	}
	return false
}

func classify(raw error) Kind {
	var verrs validation.Errors
	if errors.As(raw, &verrs) {
		return KindValidation
	}
	var verr validation.Error
	if errors.As(raw, &verr) {
		return KindValidation
	}

	if errors.Is(raw, context.Canceled) || errors.Is(raw, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(raw, sql.ErrNoRows) {
		return KindNotFound
	}

	var gerr *goerrors.Error
	if errors.As(raw, &gerr) {
		return categoryKind(gerr.Category)
	}

	return KindRemote
}

func categoryKind(category goerrors.Category) Kind {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return KindValidation
	case goerrors.CategoryNotFound:
		return KindNotFound
	case goerrors.CategoryConflict:
		return KindConflict
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return KindUnauthorized
	case goerrors.CategoryInternal:
		return KindInternal
	default:
		return KindRemote
	}
}

func kindCategory(kind Kind) goerrors.Category {
	switch kind {
	case KindValidation:
		return goerrors.CategoryValidation
	case KindNotFound:
		return goerrors.CategoryNotFound
	case KindConflict:
		return goerrors.CategoryConflict
	case KindUnauthorized:
		return goerrors.CategoryAuth
	case KindInternal:
		return goerrors.CategoryInternal
	default:
		return goerrors.CategoryExternal
	}
}
