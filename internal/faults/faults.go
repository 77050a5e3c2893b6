package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error class surfaced to callers. Raw provider
// errors stay wrapped underneath and never leak into responses.
type Kind string

const (
	InvalidInput         Kind = "INVALID_INPUT"
	StoreNotFound        Kind = "STORE_NOT_FOUND"
	CategoryNotFound     Kind = "CATEGORY_NOT_FOUND"
	FileNotIndexed       Kind = "FILE_NOT_INDEXED"
	PipelineNotReady     Kind = "PIPELINE_NOT_READY"
	Provider             Kind = "PROVIDER_FAILURE"
	GenerationFailed     Kind = "GENERATION_FAILED"
	InsufficientEvidence Kind = "INSUFFICIENT_EVIDENCE"
	UnsupportedFormat    Kind = "UNSUPPORTED_FORMAT"
	CorruptFile          Kind = "CORRUPT_FILE"
	CorruptIndex         Kind = "CORRUPT_INDEX"
	EmptyExtraction      Kind = "EMPTY_EXTRACTION"
	ExportIO             Kind = "EXPORT_IO"
)

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from anywhere in the chain; ok is false for plain
// errors.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// UserMessage is the human-readable half of the contract: no stack traces,
// no provider internals.
func UserMessage(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	return "internal error"
}

func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case InvalidInput, UnsupportedFormat, EmptyExtraction:
		return http.StatusBadRequest
	case InsufficientEvidence:
		// semantic "no evidence" outcome, not a system failure
		return http.StatusOK
	case StoreNotFound, CategoryNotFound, FileNotIndexed:
		return http.StatusNotFound
	case PipelineNotReady:
		return http.StatusServiceUnavailable
	case Provider, GenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
