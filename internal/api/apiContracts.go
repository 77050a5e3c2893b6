package api

import "time"

// Envelope is the uniform response shape: exactly one of Result or Error is
// set, keyed by Success.
type Envelope struct {
	Success   bool        `json:"success"`
	Result    interface{} `json:"result,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code" example:"CATEGORY_NOT_FOUND"`
	Message string `json:"message" example:"no documents in category \"lease\""`
}

// requests---------------------

type ProcessRequest struct {
	Paths       []string `json:"paths" validate:"required"`
	StorePrefix string   `json:"store_prefix,omitempty"`
}

type LoadStoresRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

type DeleteStoresRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
	Category string `json:"category,omitempty"`
	Session  string `json:"session,omitempty"`
}

type FileQueryRequest struct {
	Question string `json:"question" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
	Session  string `json:"session,omitempty"`
}

type CompareRequest struct {
	Question  string `json:"question" validate:"required"`
	CategoryA string `json:"category_a" validate:"required"`
	CategoryB string `json:"category_b" validate:"required"`
}

type CompareFilesRequest struct {
	Question string `json:"question" validate:"required"`
	FileA    string `json:"file_a" validate:"required"`
	FileB    string `json:"file_b" validate:"required"`
}

// CompareIntentRequest drives the fixed-intent comparisons (obligations,
// termination): each side is a category or a file path.
type CompareIntentRequest struct {
	CategoryA string `json:"category_a,omitempty"`
	CategoryB string `json:"category_b,omitempty"`
	FileA     string `json:"file_a,omitempty"`
	FileB     string `json:"file_b,omitempty"`
}

type CompareClausesRequest struct {
	Clause    string `json:"clause" validate:"required"`
	CategoryA string `json:"category_a,omitempty"`
	CategoryB string `json:"category_b,omitempty"`
	FileA     string `json:"file_a,omitempty"`
	FileB     string `json:"file_b,omitempty"`
}

type SummaryRequest struct {
	Category string `json:"category,omitempty"`
}

type FileRequest struct {
	FilePath string `json:"file_path" validate:"required"`
}

type ClauseRequest struct {
	Clause   string `json:"clause" validate:"required"`
	Category string `json:"category,omitempty"`
}

type ClauseFileRequest struct {
	Clause   string `json:"clause" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
}

type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

type SessionRequest struct {
	Session string `json:"session,omitempty"`
}

// responses---------------------

type AnswerResponse struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

type UploadedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size_bytes"`
}
