package httpapi

import (
	"encoding/json"

	"github.com/roach88/labsearch/internal/store"
)

// Response is the envelope of every response body.
type Response struct {
	Status string     `json:"status"` // "ok" or "error"
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes outside the criteria errors of package translate.
const (
	ErrCodeInternal      = "E001"
	ErrCodeNotFound      = "E005"
	ErrCodeBadRequest    = "E100"
	ErrCodeMalformed     = "E101" // criteria JSON does not decode
	ErrCodeUnknownEntity = "E102"
	ErrCodeNoDatabase    = "E103"
	ErrCodeRouteNotFound = "E404"
)

// CompileResponse is the data of POST /compile/{kind}.
type CompileResponse struct {
	Entity string   `json:"entity"`
	Joins  []string `json:"joins"`
	Where  string   `json:"where"`
	Params []any    `json:"params"`
	SQL    string   `json:"sql"`
}

// SearchResponse is the data of the search endpoints.
type SearchResponse struct {
	Entity string  `json:"entity"`
	IDs    []int64 `json:"ids"`
	Count  int     `json:"count"`
}

// SaveRequest is the body of POST /searches.
type SaveRequest struct {
	Name     string          `json:"name"`
	Entity   string          `json:"entity"`
	Criteria json.RawMessage `json:"criteria"`
}

// SaveResponse is the data of POST /searches. Duplicates lists other saved
// searches with the same criteria hash.
type SaveResponse struct {
	Search     store.SavedSearch   `json:"search"`
	Duplicates []store.SavedSearch `json:"duplicates"`
}
