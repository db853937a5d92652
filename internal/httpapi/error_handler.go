package httpapi

import (
	"errors"
	"net/http"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/store"
	"github.com/roach88/labsearch/internal/translate"
)

// errNoDatabase is returned by the search routes when the server runs
// without a database.
var errNoDatabase = errors.New("no database configured")

func handleError(code int, errCode string, err error) *handlerResponse {
	msg := http.StatusText(code)
	if code != http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	return &handlerResponse{
		Code: code,
		Body: &Response{Status: "error", Error: &ErrorBody{Code: errCode, Message: msg}},
		Err:  err,
	}
}

// checkError maps an operation error to a response. Internal failures hide
// their message from the client; the log middleware records it.
func checkError(err error) *handlerResponse {
	if err == nil {
		return nil
	}
	var decodeErr *criteria.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return handleError(http.StatusBadRequest, ErrCodeMalformed, err)
	case translate.ErrorCode(err) != "":
		return handleError(http.StatusBadRequest, translate.ErrorCode(err), err)
	case store.IsNotFound(err):
		return handleError(http.StatusNotFound, ErrCodeNotFound, err)
	case errors.Is(err, errNoDatabase):
		return handleError(http.StatusServiceUnavailable, ErrCodeNoDatabase, err)
	default:
		return handleError(http.StatusInternalServerError, ErrCodeInternal, err)
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return handleError(http.StatusNotFound, ErrCodeRouteNotFound, errors.New("no such route"))
}
