package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/store"
	"github.com/roach88/labsearch/internal/translate"
)

// Error codes. Criteria translation errors reuse the E2xx codes of
// package translate.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Configuration or schema overlay error
	ErrCodeNotFound   = "E005" // File or saved search not found
	ErrCodeNoDatabase = "E008" // Command needs a database URL
	ErrCodeServe      = "E009" // HTTP server failure

	ErrCodeMalformed     = "E101" // Criteria file does not decode
	ErrCodeUnknownEntity = "E102" // Entity kind not registered
	ErrCodeInvalid       = "E103" // Criteria tree fails validation
)

// classify maps an error to its code and exit status.
func classify(err error) (string, int) {
	var decodeErr *criteria.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return ErrCodeMalformed, ExitFailure
	case translate.ErrorCode(err) != "":
		return translate.ErrorCode(err), ExitFailure
	case store.IsNotFound(err), errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// fail reports err through the formatter and returns the matching ExitError.
func fail(f *OutputFormatter, err error) error {
	code, exit := classify(err)
	return failWith(f, code, exit, err.Error(), nil)
}

func failWith(f *OutputFormatter, code string, exit int, message string, details any) error {
	_ = f.Error(code, message, details)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), nil)
}
