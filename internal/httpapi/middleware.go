package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"
)

type handlerResponse struct {
	Code int
	Body *Response
	Err  error
}

type returnHandler func(http.ResponseWriter, *http.Request) *handlerResponse

func ok(code int, data any) *handlerResponse {
	return &handlerResponse{Code: code, Body: &Response{Status: "ok", Data: data}}
}

// logMiddleware records one structured line per request. Server-side
// failures are logged at error level.
func logMiddleware(next returnHandler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := next(w, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.Code,
			"duration", time.Since(start),
		}
		if r.URL.RawQuery != "" {
			attrs = append(attrs, "query", r.URL.RawQuery)
		}
		switch {
		case resp.Code >= http.StatusInternalServerError:
			logger.Error("request failed", append(attrs, "error", resp.Err)...)
		case resp.Err != nil:
			logger.Info("request rejected", append(attrs, "error", resp.Err)...)
		default:
			logger.Debug("request served", attrs...)
		}
	})
}

// jsonMiddleware requires a JSON body on requests that carry one and
// encodes the response envelope.
func jsonMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		resp := checkContentType(r)
		if resp == nil {
			resp = next(w, r)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Code)
		if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
			return handleError(http.StatusInternalServerError, ErrCodeInternal,
				fmt.Errorf("could not encode json: %w", err))
		}
		return resp
	}
}

func checkContentType(r *http.Request) *handlerResponse {
	if r.Method == http.MethodGet || r.Method == http.MethodDelete || r.ContentLength == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return handleError(http.StatusUnsupportedMediaType, ErrCodeBadRequest,
			errors.New("could not parse Content-Type"))
	}
	if mediaType != "application/json" {
		return handleError(http.StatusUnsupportedMediaType, ErrCodeBadRequest,
			errors.New("Content-Type not application/json"))
	}
	return nil
}
