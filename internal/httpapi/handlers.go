package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/search"
	"github.com/roach88/labsearch/internal/sqlfrag"
	"github.com/roach88/labsearch/internal/store"
)

const maxBody = 1 << 20

func (s *server) compile(w http.ResponseWriter, r *http.Request) *handlerResponse {
	kind, resp := s.kind(r)
	if resp != nil {
		return resp
	}
	crit, resp := readCriteria(r)
	if resp != nil {
		return resp
	}

	result, err := s.compiler.Compile(kind, crit)
	if resp := checkError(err); resp != nil {
		return resp
	}

	joins := make([]string, len(result.Joins))
	for i, j := range result.Joins {
		joins[i] = sqlfrag.RenderJoin(j)
	}
	params := result.Params
	if params == nil {
		params = []any{}
	}
	return ok(http.StatusOK, CompileResponse{
		Entity: string(kind),
		Joins:  joins,
		Where:  result.Where,
		Params: params,
		SQL:    search.BuildSelect(result, 0).SQL,
	})
}

func (s *server) search(w http.ResponseWriter, r *http.Request) *handlerResponse {
	kind, resp := s.kind(r)
	if resp != nil {
		return resp
	}
	limit, resp := s.readLimit(r)
	if resp != nil {
		return resp
	}
	crit, resp := readCriteria(r)
	if resp != nil {
		return resp
	}
	return s.execute(r, kind, crit, limit)
}

func (s *server) execute(r *http.Request, kind schema.Kind, crit criteria.Criterion, limit int) *handlerResponse {
	if s.searcher == nil {
		return checkError(errNoDatabase)
	}
	ids, err := s.searcher.SearchIDs(r.Context(), kind, crit, limit)
	if resp := checkError(err); resp != nil {
		return resp
	}
	if ids == nil {
		ids = []int64{}
	}
	return ok(http.StatusOK, SearchResponse{Entity: string(kind), IDs: ids, Count: len(ids)})
}

func (s *server) listSearches(w http.ResponseWriter, r *http.Request) *handlerResponse {
	searches, err := s.store.ListSearches(r.Context())
	if resp := checkError(err); resp != nil {
		return resp
	}
	return ok(http.StatusOK, searches)
}

func (s *server) saveSearch(w http.ResponseWriter, r *http.Request) *handlerResponse {
	var req SaveRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return handleError(http.StatusBadRequest, ErrCodeMalformed, fmt.Errorf("could not decode request: %w", err))
	}
	if req.Name == "" {
		return handleError(http.StatusBadRequest, ErrCodeBadRequest, errors.New("name is required"))
	}
	kind, resp := s.lookupKind(req.Entity)
	if resp != nil {
		return resp
	}
	if len(bytes.TrimSpace(req.Criteria)) == 0 {
		return handleError(http.StatusBadRequest, ErrCodeMalformed, errors.New("criteria is required"))
	}
	node, err := criteria.ParseJSON(req.Criteria)
	if err != nil {
		return handleError(http.StatusBadRequest, ErrCodeMalformed, err)
	}
	crit, err := criteria.Decode(node)
	if resp := checkError(err); resp != nil {
		return resp
	}
	// Only searches that compile are saved.
	if _, err := s.compiler.Compile(kind, crit); err != nil {
		return checkError(err)
	}

	saved, err := s.store.SaveSearch(r.Context(), req.Name, kind, node)
	if resp := checkError(err); resp != nil {
		return resp
	}
	same, err := s.store.SearchesByHash(r.Context(), saved.CriteriaHash)
	if resp := checkError(err); resp != nil {
		return resp
	}
	dups := make([]store.SavedSearch, 0, len(same))
	for _, o := range same {
		if o.Name != saved.Name {
			dups = append(dups, o)
		}
	}
	return ok(http.StatusCreated, SaveResponse{Search: saved, Duplicates: dups})
}

func (s *server) getSearch(w http.ResponseWriter, r *http.Request) *handlerResponse {
	saved, err := s.store.GetSearch(r.Context(), mux.Vars(r)["name"])
	if resp := checkError(err); resp != nil {
		return resp
	}
	return ok(http.StatusOK, saved)
}

func (s *server) deleteSearch(w http.ResponseWriter, r *http.Request) *handlerResponse {
	name := mux.Vars(r)["name"]
	if resp := checkError(s.store.DeleteSearch(r.Context(), name)); resp != nil {
		return resp
	}
	return ok(http.StatusOK, map[string]string{"deleted": name})
}

func (s *server) runSearch(w http.ResponseWriter, r *http.Request) *handlerResponse {
	limit, resp := s.readLimit(r)
	if resp != nil {
		return resp
	}
	saved, err := s.store.GetSearch(r.Context(), mux.Vars(r)["name"])
	if resp := checkError(err); resp != nil {
		return resp
	}
	crit, err := criteria.Decode(saved.Criteria)
	if resp := checkError(err); resp != nil {
		return resp
	}
	return s.execute(r, saved.Entity, crit, limit)
}

func (s *server) kind(r *http.Request) (schema.Kind, *handlerResponse) {
	return s.lookupKind(mux.Vars(r)["kind"])
}

func (s *server) lookupKind(raw string) (schema.Kind, *handlerResponse) {
	kind, err := schema.ParseKind(raw)
	if err != nil {
		return "", handleError(http.StatusBadRequest, ErrCodeUnknownEntity, err)
	}
	if _, err := s.compiler.Schemas().Lookup(kind); err != nil {
		return "", handleError(http.StatusBadRequest, ErrCodeUnknownEntity, err)
	}
	return kind, nil
}

func (s *server) readLimit(r *http.Request) (int, *handlerResponse) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.limit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, handleError(http.StatusBadRequest, ErrCodeBadRequest, fmt.Errorf("invalid limit %q", raw))
	}
	return limit, nil
}

// readCriteria decodes the request body. An empty body is the nil
// criterion, which matches every entity.
func readCriteria(r *http.Request) (criteria.Criterion, *handlerResponse) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, handleError(http.StatusBadRequest, ErrCodeMalformed, fmt.Errorf("could not read body: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	node, err := criteria.ParseJSON(body)
	if err != nil {
		return nil, handleError(http.StatusBadRequest, ErrCodeMalformed, err)
	}
	crit, err := criteria.Decode(node)
	if err != nil {
		return nil, checkError(err)
	}
	return crit, nil
}
