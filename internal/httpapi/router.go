package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/store"
	"github.com/roach88/labsearch/internal/translate"
)

// Searcher runs criteria against a database.
type Searcher interface {
	SearchIDs(ctx context.Context, kind schema.Kind, crit criteria.Criterion, limit int) ([]int64, error)
}

// SearchStore persists named searches.
type SearchStore interface {
	SaveSearch(ctx context.Context, name string, kind schema.Kind, node criteria.Node) (store.SavedSearch, error)
	GetSearch(ctx context.Context, name string) (store.SavedSearch, error)
	ListSearches(ctx context.Context) ([]store.SavedSearch, error)
	SearchesByHash(ctx context.Context, hash string) ([]store.SavedSearch, error)
	DeleteSearch(ctx context.Context, name string) error
}

// Options wires the router. Compiler and Store are required. A nil
// Searcher makes the search routes answer 503.
type Options struct {
	Compiler *translate.Compiler
	Searcher Searcher
	Store    SearchStore

	// DefaultLimit applies when a search request has no ?limit.
	DefaultLimit int

	Logger *slog.Logger

	// AccessLog receives Apache combined log lines when set.
	AccessLog io.Writer
}

type server struct {
	compiler *translate.Compiler
	searcher Searcher
	store    SearchStore
	limit    int
	logger   *slog.Logger
}

// NewRouter returns the API handler.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &server{
		compiler: opts.Compiler,
		searcher: opts.Searcher,
		store:    opts.Store,
		limit:    opts.DefaultLimit,
		logger:   logger,
	}

	r := mux.NewRouter()
	m := func(h returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(h), logger)
	}

	r.Path("/compile/{kind}").Methods("POST").Handler(m(s.compile))
	r.Path("/search/{kind}").Methods("POST").Handler(m(s.search))

	r.Path("/searches").Methods("GET").Handler(m(s.listSearches))
	r.Path("/searches").Methods("POST").Handler(m(s.saveSearch))
	r.Path("/searches/{name}").Methods("GET").Handler(m(s.getSearch))
	r.Path("/searches/{name}").Methods("DELETE").Handler(m(s.deleteSearch))
	r.Path("/searches/{name}/run").Methods("POST").Handler(m(s.runSearch))

	r.NotFoundHandler = m(notFoundHandler)

	var h http.Handler = handlers.CompressHandler(r)
	if opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(opts.AccessLog, h)
	}
	return handlers.RecoveryHandler(handlers.RecoveryLogger(slogRecovery{logger}))(h)
}

type slogRecovery struct{ logger *slog.Logger }

func (l slogRecovery) Println(v ...any) {
	l.logger.Error("panic serving request", "panic", v)
}
