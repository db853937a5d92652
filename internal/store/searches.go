package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/labsearch/internal/canonical"
	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
)

// SavedSearch is a named criteria tree bound to an entity kind.
type SavedSearch struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Entity       schema.Kind   `json:"entity"`
	CriteriaHash string        `json:"criteria_hash"`
	Criteria     criteria.Node `json:"criteria"`
	Seq          int64         `json:"seq"`
}

// SaveSearch stores node under name. Saving over an existing name replaces
// its entity and criteria, keeps its ID and moves it to the end of the
// listing order. The tree must decode; it is not compiled.
func (s *Store) SaveSearch(ctx context.Context, name string, kind schema.Kind, node criteria.Node) (SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedSearch{}, fmt.Errorf("save search: empty name")
	}
	if kind == "" {
		return SavedSearch{}, fmt.Errorf("save search %q: empty entity kind", name)
	}
	if _, err := criteria.Decode(node); err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}

	body, err := canonical.MarshalStruct(node)
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}
	hash, err := canonical.CriteriaHash(kind, node)
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}
	id, err := s.ids.NewID()
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_searches`).Scan(&seq); err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: next seq: %w", name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_searches (id, name, entity_kind, criteria_hash, criteria, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			entity_kind = excluded.entity_kind,
			criteria_hash = excluded.criteria_hash,
			criteria = excluded.criteria,
			seq = excluded.seq
	`, id, name, string(kind), hash, string(body), seq)
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}

	saved, err := scanSearch(tx.QueryRowContext(ctx, selectSearch+` WHERE name = ?`, name))
	if err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return SavedSearch{}, fmt.Errorf("save search %q: commit: %w", name, err)
	}
	return saved, nil
}

const selectSearch = `SELECT id, name, entity_kind, criteria_hash, criteria, seq FROM saved_searches`

// GetSearch retrieves a saved search by name.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetSearch(ctx context.Context, name string) (SavedSearch, error) {
	saved, err := scanSearch(s.db.QueryRowContext(ctx, selectSearch+` WHERE name = ?`, name))
	if err != nil {
		return SavedSearch{}, fmt.Errorf("get search %q: %w", name, err)
	}
	return saved, nil
}

// ListSearches returns all saved searches ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) when nothing is saved.
func (s *Store) ListSearches(ctx context.Context) ([]SavedSearch, error) {
	return s.querySearches(ctx, selectSearch+` ORDER BY seq ASC, id COLLATE BINARY ASC`)
}

// SearchesByHash returns the saved searches whose criteria hash equals
// hash, in listing order.
func (s *Store) SearchesByHash(ctx context.Context, hash string) ([]SavedSearch, error) {
	return s.querySearches(ctx, selectSearch+` WHERE criteria_hash = ? ORDER BY seq ASC, id COLLATE BINARY ASC`, hash)
}

// DeleteSearch removes a saved search by name.
// Returns an error wrapping sql.ErrNoRows if nothing was deleted.
func (s *Store) DeleteSearch(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete search %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete search %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete search %q: %w", name, sql.ErrNoRows)
	}
	return nil
}

// IsNotFound reports whether err means the named search does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (s *Store) querySearches(ctx context.Context, query string, args ...any) ([]SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()

	searches := []SavedSearch{}
	for rows.Next() {
		saved, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved searches: %w", err)
	}
	return searches, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (SavedSearch, error) {
	var (
		saved SavedSearch
		kind  string
		body  string
	)
	if err := row.Scan(&saved.ID, &saved.Name, &kind, &saved.CriteriaHash, &body, &saved.Seq); err != nil {
		return SavedSearch{}, err
	}
	node, err := criteria.ParseJSON([]byte(body))
	if err != nil {
		return SavedSearch{}, fmt.Errorf("saved search %q: %w", saved.Name, err)
	}
	saved.Entity = schema.Kind(kind)
	saved.Criteria = node
	return saved, nil
}
