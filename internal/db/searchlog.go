package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SearchLogEntry mirrors one atlas_searches2 row: the cache-coherence record
// consulted before deciding whether a remote dispatch can be skipped.
type SearchLogEntry struct {
	SearchString string
	Extended     bool
	Hits         int
	Matches      int
	TimeStamp    time.Time
}

// RecentWindow is how long a prior search stays "fresh" enough to skip a
// repeat remote dispatch (12 months).
const RecentWindow = 365 * 24 * time.Hour

// HasSearchBeenDoneRecently implements the cache-coherence check: a search
// string already logged within RecentWindow, at least as extended as the
// current request, means the remote adapters can be skipped.
func (s *Store) HasSearchBeenDoneRecently(ctx context.Context, normalizedSearch string, extended bool) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT extended, time_stamp FROM atlas_searches2 WHERE search_string = $1`,
		normalizedSearch)

	var loggedExtended bool
	var ts time.Time
	if err := row.Scan(&loggedExtended, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if extended && !loggedExtended {
		// A loose search was logged, but the caller now wants extended
		// coverage; the cache entry does not satisfy this request.
		return false, nil
	}
	if time.Since(ts) > RecentWindow {
		return false, nil
	}
	return true, nil
}

// LogSearchResults upserts the atlas_searches2 row for normalizedSearch:
// hits is added to the row's running hit count, extended is OR-ed into the
// stored flag, and matches replaces the stored match count.
func (s *Store) LogSearchResults(ctx context.Context, normalizedSearch string, extended bool, hits, matches int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO atlas_searches2 (search_string, extended, hits, matches, time_stamp)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (search_string) DO UPDATE SET
			extended = EXCLUDED.extended OR atlas_searches2.extended,
			hits = atlas_searches2.hits + EXCLUDED.hits,
			matches = EXCLUDED.matches,
			time_stamp = EXCLUDED.time_stamp`,
		normalizedSearch, extended, hits, matches)
	return err
}
