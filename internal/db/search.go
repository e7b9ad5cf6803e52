package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
	"atlas/internal/merge"
	"atlas/internal/normalize"
)

type ladderStage int

const (
	stageExactMatch ladderStage = iota
	stageExactMatchAlt
	stageStartsWith
	stageSoundsLike
)

// rankAdjust implements the per-stage rank delta of the match ladder.
func (s ladderStage) rankAdjust() int {
	switch s {
	case stageExactMatch:
		return 1
	case stageSoundsLike:
		return -1
	default:
		return 0
	}
}

// Search implements the local DB match ladder: two outer passes
// (rank-restricted, then unrestricted), each running the four-stage
// ladder, retried once on a DB error.
func (s *Store) Search(ctx context.Context, parsed atlastype.ParsedSearchString, extended bool, maxMatches int, g *gazetteer.Gazetteer) (atlastype.LocationMap, error) {
	locs, err := s.search(ctx, parsed, extended, maxMatches, g)
	if err != nil {
		// Spec "Failure": any DB error is retried once.
		locs, err = s.search(ctx, parsed, extended, maxMatches, g)
		if err != nil {
			return locs, &atlastype.DBError{Op: "Search", Err: err}
		}
	}
	return locs, nil
}

func (s *Store) search(ctx context.Context, parsed atlastype.ParsedSearchString, extended bool, maxMatches int, g *gazetteer.Gazetteer) (atlastype.LocationMap, error) {
	results := atlastype.LocationMap{}
	examined := map[int64]bool{}
	maxAccumulate := 4 * maxMatches
	if maxAccumulate <= 0 {
		maxAccumulate = 4
	}

	isPostal := parsed.PostalCode != ""

	for pass := 0; pass <= 1; pass++ {
		rankRestricted := pass == 0
		passMatchCount := 0

		for _, stage := range []ladderStage{stageExactMatch, stageExactMatchAlt, stageStartsWith, stageSoundsLike} {
			if stage == stageSoundsLike && hasDigit(parsed.TargetCity) && !isPostal {
				continue
			}

			rows, err := s.runStage(ctx, stage, parsed, rankRestricted)
			if err != nil {
				return results, err
			}

			for _, row := range rows {
				if examined[row.itemNo] {
					continue
				}
				examined[row.itemNo] = true

				if row.source >= atlastype.MinExternalSource && rankRestricted && !extended {
					continue
				}
				if !merge.CloseMatchForState(parsed.TargetState, row.state, row.country, g) {
					continue
				}

				loc := rowToLocation(row, stage, isPostal)
				results[strconv.FormatInt(row.itemNo, 10)] = loc
				passMatchCount++

				if len(results) >= maxAccumulate {
					return results, nil
				}
			}

			// The ladder only short-circuits once STARTS_WITH has run, not right
			// after EXACT_MATCH/EXACT_MATCH_ALT: those two stages are cheap
			// enough, and similar enough in intent, that it's worth always
			// giving STARTS_WITH a chance to add its broader hits to the same
			// pass before SOUNDS_LIKE is skipped.
			if stage == stageStartsWith && passMatchCount > 0 {
				break
			}
			if isPostal && passMatchCount > 0 {
				break
			}
		}

		if rankRestricted && passMatchCount > 0 {
			break
		}
		if isPostal && passMatchCount > 0 {
			break
		}
	}

	return results, nil
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

type dbRow struct {
	itemNo                 int64
	keyName, variant, name string
	county, state, country string
	lat, lon                float64
	elevation              sql.NullFloat64
	timeZone               string
	postal                 string
	rank                   int
	featureType            string
	source                 int
	geonamesID             int64

	fromAltName    bool
	altNameCity    string
	matchedBySound bool
}

func rowToLocation(row dbRow, stage ladderStage, isPostal bool) *atlastype.Location {
	city := row.name
	if row.fromAltName && row.altNameCity != "" {
		city = row.altNameCity
	}

	rank := row.rank + stage.rankAdjust()
	if isPostal {
		rank = atlastype.ZipRank
	} else {
		rank = atlastype.ClampRank(rank)
	}

	return &atlastype.Location{
		ItemNo:                  row.itemNo,
		City:                    city,
		Variant:                 row.variant,
		County:                  row.county,
		State:                   row.state,
		Country:                 row.country,
		Latitude:                row.lat,
		Longitude:               row.lon,
		Elevation:               row.elevation.Float64,
		HasElevation:            row.elevation.Valid,
		Zone:                    row.timeZone,
		Zip:                     row.postal,
		Rank:                    rank,
		PlaceType:               row.featureType,
		Source:                  row.source,
		GeonameID:               row.geonamesID,
		MatchedByAlternateName: row.fromAltName,
		MatchedBySound:          stage == stageSoundsLike,
	}
}

func (s *Store) runStage(ctx context.Context, stage ladderStage, parsed atlastype.ParsedSearchString, rankRestricted bool) ([]dbRow, error) {
	rankClause := ""
	if rankRestricted {
		rankClause = " AND rank > 0"
	}

	switch stage {
	case stageExactMatch:
		if parsed.PostalCode != "" {
			return s.queryRows(ctx, `
				SELECT item_no, key_name, variant, name, admin2, admin1, country,
					latitude, longitude, elevation, time_zone, postal_code,
					rank, feature_type, source, geonames_id
				FROM atlas2 WHERE postal_code = $1`+rankClause,
				parsed.PostalCode)
		}
		return s.queryRows(ctx, `
			SELECT item_no, key_name, variant, name, admin2, admin1, country,
				latitude, longitude, elevation, time_zone, postal_code,
				rank, feature_type, source, geonames_id
			FROM atlas2 WHERE key_name = $1`+rankClause,
			normalize.Simplify(parsed.TargetCity, false))

	case stageExactMatchAlt:
		return s.queryAltNameRows(ctx, parsed, rankClause)

	case stageStartsWith:
		key := normalize.Simplify(parsed.TargetCity, false)
		upper := key + "~"
		return s.queryRows(ctx, `
			SELECT item_no, key_name, variant, name, admin2, admin1, country,
				latitude, longitude, elevation, time_zone, postal_code,
				rank, feature_type, source, geonames_id
			FROM atlas2 WHERE (key_name >= $1 AND key_name < $2)
				OR (variant >= $1 AND variant < $2)`+rankClause,
			key, upper)

	case stageSoundsLike:
		key := normalize.Simplify(parsed.TargetCity, false)
		return s.queryRows(ctx, `
			SELECT item_no, key_name, variant, name, admin2, admin1, country,
				latitude, longitude, elevation, time_zone, postal_code,
				rank, feature_type, source, geonames_id
			FROM atlas2 WHERE sound = SOUNDEX($1)`+rankClause,
			key)
	}
	return nil, fmt.Errorf("db: unknown ladder stage %d", stage)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]dbRow, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dbRow
	for rows.Next() {
		var r dbRow
		if err := rows.Scan(&r.itemNo, &r.keyName, &r.variant, &r.name, &r.county, &r.state,
			&r.country, &r.lat, &r.lon, &r.elevation, &r.timeZone, &r.postal, &r.rank,
			&r.featureType, &r.source, &r.geonamesID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// queryAltNameRows implements the EXACT_MATCH_ALT stage: lookup in
// atlas_alt_names, following either specific_item2 or key_name.
func (s *Store) queryAltNameRows(ctx context.Context, parsed atlastype.ParsedSearchString, rankClause string) ([]dbRow, error) {
	key := normalize.Simplify(parsed.TargetCity, false)

	rows, err := s.DB.QueryContext(ctx, `
		SELECT a.item_no, a.key_name, a.variant, a.name, a.admin2, a.admin1, a.country,
			a.latitude, a.longitude, a.elevation, a.time_zone, a.postal_code,
			a.rank, a.feature_type, a.source, a.geonames_id,
			alt.alt_name, alt.misspelling
		FROM atlas_alt_names alt
		JOIN atlas2 a ON (
			(alt.specific_item2 IS NOT NULL AND a.item_no = alt.specific_item2)
			OR (alt.specific_item2 IS NULL AND a.key_name = alt.atlas_key_name)
		)
		WHERE alt.alt_key_name = $1`+strings.Replace(rankClause, "rank", "a.rank", 1),
		key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dbRow
	for rows.Next() {
		var r dbRow
		var altName, misspelling string
		if err := rows.Scan(&r.itemNo, &r.keyName, &r.variant, &r.name, &r.county, &r.state,
			&r.country, &r.lat, &r.lon, &r.elevation, &r.timeZone, &r.postal, &r.rank,
			&r.featureType, &r.source, &r.geonamesID, &altName, &misspelling); err != nil {
			return nil, err
		}
		r.fromAltName = true
		if misspelling == "N" {
			r.altNameCity = altName
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
