package db

import (
	"context"

	"atlas/internal/atlastype"
	"atlas/internal/normalize"
)

// writebackDistanceKm is the "same place" radius used when there is no
// geonames_id to match on and the fallback is name+state+proximity.
const writebackDistanceKm = 10.0

// WriteBack persists the locations a search pulled from a remote gazetteer
// back into atlas2, so a later search for the same place is answered
// locally. Only remote-sourced locations are candidates; anything already
// local (Source < MinExternalSource) is left untouched.
func (s *Store) WriteBack(ctx context.Context, locs []*atlastype.Location) error {
	for _, loc := range locs {
		if loc == nil || !loc.IsRemote() {
			continue
		}
		if err := s.writeBackOne(ctx, loc); err != nil {
			return &atlastype.DBError{Op: "WriteBack", Err: err}
		}
	}
	return nil
}

func (s *Store) writeBackOne(ctx context.Context, loc *atlastype.Location) error {
	var existingItemNo int64
	var found bool
	var err error

	if loc.GeonameID != 0 {
		var extra []int64
		existingItemNo, found, extra, err = s.findByGeonameID(ctx, loc.GeonameID)
		if err != nil {
			return err
		}
		// Dedup in DB: more than one row already shares this geonames_id;
		// keep the first, delete the rest before (potentially) updating it.
		if err := s.deleteItemNos(ctx, extra); err != nil {
			return err
		}
	} else {
		existingItemNo, found, err = s.findByNameStateProximity(ctx, loc)
		if err != nil {
			return err
		}
	}

	if !found {
		return s.insertRow(ctx, loc)
	}
	if loc.UseAsUpdate {
		return s.updateRow(ctx, existingItemNo, loc)
	}
	// Found but not the authoritative update: the existing row still wins,
	// but backfill whatever admin2/admin1 it's missing.
	return s.fillMissingAdmin(ctx, existingItemNo, loc)
}

// findByGeonameID returns the first item_no matching geonameID, plus the
// item_nos of any other rows sharing the same geonames_id (duplicates to be
// deleted once the survivor is chosen).
func (s *Store) findByGeonameID(ctx context.Context, geonameID int64) (int64, bool, []int64, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT item_no FROM atlas2 WHERE geonames_id = $1 ORDER BY item_no`, geonameID)
	if err != nil {
		return 0, false, nil, err
	}
	defer rows.Close()

	var itemNos []int64
	for rows.Next() {
		var itemNo int64
		if err := rows.Scan(&itemNo); err != nil {
			return 0, false, nil, err
		}
		itemNos = append(itemNos, itemNo)
	}
	if err := rows.Err(); err != nil {
		return 0, false, nil, err
	}
	if len(itemNos) == 0 {
		return 0, false, nil, nil
	}
	return itemNos[0], true, itemNos[1:], nil
}

func (s *Store) deleteItemNos(ctx context.Context, itemNos []int64) error {
	for _, itemNo := range itemNos {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM atlas2 WHERE item_no = $1`, itemNo); err != nil {
			return err
		}
	}
	return nil
}

// usOrCanadian reports whether a country code needs a state match alongside
// the name+proximity check.
func usOrCanadian(country string) bool {
	return country == "USA" || country == "CAN"
}

// findByNameStateProximity implements the writeback fallback match: same simplified
// key_name, same country, within writebackDistanceKm, and (for US/CAN) the
// same state.
func (s *Store) findByNameStateProximity(ctx context.Context, loc *atlastype.Location) (int64, bool, error) {
	key := normalize.Simplify(loc.City, false)

	rows, err := s.DB.QueryContext(ctx, `
		SELECT item_no, admin1, latitude, longitude FROM atlas2
		WHERE key_name = $1 AND country = $2`,
		key, loc.Country)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var itemNo int64
		var state string
		var lat, lon float64
		if err := rows.Scan(&itemNo, &state, &lat, &lon); err != nil {
			return 0, false, err
		}
		if usOrCanadian(loc.Country) && state != loc.State {
			continue
		}
		if loc.DistanceKm(&atlastype.Location{Latitude: lat, Longitude: lon}) <= writebackDistanceKm {
			return itemNo, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	return 0, false, nil
}

func (s *Store) insertRow(ctx context.Context, loc *atlastype.Location) error {
	key := normalize.Simplify(loc.City, false)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO atlas2 (
			key_name, variant, name, admin2, admin1, country,
			latitude, longitude, elevation, time_zone, postal_code,
			rank, feature_type, sound, source, geonames_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, SOUNDEX($1), $14, $15)`,
		key, loc.Variant, loc.City, loc.County, loc.State, loc.Country,
		loc.Latitude, loc.Longitude, nullableElevation(loc), loc.Zone, loc.Zip,
		loc.Rank, loc.PlaceType, loc.Source, loc.GeonameID)
	return err
}

func (s *Store) updateRow(ctx context.Context, itemNo int64, loc *atlastype.Location) error {
	key := normalize.Simplify(loc.City, false)
	_, err := s.DB.ExecContext(ctx, `
		UPDATE atlas2 SET
			key_name = $2, variant = $3, name = $4, admin2 = $5, admin1 = $6, country = $7,
			latitude = $8, longitude = $9, elevation = $10, time_zone = $11,
			postal_code = $12, rank = $13, feature_type = $14, sound = SOUNDEX($2),
			source = $15, geonames_id = $16
		WHERE item_no = $1`,
		itemNo, key, loc.Variant, loc.City, loc.County, loc.State, loc.Country,
		loc.Latitude, loc.Longitude, nullableElevation(loc), loc.Zone, loc.Zip,
		loc.Rank, loc.PlaceType, loc.Source, loc.GeonameID)
	return err
}

// fillMissingAdmin backfills admin2/admin1 on a row that was found but is
// not being fully overwritten: columns are only replaced while still
// blank, existing values never regress.
func (s *Store) fillMissingAdmin(ctx context.Context, itemNo int64, loc *atlastype.Location) error {
	if loc.County == "" && loc.State == "" {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE atlas2 SET
			admin2 = CASE WHEN admin2 = '' THEN $2 ELSE admin2 END,
			admin1 = CASE WHEN admin1 = '' THEN $3 ELSE admin1 END
		WHERE item_no = $1`,
		itemNo, loc.County, loc.State)
	return err
}

func nullableElevation(loc *atlastype.Location) any {
	if !loc.HasElevation {
		return nil
	}
	return loc.Elevation
}
