package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * ASDP catalog store.
 *
 * Row is the persisted form of one autonomous science data product: the
 * promoted first-class columns plus the free-form metadata bag, stored in
 * a companion table with one row per (asdp_id, fieldname). Metadata values
 * keep the tagged-union layout on disk: a type column plus one column per
 * variant.
 *
 * ASDPDB is the seven-operation interface the planner and application
 * depend on. Store implements it over sqlx; inserts are transactional
 * across the product row and its metadata rows, updates are atomic per
 * call and fail with ErrNoRowsUpdated when they match nothing.
 */

// Row is the persisted form of an ASDP.
type Row struct {
	ID                     int64   `db:"asdp_id"`
	InstrumentName         string  `db:"instrument_name"`
	Type                   string  `db:"type"`
	URI                    string  `db:"uri"`
	Size                   int64   `db:"size"`
	ScienceUtilityEstimate float64 `db:"science_utility_estimate"`
	PriorityBin            int     `db:"priority_bin"`
	DownlinkState          types.DownlinkState
	Metadata               types.AsdpEntry
}

// metadataRow is the wire shape of one metadata table row.
type metadataRow struct {
	Fieldname   string  `db:"fieldname"`
	Type        int     `db:"type"`
	ValueInt    int64   `db:"value_int"`
	ValueFloat  float64 `db:"value_float"`
	ValueString string  `db:"value_string"`
}

// asdpRow is the wire shape of one product table row.
type asdpRow struct {
	ID                     int64   `db:"asdp_id"`
	InstrumentName         string  `db:"instrument_name"`
	Type                   string  `db:"type"`
	URI                    string  `db:"uri"`
	Size                   int64   `db:"size"`
	ScienceUtilityEstimate float64 `db:"science_utility_estimate"`
	PriorityBin            int     `db:"priority_bin"`
	DownlinkState          int     `db:"downlink_state"`
}

// ASDPDB is the narrow catalog interface consumed by the planner.
type ASDPDB interface {
	ListIDs() ([]int64, error)
	Get(id int64) (Row, error)
	Insert(row *Row) error
	UpdateScienceUtility(id int64, sue float64) error
	UpdatePriorityBin(id int64, bin int) error
	UpdateDownlinkState(id int64, state types.DownlinkState) error
	UpdateMetadata(id int64, field string, value types.MetadataValue) error
}

// Store is the SQL-backed ASDPDB implementation.
type Store struct {
	db      *sqlx.DB
	queries *Queries
	log     *zap.Logger
}

// NewStore wraps an open database handle. The schema must already be
// migrated (see MigrateUp).
func NewStore(db *sqlx.DB, log *zap.Logger) (*Store, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, queries: queries, log: log}, nil
}

// ListIDs enumerates all catalog ids in ascending order. The scan order of
// a prioritization run is the order returned here.
func (s *Store) ListIDs() ([]int64, error) {
	var ids []int64
	if err := s.queries.Select("asdp-list-ids", &ids); err != nil {
		return nil, fmt.Errorf("listing data product ids: %w", err)
	}
	return ids, nil
}

// Get fetches one ASDP row with its metadata bag.
func (s *Store) Get(id int64) (Row, error) {
	var raw asdpRow
	if err := s.queries.Get("asdp-get", &raw, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, fmt.Errorf("data product %d: %w", id, types.ErrNotFound)
		}
		return Row{}, fmt.Errorf("fetching data product %d: %w", id, err)
	}

	state, err := types.ParseDownlinkState(raw.DownlinkState)
	if err != nil {
		return Row{}, fmt.Errorf("data product %d: %w", id, err)
	}

	var metaRows []metadataRow
	if err := s.queries.Select("metadata-get", &metaRows, id); err != nil {
		return Row{}, fmt.Errorf("fetching metadata for data product %d: %w", id, err)
	}

	metadata := make(types.AsdpEntry, len(metaRows))
	for _, m := range metaRows {
		metadata[m.Fieldname] = types.MetadataValue{
			Type:   types.MetadataType(m.Type),
			Int:    m.ValueInt,
			Float:  m.ValueFloat,
			String: m.ValueString,
		}
	}

	return Row{
		ID:                     raw.ID,
		InstrumentName:         raw.InstrumentName,
		Type:                   raw.Type,
		URI:                    raw.URI,
		Size:                   raw.Size,
		ScienceUtilityEstimate: raw.ScienceUtilityEstimate,
		PriorityBin:            raw.PriorityBin,
		DownlinkState:          state,
		Metadata:               metadata,
	}, nil
}

// Insert stores a new ASDP and its metadata in one transaction, assigning
// the row's ID.
func (s *Store) Insert(row *Row) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	id, err := s.insertProduct(tx, row)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting data product: %w", err)
	}

	for field, value := range row.Metadata {
		_, err := s.queries.ExecTx(tx, "metadata-insert",
			id, field, int(value.Type), value.Int, value.Float, value.String)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting metadata field %q: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}

	row.ID = id
	return nil
}

// insertProduct inserts the product row and returns its assigned id.
// lib/pq does not implement LastInsertId, so postgres takes the RETURNING
// path.
func (s *Store) insertProduct(tx *sqlx.Tx, row *Row) (int64, error) {
	args := []interface{}{
		row.InstrumentName, row.Type, row.URI, row.Size,
		row.ScienceUtilityEstimate, row.PriorityBin, int(row.DownlinkState),
	}

	if s.db.DriverName() == "postgres" {
		query, err := s.queries.dot.Raw("asdp-insert-returning")
		if err != nil {
			return 0, err
		}
		var id int64
		if err := tx.Get(&id, tx.Rebind(query), args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := s.queries.ExecTx(tx, "asdp-insert", args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateScienceUtility replaces the SUE of an existing product.
func (s *Store) UpdateScienceUtility(id int64, sue float64) error {
	return s.update("update-science-utility", sue, id)
}

// UpdatePriorityBin moves an existing product to another bin.
func (s *Store) UpdatePriorityBin(id int64, bin int) error {
	return s.update("update-priority-bin", bin, id)
}

// UpdateDownlinkState advances an existing product's downlink state.
func (s *Store) UpdateDownlinkState(id int64, state types.DownlinkState) error {
	return s.update("update-downlink-state", int(state), id)
}

// UpdateMetadata replaces one existing metadata field value.
func (s *Store) UpdateMetadata(id int64, field string, value types.MetadataValue) error {
	return s.update("update-metadata",
		int(value.Type), value.Int, value.Float, value.String, id, field)
}

// update runs a named update statement and fails when no rows matched.
func (s *Store) update(query string, args ...interface{}) error {
	res, err := s.queries.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", query, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", query, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", query, types.ErrNoRowsUpdated)
	}
	return nil
}
