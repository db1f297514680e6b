// Package app wires the SYNOPSIS components into a single application
// facade: catalog, ASDS registry, and downlink planner behind one handle.
package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/asds"
	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/planner"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

// registration binds an ASDS to an instrument and optionally one product
// type; an empty type matches every product of the instrument.
type registration struct {
	instrument string
	dpType     string
	asds       asds.ASDS
}

// Application is the top-level SYNOPSIS handle. All collaborators are
// injected; the facade holds no global state and no memory beyond its
// registrations.
type Application struct {
	db      catalog.ASDPDB
	planner planner.Planner
	log     *zap.Logger
	asds    []registration
}

// New assembles an application from its collaborators.
func New(db catalog.ASDPDB, pl planner.Planner, log *zap.Logger) *Application {
	if log == nil {
		log = zap.NewNop()
	}
	return &Application{db: db, planner: pl, log: log}
}

// AddASDS registers a science data system for an instrument. dpType may
// be empty to receive every product type of the instrument.
func (a *Application) AddASDS(instrument, dpType string, s asds.ASDS) {
	a.asds = append(a.asds, registration{
		instrument: instrument,
		dpType:     dpType,
		asds:       s,
	})
}

// AcceptDataProduct routes an incoming product to every matching ASDS.
// Delivery continues past individual failures; the first failure is
// returned after all candidates have been offered the product.
func (a *Application) AcceptDataProduct(msg asds.DpMsg) error {
	var firstErr error
	for _, reg := range a.asds {
		if reg.instrument != msg.InstrumentName {
			continue
		}
		if reg.dpType != "" && reg.dpType != msg.Type {
			continue
		}
		if err := reg.asds.ProcessDataProduct(msg); err != nil {
			a.log.Error("ASDS processing failed",
				zap.String("instrument", reg.instrument),
				zap.String("type", msg.Type),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// UpdateScienceUtility replaces the SUE of a catalogued product.
func (a *Application) UpdateScienceUtility(id int64, sue float64) error {
	return a.db.UpdateScienceUtility(id, sue)
}

// UpdatePriorityBin moves a catalogued product to another bin.
func (a *Application) UpdatePriorityBin(id int64, bin int) error {
	return a.db.UpdatePriorityBin(id, bin)
}

// UpdateDownlinkState advances a catalogued product's downlink state.
func (a *Application) UpdateDownlinkState(id int64, state types.DownlinkState) error {
	return a.db.UpdateDownlinkState(id, state)
}

// UpdateMetadata replaces one metadata field of a catalogued product.
func (a *Application) UpdateMetadata(id int64, field string, value types.MetadataValue) error {
	return a.db.UpdateMetadata(id, field, value)
}

// ListDataProductIDs enumerates the catalog.
func (a *Application) ListDataProductIDs() ([]int64, error) {
	return a.db.ListIDs()
}

// GetDataProduct fetches one catalogued product with its metadata.
func (a *Application) GetDataProduct(id int64) (catalog.Row, error) {
	return a.db.Get(id)
}

// Prioritize produces the ordered downlink recommendation and its status.
func (a *Application) Prioritize(
	ruleConfigPath, similarityConfigPath string,
	timeBudget time.Duration,
) ([]int64, types.Status, error) {
	ids, err := a.planner.Prioritize(ruleConfigPath, similarityConfigPath, timeBudget)
	switch {
	case err == nil:
		return ids, types.StatusSuccess, nil
	case errors.Is(err, types.ErrTimeout):
		return nil, types.StatusTimeout, err
	default:
		return nil, types.StatusFailure, err
	}
}
