// Package asds implements autonomous science data system ingestion: the
// stage that places incoming data products into the ASDP catalog.
//
// The only processing implemented here is the passthrough ASDS, which
// submits products unchanged. Per-instrument analysis pipelines plug in
// behind the same ASDS interface.
package asds

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

// DpMsg announces one incoming data product to an ASDS.
// MetadataURI optionally points at a JSON sidecar carrying the science
// utility estimate, priority bin, and free-form metadata; an empty value
// means no metadata was provided.
type DpMsg struct {
	InstrumentName string
	Type           string
	URI            string
	MetadataURI    string
}

// ASDS processes incoming data products for one instrument.
type ASDS interface {
	ProcessDataProduct(msg DpMsg) error
}

// Passthrough submits data products to the catalog without analysis.
type Passthrough struct {
	db  catalog.ASDPDB
	log *zap.Logger
}

// NewPassthrough wires a passthrough ASDS to the catalog.
func NewPassthrough(db catalog.ASDPDB, log *zap.Logger) *Passthrough {
	if log == nil {
		log = zap.NewNop()
	}
	return &Passthrough{db: db, log: log}
}

// ProcessDataProduct implements ASDS.
func (p *Passthrough) ProcessDataProduct(msg DpMsg) error {
	return p.submit(msg)
}

// sidecar is the wire shape of the metadata sidecar file.
type sidecar struct {
	ScienceUtilityEstimate *float64                   `json:"science_utility_estimate"`
	PriorityBin            *int                       `json:"priority_bin"`
	Metadata               map[string]json.RawMessage `json:"metadata"`
}

// submit stats the product, parses its metadata sidecar when present, and
// inserts an UNTRANSMITTED catalog row.
func (p *Passthrough) submit(msg DpMsg) error {
	if p.db == nil {
		return fmt.Errorf("submitting data product: %w", types.ErrNotInitialized)
	}

	info, err := os.Stat(msg.URI)
	if err != nil {
		return fmt.Errorf("sizing data product %q: %w", msg.URI, err)
	}

	sue := 0.0
	bin := 0
	metadata := types.AsdpEntry{}

	if msg.MetadataURI == "" {
		p.log.Warn("no metadata provided for data product",
			zap.String("uri", msg.URI))
	} else {
		sue, bin, metadata, err = p.parseSidecar(msg.MetadataURI)
		if err != nil {
			return err
		}
	}

	row := catalog.Row{
		InstrumentName:         msg.InstrumentName,
		Type:                   msg.Type,
		URI:                    msg.URI,
		Size:                   info.Size(),
		ScienceUtilityEstimate: sue,
		PriorityBin:            bin,
		DownlinkState:          types.Untransmitted,
		Metadata:               metadata,
	}
	if err := p.db.Insert(&row); err != nil {
		return fmt.Errorf("submitting data product %q: %w", msg.URI, err)
	}

	p.log.Info("data product submitted",
		zap.Int64("asdp_id", row.ID),
		zap.String("instrument", msg.InstrumentName),
		zap.String("type", msg.Type),
		zap.Int64("size", row.Size))
	return nil
}

// parseSidecar reads the metadata JSON next to a data product.
// The SUE and priority bin are required and typed; metadata bag values of
// unsupported types are skipped with a warning.
func (p *Passthrough) parseSidecar(path string) (float64, int, types.AsdpEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("reading metadata sidecar: %w", err)
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return 0, 0, nil, fmt.Errorf("parsing metadata sidecar %q: %w", path, err)
	}
	if sc.ScienceUtilityEstimate == nil {
		return 0, 0, nil, fmt.Errorf("metadata sidecar %q: missing numeric science_utility_estimate", path)
	}
	if sc.PriorityBin == nil {
		return 0, 0, nil, fmt.Errorf("metadata sidecar %q: missing integer priority_bin", path)
	}

	metadata := make(types.AsdpEntry, len(sc.Metadata))
	for key, raw := range sc.Metadata {
		value, ok := decodeMetadataValue(raw)
		if !ok {
			p.log.Warn("unsupported metadata value type skipped",
				zap.String("field", key))
			continue
		}
		metadata[key] = value
	}

	return *sc.ScienceUtilityEstimate, *sc.PriorityBin, metadata, nil
}

// decodeMetadataValue maps a JSON scalar onto the metadata tagged union.
// Numbers that parse as a 64-bit integer literal become integers (3.0 and
// 1e2 do not), other numbers floats, strings strings.
func decodeMetadataValue(raw json.RawMessage) (types.MetadataValue, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return types.StringValue(s), true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return types.IntValue(i), true
		}
		if f, err := n.Float64(); err == nil {
			return types.FloatValue(f), true
		}
	}

	return types.MetadataValue{}, false
}
