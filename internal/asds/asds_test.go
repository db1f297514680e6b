package asds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

// recordingDB captures inserted rows.
type recordingDB struct {
	inserted []catalog.Row
	nextID   int64
}

func (r *recordingDB) ListIDs() ([]int64, error) { return nil, nil }
func (r *recordingDB) Get(id int64) (catalog.Row, error) {
	return catalog.Row{}, types.ErrNotFound
}
func (r *recordingDB) Insert(row *catalog.Row) error {
	r.nextID++
	row.ID = r.nextID
	r.inserted = append(r.inserted, *row)
	return nil
}
func (r *recordingDB) UpdateScienceUtility(id int64, sue float64) error { return nil }
func (r *recordingDB) UpdatePriorityBin(id int64, bin int) error        { return nil }
func (r *recordingDB) UpdateDownlinkState(id int64, state types.DownlinkState) error {
	return nil
}
func (r *recordingDB) UpdateMetadata(id int64, field string, value types.MetadataValue) error {
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestProcessDataProductWithSidecar(t *testing.T) {
	dir := t.TempDir()
	product := writeFile(t, dir, "p1.dat", "eight by") // 8 bytes
	sidecar := writeFile(t, dir, "p1.json", `{
	  "science_utility_estimate": 0.75,
	  "priority_bin": 3,
	  "metadata": {
	    "depth": 101.5,
	    "attempts": 3,
	    "station": "alpha",
	    "flags": [1, 2]
	  }
	}`)

	db := &recordingDB{}
	p := NewPassthrough(db, nil)

	err := p.ProcessDataProduct(DpMsg{
		InstrumentName: "acme",
		Type:           "cntx",
		URI:            product,
		MetadataURI:    sidecar,
	})
	if err != nil {
		t.Fatalf("ProcessDataProduct() error = %v, want nil", err)
	}

	if len(db.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(db.inserted))
	}
	row := db.inserted[0]

	if row.Size != 8 {
		t.Errorf("Size = %d, want 8", row.Size)
	}
	if row.ScienceUtilityEstimate != 0.75 {
		t.Errorf("ScienceUtilityEstimate = %v, want 0.75", row.ScienceUtilityEstimate)
	}
	if row.PriorityBin != 3 {
		t.Errorf("PriorityBin = %d, want 3", row.PriorityBin)
	}
	if row.DownlinkState != types.Untransmitted {
		t.Errorf("DownlinkState = %v, want UNTRANSMITTED", row.DownlinkState)
	}

	// Array-valued field skipped, scalars kept with native types
	if len(row.Metadata) != 3 {
		t.Fatalf("Metadata len = %d, want 3", len(row.Metadata))
	}
	if v := row.Metadata["attempts"]; v.Type != types.MetadataInt || v.Int != 3 {
		t.Errorf("Metadata[attempts] = %+v, want int 3", v)
	}
	if v := row.Metadata["depth"]; v.Type != types.MetadataFloat || v.Float != 101.5 {
		t.Errorf("Metadata[depth] = %+v, want float 101.5", v)
	}
	if v := row.Metadata["station"]; v.Type != types.MetadataString || v.String != "alpha" {
		t.Errorf("Metadata[station] = %+v, want string alpha", v)
	}
}

func TestProcessDataProductWithoutSidecarUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	product := writeFile(t, dir, "p1.dat", "data")

	db := &recordingDB{}
	p := NewPassthrough(db, nil)

	err := p.ProcessDataProduct(DpMsg{
		InstrumentName: "acme",
		Type:           "cntx",
		URI:            product,
	})
	if err != nil {
		t.Fatalf("ProcessDataProduct() error = %v, want nil", err)
	}

	row := db.inserted[0]
	if row.ScienceUtilityEstimate != 0.0 || row.PriorityBin != 0 {
		t.Errorf("defaults = (%v, %d), want (0.0, 0)",
			row.ScienceUtilityEstimate, row.PriorityBin)
	}
}

func TestProcessDataProductMissingSUEFails(t *testing.T) {
	dir := t.TempDir()
	product := writeFile(t, dir, "p1.dat", "data")
	sidecar := writeFile(t, dir, "p1.json", `{"priority_bin": 1, "metadata": {}}`)

	p := NewPassthrough(&recordingDB{}, nil)
	err := p.ProcessDataProduct(DpMsg{
		InstrumentName: "acme",
		URI:            product,
		MetadataURI:    sidecar,
	})
	if err == nil {
		t.Errorf("ProcessDataProduct() error = nil, want error for missing SUE")
	}
}

func TestProcessDataProductMissingProductFails(t *testing.T) {
	p := NewPassthrough(&recordingDB{}, nil)
	err := p.ProcessDataProduct(DpMsg{
		InstrumentName: "acme",
		URI:            filepath.Join(t.TempDir(), "absent.dat"),
	})
	if err == nil {
		t.Errorf("ProcessDataProduct() error = nil, want error for missing product")
	}
}
