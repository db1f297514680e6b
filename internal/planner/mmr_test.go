package planner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

// fakeDB is an in-memory ASDPDB for planner tests.
type fakeDB struct {
	ids  []int64
	rows map[int64]catalog.Row
}

func newFakeDB(rows ...catalog.Row) *fakeDB {
	db := &fakeDB{rows: map[int64]catalog.Row{}}
	for _, row := range rows {
		db.ids = append(db.ids, row.ID)
		db.rows[row.ID] = row
	}
	return db
}

func (f *fakeDB) ListIDs() ([]int64, error) { return f.ids, nil }

func (f *fakeDB) Get(id int64) (catalog.Row, error) {
	row, ok := f.rows[id]
	if !ok {
		return catalog.Row{}, types.ErrNotFound
	}
	return row, nil
}

func (f *fakeDB) Insert(row *catalog.Row) error { return nil }
func (f *fakeDB) UpdateScienceUtility(id int64, sue float64) error {
	return nil
}
func (f *fakeDB) UpdatePriorityBin(id int64, bin int) error { return nil }
func (f *fakeDB) UpdateDownlinkState(id int64, state types.DownlinkState) error {
	return nil
}
func (f *fakeDB) UpdateMetadata(id int64, field string, value types.MetadataValue) error {
	return nil
}

// frozenClock never advances: any positive budget survives the scan check.
type frozenClock struct{ at time.Time }

func (c frozenClock) Now() time.Time { return c.at }

func row(id int64, bin int, size int64, sue float64) catalog.Row {
	return catalog.Row{
		ID:                     id,
		InstrumentName:         "acme",
		Type:                   "cntx",
		URI:                    fmt.Sprintf("/data/products/p%d", id),
		Size:                   size,
		ScienceUtilityEstimate: sue,
		PriorityBin:            bin,
		DownlinkState:          types.Untransmitted,
		Metadata:               types.AsdpEntry{},
	}
}

func newTestPlanner(db catalog.ASDPDB) *MMRPlanner {
	return NewMMRPlanner(db, frozenClock{at: time.Unix(0, 0)}, nil)
}

func TestPrioritizeEmptyCatalog(t *testing.T) {
	p := newTestPlanner(newFakeDB())

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}
	if len(ids) != 0 {
		t.Errorf("Prioritize() = %v, want empty list", ids)
	}
}

func TestPrioritizeByRelativeUtility(t *testing.T) {
	// Ratios: 0.10, 0.15, 0.1375. The middle product leads; the large one
	// overtakes the small on cumulative rate.
	db := newFakeDB(
		row(1, 0, 10, 1.0),
		row(2, 0, 20, 3.0),
		row(3, 0, 40, 5.5),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	want := []int64{2, 3, 1}
	if len(ids) != len(want) {
		t.Fatalf("Prioritize() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Prioritize()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestPrioritizeTieBreaksFirstEncountered(t *testing.T) {
	// Identical products score identically at every step: catalog scan
	// order wins under strict greater-than
	db := newFakeDB(
		row(1, 0, 10, 1.0),
		row(2, 0, 10, 1.0),
		row(3, 0, 10, 1.0),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	want := []int64{1, 2, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Prioritize() = %v, want %v", ids, want)
		}
	}
}

func TestPrioritizeSkipsDownlinked(t *testing.T) {
	done := row(1, 0, 10, 9.0)
	done.DownlinkState = types.Downlinked
	sent := row(2, 0, 10, 9.0)
	sent.DownlinkState = types.Transmitted

	db := newFakeDB(done, sent, row(3, 0, 10, 1.0))
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("Prioritize() = %v, want [3]", ids)
	}
}

func TestPrioritizeBinsAscending(t *testing.T) {
	db := newFakeDB(
		row(1, 5, 10, 1.0),
		row(2, 1, 10, 1.0),
		row(3, 5, 10, 2.0),
		row(4, 0, 10, 1.0),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	want := []int64{4, 2, 3, 1}
	if len(ids) != len(want) {
		t.Fatalf("Prioritize() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Prioritize()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestPrioritizeDiversityDiscount(t *testing.T) {
	simConfig := `{
	  "alphas": {"default": 1.0},
	  "functions": {
	    "default": [
	      {
	        "key": ["acme", "cntx"],
	        "function": {
	          "diversity_descriptor": ["x"],
	          "weights": [1.0],
	          "similarity_type": "gaussian",
	          "similarity_parameters": {"sigma": 1.0}
	        }
	      }
	    ]
	  }
	}`
	simPath := writeConfig(t, "similarity.json", simConfig)

	a := row(1, 0, 1, 1.0)
	a.Metadata = types.AsdpEntry{"x": types.FloatValue(0.0)}
	b := row(2, 0, 1, 1.0)
	b.Metadata = types.AsdpEntry{"x": types.FloatValue(0.0)}

	db := newFakeDB(a, b)
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", simPath, time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	// Identical products: the first is selected at full utility, the
	// second is fully discounted but still queued
	want := []int64{1, 2}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("Prioritize() = %v, want %v", ids, want)
	}
}

func TestPrioritizeConstraintLimitsQueue(t *testing.T) {
	ruleConfig := `{
	  "default": {
	    "rules": [],
	    "constraints": [
	      {
	        "__type__": "Constraint",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {"__type__": "LogicalConstant", "__contents__": {"value": true}},
	          "sum_field": {"__type__": "Field", "__contents__": {"variable_name": "x", "field_name": "size"}},
	          "constraint_value": 100
	        }
	      }
	    ]
	  }
	}`
	rulePath := writeConfig(t, "rules.json", ruleConfig)

	db := newFakeDB(
		row(1, 0, 60, 6.0),
		row(2, 0, 50, 4.0),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize(rulePath, "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	// After the 60-byte product, adding the 50-byte one reaches 110 which
	// violates the strict sum bound: the queue stays single-element
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Prioritize() = %v, want [1]", ids)
	}
}

func TestPrioritizeRuleAdjustmentChangesOrder(t *testing.T) {
	// A rule that rewards queues containing the small product enough to
	// overcome its poor utility-per-byte ratio
	ruleConfig := `{
	  "default": {
	    "rules": [
	      {
	        "__type__": "Rule",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {
	            "__type__": "ComparatorExpression",
	            "__contents__": {
	              "comparator": "<",
	              "left_expression": {"__type__": "Field", "__contents__": {"variable_name": "x", "field_name": "size"}},
	              "right_expression": {"__type__": "ConstExpression", "__contents__": {"value": 15}}
	            }
	          },
	          "adjustment": {"__type__": "ConstExpression", "__contents__": {"value": 100}},
	          "max_applications": -1
	        }
	      }
	    ],
	    "constraints": []
	  }
	}`
	rulePath := writeConfig(t, "rules.json", ruleConfig)

	db := newFakeDB(
		row(1, 0, 10, 1.0),
		row(2, 0, 20, 3.0),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize(rulePath, "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	// Without the rule the 20-byte product leads (0.15 vs 0.10); the
	// adjustment promotes the small product
	want := []int64{1, 2}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("Prioritize() = %v, want %v", ids, want)
	}
}

func TestPrioritizeTimeout(t *testing.T) {
	db := newFakeDB(row(1, 0, 10, 1.0))
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", 0)
	if !errors.Is(err, types.ErrTimeout) {
		t.Fatalf("Prioritize() error = %v, want ErrTimeout", err)
	}
	if ids != nil {
		t.Errorf("Prioritize() = %v, want nil list on timeout", ids)
	}
}

func TestPrioritizeZeroSizeCandidate(t *testing.T) {
	db := newFakeDB(
		row(1, 0, 0, 2.0),
		row(2, 0, 10, 1.0),
	)
	p := newTestPlanner(db)

	ids, err := p.Prioritize("", "", time.Hour)
	if err != nil {
		t.Fatalf("Prioritize() error = %v, want nil", err)
	}

	// Zero-size products score by raw utility (effective size 1):
	// 2.0 beats 0.1, both products are queued
	want := []int64{1, 2}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("Prioritize() = %v, want %v", ids, want)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
