package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/app"
	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/clock"
	"github.com/NASA-AMMOS/synopsis/internal/config"
	"github.com/NASA-AMMOS/synopsis/internal/planner"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

var (
	prioritizeTimeBudget time.Duration
	prioritizeFormat     string
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize <asdpdb_file> <rule_config_file> <similarity_config_file> <output_file>",
	Short: "Produce a prioritized downlink queue",
	Long: `Prioritize scans the ASDP catalog, applies the rule and similarity
configurations, and writes the recommended downlink order to the output
file. The exit code mirrors the engine status: 0 success, 1 failure,
2 time budget exceeded.`,
	Args: cobra.ExactArgs(4),
	RunE: runPrioritize,
}

func init() {
	prioritizeCmd.Flags().DurationVar(&prioritizeTimeBudget, "time-budget", 0,
		"maximum processing time (default from config)")
	prioritizeCmd.Flags().StringVar(&prioritizeFormat, "format", "",
		"output format: plain (ids), uris, or json")
	rootCmd.AddCommand(prioritizeCmd)
}

// productRecord is one JSON output row.
type productRecord struct {
	ID                     int64           `json:"id"`
	InstrumentName         string          `json:"instrument_name"`
	Type                   string          `json:"type"`
	URI                    string          `json:"uri"`
	Size                   int64           `json:"size"`
	ScienceUtilityEstimate float64         `json:"science_utility_estimate"`
	PriorityBin            int             `json:"priority_bin"`
	DownlinkState          string          `json:"downlink_state"`
	Metadata               types.AsdpEntry `json:"metadata"`
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	asdpdbFile, ruleConfig, similarityConfig, outputFile := args[0], args[1], args[2], args[3]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("time-budget") {
		cfg.TimeBudget = prioritizeTimeBudget
	}
	if prioritizeFormat != "" {
		cfg.OutputFormat = prioritizeFormat
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := catalog.OpenFile(asdpdbFile)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := catalog.MigrateUp(db); err != nil {
		return err
	}
	store, err := catalog.NewStore(db, log)
	if err != nil {
		return err
	}

	pl := planner.NewMMRPlanner(store, clock.Wall{}, log)
	application := app.New(store, pl, log)

	ids, status, err := application.Prioritize(ruleConfig, similarityConfig, cfg.TimeBudget)
	if err != nil {
		log.Error("prioritization failed",
			zap.Stringer("status", status), zap.Error(err))
		return err
	}
	log.Info("prioritization complete",
		zap.Stringer("status", status), zap.Int("selected", len(ids)))

	return writeOutput(application, ids, outputFile, cfg.OutputFormat)
}

// writeOutput renders the prioritized list in the configured format.
func writeOutput(application *app.Application, ids []int64, path, format string) error {
	rows := make([]catalog.Row, 0, len(ids))
	for _, id := range ids {
		row, err := application.GetDataProduct(id)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	var rendered []byte
	switch format {
	case config.FormatURIs:
		var b strings.Builder
		for _, row := range rows {
			fmt.Fprintln(&b, row.URI)
		}
		rendered = []byte(b.String())

	case config.FormatJSON:
		records := make([]productRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, productRecord{
				ID:                     row.ID,
				InstrumentName:         row.InstrumentName,
				Type:                   row.Type,
				URI:                    row.URI,
				Size:                   row.Size,
				ScienceUtilityEstimate: row.ScienceUtilityEstimate,
				PriorityBin:            row.PriorityBin,
				DownlinkState:          row.DownlinkState.String(),
				Metadata:               row.Metadata,
			})
		}
		var err error
		rendered, err = json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		rendered = append(rendered, '\n')

	default: // FormatPlain
		var b strings.Builder
		for _, row := range rows {
			fmt.Fprintf(&b, "%d\n", row.ID)
		}
		rendered = []byte(b.String())
	}

	return os.WriteFile(path, rendered, 0644)
}
