package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

// asdpdbCmd groups the catalog maintenance operations used by ground
// tooling and flight-software bridges: state advancement after downlink
// acknowledgement, SUE and bin retargeting, and metadata correction.
var asdpdbCmd = &cobra.Command{
	Use:   "asdpdb",
	Short: "Inspect and update the ASDP catalog",
}

var asdpdbListCmd = &cobra.Command{
	Use:   "list <asdpdb_file>",
	Short: "List catalogued data products",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		ids, err := store.ListIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			row, err := store.Get(id)
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\t%s\t%d\t%g\t%d\t%s\t%s\n",
				row.ID, row.InstrumentName, row.Type, row.Size,
				row.ScienceUtilityEstimate, row.PriorityBin,
				row.DownlinkState, row.URI)
		}
		return nil
	},
}

var asdpdbSetStateCmd = &cobra.Command{
	Use:   "set-state <asdpdb_file> <asdp_id> <untransmitted|transmitted|downlinked>",
	Short: "Advance a product's downlink state",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid asdp id %q: %w", args[1], err)
		}
		var state types.DownlinkState
		switch args[2] {
		case "untransmitted":
			state = types.Untransmitted
		case "transmitted":
			state = types.Transmitted
		case "downlinked":
			state = types.Downlinked
		default:
			return fmt.Errorf("unknown downlink state %q", args[2])
		}

		store, cleanup, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer cleanup()
		return store.UpdateDownlinkState(id, state)
	},
}

var asdpdbSetSUECmd = &cobra.Command{
	Use:   "set-sue <asdpdb_file> <asdp_id> <value>",
	Short: "Replace a product's science utility estimate",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid asdp id %q: %w", args[1], err)
		}
		sue, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid science utility estimate %q: %w", args[2], err)
		}

		store, cleanup, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer cleanup()
		return store.UpdateScienceUtility(id, sue)
	},
}

var asdpdbSetBinCmd = &cobra.Command{
	Use:   "set-bin <asdpdb_file> <asdp_id> <bin>",
	Short: "Move a product to another priority bin",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid asdp id %q: %w", args[1], err)
		}
		bin, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid priority bin %q: %w", args[2], err)
		}

		store, cleanup, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer cleanup()
		return store.UpdatePriorityBin(id, bin)
	},
}

var asdpdbMetaType string

var asdpdbSetMetaCmd = &cobra.Command{
	Use:   "set-meta <asdpdb_file> <asdp_id> <field> <value>",
	Short: "Replace one metadata field of a product",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid asdp id %q: %w", args[1], err)
		}

		var value types.MetadataValue
		switch asdpdbMetaType {
		case "int":
			i, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int value %q: %w", args[3], err)
			}
			value = types.IntValue(i)
		case "float":
			f, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid float value %q: %w", args[3], err)
			}
			value = types.FloatValue(f)
		case "string":
			value = types.StringValue(args[3])
		default:
			return fmt.Errorf("unknown metadata type %q", asdpdbMetaType)
		}

		store, cleanup, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer cleanup()
		return store.UpdateMetadata(id, args[2], value)
	},
}

func init() {
	asdpdbSetMetaCmd.Flags().StringVar(&asdpdbMetaType, "type", "float",
		"metadata value type: int, float, or string")
	asdpdbCmd.AddCommand(asdpdbListCmd, asdpdbSetStateCmd, asdpdbSetSUECmd,
		asdpdbSetBinCmd, asdpdbSetMetaCmd)
	rootCmd.AddCommand(asdpdbCmd)
}

// openStore opens a migrated SQLite catalog and returns its store plus a
// cleanup closure.
func openStore(asdpdbFile string) (*catalog.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := catalog.OpenFile(asdpdbFile)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	if err := catalog.MigrateUp(db); err != nil {
		db.Close()
		log.Sync()
		return nil, nil, err
	}
	store, err := catalog.NewStore(db, log)
	if err != nil {
		db.Close()
		log.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Warn("closing catalog", zap.Error(err))
		}
		log.Sync()
	}
	return store, cleanup, nil
}
