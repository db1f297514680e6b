package cmd

import (
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/synopsis/internal/app"
	"github.com/NASA-AMMOS/synopsis/internal/asds"
	"github.com/NASA-AMMOS/synopsis/internal/catalog"
)

var (
	ingestInstrument string
	ingestType       string
	ingestMetadata   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <asdpdb_file> <product_uri>",
	Short: "Submit a data product to the ASDP catalog",
	Long: `Ingest runs the passthrough science data system: the product file is
sized, its optional metadata sidecar parsed, and an UNTRANSMITTED catalog
row inserted.`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestInstrument, "instrument", "", "instrument name (required)")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "data product type")
	ingestCmd.Flags().StringVar(&ingestMetadata, "metadata", "", "metadata sidecar JSON path")
	ingestCmd.MarkFlagRequired("instrument")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	asdpdbFile, productURI := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
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

	application := app.New(store, nil, log)
	application.AddASDS(ingestInstrument, ingestType, asds.NewPassthrough(store, log))

	return application.AcceptDataProduct(asds.DpMsg{
		InstrumentName: ingestInstrument,
		Type:           ingestType,
		URI:            productURI,
		MetadataURI:    ingestMetadata,
	})
}
