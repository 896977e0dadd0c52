package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docscan/internal/utils"
)

var (
	filterType  string
	filterFrom  string
	filterTo    string
	filterLimit int
	recordsJSON bool
	exportOut   string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored records, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRecords,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored records to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterType, "type", "", "document type (aadhaar, passport, pan, driving_license, voter_id, other)")
	cmd.Flags().StringVar(&filterFrom, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&filterTo, "to", "", "to date YYYY-MM-DD")
	cmd.Flags().IntVarP(&filterLimit, "limit", "n", 0, "maximum number of records")
}

func init() {
	addFilterFlags(recordsCmd)
	recordsCmd.Flags().BoolVar(&recordsJSON, "json", false, "output records as JSON")
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "documents.xlsx", "output XLSX path")
	rootCmd.AddCommand(recordsCmd, exportCmd)
}

func runRecords(cmd *cobra.Command, _ []string) error {
	f, err := utils.ParseFilter(filterType, filterFrom, filterTo, filterLimit)
	if err != nil {
		return err
	}
	app, _, err := open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	recs, err := app.Scans.List(cmd.Context(), f)
	if err != nil {
		return err
	}
	if recordsJSON {
		return printJSON(cmd, recs)
	}
	if len(recs) == 0 {
		cmd.Println("No records found.")
		return nil
	}
	for _, rec := range recs {
		printRecord(cmd, rec)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	f, err := utils.ParseFilter(filterType, filterFrom, filterTo, filterLimit)
	if err != nil {
		return err
	}
	app, _, err := open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	xlsx, err := app.Exporter.ExportXLSX(cmd.Context(), f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	cmd.Printf("wrote %s (%d bytes)\n", exportOut, len(xlsx))
	return nil
}
