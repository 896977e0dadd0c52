package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/core"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
	"github.com/joseph-ayodele/docscan/internal/utils"
)

var (
	scanBack      string
	scanJSON      bool
	scanForce     bool
	scanStateless bool
	scanProgress  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Recognize one document photo",
	Long: `Runs the provider chain on the image, classifies the document and
extracts its fields. With --back both sides are scanned concurrently.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanBack, "back", "", "photo of the back side")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output records as JSON")
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "scan even if this image was scanned before")
	scanCmd.Flags().BoolVar(&scanStateless, "stateless", false, "do not read or write the record store")
	scanCmd.Flags().BoolVar(&scanProgress, "progress", false, "print progress milestones to stderr")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	front, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var back []byte
	if scanBack != "" {
		if back, err = os.ReadFile(scanBack); err != nil {
			return err
		}
	}

	var opts []core.Option
	if scanStateless {
		opts = append(opts, core.Stateless())
	}
	app, _, err := open(cmd, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	req := scan.Request{Name: filepath.Base(args[0]), Front: front, Back: back, Force: scanForce}
	if scanProgress {
		req.FrontSink = func(p int) { fmt.Fprintf(cmd.ErrOrStderr(), "front %3d%%\n", p) }
		req.BackSink = func(p int) { fmt.Fprintf(cmd.ErrOrStderr(), "back  %3d%%\n", p) }
	}
	res, err := app.Scans.Scan(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if res.BackErr != nil {
		cmd.PrintErrf("back side failed: %v\n", res.BackErr)
	}
	if scanJSON {
		return printJSON(cmd, res.Records)
	}
	if res.Deduplicated {
		cmd.Println("(already scanned; use --force to scan again)")
	}
	for _, rec := range res.Records {
		printRecord(cmd, rec)
	}
	return nil
}

func printJSON(cmd *cobra.Command, recs []entity.Record) error {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, utils.RecordMap(r))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printRecord(cmd *cobra.Command, rec entity.Record) {
	header := rec.DocumentType.Label()
	if rec.Side != "" {
		header += " (" + rec.Side + ")"
	}
	cmd.Printf("%s  id=%s  provider=%s  confidence=%.0f\n", header, rec.ID, rec.Provider, rec.Confidence)
	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.ReplaceAll(rec.Fields[constants.FieldName(k)], "\n", ", ")
		cmd.Printf("  %-16s %s\n", k, v)
	}
}
