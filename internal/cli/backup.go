package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docscan/internal/backup"
	"github.com/joseph-ayodele/docscan/internal/repository"
)

var (
	backupOut        string
	backupPassphrase string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write all stored records to an encrypted backup file",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load records from an encrypted backup into the record store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	backupCmd.Flags().StringVarP(&backupOut, "out", "o", "docscan.backup", "output path")
	for _, c := range []*cobra.Command{backupCmd, restoreCmd} {
		c.Flags().StringVar(&backupPassphrase, "passphrase", "", "passphrase (default $DOCSCAN_BACKUP_PASSPHRASE)")
	}
	rootCmd.AddCommand(backupCmd, restoreCmd)
}

func passphrase(configured string) (string, error) {
	if backupPassphrase != "" {
		return backupPassphrase, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", backup.ErrNoPassphrase
}

func runBackup(cmd *cobra.Command, _ []string) error {
	app, _, err := open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	pass, err := passphrase(app.Config.Backup.Passphrase)
	if err != nil {
		return err
	}

	recs, err := app.Scans.List(cmd.Context(), repository.ListFilter{})
	if err != nil {
		return err
	}
	blob, err := backup.SealRecords(recs, pass)
	if err != nil {
		return err
	}
	if err := os.WriteFile(backupOut, []byte(blob), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", backupOut, err)
	}
	cmd.Printf("backed up %d records to %s\n", len(recs), backupOut)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	app, logger, err := open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	pass, err := passphrase(app.Config.Backup.Passphrase)
	if err != nil {
		return err
	}

	recs, err := backup.OpenRecords(strings.TrimSpace(string(raw)), pass)
	if err != nil {
		return err
	}
	restored := 0
	for _, rec := range recs {
		if _, err := app.Records.Get(cmd.Context(), rec.ID); err == nil {
			continue
		}
		if err := app.Records.Save(cmd.Context(), rec, ""); err != nil {
			logger.Error("restore.save_failed", "id", rec.ID, "error", err)
			return errors.Join(fmt.Errorf("restored %d of %d records", restored, len(recs)), err)
		}
		restored++
	}
	cmd.Printf("restored %d of %d records\n", restored, len(recs))
	return nil
}
