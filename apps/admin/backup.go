package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/caseload/core/backup"
)

func (cli *commandLine) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			snap, err := cli.backupSvc.Export(context.Background())
			if err != nil {
				return err
			}
			w := cli.out
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "creating backup file")
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "backup file (stdout when empty)")
	return cmd
}

func (cli *commandLine) importCmd() *cobra.Command {
	var mode string
	var legacy bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON backup, or a browser storage export with --legacy",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading import file")
			}
			return cli.importFile(data, mode, legacy)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "merge", "merge or replace")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "the file is a browser storage export")
	return cmd
}

func (cli *commandLine) importFile(data []byte, mode string, legacy bool) error {
	ctx := context.Background()
	var report interface{}
	if legacy {
		result, legacyReport, err := cli.backupSvc.ImportLegacy(ctx, data, mode)
		if err != nil {
			return err
		}
		report = map[string]interface{}{"result": result, "conversion": legacyReport}
	} else {
		var snap backup.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return errors.Wrap(err, "decoding backup")
		}
		result, err := cli.backupSvc.Import(ctx, snap, mode)
		if err != nil {
			return err
		}
		report = result
	}
	cli.logger.Info("import done", map[string]interface{}{"mode": mode, "legacy": legacy})
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
