package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/export"
)

func exportCommand() *cobra.Command {
	var filter db.LoadFilter
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export loads to a spreadsheet",
		Long:  `This command writes the loads matching the filters to an xlsx or csv file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = format.FileName(a.sync.Now())
			}

			ctx := cmd.Context()
			loads, err := a.sync.ListLoads(ctx, filter)
			if err != nil {
				return err
			}

			f, err := os.Create(filepath.Clean(output))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := export.Write(ctx, f, format, loads, db.NewContactDataLoader(a.store)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("loads exported", zap.String("file", output), zap.Int("rows", len(loads)))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (defaults to a timestamped name)")
	cmd.Flags().StringP("format", "f", string(export.FormatXLSX), "Output format (xlsx, csv)")
	cmd.Flags().StringVar(&filter.DriverName, "driver", "", "Only loads whose driver name contains this")
	cmd.Flags().StringVar(&filter.Product, "product", "", "Only loads whose product contains this")
	cmd.Flags().StringVar(&filter.PickupDate, "date", "", "Only loads picked up on this YYYY-MM-DD date")

	return cmd
}
