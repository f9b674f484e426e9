package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var fleetHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var fleetCellStyle = lipgloss.NewStyle().Padding(0, 1)

func fleetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Query the fleet source",
	}

	search := &cobra.Command{
		Use:   "search [term]",
		Short: "List fleet records whose driver or truck plate contains term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("MOTORISTA", "CAVALO", "CARRETA").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return fleetHeaderStyle
					}
					return fleetCellStyle
				})
			n := 0
			for r := range a.sync.Fleet().Search(cmd.Context(), strings.Join(args, " ")) {
				t.Row(r.DriverName, r.TruckPlate, r.TrailerPlate)
				n++
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			if n == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no fleet records found")
			}
			return nil
		},
	}
	cmd.AddCommand(search)
	return cmd
}
