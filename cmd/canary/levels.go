package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tipee-sa/canary/gate"
)

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List the canary levels and the log level they are written at",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetNoWhiteSpace(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetBorder(false)
			table.SetHeaderLine(false)
			table.SetAutoFormatHeaders(false)
			table.SetTablePadding("   ")
			table.SetHeader([]string{"LEVEL", "LOGGED AT"})

			for _, l := range gate.Levels() {
				at := l.ZapLevel().String()
				if l == gate.LevelOff {
					at = "-"
				}
				table.Append([]string{l.String(), at})
			}
			table.Render()
		},
	}
}
