package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tipee-sa/canary"
	"github.com/tipee-sa/canary/gate"
)

type renderOptions struct {
	max    int
	table  bool
	config string
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the values of a YAML or JSON document",
		Long: `Renders every top-level entry of a YAML or JSON document, one line per
entry, using the entry key as identifier. Documents that are not mappings
render as a single value. The document is read from stdin when no file, or
"-", is given.

With --config, lines go through a canary gate configured from a YAML file,
exactly as traced values would.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, opts, args)
		},
	}
	cmd.Flags().IntVar(&opts.max, "max", canary.DefaultMaxLength, "Maximum representation length in characters")
	cmd.Flags().BoolVar(&opts.table, "table", false, "Print a table with the kind of every value")
	cmd.Flags().StringVar(&opts.config, "config", "", "Canary configuration file")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, opts renderOptions, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	doc, err := decodeDocument(in)
	if err != nil {
		return err
	}
	values := entries(doc)
	a.logger.Debug("Decoded document", zap.Int("entries", len(values)))

	out := cmd.OutOrStdout()
	switch {
	case opts.config != "":
		return renderThroughGate(out, a.logger, opts.config, values)
	case opts.table:
		return renderTable(out, opts.max, values)
	}
	for _, e := range values {
		if err := canary.Write(out, e.identifier, e.value, opts.max); err != nil {
			return err
		}
	}
	return nil
}

func renderThroughGate(out io.Writer, logger *zap.Logger, path string, values []entry) error {
	cfg, warnings, err := gate.LoadConfig(path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("Canary configuration", zap.String("path", path), zap.String("warning", w))
	}

	c := gate.New(cfg, gate.WithLogger(logger), gate.WithConsole(out))
	if !c.Enabled() {
		logger.Info("Canary is muted", zap.String("path", path), zap.Stringer("level", cfg.Level))
		return nil
	}
	for _, e := range values {
		c.Output(e.identifier, e.value)
	}
	return nil
}

func renderTable(out io.Writer, max int, values []entry) error {
	table := tablewriter.NewWriter(out)
	table.SetNoWhiteSpace(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetTablePadding("   ")
	table.SetHeader([]string{"IDENTIFIER", "KIND", "REPRESENTATION"})

	for _, e := range values {
		repr, err := canary.Represent(e.value, max)
		if err != nil {
			return fmt.Errorf("error rendering %s: %w", e.identifier, err)
		}
		table.Append([]string{e.identifier, canary.KindOf(e.value).String(), canary.Truncate(repr, max)})
	}

	table.Render()
	return nil
}
