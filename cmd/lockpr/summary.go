/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"strconv"

	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

func newSummaryTable(w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"Field", "Value"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// writeSummary renders res as a two column markdown table, suitable for
// $GITHUB_STEP_SUMMARY as well as a terminal.
func writeSummary(w io.Writer, res *prreconciler.Result, dryRun bool) error {
	rows := [][]string{
		{"Base", res.Base},
		{"Commit", res.SHA},
		{"Branch", res.Names.Branch},
		{"Title", res.Names.Title},
		{"Dry run", strconv.FormatBool(dryRun)},
		{"Action", string(res.Action)},
	}
	if pr := res.Existing; pr != nil {
		rows = append(rows, []string{"Existing", fmt.Sprintf("#%d %s", pr.Number, pr.URL)})
	}
	if pr := res.Created; pr != nil {
		rows = append(rows, []string{"Created", fmt.Sprintf("#%d %s", pr.Number, pr.URL)})
	}
	if res.Action == prreconciler.ActionDryRun && res.Plan != "" {
		rows = append(rows, []string{"Plan", res.Plan})
	}

	table := newSummaryTable(w)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending summary row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	return nil
}
