package cli

import (
	"io"
	"slices"

	"github.com/olekukonko/tablewriter"

	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
	"go.hackfix.me/kvdb/snapshot"
)

// The Dump command prints the key-value pairs stored in a snapshot file.
type Dump struct {
	Snapshot string `default:"${snapshot_path}" help:"Path to the snapshot file."`
}

// Run the dump command.
func (c *Dump) Run(appCtx *actx.Context) error {
	kv, err := snapshot.New(appCtx.FS, c.Snapshot).Load()
	if err != nil {
		return aerrors.NewRuntimeError("failed loading snapshot", err, "")
	}
	if len(kv) == 0 {
		return nil
	}

	keys := make([]string, 0, len(kv))
	for key := range kv {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	rows := make([][]string, len(keys))
	for i, key := range keys {
		rows[i] = []string{key, kv[key]}
	}

	newTable([]string{"Key", "Value"}, rows, appCtx.Stdout).Render()

	return nil
}

// newTable returns a borderless, left-aligned table.
func newTable(header []string, rows [][]string, w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("   ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)

	return table
}
