package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ctypegen/ctypegen/parser"
	"github.com/ctypegen/ctypegen/progress"
)

func cmdList() *cobra.Command {
	return &cobra.Command{
		Use:     "list SRCDIR",
		Aliases: []string{"ls"},
		Short:   "List the exported functions found under SRCDIR",
		Args:    cobra.ExactArgs(1),
		RunE:    listHandler,
	}
}

func listHandler(cmd *cobra.Command, args []string) error {
	p := progress.NewProgress(progressWriter())
	defer p.StopAndClear()

	sources, err := readSources(args[0], p)
	if err != nil {
		return err
	}

	p.Add(progress.NewSpinner("parsing exports"))

	set, err := parser.ParseFiles(cmd.Context(), sources)
	if err != nil {
		return err
	}

	p.StopAndClear()

	listExports(set, os.Stdout)
	return nil
}

// listExports renders one table row per exported function, in scan order.
func listExports(set *parser.Set, w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "RETURNS", "PARAMETERS", "SOURCE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(listRows(set))
	table.Render()
}

func listRows(set *parser.Set) [][]string {
	var rows [][]string
	for _, fn := range set.Functions() {
		params := make([]string, len(fn.Params))
		for i, param := range fn.Params {
			params[i] = param.Type.String() + " " + param.Name
		}

		signature := strings.Join(params, ", ")
		if signature == "" {
			signature = "void"
		}

		rows = append(rows, []string{fn.Name, fn.Return.String(), signature, fmt.Sprintf("%s:%d", fn.File, fn.Line)})
	}

	return rows
}
