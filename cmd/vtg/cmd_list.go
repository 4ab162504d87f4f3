package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tests in the instruction file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := instruction.LoadFile(cfg.InstructionFile)
			if err != nil {
				return err
			}
			printTests(cmd.OutOrStdout(), file)
			return nil
		},
	}
}

func printTests(w io.Writer, file *instruction.File) {
	if len(file.IDs()) == 0 {
		fmt.Fprintf(w, "No tests found in %s\n", file.Path)
		return
	}
	t := cli.NewTable(w, "GROUP", "TEST ID", "PRIORITY", "DESCRIPTION").WithPrefix("  ")
	for _, g := range file.Groups {
		for _, test := range g.Tests {
			t.Row(g.Name, test.ID, test.Priority, test.Description)
		}
	}
	t.Flush()
}
