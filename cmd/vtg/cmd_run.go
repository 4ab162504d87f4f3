package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/dispatch"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [TEST_ID...]",
		Short: "Run validation tests",
		Long: `Run the named tests in order. With no test ids, every test is listed and
the operator is asked whether to run them all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := instruction.LoadFile(cfg.InstructionFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			prompter := dispatch.NewConsolePrompter(os.Stdin, out)

			ids := args
			if len(ids) == 0 {
				printTests(out, file)
				ok, err := prompter.Confirm("\nDo you want to run all tests?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "No tests run.")
					return nil
				}
				ids = file.IDs()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := newRunner(cfg, file, prompter, out)
			results, err := runner.Run(ctx, ids)
			if err != nil {
				return err
			}
			if dispatch.AnyFailed(results) {
				os.Exit(1)
			}
			return nil
		},
	}
}
