package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/settings"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/version"
)

var (
	configPath      string
	instructionFile string
	logLevel        string
	logJSON         bool

	cfg *settings.Settings
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vtg",
		Short: "Run hardware validation tests",
		Long: `vtg runs validation test procedures against a device under test.

Each test is a list of instructions read from a TOML instruction file. Tests
run interactively unless their instructions carry a SEMI_AUTO or FULL_AUTO
marker line. Every test is bracketed by a packet capture.

  vtg list                       # show the tests in the instruction file
  vtg test                       # list tests and offer to run them all
  vtg test LID-001 LID-004       # run selected tests
  vtg dhcp serve                 # provision a device without running a test`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := util.SetLogLevel(logLevel); err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			if logJSON {
				util.SetJSONFormat()
			}
			s, err := settings.LoadFrom(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("instructions") {
				s.InstructionFile = instructionFile
			}
			cfg = s
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", settings.DefaultPath, "configuration file")
	pf.StringVarP(&instructionFile, "instructions", "i", "", "instruction file (overrides instruction_file)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")

	rootCmd.AddCommand(
		newTestCmd(),
		newListCmd(),
		newDHCPCmd(),
		newConfigCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.Banner("vtg"))
			},
		},
	)
	return rootCmd
}
