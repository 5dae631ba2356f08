package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robbyt/go-reactor/table"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a transition table",
	Long:  `Reports every structural problem in the table, including each (state, event) pair that has no rule.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer, path string) error {
	def, err := table.Load(path)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(out, "%s: ok (%d states, %d events)\n", def.Name, len(def.States), len(def.Events))
	return nil
}
