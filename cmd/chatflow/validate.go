package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/validator"
)

func newValidateCmd(st *state) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <flow-file>...",
		Short: "Check flows for structural problems",
		Long: `Reports missing or duplicated triggers, dangling edges, invalid handles,
orphan nodes and non-branching loops. Exits non-zero when any flow has errors,
or warnings too with --strict.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				flow, err := codec.ReadFile(path)
				if err != nil {
					fmt.Fprintf(out, "❌ %s: %v\n", path, err)
					failed++
					continue
				}
				report := validator.Validate(flow)
				for _, issue := range report {
					fmt.Fprintf(out, "  %s\n", issue.Error())
				}
				if report.HasErrors() || (strict && len(report) > 0) {
					fmt.Fprintf(out, "❌ %s: flow %q is invalid\n", path, flow.Name)
					failed++
					continue
				}
				fmt.Fprintf(out, "✅ %s: flow %q is valid\n", path, flow.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d flows failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}
