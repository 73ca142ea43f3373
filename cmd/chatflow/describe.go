package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/aretw0/chatflow/pkg/validator"
)

func newDescribeCmd(st *state) *cobra.Command {
	var src flowSource
	cmd := &cobra.Command{
		Use:   "describe [flow-file]",
		Short: "Summarize a flow and its validation issues",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := src.load(cmd.Context(), st, args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.Describe(flow, validator.Validate(flow)))
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}
