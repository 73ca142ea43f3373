package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/cli"
)

func newSimulateCmd(st *state) *cobra.Command {
	var opts cli.SimulateOptions
	cmd := &cobra.Command{
		Use:   "simulate <flow-file>",
		Short: "Chat with a flow from the terminal",
		Long: `Runs the flow in memory and reads messages from stdin. Type #N to pick an
option; /timeout, /resolve and /state drive the conversation lifecycle.
With --json every input line is an inbound event and every output line a step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			opts.FlowPath = args[0]
			opts.MaxSteps = st.cfg.Engine.MaxSteps
			opts.Logger = st.logger
			opts.In = cmd.InOrStdin()
			opts.Out = cmd.OutOrStdout()
			err := cli.Simulate(ctx, opts)
			if ctx.Signal() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.ConversationID, "conversation", cli.DefaultConversationID, "conversation id to simulate as")
	cmd.Flags().StringVar(&opts.Contact.Name, "name", "", "contact name for {{var.name}}")
	cmd.Flags().StringVar(&opts.Contact.Phone, "phone", "", "contact phone for {{var.contact}}")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "read and write NDJSON")
	return cmd
}
