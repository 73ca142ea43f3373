package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/presentation/graph"
	"github.com/aretw0/chatflow/pkg/domain"
)

func newGraphCmd(st *state) *cobra.Command {
	var (
		src          flowSource
		conversation string
	)
	cmd := &cobra.Command{
		Use:   "graph [flow-file]",
		Short: "Export a flow as a Mermaid diagram",
		Long: `Outputs a Mermaid flowchart of the flow. With --conversation the nodes the
conversation visited and its current node are highlighted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flow, err := src.load(ctx, st, args)
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if conversation != "" {
				be, err := openBackend(ctx, st.cfg.Store, st.logger)
				if err != nil {
					return err
				}
				defer be.Close()
				pos, err := be.positions.Load(ctx, conversation)
				switch {
				case errors.Is(err, domain.ErrPositionNotFound):
					st.logger.Warn("Conversation has no stored position", "conversation_id", conversation)
				case err != nil:
					return err
				case pos.FlowName != flow.Name:
					st.logger.Warn("Conversation is in another flow", "conversation_id", conversation, "flow", pos.FlowName)
				default:
					overlay = graph.OverlayFor(pos)
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flow, overlay))
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&conversation, "conversation", "", "highlight the stored position of this conversation")
	return cmd
}
