package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

// flowSource selects a flow either from a file argument or, with --flow,
// from the configured store.
type flowSource struct {
	name   string
	tenant string
}

func (s *flowSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.name, "flow", "", "read the named flow from the configured store instead of a file")
	cmd.Flags().StringVar(&s.tenant, "tenant", "", "tenant of the stored flow")
}

func (s *flowSource) load(ctx context.Context, st *state, args []string) (*domain.Flow, error) {
	switch {
	case s.name != "" && len(args) > 0:
		return nil, errors.New("pass either a flow file or --flow, not both")
	case s.name != "":
		be, err := openBackend(ctx, st.cfg.Store, st.logger)
		if err != nil {
			return nil, err
		}
		defer be.Close()
		return be.flows.Get(ctx, s.tenant, s.name)
	case len(args) == 1:
		return codec.ReadFile(args[0])
	}
	return nil, errors.New("a flow file or --flow is required")
}
