package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/chatflow/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one debug line per node
// transition and one info line per conversation lifecycle change.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	conversation := func(msg string) func(context.Context, *domain.ConversationEvent) {
		return func(ctx context.Context, e *domain.ConversationEvent) {
			logger.InfoContext(ctx, msg,
				"conversation_id", e.ConversationID,
				"flow", e.FlowName,
				"node_id", e.NodeID,
				"reason", e.Reason,
			)
		}
	}
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"conversation_id", e.ConversationID,
				"flow", e.FlowName,
				"node_id", e.NodeID,
				"variant", e.Variant,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "conversation_id", e.ConversationID, "node_id", e.NodeID)
		},
		OnActivate: conversation("conversation_activated"),
		OnComplete: conversation("conversation_completed"),
		OnReset:    conversation("conversation_reset"),
	}
}
