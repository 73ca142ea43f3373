/*
Package chatflow runs WhatsApp-style conversation flows authored as graphs.

A flow is a set of typed nodes (trigger, message, buttons, list, askText,
condition, agent) joined by edges. An inbound message that matches an active
flow's trigger keyword starts a conversation; the interpreter then walks the
graph, emitting outbound actions and suspending whenever it needs a reply.
The conversation's position is persisted between messages, so a flow can
wait for days and survive restarts.

# Architecture

The library follows a hexagonal layout. pkg/domain holds the pure types,
pkg/ports the driven interfaces, and pkg/adapters the storage and transport
implementations (memory, file, redis, postgres, http). App wires them:

  - graphstore: validated, cached flow storage with activation gating.
  - router: picks the active flow whose keyword an idle message contains.
  - runtime: the interpreter (Activate, Resume, Timeout, Resolve).
  - conversation: per-conversation locking, persistence and delivery.

# Usage

	app, err := chatflow.New(
		chatflow.WithPositionStore(redisStore),
		chatflow.WithChannel(whatsappSender),
	)
	if err != nil {
		log.Fatal(err)
	}

	step, err := app.HandleInbound(ctx, domain.NewTextEvent("5511987654321", "order status"))

Outbound actions are returned on the step and, when a channel is configured,
delivered through it after the new position is stored.
*/
package chatflow
