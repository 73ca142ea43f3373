/*
Package conversation drives conversations end to end.

A Service receives inbound events, serializes them per conversation, loads
the stored position, routes idle conversations to a flow, feeds the event
to the interpreter, persists the resulting position and delivers the
outbound actions through a ports.Channel.

# Interrupt policy

When a conversation awaiting a reply receives a message that matches the
keyword of a different active flow, InterruptIgnore (the default) treats
the message as a reply to the pending prompt, while InterruptRestart
abandons the old position and activates the new flow. Paused conversations
are never interrupted; they wait for Resolve.
*/
package conversation
