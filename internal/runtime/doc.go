/*
Package runtime implements the flow interpreter.

The Engine is a pure state machine over a flow and a conversation position.
It never performs I/O: every call returns the next position together with
the outbound actions, and the caller decides where to persist and deliver
them. A conversation waiting for a reply is therefore just a stored
position, which is what lets suspensions outlive the process.

Auto-advance walks message and condition nodes until it reaches a prompt
(buttons, list, askText), an agent, or a dead end. The walk is bounded by
MaxSteps so a loop of message nodes cannot spin forever.
*/
package runtime
