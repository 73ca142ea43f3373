/*
Package domain contains the core models of the conversation flow graph.

It defines the closed set of node variants, the edges that connect them, the
Flow that owns both, and the durable Position of a conversation inside a flow.
This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Node: a point in the graph, tagged by Variant and carrying a typed Payload.
  - Edge: a directed link between two nodes, optionally leaving a named handle.
  - Flow: a tenant-owned, named graph with a trigger keyword and activation flag.
  - Position: the runtime cursor of one conversation (current node, variables, awaiting).
  - ActionRequest: what the host must send to the messaging channel.
*/
package domain
