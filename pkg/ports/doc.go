/*
Package ports defines the driven ports (interfaces) of the flow runtime.

These interfaces decouple the interpreter and conversation service from
storage backends, the messaging channel, and distributed coordination.

# Key Interfaces

  - FlowRepository: persists whole flows, keyed by tenant and name.
  - PositionStore: persists conversation positions so suspensions survive restarts.
  - DistributedLocker: serializes events of one conversation across replicas.
  - Channel: delivers outbound actions to the messaging provider.
  - Interpreter: the flow state machine, consumed by the conversation service.
*/
package ports
