/*
Package session serializes access to conversation positions.

Events of one conversation must never race on the same position, while
different conversations proceed in parallel. The Manager keeps one
reference-counted mutex per conversation and, when configured with a
ports.DistributedLocker, also holds a distributed lock so replicas share the
same guarantee.
*/
package session
