/*
Package graphstore is the write-checked, cached front of a flow repository.

Every write goes through the same pipeline: referential integrity, node
payload schemas, and, for flows marked active, the structural validator. A
write that fails any check returns a typed error and leaves the repository
untouched. Writes to the same flow are serialized; reads are served from an
LRU cache and never wait on a writer.
*/
package graphstore
