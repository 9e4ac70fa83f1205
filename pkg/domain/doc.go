/*
Package domain contains the core domain models of the concierge engine.

It defines the conversation State threaded through every node, the partial
Update a node emits, the Directive that pairs an update with the next node,
and the faults the Execution Engine can raise. This package is kept pure and
free of I/O or persistence concerns.

# Key Entities

  - State: the single mutable record of one run (messages, task history, results, error).
  - Update: a partial state change; list fields are appended, optional fields replaced wholesale.
  - Directive: a node's return value, an Update plus the identifier of the next node (or End).
  - LifecycleHooks: callbacks fired by the engine around runs and hops.
*/
package domain
