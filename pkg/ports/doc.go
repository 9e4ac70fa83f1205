/*
Package ports defines the driven ports (interfaces) of the travel assistant.

These interfaces decouple the nodes and the session layer from external
implementations, so every collaborator can be swapped per deployment.

# Capability Interfaces

  - Classifier: maps a conversation to a routing destination.
  - Generator: composes text from a conversation and grounding data.
  - FlightSearcher: performs a live flight search.
  - RecordStore: persists and queries flight records with a structured filter.
  - ContentRetriever / ContentIndexer / Embedder: similarity search over travel content.

# Session Interfaces

  - StateStore: persists the final State of each session turn.
  - DistributedLocker: serialises turns of one session across replicas.
*/
package ports
