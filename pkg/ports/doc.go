/*
Package ports defines the driven ports (interfaces) for the Blade engine.

These interfaces decouple the intent engine from the host application it
drives and from the places it reads and writes data, so that the same core
can run against a live host, the in-memory host used in tests, a YAML file or
Redis.

# Key Interfaces

  - Host: the capabilities the engine needs from the host application
    (command registry, state tree roots and scene).
  - Node / Container: the narrow attribute and index capabilities the path resolver walks.
  - IntentSource: where the intent configuration is loaded from.
  - PendingStore: where newly seen intents wait for review.
  - HistoryStore: where enriched records of dispatched intents are kept.
  - DistributedLocker: coordinates writers of shared files across processes.
  - Interpreter: the engine surface consumed by the HTTP and MCP adapters.
*/
package ports
