/*
Package ports defines the driven ports (interfaces) for the colloquy engine.

These interfaces decouple the dialog core from external implementations, allowing
the engine to work with various storage backends, chat transports and audit sinks.

# Key Interfaces

  - SessionStore: Persists one Session per conversation with atomic upserts.
  - DistributedLocker: Serializes turns of one conversation across replicas.
  - AuditLog: Append-only log of inbound events.
  - Registrar: First-seen bookkeeping for users and chats.
  - Sender: Delivers RenderRequests to the chat platform.
*/
package ports
