/*
Package domain contains the core domain models of the colloquy dialog engine.

It defines the immutable Vocabulary (the declarative node graph), the per-conversation
Session, the inbound Event and the outbound RenderRequest. This package is kept pure
and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Vocabulary: Every node configuration plus global phrases and the default node.
  - NodeConfig: A prompt, an optional photo and an ordered list of answers.
  - AnswerSpec: One outgoing edge. Matches by choice index, words or content type.
  - Session: Current node and accumulated tag counts of one conversation.
  - Event: What the transport received (text, location, pressed choice...).
  - RenderRequest: What the transport must show (text, photo, choices).
*/
package domain
