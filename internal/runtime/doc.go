// Package runtime drives conversations through a vocabulary one turn at a time.
//
// A turn resolves the conversation's current node, matches the inbound event
// against the node's visible answers, applies tag side effects and either
// advances to the answer's target or re-prompts with the node's
// misunderstood phrase. Configuration errors met along the way send the
// conversation back to the vocabulary's default node.
package runtime
