// Package types defines the shared data model for DocGraph: documents,
// chunks, entities, relationships, and the ephemeral evidence items produced
// by retrieval.
//
// Entity identity is content-addressed by the (name, type) pair rather than a
// surrogate key, so repeated mentions of the same entity across chunks and
// documents merge into a single graph node.
package types
