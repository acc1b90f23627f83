// Package reembed regenerates the stored chunk embeddings with the
// configured embedding model. Switching models invalidates every stored
// vector; a reembed run restores similarity search without re-analyzing any
// document.
//
// Chunks are loaded across all documents, embedded in batches with retry and
// exponential backoff, normalized to unit length, and written back in place.
// Progress is reported to a caller-supplied writer.
package reembed
