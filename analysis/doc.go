// Package analysis turns chunked document text into merged document results.
//
// The Invoker drives the external language capability across chunks in
// bounded concurrent batches, tolerating partial failure: a failed chunk is
// logged and excluded, and only when every chunk fails does the caller need
// to escalate to fallback analysis.
//
// The Aggregator merges per-chunk results into one document-level result
// with deterministic rules: theme confidence is the max across contributors,
// quotes deduplicate by text and speaker, keyword frequencies sum, and the
// summary is either concatenated or regenerated in a single call.
package analysis
