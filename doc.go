// Package logexport is a streaming log-ingestion pipeline. It consumes
// JSON-encoded structured log records from NATS JetStream, parses and
// normalizes each record, extracts rows conforming to a fixed output schema,
// and appends them to an analytical Postgres table.
//
// # Architecture
//
// The pipeline is a linear per-record flow, fanned out across independent
// shard workers:
//
//	┌──────────┐   ┌──────────┐   ┌───────────┐   ┌───────────┐   ┌────────┐
//	│  source  │ → │ logentry │ → │ transform │ → │  extract  │ → │  sink  │
//	│ (reader) │   │ (parse)  │   │ (rules)   │   │ (schema)  │   │ (table)│
//	└──────────┘   └──────────┘   └───────────┘   └───────────┘   └────────┘
//
// Delivery is at-least-once: a message is acknowledged to JetStream only
// after its rows have been appended to the destination table. Malformed
// payloads are dropped with a metric (or republished to a dead-letter
// subject) and acknowledged so they are not redelivered forever.
//
// The reader binds either to a durable consumer (production streaming) or to
// an ephemeral consumer on a subject (bounded test runs over N messages).
// Exactly one of the two must be configured.
//
// Each shard worker lazily builds its own field extractor on first use and
// shares nothing mutable with other shards; ordering is FIFO within a shard
// and unspecified across shards.
package logexport
