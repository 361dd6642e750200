// Package snapshot persists region images to pluggable stores.
//
// A snapshot is a self-describing envelope around a region image: a small
// header naming the compression codec, followed by the checksummed payload.
// Because region images are position independent, restoring a snapshot is
// exactly FromBytes on the decoded payload; no fixups, no deserialization.
//
// Stores cover local directories, plain memory, Amazon S3 and MinIO. The
// Manager ties a store and a codec together and adds optional upload
// throttling and concurrent batch saves.
package snapshot
