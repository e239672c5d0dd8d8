// Package render turns deployment input documents into the configuration
// files of the backup server and client jobs. It resolves each job with the
// assembler, can render many jobs concurrently, writes results atomically per
// job and detects drift against files already on disk.
package render
