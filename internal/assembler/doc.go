// Package assembler composes the TLS, credential and endpoint resolutions
// into the final documents consumed by the backup server, the backup client
// and the server's process supervisor, and serializes them as YAML.
//
// Assembly is all-or-nothing: the first failing sub-resolution is returned
// unchanged and no partial document is produced.
package assembler
