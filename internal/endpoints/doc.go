// Package endpoints decides which backup server instances the client talks
// to. An explicit address override wins, then the local-node-only flag, then
// the endpoints supplied by discovery. Address and instance views are both
// projections of the single resolved list.
package endpoints
