// Package handler exposes the renderer over HTTP. It maps resolution errors
// to status codes and tags every exchange with a request id.
package handler
