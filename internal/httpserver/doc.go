// Package httpserver runs the render service over HTTP.
package httpserver
