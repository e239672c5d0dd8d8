// Package properties provides typed, read-only access to the raw deployment
// property bag. Values are held in a small tagged tree (string, bool, int,
// float, list, map) and looked up by dotted path with explicit required and
// optional semantics; absent required properties fail with a
// MissingPropertyError naming the exact path.
package properties
