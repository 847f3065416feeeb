package stream

// Package stream wraps an established transport for use by proxy handshake
// code. It exists so connectors can be written against a narrow read/write
// surface while cleanup paths share one idempotent Close.
