// Package quill writes protocol payloads: parameter lists, resources,
// and collections, checked against a data model as they're written.
//
// Writers are state machines (package core) whose grammars live in
// package writer.  Payload encoders are in package format, and
// package transport moves bytes to files, HTTP, WebSockets, or MQTT.
// Command-line tools are in `cmd`.
package quill
