// Package bridge runs the Amari websocket client as a subprocess and turns
// its output into classified results.
//
// A [Bridge] invokes "<script> <entity> <json-message>" in a fixed working
// directory and feeds stdout to envelope.Parse. A [ServiceControl] runs the
// service management command for start, stop, restart and status actions.
// Both go through a [Runner]; [ExecRunner] is the os/exec implementation and
// enforces a per-call timeout, killing the process when it expires.
//
// Calls share no mutable state and can be issued concurrently.
package bridge
