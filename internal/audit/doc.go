// Package audit defines the portal security event model and an
// asynchronous dispatcher that forwards events to pluggable sinks without
// blocking request hot paths.
package audit
