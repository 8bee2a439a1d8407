// Package internal holds token generation and hashing helpers shared by the
// engine and its stores. Not importable outside this module.
package internal
