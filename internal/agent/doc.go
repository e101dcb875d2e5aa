// Package agent implements an assistant agent: one model client with a name,
// a system message and its own conversation history.
//
// Agents are not safe for concurrent use; a session drives each agent from a
// single goroutine.
package agent
