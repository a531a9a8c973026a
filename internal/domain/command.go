/**
 * @description
 * Core types for the asynchronous payment-command protocol. The backend
 * processes every mutating payment operation (checkout, verify) out of band:
 * the client submits a request, receives a request_id, and polls the command
 * until it reaches a terminal state.
 */
package domain

import "encoding/json"

// CommandStatus is the server-reported state of an asynchronous command.
type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandCompleted CommandStatus = "completed"
	CommandFailed    CommandStatus = "failed"
)

// Terminal reports whether the command will never change state again.
// Anything other than completed/failed (including an empty or unknown
// status) is treated as still in flight.
func (s CommandStatus) Terminal() bool {
	return s == CommandCompleted || s == CommandFailed
}

// Command is one asynchronously-processed backend operation, identified by
// the request_id returned at submission time.
type Command struct {
	RequestID string          `json:"request_id"`
	Status    CommandStatus   `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}
