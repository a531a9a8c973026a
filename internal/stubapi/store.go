/**
 * @description
 * In-memory command store for the stub backend. Commands stay pending for a
 * configurable number of polls before completing, which is what exercises
 * the client's backoff and retry paths. Idempotency-key replay returns the
 * request id minted for the first submission.
 */
package stubapi

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

type commandRecord struct {
	command        domain.Command
	pollsRemaining int
	grantsPremium  bool
}

// Store holds the stub backend's commands and entitlement flag.
type Store struct {
	mu              sync.Mutex
	commands        map[string]*commandRecord
	idempotency     map[string]string
	premium         bool
	pollsToComplete int
}

// NewStore creates a store whose commands complete after pollsToComplete
// status fetches (zero means they complete on the first poll).
func NewStore(pollsToComplete int) *Store {
	return &Store{
		commands:        make(map[string]*commandRecord),
		idempotency:     make(map[string]string),
		pollsToComplete: pollsToComplete,
	}
}

// CreateCommand registers a new pending command whose eventual payload is
// data. Replaying an idempotency key returns the original request id without
// creating a second command. grantsPremium marks the entitlement active once
// the command completes (verify commands).
func (s *Store) CreateCommand(idempotencyKey string, data json.RawMessage, failWith string, grantsPremium bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if existing, ok := s.idempotency[idempotencyKey]; ok {
			return existing
		}
	}

	requestID := "req_" + uuid.NewString()
	record := &commandRecord{
		command: domain.Command{
			RequestID: requestID,
			Status:    domain.CommandPending,
			Data:      data,
		},
		pollsRemaining: s.pollsToComplete,
		grantsPremium:  grantsPremium,
	}
	if failWith != "" {
		record.command.Data = nil
		record.command.Error = failWith
	}
	s.commands[requestID] = record
	if idempotencyKey != "" {
		s.idempotency[idempotencyKey] = requestID
	}
	return requestID
}

// Poll returns the command, advancing it toward its terminal state. The
// payload and error are only exposed once the command is terminal.
func (s *Store) Poll(requestID string) (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.commands[requestID]
	if !ok {
		return domain.Command{}, false
	}
	if !record.command.Status.Terminal() {
		if record.pollsRemaining > 0 {
			record.pollsRemaining--
		} else {
			if record.command.Error != "" {
				record.command.Status = domain.CommandFailed
			} else {
				record.command.Status = domain.CommandCompleted
				if record.grantsPremium {
					s.premium = true
				}
			}
		}
	}

	out := domain.Command{RequestID: record.command.RequestID, Status: record.command.Status}
	switch record.command.Status {
	case domain.CommandCompleted:
		out.Data = record.command.Data
	case domain.CommandFailed:
		out.Error = record.command.Error
	}
	return out, true
}

// HasPremium reports the stub entitlement flag.
func (s *Store) HasPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.premium
}

// SetPremium overrides the entitlement flag (test hook).
func (s *Store) SetPremium(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premium = active
}
