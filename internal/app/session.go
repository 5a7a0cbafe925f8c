package app

// Session statuses recorded in the journal.
const (
	SessionSuccess = "success"
	SessionError   = "error"
)

// Session tracks one CLI invocation. Sessions are created in memory with
// ID=0; only commands that start processes or change settings persist them.
type Session struct {
	ID        int64
	Operation string
	Profile   string
	Status    string
}

// NewSession creates a new in-memory session.
func NewSession(operation, profile string) *Session {
	return &Session{
		Operation: operation,
		Profile:   profile,
		Status:    SessionSuccess,
	}
}

// Persisted returns true if this session has been saved to the journal.
func (s *Session) Persisted() bool {
	return s.ID != 0
}

// Fail marks the session as failed.
func (s *Session) Fail() {
	s.Status = SessionError
}
