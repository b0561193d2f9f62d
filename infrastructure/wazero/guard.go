package wazero

import (
	"fmt"
	"path"

	"github.com/reglet-dev/hostbridge/domain/entities"
)

// Guard decides whether a session may call a boundary. It runs before the
// request is decoded.
type Guard interface {
	Allow(session *Session, boundary string) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(session *Session, boundary string) error

// Allow implements Guard.
func (f GuardFunc) Allow(session *Session, boundary string) error {
	return f(session, boundary)
}

// DeniedError represents a boundary the session is not allowed to call.
type DeniedError struct {
	Session  string
	Boundary string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("boundary denied: session %q may not call %s", e.Session, e.Boundary)
}

// AllowPatterns returns a Guard admitting boundaries that match any of the
// path.Match patterns, e.g. "hostops.Object.read*".
func AllowPatterns(patterns ...string) Guard {
	return GuardFunc(func(session *Session, boundary string) error {
		for _, p := range patterns {
			if ok, err := path.Match(p, boundary); err == nil && ok {
				return nil
			}
		}
		return &DeniedError{Session: session.ID(), Boundary: boundary}
	})
}

// ToErrorDetail implements errors.DetailedError.
func (e *DeniedError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("capability", e.Error()).WithCode("denied").WithBoundary(e.Boundary)
}
