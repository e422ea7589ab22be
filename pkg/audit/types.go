package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultDenied  Result = "denied"
	ResultError   Result = "error"
)

// Actions recorded by the application.
const (
	ActionLogin          = "account.login"
	ActionLogout         = "account.logout"
	ActionDeviceCreated  = "twofactor.device_created"
	ActionTokenChecked   = "twofactor.token_checked"
	ActionDeviceEnrolled = "twofactor.enrolled"
	ActionLoginVerified  = "twofactor.login_verified"
)

// Event is a single audit entry.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Action     string         `json:"action"`
	Result     Result         `json:"result"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	switch e.Result {
	case ResultSuccess, ResultFailure, ResultDenied, ResultError:
	default:
		return fmt.Errorf("%w: unknown result %q", ErrEventValidation, e.Result)
	}
	return nil
}

// EventOption adjusts an event before it is stored.
type EventOption func(*Event)

// Storage persists events.
type Storage interface {
	Store(ctx context.Context, events ...Event) error
}

// Logger records events.
type Logger interface {
	// Log records a successful action unless WithResult says otherwise.
	Log(ctx context.Context, action string, opts ...EventOption) error
	// LogError records an action that failed with err.
	LogError(ctx context.Context, action string, err error, opts ...EventOption) error
}
