package pomodoro

import "github.com/heartmarshall/focus-backend/internal/domain"

// CompleteResult is what a completion produced.
type CompleteResult struct {
	Session domain.FocusSession
	// NextMode and SessionCount are the cycle position after this segment.
	NextMode     domain.TimerMode
	SessionCount int
	// NextTimer is set when auto_start_breaks started the following break.
	NextTimer *domain.ActiveTimer
}
