package bot

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/notify"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

const (
	msgIdle      = "No timer is running. /focus to start one."
	msgNotLinked = "This chat is not linked to an account yet. Link it from the web app settings."

	helpText = `Commands:
/focus [minutes] [what] - start a focus session
/short [minutes] - start a short break
/long [minutes] - start a long break
/pause, /resume - pause or resume the timer
/stop - stop early (recorded as interrupted)
/done [1-5] - finish now, optionally rating your focus
/rate <1-5> - rate your last session
/status - show the running timer`
)

var modeNames = map[domain.TimerMode]string{
	domain.TimerModeWork:       "Focus",
	domain.TimerModeShortBreak: "Short break",
	domain.TimerModeLongBreak:  "Long break",
}

var breakCommands = map[domain.TimerMode]string{
	domain.TimerModeShortBreak: cmdShort,
	domain.TimerModeLongBreak:  cmdLong,
}

func startedText(s domain.TimerSnapshot) string {
	t := s.Timer
	var b strings.Builder
	b.WriteString(modeNames[t.Mode])
	if !t.FocusTarget.IsGeneral() {
		fmt.Fprintf(&b, " on %s", t.FocusTarget)
	}
	fmt.Fprintf(&b, " started: %s.", formatClock(s.RemainingSeconds))
	if t.Mode == domain.TimerModeWork {
		fmt.Fprintf(&b, " Session %d today.", t.SessionCount+1)
	}
	return b.String()
}

func statusText(s domain.TimerSnapshot) string {
	state := "left"
	if s.Timer.IsPaused {
		state = "left (paused)"
	}
	return fmt.Sprintf("%s: %s %s.", modeNames[s.Timer.Mode], formatClock(s.RemainingSeconds), state)
}

func stoppedText(s domain.FocusSession) string {
	return fmt.Sprintf("Stopped after %s. Logged as interrupted.", formatClock(s.ActualDurationSeconds))
}

func completedText(res *pomodoro.CompleteResult) string {
	msg := notify.CompletionMessage(domain.TimerEvent{
		Mode:        res.Session.Mode,
		FocusTarget: res.Session.FocusTarget,
		NextMode:    res.NextMode,
	})
	if res.NextTimer != nil {
		msg += " " + modeNames[res.NextTimer.Mode] + " started."
	} else if cmd, ok := breakCommands[res.NextMode]; ok {
		msg += " /" + cmd + " to start it."
	}
	if res.Session.FocusRating == nil && res.Session.Mode == domain.TimerModeWork {
		msg += " How was your focus? /rate 1-5"
	}
	return msg
}

// formatClock renders seconds as m:ss, or h:mm:ss from one hour.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func ratingStars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxFocusRating-n)
}
