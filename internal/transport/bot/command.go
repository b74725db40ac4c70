package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

const (
	cmdFocus  = "focus"
	cmdShort  = "short"
	cmdLong   = "long"
	cmdPause  = "pause"
	cmdResume = "resume"
	cmdStop   = "stop"
	cmdStatus = "status"
	cmdDone   = "done"
	cmdRate   = "rate"
	cmdHelp   = "help"
)

type command struct {
	name    string
	minutes *int
	target  string
	rating  *int
}

// parseCommand reads a slash command. "/focus@my_bot 50 thesis" and
// "/Focus 50 thesis" parse the same way.
func parseCommand(text string) (command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{}, false
	}

	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	args := fields[1:]

	cmd := command{name: name}
	switch name {
	case "start":
		cmd.name = cmdHelp
	case cmdFocus:
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				cmd.minutes = &n
				args = args[1:]
			}
		}
		cmd.target = strings.Join(args, " ")
	case cmdShort, cmdLong:
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				cmd.minutes = &n
			}
		}
	case cmdDone, cmdRate:
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				cmd.rating = &n
			}
		}
	case cmdPause, cmdResume, cmdStop, cmdStatus, cmdHelp:
	default:
		return command{}, false
	}

	return cmd, true
}

// startInput builds the engine request. Minutes outside the configurable
// segment bounds are rejected before they are converted to seconds.
func (c command) startInput() (pomodoro.StartInput, error) {
	in := pomodoro.StartInput{Mode: domain.TimerModeWork, FocusTarget: domain.FocusTarget(c.target)}
	switch c.name {
	case cmdShort:
		in.Mode = domain.TimerModeShortBreak
	case cmdLong:
		in.Mode = domain.TimerModeLongBreak
	}
	if c.minutes != nil {
		if *c.minutes < config.MinSegmentMinutes || *c.minutes > config.MaxSegmentMinutes {
			return pomodoro.StartInput{}, domain.NewValidationError("minutes",
				fmt.Sprintf("must be between %d and %d", config.MinSegmentMinutes, config.MaxSegmentMinutes))
		}
		secs := *c.minutes * 60
		in.DurationSeconds = &secs
	}
	return in, nil
}
