// Package command defines the console line protocol: the verbs an operator
// can type and the fixed reply strings.
package command

import (
	"strconv"
	"strings"
)

// Kind discriminates the console verbs.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindStatus
	KindStart
	KindStop
	KindSetDry
	KindSetWet
	KindSave
)

// Command is one parsed console line. Value carries the threshold argument
// for KindSetDry and KindSetWet.
type Command struct {
	Kind  Kind
	Value int
}

// Console replies. The protocol is line oriented; each command produces
// exactly one of these (STATUS produces the current status line instead).
const (
	Greeting         = "Irrigation boot. Type HELP."
	HelpReply        = "Commands: STATUS, START, STOP, SET DRY x, SET WET x, SAVE, HELP"
	StartedReply     = "Watering..."
	CannotStartReply = "Cannot START"
	StoppedReply     = "Stopped -> Cooldown"
	OKReply          = "OK"
	SavedReply       = "Saved"
	UnknownReply     = "Unknown. Type HELP"
)

// Parse interprets one line of console input. Matching is case-insensitive
// and tolerant of surrounding whitespace. Anything that does not parse,
// including a SET with a missing or non-numeric argument, comes back as
// KindUnknown.
func Parse(line string) Command {
	s := strings.ToUpper(strings.TrimSpace(line))

	switch s {
	case "HELP":
		return Command{Kind: KindHelp}
	case "STATUS":
		return Command{Kind: KindStatus}
	case "START":
		return Command{Kind: KindStart}
	case "STOP":
		return Command{Kind: KindStop}
	case "SAVE":
		return Command{Kind: KindSave}
	}

	if v, ok := setArgument(s, "SET DRY "); ok {
		return Command{Kind: KindSetDry, Value: v}
	}
	if v, ok := setArgument(s, "SET WET "); ok {
		return Command{Kind: KindSetWet, Value: v}
	}

	return Command{Kind: KindUnknown}
}

func setArgument(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, prefix)))
	if err != nil {
		return 0, false
	}
	return v, true
}
