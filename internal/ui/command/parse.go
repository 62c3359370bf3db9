package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/taskman/internal/registry"
)

// ErrUnknownCommand is returned by Parse for an unrecognised verb.
var ErrUnknownCommand = errors.New("unknown command")

// Verb identifies a palette command.
type Verb int

const (
	VerbExport Verb = iota + 1
	VerbImport
	VerbWork
	VerbBreak
	VerbPomodoro
	VerbSave
	VerbQuit
)

// Command is a parsed palette line.
type Command struct {
	Verb Verb

	// Path is set for export and import.
	Path string

	// Policy is set for import when HasPolicy is true; otherwise the
	// configured default applies.
	Policy    registry.MergePolicy
	HasPolicy bool

	// Minutes is set for work and break.
	Minutes int
}

// Parse turns a palette line into a Command.
//
//	export PATH
//	import PATH [overwrite|skip]
//	work MIN
//	break MIN
//	pomodoro | pomo
//	save | w
//	quit | q
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command: %w", ErrUnknownCommand)
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "export":
		if len(args) == 0 {
			return Command{}, errors.New("usage: export PATH")
		}
		return Command{Verb: VerbExport, Path: strings.Join(args, " ")}, nil

	case "import":
		if len(args) == 0 {
			return Command{}, errors.New("usage: import PATH [overwrite|skip]")
		}
		cmd := Command{Verb: VerbImport}
		if len(args) > 1 {
			if p, err := registry.ParsePolicy(args[len(args)-1]); err == nil {
				cmd.Policy, cmd.HasPolicy = p, true
				args = args[:len(args)-1]
			}
		}
		cmd.Path = strings.Join(args, " ")
		return cmd, nil

	case "work", "break":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: %s MINUTES", verb)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%s: %q is not a number", verb, args[0])
		}
		v := VerbWork
		if verb == "break" {
			v = VerbBreak
		}
		return Command{Verb: v, Minutes: n}, nil

	case "pomodoro", "pomo":
		return Command{Verb: VerbPomodoro}, nil

	case "save", "w":
		return Command{Verb: VerbSave}, nil

	case "quit", "q":
		return Command{Verb: VerbQuit}, nil

	default:
		return Command{}, fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}
}
