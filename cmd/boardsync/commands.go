package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
	errNoMatch        = errors.New("no task or column matches")
	errAmbiguous      = errors.New("ambiguous id prefix")
)

// verb is one stdin instruction
type verb string

const (
	verbMove    verb = "move"
	verbDrop    verb = "drop"
	verbCreate  verb = "create"
	verbEdit    verb = "edit"
	verbDelete  verb = "delete"
	verbComment verb = "comment"
	verbShow    verb = "show"
	verbHelp    verb = "help"
	verbQuit    verb = "quit"
)

const helpText = `commands:
  move <task> <column> <index>   move a task to index of column
  drop <task> <task|column>      drop a task over another task or a column
  create <column> <title...>     append a new task to column
  edit <task> <title...>         rename a task
  delete <task>                  delete a task
  comment <task> <text...>       comment on a task
  show                           print the board
  quit
ids may be shortened to any unique prefix`

// instruction is a parsed line. Refs are id prefixes resolved against the board later.
type instruction struct {
	verb  verb
	refs  []string
	index int
	text  string
}

// parseLine splits one stdin line into an instruction. Empty lines yield ok=false.
func parseLine(line string) (instruction, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return instruction{}, false, nil
	}

	in := instruction{verb: verb(strings.ToLower(fields[0]))}
	args := fields[1:]

	switch in.verb {
	case verbMove:
		if len(args) != 3 {
			return in, true, fmt.Errorf("%w: move <task> <column> <index>", errUsage)
		}
		index, err := strconv.Atoi(args[2])
		if err != nil || index < 0 {
			return in, true, fmt.Errorf("%w: index must be a non-negative integer", errUsage)
		}
		in.refs = args[:2]
		in.index = index
	case verbDrop:
		if len(args) != 2 {
			return in, true, fmt.Errorf("%w: drop <task> <task|column>", errUsage)
		}
		in.refs = args
	case verbCreate, verbEdit, verbComment:
		if len(args) < 2 {
			return in, true, fmt.Errorf("%w: %s <id> <text...>", errUsage, in.verb)
		}
		in.refs = args[:1]
		in.text = strings.Join(args[1:], " ")
	case verbDelete:
		if len(args) != 1 {
			return in, true, fmt.Errorf("%w: delete <task>", errUsage)
		}
		in.refs = args
	case verbShow, verbHelp, verbQuit:
	case "exit":
		in.verb = verbQuit
	default:
		return in, true, fmt.Errorf("%w %q (try help)", errUnknownCommand, fields[0])
	}
	return in, true, nil
}

// resolveID matches ref against every column and task id of the board.
// A full uuid resolves even when it is not on the board.
func resolveID(b dto.BoardResponse, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	ref = strings.ToLower(ref)
	var matches []uuid.UUID
	for _, c := range b.Columns {
		if strings.HasPrefix(c.ID.String(), ref) {
			matches = append(matches, c.ID)
		}
		for _, t := range c.Tasks {
			if strings.HasPrefix(t.ID.String(), ref) {
				matches = append(matches, t.ID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w %q", errNoMatch, ref)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%w %q (%d matches)", errAmbiguous, ref, len(matches))
	}
}

// shortID is the prefix printed by show
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
