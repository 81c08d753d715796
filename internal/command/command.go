package command

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies what a command asks the scheduler loop to do.
type Kind int

const (
	Add Kind = iota + 1
	Remove
	List
	Status
	Exit
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case List:
		return "list"
	case Status:
		return "status"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Usage lists the accepted command lines.
const Usage = "commands: add <SYMBOL> | remove <SYMBOL> | list | status | exit"

var (
	ErrBlank          = errors.New("blank command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("invalid arguments")
)

// Command is one request to the scheduler loop. Reply, when set, receives
// the loop's answer; it should be buffered so the loop never waits on it.
type Command struct {
	Kind   Kind
	Symbol string
	Reply  chan string
}

// New creates a command with a one-slot reply channel.
func New(kind Kind, symbol string) Command {
	return Command{Kind: kind, Symbol: symbol, Reply: make(chan string, 1)}
}

// Respond delivers text on the reply channel without blocking.
func (c Command) Respond(text string) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- text:
	default:
	}
}

func (c Command) String() string {
	if c.Symbol == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + " " + c.Symbol
}

// Parse reads one whitespace-tokenized command line. Verbs are case
// insensitive and a leading slash is accepted for chat clients.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrBlank
	}
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	var kind Kind
	switch verb {
	case "add":
		kind = Add
	case "remove", "rm":
		kind = Remove
	case "list", "ls":
		kind = List
	case "status":
		kind = Status
	case "exit", "quit":
		kind = Exit
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, strings.TrimSpace(line))
	}

	switch kind {
	case Add, Remove:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: %s needs exactly one symbol", ErrUsage, verb)
		}
		return New(kind, strings.ToUpper(args[0])), nil
	default:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrUsage, verb)
		}
		return New(kind, ""), nil
	}
}
