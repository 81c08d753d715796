// Package console reads operator commands from a line-oriented stream.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/lipgloss"

	"TradeSentinel/internal/command"
)

// DefaultReplyTimeout bounds how long the console waits for the loop's answer.
const DefaultReplyTimeout = 30 * time.Second

// Console turns input lines into commands and prints the replies.
type Console struct {
	In           io.Reader
	Out          io.Writer
	ReplyTimeout time.Duration

	prompt lipgloss.Style
	reply  lipgloss.Style
	notice lipgloss.Style
	usage  lipgloss.Style
}

// New creates a console. Styles degrade to plain text when out is not a terminal.
func New(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		In:           in,
		Out:          out,
		ReplyTimeout: DefaultReplyTimeout,
		prompt:       r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		reply:        r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		notice:       r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		usage:        r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}

// Run reads lines until EOF, an exit command or ctx cancellation. EOF is
// sent on as an exit command. A blocked read is not interrupted by ctx.
func (c *Console) Run(ctx context.Context, cmds chan<- command.Command) error {
	fmt.Fprintln(c.Out, c.usage.Render(command.Usage))
	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, c.prompt.Render("> "))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read console: %w", err)
			}
			log.Println("[INFO] console input closed, exiting")
			return c.send(ctx, cmds, command.New(command.Exit, ""))
		}

		line := scanner.Text()
		cmd, err := command.Parse(line)
		switch {
		case errors.Is(err, command.ErrBlank):
			continue
		case err != nil:
			fmt.Fprintln(c.Out, c.notice.Render(Notice(line, err)))
			fmt.Fprintln(c.Out, c.usage.Render(command.Usage))
			continue
		}

		if err := c.send(ctx, cmds, cmd); err != nil {
			return err
		}
		if cmd.Kind == command.Exit {
			return nil
		}
		c.await(ctx, cmd)
	}
}

// Notice is the operator message for a rejected line.
func Notice(line string, err error) string {
	if errors.Is(err, command.ErrUnknownCommand) {
		return "unknown command: " + line
	}
	return err.Error()
}

func (c *Console) send(ctx context.Context, cmds chan<- command.Command, cmd command.Command) error {
	select {
	case cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) await(ctx context.Context, cmd command.Command) {
	timeout := c.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	select {
	case reply := <-cmd.Reply:
		fmt.Fprintln(c.Out, c.reply.Render(reply))
	case <-ctx.Done():
	case <-time.After(timeout):
		log.Printf("[WARN] no reply to %q within %v", cmd, timeout)
	}
}
