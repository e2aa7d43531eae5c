package colloquy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Runner chats with a Bot over line-oriented IO, for local testing of a vocabulary.
//
// Each line is one event. A number within the range of the last rendered
// choices presses that choice (counting from 1), "/location LAT LON" shares
// a location, "exit" or "quit" ends the session, anything else is text.
type Runner struct {
	Input          io.Reader
	Output         io.Writer
	ConversationID string
	Headless       bool
	Renderer       ContentRenderer
}

// ContentRenderer transforms prompt text before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for the "console" conversation.
// Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{ConversationID: "console"}
}

// Run starts a fresh conversation and loops until the input ends or the user quits.
func (r *Runner) Run(ctx context.Context, bot *Bot) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	id := r.ConversationID
	if id == "" {
		id = "console"
	}
	lines := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- colloquy %s (%s) ---\n", Version, bot.Name)
	}

	// Every run starts a new conversation at the default node.
	if err := bot.Reset(ctx, id); err != nil {
		return fmt.Errorf("failed to reset conversation: %w", err)
	}
	res, err := bot.HandleEvent(ctx, domain.Event{ConversationID: id, Kind: domain.KindText})
	if err != nil {
		return fmt.Errorf("turn error: %w", err)
	}
	choices := r.print(res)

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && text != "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		res, err := bot.HandleEvent(ctx, parseInput(id, input, choices))
		if err != nil {
			return fmt.Errorf("turn error: %w", err)
		}
		choices = r.print(res)
	}
}

// print writes the turn's messages and returns the choices of the last one.
func (r *Runner) print(res *TurnResult) []domain.Choice {
	var last []domain.Choice
	for _, req := range res.Renders {
		text := req.Text
		if r.Renderer != nil {
			if rendered, err := r.Renderer(text); err == nil {
				text = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(text))
		if req.Photo != "" {
			fmt.Fprintf(r.Output, "[photo] %s\n", req.Photo)
		}
		for i, c := range req.Choices {
			if c.External {
				fmt.Fprintf(r.Output, "  %d) %s <%s>\n", i+1, c.DisplayName, c.Target)
			} else {
				fmt.Fprintf(r.Output, "  %d) %s\n", i+1, c.DisplayName)
			}
		}
		last = req.Choices
	}
	return last
}

func parseInput(id, input string, choices []domain.Choice) domain.Event {
	ev := domain.Event{ConversationID: id, Kind: domain.KindText, Text: input}

	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(choices) {
		if idx, err := strconv.Atoi(choices[n-1].Target); err == nil && !choices[n-1].External {
			ev.Choice = &idx
			ev.Text = ""
		}
		return ev
	}

	if rest, ok := strings.CutPrefix(input, "/location"); ok {
		fields := strings.Fields(strings.ReplaceAll(rest, ",", " "))
		if len(fields) == 2 {
			lat, errLat := strconv.ParseFloat(fields[0], 64)
			lon, errLon := strconv.ParseFloat(fields[1], 64)
			if errLat == nil && errLon == nil {
				ev.Kind = domain.KindLocation
				ev.Text = ""
				ev.Location = &domain.Location{Latitude: lat, Longitude: lon}
			}
		}
	}
	return ev
}
