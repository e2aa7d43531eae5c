package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the colloquy banner, coloured when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"            _ _                       ", "#818cf8"},
		{"   ___ ___ | | | ___   __ _ _   _ _   _ ", "#a78bfa"},
		{"  / __/ _ \\| | |/ _ \\ / _` | | | | | | |", "#c084fc"},
		{" | (_| (_) | | | (_) | (_| | |_| | |_| |", "#e879f9"},
		{"  \\___\\___/|_|_|\\___/ \\__, |\\__,_|\\__, |", "#f472b6"},
		{"                         |_|      |___/ ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
