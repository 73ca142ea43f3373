package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chatflow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"        _           _    __ _", "#34d399"},
		{"   ___ | |__   __ _| |_ / _| | _____      __", "#2dd4bf"},
		{"  / __|| '_ \\ / _` | __| |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{" | (__ | | | | (_| | |_|  _| | (_) \\ V  V /", "#38bdf8"},
		{"  \\___||_| |_|\\__,_|\\__|_| |_|\\___/ \\_/\\_/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
