package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Blade banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"  ____  _           _      ", "#38bdf8"},
		{" | __ )| | __ _  __| | ___ ", "#22d3ee"},
		{" |  _ \\| |/ _` |/ _` |/ _ \\", "#2dd4bf"},
		{" | |_) | | (_| | (_| |  __/", "#34d399"},
		{" |____/|_|\\__,_|\\__,_|\\___|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
