package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the concierge banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ___                _", "#38bdf8"},
		{"  / __|___ _ _  __ __(_)___ _ _ __ _ ___", "#22d3ee"},
		{" | (__/ _ \\ ' \\/ _/ _| / -_) '_/ _` / -_)", "#2dd4bf"},
		{"  \\___\\___/_||_\\__\\__|_\\___|_| \\__, \\___|", "#34d399"},
		{"                               |___/", "#4ade80"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  travel assistant %s\n\n", version)
}
