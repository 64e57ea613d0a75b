package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var bannerLines = []string{
	" __          __         __",
	" \\ \\        / /        / _|",
	"  \\ \\  /\\  / /_ _ _   _| |_ __ _ _ __ ___ _ __",
	"   \\ \\/  \\/ / _` | | | |  _/ _` | '__/ _ \\ '__|",
	"    \\  /\\  / (_| | |_| | || (_| | | |  __/ |",
	"     \\/  \\/ \\__,_|\\__, |_| \\__,_|_|  \\___|_|",
	"                   __/ |",
	"                  |___/",
}

func printBanner(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	art := r.NewStyle().Foreground(lipgloss.Color("39"))
	tagline := r.NewStyle().Foreground(lipgloss.Color("42"))
	fmt.Fprintln(w, art.Render(strings.Join(bannerLines, "\n")))
	fmt.Fprintln(w, tagline.Render("  Travel information service - Version "+Version))
	fmt.Fprintln(w)
}
