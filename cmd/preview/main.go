package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/preview"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("preview error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	eng := engine.NewEngine(engine.DefaultOptions())
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read scene: %w", err)
		}
		if err := eng.LoadScene(string(data)); err != nil {
			return fmt.Errorf("load scene %s: %w", args[0], err)
		}
		for id, err := range eng.Failures() {
			slog.Warn("shape not built", "shape", id, "error", err)
		}
	} else {
		eng.LoadSampleScene("scene_preview")
	}

	_, err := tea.NewProgram(preview.New(eng), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
