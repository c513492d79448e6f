package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sweeney/headlamp/internal/config"
	"github.com/sweeney/headlamp/internal/gpio"
)

func printState(cfg config.Config, w io.Writer) error {
	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return err
	}
	defer chip.Close()

	button, err := chip.Input(cfg.Pins.Button)
	if err != nil {
		return err
	}
	defer button.Close()

	return writeButtonState(button, cfg.Pins.Button, w)
}

func writeButtonState(r gpio.Reader, pin int, w io.Writer) error {
	high, err := r.Read()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	fmt.Fprintf(w, "button (line %d): %s\n", pin, buttonString(high))
	return nil
}

func buttonString(high bool) string {
	if high {
		return color.GreenString("released") + " (HIGH)"
	}
	return color.New(color.Bold, color.FgYellow).Sprint("pressed") + " (LOW)"
}
