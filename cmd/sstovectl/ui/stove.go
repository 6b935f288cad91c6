// Package ui renders the admin CLI's forms and output.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/redmonkez12/sstove-api/internal/stove"
)

const (
	maxSerialLength = 32
	maxNameLength   = 50
)

// ValidateSerial mirrors the API's serial id rules so the form rejects
// input before it reaches the database.
func ValidateSerial(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return fmt.Errorf("serial id is required")
	case utf8.RuneCountInString(s) > maxSerialLength:
		return fmt.Errorf("serial id must be at most %d characters", maxSerialLength)
	}
	return nil
}

func ValidateName(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	return nil
}

// RunStoveForm asks for the fields of a new stove. Values already set are
// shown as defaults.
func RunStoveForm(in *stove.ProvisionInput) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Serial id").
				Description("Printed on the stove, users type it to join").
				Placeholder("ABC123").
				Value(&in.SerialID).
				Validate(ValidateSerial),

			huh.NewInput().
				Title("Name").
				Description("Optional label").
				Placeholder("Kitchen").
				Value(&in.Name).
				Validate(ValidateName),
		),
	).WithTheme(huh.ThemeCatppuccin())

	return form.Run()
}

// StoveTable renders stoves as a table.
func StoveTable(stoves []stove.Stove) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers("ID", "SERIAL", "NAME", "CLAIMED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, s := range stoves {
		claimed := "no"
		if s.ClaimedAt != nil {
			claimed = s.ClaimedAt.Format("2006-01-02 15:04")
		}
		t.Row(strconv.FormatInt(s.ID, 10), s.SerialID, s.Name, claimed)
	}
	return t.Render()
}

func PrintStoves(w io.Writer, stoves []stove.Stove) {
	fmt.Fprintln(w, titleStyle.Render("Stoves"))
	if len(stoves) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("  no stoves provisioned"))
		return
	}
	fmt.Fprintln(w, StoveTable(stoves))
}

func PrintProvisioned(w io.Writer, s *stove.Stove) {
	fmt.Fprintln(w, successStyle.Render("Stove provisioned!"))
	fmt.Fprintf(w, "  ID:     %d\n", s.ID)
	fmt.Fprintf(w, "  Serial: %s\n", s.SerialID)
	if s.Name != "" {
		fmt.Fprintf(w, "  Name:   %s\n", s.Name)
	}
}

func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}
