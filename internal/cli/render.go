package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ignite/internal/employee"
	"ignite/internal/flash"
)

var (
	colorAccent = lipgloss.Color("#EA580C")
	colorMuted  = lipgloss.Color("#7B8794")
	colorOK     = lipgloss.Color("#16A34A")
	colorError  = lipgloss.Color("#DC2626")
)

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Key     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorOK),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
	Cell:    lipgloss.NewStyle().Padding(0, 1),
	Key:     lipgloss.NewStyle().Bold(true).Padding(0, 1),
}

func renderNote(m flash.Message) string {
	if m.Level == flash.LevelError {
		return styles.Error.Render("✗ " + m.Text)
	}
	return styles.Success.Render("✓ " + m.Text)
}

func formatCreated(s string) string {
	t, ok := employee.ParseTimestamp(s)
	if !ok {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// recordTable renders one row per record.
func recordTable(recs []employee.Record) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ID, r.FullName(), r.Email, r.PhoneNumber, r.Gender.Label(), formatCreated(r.CreatedAt),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("ID", "NAME", "EMAIL", "PHONE", "GENDER", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		}).
		String()
}

// recordDetail renders a record as a two column key/value table.
func recordDetail(r employee.Record) string {
	picture := r.ProfilePicture
	if picture == "" {
		picture = "-"
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Rows(
			[]string{"ID", r.ID},
			[]string{"First name", r.FirstName},
			[]string{"Last name", r.LastName},
			[]string{"Email", r.Email},
			[]string{"Phone", r.PhoneNumber},
			[]string{"Gender", r.Gender.Label()},
			[]string{"Picture", picture},
			[]string{"Created", formatCreated(r.CreatedAt)},
		).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return styles.Key
			}
			return styles.Cell
		}).
		String()
}
