// Package styles provides colour themes and styling for the TUI and the
// coloured CLI output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// Theme defines the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color

	// High, Medium and Low colour the confidence bands.
	High   lipgloss.Color
	Medium lipgloss.Color
	Low    lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Border:     lipgloss.Color("#45475A"),
		High:       lipgloss.Color("#A6E3A1"), // Green
		Medium:     lipgloss.Color("#F9E2AF"), // Yellow
		Low:        lipgloss.Color("#F38BA8"), // Red
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	// Question styles the user's side of the transcript.
	Question lipgloss.Style

	// Citation styles source references under an answer.
	Citation lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),
		Error:   lipgloss.NewStyle().Foreground(theme.Low),
		Success: lipgloss.NewStyle().Foreground(theme.High),
		Warning: lipgloss.NewStyle().Foreground(theme.Medium),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().Foreground(theme.Muted),

		Question: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Citation: lipgloss.NewStyle().Foreground(theme.Muted).PaddingLeft(2),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// BandColour returns the colour for a confidence band.
func (s *Styles) BandColour(band domain.ConfidenceBand) lipgloss.Color {
	switch band {
	case domain.ConfidenceHigh:
		return s.theme.High
	case domain.ConfidenceMedium:
		return s.theme.Medium
	default:
		return s.theme.Low
	}
}

// Badge renders a confidence badge such as " 92% HIGH ".
func (s *Styles) Badge(confidence float64) string {
	band := domain.BandFor(confidence)
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#11111B")).
		Background(s.BandColour(band)).
		Padding(0, 1).
		Render(BadgeText(confidence))
}

// BadgeText is the uncoloured badge label.
func BadgeText(confidence float64) string {
	return fmt.Sprintf("%.0f%% %s", confidence*100, bandLabel(domain.BandFor(confidence)))
}

func bandLabel(band domain.ConfidenceBand) string {
	switch band {
	case domain.ConfidenceHigh:
		return "HIGH"
	case domain.ConfidenceMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
