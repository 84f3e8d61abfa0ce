package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette used to print journal listings.
type Theme struct {
	Name string

	Current   lipgloss.Color // the entry being displayed
	Entry     lipgloss.Color // back and forward entries
	Dim       lipgloss.Color // ids, hidden entries, timestamps
	Heading   lipgloss.Color
	LinkIndex lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
}

var themes = map[string]Theme{
	"default":   Default,
	"gruvbox":   Gruvbox,
	"nord":      Nord,
	"dracula":   Dracula,
	"mono":      Mono,
	"solarized": Solarized,
}

var Default = Theme{
	Name:      "default",
	Current:   lipgloss.Color("#F59E0B"),
	Entry:     lipgloss.Color("#38BDF8"),
	Dim:       lipgloss.Color("#64748B"),
	Heading:   lipgloss.Color("#A78BFA"),
	LinkIndex: lipgloss.Color("#F59E0B"),
	Error:     lipgloss.Color("#EF4444"),
	Success:   lipgloss.Color("#22C55E"),
}

var Gruvbox = Theme{
	Name:      "gruvbox",
	Current:   lipgloss.Color("#D79921"),
	Entry:     lipgloss.Color("#83A598"),
	Dim:       lipgloss.Color("#928374"),
	Heading:   lipgloss.Color("#FB4934"),
	LinkIndex: lipgloss.Color("#FABD2F"),
	Error:     lipgloss.Color("#FB4934"),
	Success:   lipgloss.Color("#B8BB26"),
}

var Nord = Theme{
	Name:      "nord",
	Current:   lipgloss.Color("#EBCB8B"),
	Entry:     lipgloss.Color("#88C0D0"),
	Dim:       lipgloss.Color("#4C566A"),
	Heading:   lipgloss.Color("#81A1C1"),
	LinkIndex: lipgloss.Color("#EBCB8B"),
	Error:     lipgloss.Color("#BF616A"),
	Success:   lipgloss.Color("#A3BE8C"),
}

var Dracula = Theme{
	Name:      "dracula",
	Current:   lipgloss.Color("#F1FA8C"),
	Entry:     lipgloss.Color("#8BE9FD"),
	Dim:       lipgloss.Color("#6272A4"),
	Heading:   lipgloss.Color("#FF79C6"),
	LinkIndex: lipgloss.Color("#F1FA8C"),
	Error:     lipgloss.Color("#FF5555"),
	Success:   lipgloss.Color("#50FA7B"),
}

var Solarized = Theme{
	Name:      "solarized",
	Current:   lipgloss.Color("#B58900"),
	Entry:     lipgloss.Color("#268BD2"),
	Dim:       lipgloss.Color("#586E75"),
	Heading:   lipgloss.Color("#CB4B16"),
	LinkIndex: lipgloss.Color("#B58900"),
	Error:     lipgloss.Color("#DC322F"),
	Success:   lipgloss.Color("#859900"),
}

// Mono disables colors, for pipes and tests.
var Mono = Theme{Name: "mono"}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns all available theme names in sorted order.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Style returns a foreground style for c. An empty color leaves text plain.
func Style(c lipgloss.Color) lipgloss.Style {
	if c == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}
