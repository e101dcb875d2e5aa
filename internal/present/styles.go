package present

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles shared by every command.
type Styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Link         lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	SHA1         lipgloss.Style
	Timeago      lipgloss.Style
	Speaker      lipgloss.Style
	User         lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style
}

// MakeStyles builds Styles bound to r.
func MakeStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		AppName:      r.NewStyle().Bold(true),
		CliArgs:      r.NewStyle().Foreground(lipgloss.Color("#585858")),
		Comment:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"}),
		ErrorHeader:  r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR"),
		ErrorDetails: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"}),
		ErrPadding:   r.NewStyle().Padding(0, 1),
		Flag:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true),
		FlagComma:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(","),
		FlagDesc:     r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"}),
		InlineCode:   r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1),
		Link:         r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Underline(true),
		Pipe:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"}),
		Quote:        r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"}),
		SHA1:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A1A1A1", Dark: "#6C6C6C"}),
		Timeago:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999", Dark: "#555"}),
		Speaker:      r.NewStyle().Foreground(lipgloss.Color("#6C50FF")).Bold(true),
		User:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true),
		Success:      r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Bold(true),
		Failure:      r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
	}
}
