package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"storyboard/internal/app"
	"storyboard/internal/shot"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(78)
)

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

// readScript reads the script from the named file, or stdin for "" and "-".
func readScript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func statusBadge(rs shot.RenderedShot) string {
	switch rs.Status() {
	case shot.StatusRendered:
		return successStyle.Render("● rendered")
	case shot.StatusGenerating:
		return infoStyle.Render("◌ generating")
	case shot.StatusFailed:
		return errorStyle.Render("✗ failed")
	default:
		return labelStyle.Render("○ pending")
	}
}

func shotCard(rs shot.RenderedShot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.UnsetMarginBottom().Render(fmt.Sprintf("Shot %d", rs.ShotNumber)), statusBadge(rs))
	fmt.Fprintf(&b, "%s\n", rs.SceneDescription)
	fmt.Fprintf(&b, "%s %s  %s %s\n",
		labelStyle.Render("angle"), rs.CameraAngle,
		labelStyle.Render("movement"), rs.CameraMovement)
	fmt.Fprintf(&b, "%s %s  %s %s",
		labelStyle.Render("lens"), rs.Lens,
		labelStyle.Render("lighting"), rs.Lighting)
	if rs.Error != "" {
		fmt.Fprintf(&b, "\n%s", errorStyle.Render(rs.Error))
	}
	return cardStyle.Render(b.String())
}

func printShots(shots []shot.RenderedShot) {
	for _, rs := range shots {
		fmt.Println(shotCard(rs))
	}
}

// resolveCredentialRequest opens the key dialog a render asked for once the
// spinner has released the terminal. A dismissed dialog keeps the old key.
func resolveCredentialRequest(ctx context.Context, svc *app.Service) {
	if err := svc.ResolveCredentialRequest(ctx); err != nil {
		fmt.Println(warnStyle.Render("Key not changed: " + err.Error()))
	}
}
