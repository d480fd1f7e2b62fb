package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"storyboard/internal/app"
	"storyboard/internal/shot"
	"storyboard/internal/storyboard"
)

const (
	actionAll    = "all"
	actionExport = "export"
	actionNew    = "new"
	actionQuit   = "quit"
	shotPrefix   = "shot:"
)

var studioScript string

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Interactive storyboard session",
	Long: `Enter a script, review the shot list, and render frames one by one or all
at once. Failed frames can be retried.`,
	Args: cobra.NoArgs,
	RunE: runStudio,
}

func init() {
	studioCmd.Flags().StringVarP(&studioScript, "script", "s", "", "Start with the script in this file")
	rootCmd.AddCommand(studioCmd)
}

func runStudio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx, app.SurfaceTerminal)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	fmt.Println(titleStyle.Render("🎬 Storyboard Studio"))

	if err := svc.EnsureCredential(ctx); err != nil {
		return err
	}

	var script string
	if studioScript != "" {
		if script, err = readScript(studioScript); err != nil {
			return err
		}
	}

	board := svc.Board()
	for {
		if script == "" {
			if script, err = askScript(ctx); err != nil {
				return quietAbort(err)
			}
		}
		if strings.TrimSpace(script) == "" {
			fmt.Println(warnStyle.Render("Script is empty"))
			script = ""
			continue
		}

		err := runWithSpinner("Analyzing script", func() error {
			return board.Analyze(ctx, script)
		})
		if msg := analyzeErrorMessage(err); msg != "" {
			fmt.Println(errorStyle.Render("✗ " + msg))
		}
		script = ""

		next, err := studioLoop(ctx, svc)
		if err != nil {
			return quietAbort(err)
		}
		if next == actionQuit {
			return nil
		}
	}
}

// studioLoop works on the current shot list until the user asks for a new
// script or quits.
func studioLoop(ctx context.Context, svc *app.Service) (string, error) {
	board := svc.Board()
	for {
		state := board.Snapshot()
		if state.Error != "" {
			fmt.Println(errorStyle.Render(state.Error))
		}
		printShots(state.Shots)

		choice, err := askAction(ctx, state.Shots)
		if err != nil {
			return "", err
		}

		switch {
		case choice == actionNew, choice == actionQuit:
			return choice, nil

		case choice == actionAll:
			err := runWithSpinner("Rendering pending shots", func() error {
				return board.RenderAll(ctx)
			})
			if err != nil {
				fmt.Println(warnStyle.Render(err.Error()))
			}
			resolveCredentialRequest(ctx, svc)

		case choice == actionExport:
			name, err := askExportName(ctx)
			if err != nil {
				return "", err
			}
			result, err := svc.ExportBoard(ctx, name)
			if err != nil {
				fmt.Println(errorStyle.Render("✗ " + err.Error()))
				continue
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %d frames to %s", len(result.Images), result.Session)))

		case strings.HasPrefix(choice, shotPrefix):
			index, _ := strconv.Atoi(strings.TrimPrefix(choice, shotPrefix))
			err := runWithSpinner(fmt.Sprintf("Rendering shot %d", index+1), func() error {
				return board.Render(ctx, index)
			})
			var rerr *storyboard.RenderError
			if err != nil && !errors.As(err, &rerr) {
				fmt.Println(warnStyle.Render(err.Error()))
			}
			resolveCredentialRequest(ctx, svc)
		}
	}
}

func askScript(ctx context.Context) (string, error) {
	var script string
	input := huh.NewText().
		Title("Script").
		Description("Paste a film or ad script. Scene headings help, e.g. INT. ROOM - DAY").
		CharLimit(0).
		Lines(12).
		Value(&script)
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return script, nil
}

func askAction(ctx context.Context, shots []shot.RenderedShot) (string, error) {
	options := make([]huh.Option[string], 0, len(shots)+4)
	for i, rs := range shots {
		options = append(options, huh.NewOption(actionLabel(rs), shotPrefix+strconv.Itoa(i)))
	}
	if countPending(shots) > 0 {
		options = append(options, huh.NewOption("Render all pending shots", actionAll))
	}
	if countStatus(shots, shot.StatusRendered) > 0 {
		options = append(options, huh.NewOption("Export frames", actionExport))
	}
	options = append(options,
		huh.NewOption("New script", actionNew),
		huh.NewOption("Quit", actionQuit),
	)

	var choice string
	sel := huh.NewSelect[string]().
		Title("What next?").
		Options(options...).
		Value(&choice)
	if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return choice, nil
}

func askExportName(ctx context.Context) (string, error) {
	var name string
	input := huh.NewInput().
		Title("Export name").
		Placeholder("storyboard").
		Value(&name)
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return name, nil
}

func actionLabel(rs shot.RenderedShot) string {
	switch rs.Status() {
	case shot.StatusFailed:
		return fmt.Sprintf("Retry shot %d", rs.ShotNumber)
	case shot.StatusRendered:
		return fmt.Sprintf("Re-render shot %d", rs.ShotNumber)
	default:
		return fmt.Sprintf("Render shot %d", rs.ShotNumber)
	}
}

func countPending(shots []shot.RenderedShot) int {
	n := 0
	for _, rs := range shots {
		if rs.Pending() {
			n++
		}
	}
	return n
}

// analyzeErrorMessage returns what to print for an Analyze error. A failed
// analysis is stored on the board and shown with the shot list instead.
func analyzeErrorMessage(err error) string {
	var aerr *storyboard.ScriptAnalysisError
	if err == nil || errors.As(err, &aerr) {
		return ""
	}
	return err.Error()
}

// quietAbort turns a dismissed form into a clean exit.
func quietAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
