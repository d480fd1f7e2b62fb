package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storyboard/internal/app"
	"storyboard/internal/shot"
	"storyboard/internal/storyboard"
)

var (
	generateShots    []int
	generateName     string
	generateNoExport bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Analyze a script and render its storyboard",
	Long: `Analyze a script, render a still for every shot one at a time, and export
the frames with a shots.json manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntSliceVar(&generateShots, "shot", nil, "Render only these shots (1-based position, repeatable)")
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Name of the export session")
	generateCmd.Flags().BoolVar(&generateNoExport, "no-export", false, "Skip exporting the frames")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	script, err := readScript(firstArg(args))
	if err != nil {
		return err
	}

	svc, err := loadService(ctx, app.SurfaceTerminal)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.EnsureCredential(ctx); err != nil {
		return err
	}

	board := svc.Board()
	if err := runWithSpinner("Analyzing script", func() error {
		return board.Analyze(ctx, script)
	}); err != nil {
		return err
	}

	total := len(board.Snapshot().Shots)
	if total == 0 {
		fmt.Println(warnStyle.Render("Script is empty, nothing to render"))
		return nil
	}

	if len(generateShots) > 0 {
		for _, n := range generateShots {
			if err := renderOne(cmd, board, n-1); err != nil {
				return err
			}
			resolveCredentialRequest(ctx, svc)
		}
	} else {
		title := fmt.Sprintf("Rendering %d shots", total)
		if err := runWithSpinner(title, func() error {
			return board.RenderAll(ctx)
		}); err != nil {
			return err
		}
		resolveCredentialRequest(ctx, svc)
	}

	shots := board.Snapshot().Shots
	printShots(shots)

	if !generateNoExport {
		result, err := svc.ExportBoard(ctx, generateName)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %d frames to %s", len(result.Images), result.Session)))
	}

	if failed := countStatus(shots, shot.StatusFailed); failed > 0 {
		return fmt.Errorf("%d of %d shots failed to render", failed, len(shots))
	}
	return nil
}

// renderOne reports a failed render on the shot itself, so only usage
// errors are returned.
func renderOne(cmd *cobra.Command, board *storyboard.Board, index int) error {
	title := fmt.Sprintf("Rendering shot %d", index+1)
	err := runWithSpinner(title, func() error {
		return board.Render(cmd.Context(), index)
	})
	var rerr *storyboard.RenderError
	if errors.As(err, &rerr) {
		fmt.Println(errorStyle.Render("✗ " + rerr.Error()))
		return nil
	}
	return err
}

func countStatus(shots []shot.RenderedShot, status shot.Status) int {
	n := 0
	for _, rs := range shots {
		if rs.Status() == status {
			n++
		}
	}
	return n
}
