package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storyboard/internal/app"
	"storyboard/internal/shot"
	"storyboard/pkg/config"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Break a script into a shot list",
	Long:  `Analyze a script (from a file, or stdin when no file or "-" is given) and print its shot list.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the shot list as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	if svc.Config().Analysis.Provider == config.ProviderGemini {
		if err := svc.EnsureCredential(ctx); err != nil {
			return err
		}
	}

	board := svc.Board()
	analyze := func() error { return board.Analyze(ctx, script) }

	if analyzeJSON {
		if err := analyze(); err != nil {
			return err
		}
		return writeShotsJSON(cmd.OutOrStdout(), board.Snapshot().Shots)
	}

	if err := runWithSpinner("Analyzing script", analyze); err != nil {
		return err
	}

	shots := board.Snapshot().Shots

	if len(shots) == 0 {
		fmt.Println(warnStyle.Render("Script is empty, nothing to analyze"))
		return nil
	}
	printShots(shots)
	return nil
}

// writeShotsJSON writes the bare shot array, without render state.
func writeShotsJSON(w io.Writer, shots []shot.RenderedShot) error {
	plain := make([]shot.Shot, len(shots))
	for i, rs := range shots {
		plain[i] = rs.Shot
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plain)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
