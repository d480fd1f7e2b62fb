package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyboard/internal/app"
)

var exportsPrefix string

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List exported storyboard files",
	Args:  cobra.NoArgs,
	RunE:  runExports,
}

func init() {
	exportsCmd.Flags().StringVar(&exportsPrefix, "prefix", "", "Only list files under this session prefix")
	rootCmd.AddCommand(exportsCmd)
}

func runExports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx, app.SurfaceTerminal)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	files, err := svc.Exporter().Sessions(ctx, exportsPrefix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println(labelStyle.Render("No exports yet"))
		return nil
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
