package cmd

import (
	"github.com/spf13/cobra"

	"storyboard/internal/app"
	"storyboard/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storyboard HTTP API",
	Long: `Serve the board over HTTP for a browser front end. The page selects the
Gemini API key through /api/credentials when none is configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx, app.SurfaceHTTP)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.EnsureCredential(ctx); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = svc.Config().Server.Addr
	}

	srv := server.New(ctx, server.Options{
		Board:          svc.Board(),
		Keys:           svc.Keys(),
		Pending:        svc.Pending(),
		Export:         svc.ExportBoard,
		Metrics:        svc.Metrics().Handler(),
		AllowedOrigins: svc.Config().Server.AllowedOrigins,
	})
	return srv.Run(ctx, addr)
}
