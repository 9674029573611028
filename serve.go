package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/terminal"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
	tlsmanager "github.com/antibyte/retrobasic/pkg/tls"
	"github.com/antibyte/retrobasic/pkg/virtualfs"
)

var staticDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve BASIC sessions over websocket",
	Long: `Starts the websocket server. Clients obtain a token from /api/session
and connect to /ws; every connection runs its own interpreter.
Programs of signed-in users are stored in the SQLite database from
[Storage] database, guest programs only live as long as the connection.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&staticDir, "static", "", "directory with a web frontend served at /")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := virtualfs.InitDB(configuration.GetString("Storage", "database", "retrobasic.db"))
	if err != nil {
		logger.Error(logger.AreaDatabase, "Database initialization failed: %v", err)
		return err
	}
	defer db.Close()
	vfs := virtualfs.New(db)
	logger.Info(logger.AreaFileSystem, "Virtual filesystem initialized")

	banner, err := shared.NewBannerManager(configuration.GetString("Network", "banner_file", ""))
	if err != nil {
		return err
	}

	tlsManager, err := tlsmanager.NewTLSManager()
	if err != nil {
		logger.Error(logger.AreaSecurity, "TLS manager initialization failed: %v", err)
		return err
	}

	handler := terminal.NewTerminalHandler(vfs, tinybasic.LoadOptions(), banner)
	mux := http.NewServeMux()
	auth.NewHandler(auth.LoadSettings()).Register(mux)
	mux.HandleFunc("/ws", auth.RequireToken(handler.HandleWebSocket))
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler.StartPeriodicCleanup(ctx)

	logger.Info(logger.AreaGeneral, "serving on %s (TLS %v)", tlsManager.ListenAddress(), tlsManager.IsEnabled())
	serveErr := tlsManager.Serve(ctx, mux)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		logger.Warn(logger.AreaTerminal, "sessions still running at shutdown: %v", err)
	}
	logger.Info(logger.AreaGeneral, "server stopped")
	return serveErr
}
