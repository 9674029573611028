package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/teletype"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
	"github.com/antibyte/retrobasic/pkg/virtualfs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "retrobasic",
	Short: "RETROBASIC - a line numbered BASIC interpreter",
	Long: `RETROBASIC is a classic line numbered BASIC.

Without a subcommand it starts an interactive session on the terminal.
Programs are kept in the storage configured in [Storage].`,
	SilenceUsage:      true,
	PersistentPreRunE: initialize,
	RunE:              runConsole,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "settings.cfg", "configuration file")
}

func main() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialize loads the configuration before any other package reads it.
func initialize(cmd *cobra.Command, args []string) error {
	if err := configuration.Initialize(cfgFile); err != nil {
		return fmt.Errorf("error initializing configuration: %w", err)
	}
	if err := logger.Initialize(); err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	logger.ConfigInfo("configuration loaded from %s", cfgFile)
	return nil
}

// storage is the program store of a local session.
type storage struct {
	fs    tinybasic.FileSystem
	owner string
	close func()
}

// openStorage opens the backend named in [Storage] backend. The sqlite
// backend files programs under the name of the OS user.
func openStorage() (*storage, error) {
	switch backend := configuration.GetString("Storage", "backend", "disk"); backend {
	case "disk":
		dir := configuration.GetString("Storage", "program_dir", "programs")
		fs, err := virtualfs.NewDiskFS(dir)
		if err != nil {
			return nil, err
		}
		logger.Info(logger.AreaFileSystem, "programs stored in directory %s", dir)
		return &storage{fs: fs, close: func() {}}, nil
	case "sqlite":
		db, err := virtualfs.InitDB(configuration.GetString("Storage", "database", "retrobasic.db"))
		if err != nil {
			return nil, err
		}
		owner := "local"
		if u, err := user.Current(); err == nil && u.Username != "" {
			owner = u.Username
		}
		return &storage{fs: virtualfs.New(db), owner: owner, close: func() { db.Close() }}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// runConsole is the interactive session. Without a terminal, stdin is read
// line by line, which allows piping programs into the interpreter.
func runConsole(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.close()

	var tty tinybasic.Teletype
	width := teletype.DefaultWidth
	if teletype.IsTerminal() {
		console, err := teletype.NewConsole()
		if err != nil {
			return err
		}
		defer console.Close()
		tty, width = console, console.Width()
	} else {
		stream := teletype.NewStream(os.Stdin, os.Stdout)
		stop := notifyBreak(stream.Cancellation())
		defer stop()
		tty = stream
	}

	if banner, err := shared.NewBannerManager(configuration.GetString("Network", "banner_file", "")); err == nil {
		if text, err := banner.Render(shared.BannerData{Username: store.owner, Width: width}); err == nil {
			tty.Write(text)
		}
	} else {
		logger.Warn(logger.AreaTerminal, "banner: %v", err)
	}

	basic := tinybasic.NewTinyBASIC(tty, store.fs, tinybasic.LoadOptions())
	basic.SetOwner(store.owner)
	return basic.Run(context.Background())
}

// notifyBreak raises token on SIGINT until the returned stop is called.
func notifyBreak(token *tinybasic.CancelToken) (stop func()) {
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, os.Interrupt)
	go func() {
		for {
			select {
			case <-signals:
				token.Cancel()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}
