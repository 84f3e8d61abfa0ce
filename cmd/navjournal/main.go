package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/vidyasagar/navjournal/internal/app"
	"github.com/vidyasagar/navjournal/internal/logging"
	"github.com/vidyasagar/navjournal/internal/storage"
	"github.com/vidyasagar/navjournal/internal/theme"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		configPath  string
		dataDir     string
		session     string
		themeName   string
		logLevel    string
		debug       bool
		plain       bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "config file (default: user config dir)")
	flag.StringVar(&dataDir, "data", "", "data directory for the travel log and history")
	flag.StringVar(&session, "session", "", "travel log session to restore and save")
	flag.StringVar(&themeName, "theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.BoolVar(&debug, "debug", false, "human-readable debug logging")
	flag.BoolVar(&plain, "plain", false, "line-oriented shell instead of the full-screen interface")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "navjournal - a terminal browser with a back/forward journal\n\n")
		fmt.Fprintf(os.Stderr, "Usage: navjournal [flags] [url]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  navjournal                       # restore the default session\n")
		fmt.Fprintf(os.Stderr, "  navjournal https://example.com   # open a URL\n")
		fmt.Fprintf(os.Stderr, "  navjournal --session work        # use a separate travel log\n")
		fmt.Fprintf(os.Stderr, "  echo 'open go.dev' | navjournal --plain\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("navjournal %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if session != "" {
		cfg.Session = session
	}
	if themeName == "" {
		themeName = cfg.Theme
	}
	if !theme.Set(themeName) {
		fmt.Fprintf(os.Stderr, "Unknown theme: %s\nAvailable: %s\n", themeName, strings.Join(theme.List(), ", "))
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	if dataDir == "" {
		if dataDir, err = storage.DataDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: locating data directory: %v\n", err)
			os.Exit(1)
		}
	}

	// The full-screen interface owns the terminal, so it logs to a file and
	// keeps running without logs if the file cannot be opened.
	var logger *zap.Logger
	if plain {
		if logger, err = logging.New(logCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		logCfg.OutputPaths = []string{filepath.Join(dataDir, "navjournal.log")}
		logger = logging.NewOrNop(logCfg)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := app.Open(ctx, app.Options{
		Config:  cfg,
		DataDir: dataDir,
		Logger:  logger,
		Width:   80,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	startURL := flag.Arg(0)
	if startURL == "" {
		startURL = cfg.Homepage
	}
	if plain {
		err = runPlain(ctx, s, startURL)
	} else {
		_, err = tea.NewProgram(app.NewModel(s, startURL),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(ctx),
		).Run()
	}
	if cerr := s.Close(); cerr != nil {
		logger.Warn("closing session", zap.Error(cerr))
	}
	if ctx.Err() != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		err = nil
	}
	if err != nil {
		logger.Error("session ended with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*storage.Config, error) {
	if path != "" {
		return storage.LoadConfigFrom(path)
	}
	return storage.LoadConfig()
}

// runPlain reads one command per line from stdin, for scripts and dumb
// terminals.
func runPlain(ctx context.Context, s *app.Session, startURL string) error {
	if startURL != "" {
		exec(s, "open "+startURL)
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("navjournal> ")
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := exec(s, in.Text()); quit {
			return nil
		}
	}
}

// exec runs one command, printing its output. It reports whether the
// shell should exit.
func exec(s *app.Session, line string) bool {
	out, err := s.Exec(line)
	switch {
	case errors.Is(err, app.ErrQuit):
		return true
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	case out != "":
		fmt.Println(out)
	}
	return false
}
