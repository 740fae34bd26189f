package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/halfgrid/conch/internal/config"
	"github.com/halfgrid/conch/internal/styles"
	"github.com/halfgrid/conch/pkg/commands"
	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/history"
	"github.com/halfgrid/conch/pkg/output"
	"github.com/halfgrid/conch/pkg/overlay"
	"github.com/halfgrid/conch/pkg/script"
)

// BUILD_VERSION is the conch build version, set at build time via
// -ldflags "-X main.BUILD_VERSION=x.y.z".
var BUILD_VERSION = "dev"

var (
	helpFlag    bool
	versionFlag bool
	configFlag  string
	logFlag     string
	historyFlag string
	execFlag    string
)

func init() {
	// Register help flags: -h and -help
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	// Register version flags: -v, -ver, and -version
	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "ver", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	flag.StringVar(&configFlag, "config", "", "load configuration from `file`")
	flag.StringVar(&logFlag, "log", "", "write the compressed debug log to `file`")
	flag.StringVar(&historyFlag, "history", "", "persist command history to the SQLite `file`")
	flag.StringVar(&execFlag, "c", "", "run one console `line` headless and exit")

	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}
	if helpFlag {
		printUsage()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	logger.Info("-------- new conch session --------",
		zap.String("version", BUILD_VERSION),
		zap.Any("args", os.Args))

	err = run(cfg, logger)
	_ = logger.Sync()
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("conch: %v", err)))
	os.Exit(1)
}

// loadConfig reads the configuration file and layers the command line
// overrides on top.
func loadConfig() (config.Config, error) {
	path := configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if logFlag != "" {
		cfg.Log.File = logFlag
	}
	if historyFlag != "" {
		cfg.History.File = historyFlag
	}
	return cfg, nil
}

func run(cfg config.Config, logger *zap.Logger) error {
	hist := history.NewLog(cfg.History.Size)
	if cfg.History.File != "" {
		store, err := history.NewSQLiteStore(cfg.History.File, logger)
		if err != nil {
			logger.Warn("history persistence disabled", zap.Error(err))
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Error closing history store: %v\n", err)
				}
			}()
			store.SetLoadLimit(cfg.History.Size)
			if err := hist.Attach(store); err != nil {
				logger.Warn("failed to load persisted history", zap.Error(err))
			}
		}
	}

	// Headless runs print raw command output, so echo stays off there.
	echo := cfg.Echo && execFlag == ""

	interp := script.New(
		script.WithLogger(logger),
		script.WithTimeout(time.Duration(cfg.Script.Timeout)),
		script.WithQueueSize(cfg.Script.QueueSize),
		script.WithEcho(echo),
	)
	defer interp.Close()

	table := commands.NewTable(
		commands.WithLogger(logger),
		commands.WithTimeout(time.Duration(cfg.Script.Timeout)),
		commands.WithEcho(echo),
	)
	defer table.Close()

	buf := output.NewBuffer(0)

	if err := commands.RegisterBuiltins(table, hist, buf); err != nil {
		return fmt.Errorf("registering builtin commands: %w", err)
	}

	world := newWorld()
	if err := registerWorldCommands(table, world); err != nil {
		return fmt.Errorf("registering world commands: %w", err)
	}

	ctx := context.Background()
	if err := registerWorldModule(ctx, interp, world); err != nil {
		return fmt.Errorf("registering game module: %w", err)
	}
	if err := interp.AddVariable(ctx, "conch_version", BUILD_VERSION, 1); err != nil {
		return fmt.Errorf("registering version variable: %w", err)
	}

	router := newRouter(table, interp)

	if execFlag != "" {
		return runHeadless(router, buf, execFlag)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("standard input is not a terminal (use -c to run a single line)")
	}

	keymap, err := cfg.KeyMap()
	if err != nil {
		return fmt.Errorf("building key map: %w", err)
	}
	input, err := console.New(router, buf,
		console.WithKeyMap(keymap),
		console.WithHistory(hist),
		console.WithLogger(logger),
		console.WithBlinkInterval(time.Duration(cfg.BlinkInterval)),
		console.WithTabText(cfg.TabText),
		console.WithNewlineText(cfg.NewlineText),
	)
	if err != nil {
		return fmt.Errorf("building console input: %w", err)
	}

	ov := overlay.New(input, buf,
		overlay.WithTitle(cfg.Title),
		overlay.WithPrompt(cfg.Prompt),
		overlay.WithToggleKey(cfg.ToggleKey),
		overlay.WithHeightFraction(cfg.HeightFraction),
		overlay.WithHint(router.Hint),
	)

	program := tea.NewProgram(newApp(ov, world, cfg.ToggleKey), tea.WithAltScreen(), tea.WithMouseCellMotion())
	buf.OnChange(func() {
		program.Send(overlay.OutputMsg{})
	})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// runHeadless executes a single console line, waits for both backends
// to drain, and prints whatever reached the scrollback.
func runHeadless(r *router, buf *output.Buffer, line string) error {
	r.Execute(buf, line)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := r.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for %q: %w", line, err)
	}

	for _, l := range buf.Lines() {
		fmt.Println(l)
	}
	return nil
}

func printUsage() {
	// Header
	fmt.Println(styles.NOTICE("Usage:") + " conch [flags]")
	fmt.Println("\nA drop-down developer console with a Lua interpreter and a command table.")
	fmt.Println()

	// Flags
	fmt.Println(styles.NOTICE("Options:"))

	// We want to group aliases like -h and -help together
	// Map to track which flags we've already printed
	printed := make(map[string]bool)

	flag.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		// Identify aliases based on shared usage strings.
		aliases := []string{f.Name}
		flag.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		// Separate short and long flags
		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}

		// Construct the flag string: short flags first, then long flags
		flagStr := ""
		if len(shortFlags) > 0 {
			flagStr = strings.Join(shortFlags, ", ")
		}
		if len(longFlags) > 0 {
			if flagStr != "" {
				flagStr += ", "
			}
			flagStr += strings.Join(longFlags, ", ")
		}

		// Check if the flag takes an argument
		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		fmt.Printf("  %-28s %s\n", flagStr, usage)
	})

	fmt.Println()
	fmt.Println(styles.NOTICE("Console input:"))
	fmt.Printf("  %-28s %s\n", "/<command> [args...]", "Run a registered command (try /help)")
	fmt.Printf("  %-28s %s\n", "<anything else>", "Evaluate as Lua (try game.spawn(\"orc\"))")
	fmt.Println()
	fmt.Println(styles.HINT("Press ` inside the demo to open the console, q to quit."))
}

// newCompressedSink creates a compressed log sink from a zstd:// URL.
// The URL path points at the log file. An existing file that already
// holds valid zstd frames is appended to; anything else is truncated
// so the file never mixes plain and compressed text.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path

	flags := os.O_CREATE | os.O_WRONLY

	fileInfo, err := os.Stat(filePath)
	if err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile checks if a file starts with the zstd magic number.
// Returns false if the file doesn't exist, is empty, or has an invalid
// header.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil || n < 4 {
		return false
	}

	return buf[0] == 0x28 && buf[1] == 0xB5 && buf[2] == 0x2F && buf[3] == 0xFD
}

// compressedSink wraps a zstd encoder to provide compressed log file
// writing. It implements the WriteSyncer interface required by zap's
// custom sinks.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write writes compressed data to the underlying file via the zstd
// encoder. Returns len(p) on success to satisfy the io.Writer
// contract, regardless of how many compressed bytes were written.
func (s *compressedSink) Write(p []byte) (int, error) {
	_, err := s.encoder.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync flushes the encoder buffer and syncs the file to disk.
func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close closes the encoder and then the underlying file. The file is
// always closed, even if the encoder close fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}

// initializeLogger builds the session logger. Without a configured log
// file everything is discarded; with one, entries stream through the
// zstd sink at the configured level. Dev builds always log at debug.
func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), nil
	}

	logLevel, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Log.Level, err)
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	path, err := filepath.Abs(cfg.Log.File)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		"zstd://" + filepath.ToSlash(path),
	}
	return loggerConfig.Build()
}
