package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
	"github.com/tartampluch/go-laget/internal/pipeline"
	"github.com/tartampluch/go-laget/internal/server"
)

// main delegates to runMain so deferred cleanup (log file close) runs before
// the process terminates; os.Exit does not run defers.
func main() {
	os.Exit(runMain())
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath      string
	output          string
	email           string
	password        string
	once            bool
	includePractice bool
}

// runMain manages the application lifecycle, argument parsing and exit codes.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)

	var flags cliFlags
	flag.StringVar(&flags.configPath, config.FlagConfig, "", config.FlagDescConfig)
	flag.StringVar(&flags.output, config.FlagOutput, "", config.FlagDescOutput)
	flag.StringVar(&flags.email, config.FlagEmail, "", config.FlagDescEmail)
	flag.StringVar(&flags.password, config.FlagPassword, "", config.FlagDescPassword)
	flag.BoolVar(&flags.once, config.FlagOnce, false, config.FlagDescOnce)
	flag.BoolVar(&flags.includePractice, config.FlagIncludePractice, false, config.FlagDescIncludePractice)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, flags); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run loads settings, wires the pipeline and executes either a single pass
// or the scheduled daemon with the calendar feed server.
func run(ctx context.Context, flags cliFlags) error {
	settingsPath := flags.configPath
	if settingsPath == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return err
		}
		settingsPath = p
	}

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	if flags.output != "" {
		settings.Output = flags.output
	}
	if flags.includePractice {
		settings.IncludePractice = true
	}

	email, password, err := settings.ResolveCredentials(flags.email, flags.password)
	if err != nil {
		return err
	}

	pipe, err := pipeline.New(settings, email, password, engine.RealClock{})
	if err != nil {
		return err
	}

	if flags.once || settings.Refresh == "" {
		_, err := pipe.Run(ctx)
		return err
	}
	return runDaemon(ctx, settings, pipe)
}

// runDaemon runs the pipeline on a cron schedule and serves the latest
// snapshot over HTTP until the context is cancelled.
func runDaemon(ctx context.Context, settings *config.Settings, pipe *pipeline.Pipeline) error {
	feed := server.NewFeedServer(settings.Listen, engine.RealClock{})
	pipe.Feed = feed

	runOnce := func() {
		slog.Info(config.MsgPipelineRun, config.LogKeyComponent, config.CompScheduler)
		if _, err := pipe.Run(ctx); err != nil {
			slog.Error(config.ErrAppFailed,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyError, err,
			)
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(settings.Refresh, runOnce); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSchedulerSpec, err)
	}

	// Prime the feed before the first scheduled tick.
	runOnce()

	scheduler.Start()
	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyCron, settings.Refresh,
	)
	defer func() {
		slog.Info(config.MsgSchedulerStop, config.LogKeyComponent, config.CompScheduler)
		<-scheduler.Stop().Done()
	}()

	return feed.Start(ctx)
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger: JSON to stdout, plus a
// best-effort file in the user cache directory.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}
	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return filepath.Join(appDir, config.LogFileName), nil
}
