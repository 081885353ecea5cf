package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/config"
	"github.com/on-the-ground/collatz_ive_go/effects"
	"github.com/on-the-ground/collatz_ive_go/effects/concurrency"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
	"github.com/on-the-ground/collatz_ive_go/memo"
	"github.com/on-the-ground/collatz_ive_go/present"
	"github.com/on-the-ground/collatz_ive_go/session"
)

const usage = `commands: h = histogram, o = toggle output, p = progress, q = quit`

func main() {
	cfg, opts, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := log.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()
	effects.SetRuntimeLogger(logger.Named("effects"))

	ctx, endOfLog := log.WithZapEffectHandler(context.Background(), cfg.Log.BufferSize, logger)
	defer endOfLog()
	ctx, endOfConfig := config.WithEffectHandler(ctx, cfg)
	defer endOfConfig()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.LogEff(ctx, log.LogError, "collatz exited with error", map[string]interface{}{"error": err})
		endOfConfig()
		endOfLog()
		os.Exit(1)
	}
}

// runOptions are the one-shot flags that are not part of the persisted config.
type runOptions struct {
	histogramOnly bool
	start         collatz.Number // zero keeps the persisted cursor
}

// loadConfig layers defaults, the optional YAML file and the flags that were set.
func loadConfig(args []string) (config.Config, runOptions, error) {
	fs := flag.NewFlagSet("collatz", flag.ContinueOnError)
	var (
		configPath   = fs.String("config", "", "YAML config file")
		memoPath     = fs.String("memo", "", "memo snapshot file")
		cursorPath   = fs.String("cursor", "", "cursor file")
		backend      = fs.String("backend", "", "memo backend: map or memdb")
		cacheSize    = fs.Int64("cache-size", 0, "read cache cost budget, 0 disables")
		persistEvery = fs.Int64("persist-every", 0, "persist the memo every N steps")
		interval     = fs.Duration("interval", 0, "tick interval")
		maxSteps     = fs.Int64("max-steps", 0, "stop after N steps, 0 runs until interrupted")
		showOutput   = fs.Bool("show-output", false, "render each sequence")
		noColor      = fs.Bool("no-color", false, "disable ANSI colours")
		logLevel     = fs.String("log-level", "", "debug, info, warn or error")
		histogram    = fs.Bool("histogram", false, "print the length histogram and exit")
		start        = fs.String("start", "", "move the cursor to this start, any size")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, runOptions{}, err
	}
	opts := runOptions{histogramOnly: *histogram}
	if *start != "" {
		n, err := collatz.ParseStart(*start)
		if err != nil {
			return config.Config{}, opts, err
		}
		opts.start = n
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return cfg, opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "memo":
			cfg.Memo.Path = *memoPath
		case "cursor":
			cfg.Cursor.Path = *cursorPath
		case "backend":
			cfg.Memo.Backend = *backend
		case "cache-size":
			cfg.Memo.CacheSize = *cacheSize
		case "persist-every":
			cfg.Memo.PersistEvery = *persistEvery
		case "interval":
			cfg.Session.TickInterval = *interval
		case "max-steps":
			cfg.Session.MaxSteps = *maxSteps
		case "show-output":
			cfg.Display.ShowOutput = *showOutput
		case "no-color":
			cfg.Display.Color = !*noColor
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	return cfg, opts, cfg.Validate()
}

func run(ctx context.Context, opts runOptions, in io.Reader, out io.Writer) error {
	cfg, err := config.Resolve(ctx)
	if err != nil {
		return err
	}

	repo, err := memo.OpenRepo(cfg.Memo.Backend, cfg.Memo.CacheSize)
	if err != nil {
		return err
	}
	store := memo.NewStore(repo, cfg.Memo.Path, cfg.Cursor.Path)
	defer store.Close()

	report := store.Load(ctx)
	log.LogEff(ctx, log.LogInfo, "state loaded", map[string]interface{}{
		"entries":     report.Entries,
		"cursor":      report.Cursor.String(),
		"fresh":       report.Fresh(),
		"fingerprint": fmt.Sprintf("%016x", report.Fingerprint),
	})

	if opts.start.Sign() > 0 {
		if err := store.PersistCursor(ctx, opts.start); err != nil {
			return err
		}
	}

	sess, err := session.New(store, session.Collaborators{
		Display:  present.NewTerminal(out, cfg.Display.Color),
		Chart:    present.NewHistogram(out, cfg.Display.HistogramBins),
		Progress: present.NewProgressLine(out, cfg.Display.ProgressEvery),
	}, session.Options{
		MemoEvery:  cfg.Memo.PersistEvery,
		MaxSteps:   cfg.Session.MaxSteps,
		ShowOutput: cfg.Display.ShowOutput,
	})
	if err != nil {
		return err
	}

	if opts.histogramOnly {
		return sess.Histogram(ctx)
	}

	runErr := runInteractive(ctx, sess, cfg.Session.TickInterval, in, out)
	closeErr := sess.Close(ctx)
	return errors.Join(runErr, closeErr)
}

// runInteractive ticks the session and serves stdin commands until a signal,
// 'q', end of input with MaxSteps reached, or a failing step.
func runInteractive(ctx context.Context, sess *session.Session, interval time.Duration, in io.Reader, out io.Writer) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	superCtx, endOfConcurrency := concurrency.WithEffectHandler(runCtx, 2)

	// Scanning blocks outside of ctx control, so it stays unsupervised.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	runErr := make(chan error, 1)
	fmt.Fprintln(out, usage)
	concurrency.Effect(superCtx,
		func(ctx context.Context) {
			defer cancel()
			runErr <- sess.Run(ctx, interval)
		},
		func(ctx context.Context) {
			serveCommands(ctx, sess, lines, out, cancel)
		},
	)

	<-runCtx.Done()
	endOfConcurrency()

	select {
	case err := <-runErr:
		return err
	default:
		return nil
	}
}

func serveCommands(ctx context.Context, sess *session.Session, lines <-chan string, out io.Writer, quit func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch strings.TrimSpace(line) {
			case "h":
				if err := sess.Histogram(ctx); err != nil {
					log.LogEff(ctx, log.LogWarn, "histogram failed", map[string]interface{}{"error": err})
				}
			case "o":
				if sess.ToggleOutput() {
					fmt.Fprintln(out, "output shown")
				} else {
					fmt.Fprintln(out, "output hidden")
				}
			case "p":
				fmt.Fprintln(out, present.FormatProgress(sess.Progress()))
			case "q":
				quit()
				return
			case "":
			default:
				fmt.Fprintln(out, usage)
			}
		}
	}
}
