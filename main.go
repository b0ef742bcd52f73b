// pwnlate translates the string literals of a Pawn (SA-MP) gamemode
// script, preserving formatting tokens, with a persistent translation cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/samp-tools/pwnlate/cache"
	"github.com/samp-tools/pwnlate/config"
	"github.com/samp-tools/pwnlate/gtrans"
	"github.com/samp-tools/pwnlate/i18n"
	"github.com/samp-tools/pwnlate/mask"
	"github.com/samp-tools/pwnlate/pawnfile"
	"github.com/samp-tools/pwnlate/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

var (
	tagInfo  = color.New(color.FgBlue).Sprint("[INFO]")
	tagOK    = color.New(color.FgGreen).Sprint("[OK]")
	tagWarn  = color.New(color.Bold, color.FgYellow).Sprint("[WARN]")
	tagError = color.New(color.FgRed).Sprint("[ERROR]")
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagOK+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarn+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

var flags struct {
	output     string
	cacheFile  string
	failureLog string
	sourceLang string
	targetLang string
	retries    int
	delaySec   int
	timeoutSec int
	limit      int
	noBackup   bool
	verbose    bool
}

// resolveConfig layers defaults, .pwnlate.yaml, flags, and the positional
// input argument, in that order of precedence (last wins).
func resolveConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	cfg.Merge(&config.Config{
		Output:            flags.output,
		CacheFile:         flags.cacheFile,
		FailureLog:        flags.failureLog,
		SourceLang:        flags.sourceLang,
		TargetLang:        flags.targetLang,
		MaxRetries:        flags.retries,
		RetryDelaySeconds: flags.delaySec,
		TimeoutSeconds:    flags.timeoutSec,
		SessionLimit:      flags.limit,
		NoBackup:          flags.noBackup,
	})
	if len(args) > 0 {
		cfg.Input = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pwnlate",
		Short:         i18n.T("Translate the string literals of a Pawn gamemode script"),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.output, "output", "o", "", "output file (default <input>.translated.pwn)")
	pf.StringVar(&flags.cacheFile, "cache", "", "translation cache file (default per-input file under ~/.cache/pwnlate)")
	pf.StringVar(&flags.failureLog, "failure-log", "", "failed-translations log file")
	pf.StringVar(&flags.sourceLang, "source", "", "source language code (default ru)")
	pf.StringVar(&flags.targetLang, "target", "", "target language code (default en)")
	pf.IntVar(&flags.retries, "retries", 0, "backend attempts per literal (default 5)")
	pf.IntVar(&flags.delaySec, "retry-delay", 0, "base seconds between retries (default 3)")
	pf.IntVar(&flags.timeoutSec, "timeout", 0, "per-request timeout in seconds (default 10)")
	pf.IntVar(&flags.limit, "limit", 0, "max new translations per run (0 = unlimited)")
	pf.BoolVar(&flags.noBackup, "no-backup", false, "do not write <input>.bak before translating")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Translate a script and write the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !cfg.NoBackup {
		if err := pawnfile.Backup(cfg.Input); err != nil {
			logWarning(i18n.T("could not create backup: %v"), err)
		} else if flags.verbose {
			logInfo(i18n.T("backup saved to %s"), cfg.Input+".bak")
		}
	}

	logInfo(i18n.T("Reading %s"), cfg.Input)
	doc, err := pawnfile.Load(cfg.Input)
	if err != nil {
		return err
	}
	logInfo(i18n.N("found %d string literal", "found %d string literals", len(doc.Literals)), len(doc.Literals))

	cachePath, err := cfg.CachePath()
	if err != nil {
		return err
	}
	store, err := cache.Load(cachePath)
	if err != nil {
		return err
	}
	logInfo(i18n.T("cache: %d entries in %s"), store.Len(), store.Path())

	bar := progressbar.NewOptions(len(doc.Literals),
		progressbar.OptionSetDescription(i18n.T("Translating")),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	failLog := translate.NewFailureLog(cfg.FailureLog)
	opts := translate.Options{
		Backend:          gtrans.New(cfg.SourceLang, cfg.TargetLang, cfg.Timeout()),
		Cache:            store,
		FailureLog:       failLog,
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       cfg.RetryDelay(),
		SessionLimit:     cfg.SessionLimit,
		NeedsTranslation: translate.NeedsTranslationFor(cfg.SourceLang),
		OnProgress: func(done, total int) {
			_ = bar.Set(done)
		},
		OnLog: func(format string, args ...any) {
			if flags.verbose {
				_ = bar.Clear()
				logInfo(format, args...)
			}
		},
		OnError: func(format string, args ...any) {
			_ = bar.Clear()
			logWarning(format, args...)
		},
	}

	out, sum, err := translate.RunDocument(ctx, doc, opts)
	_ = bar.Clear()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logWarning(i18n.T("interrupted; already translated strings are cached"))
		}
		return err
	}

	outPath := cfg.OutputPath()
	if err := pawnfile.Save(outPath, out); err != nil {
		return err
	}

	logSuccess(i18n.T("wrote %s"), outPath)
	logInfo("%s", summaryLine(sum))
	if sum.Failed > 0 {
		logWarning(i18n.N("%d literal failed to translate; see %s",
			"%d literals failed to translate; see %s", sum.Failed),
			sum.Failed, failLog.Path())
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Dry run: report what would be translated, without network calls",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	logInfo(i18n.T("Reading %s"), cfg.Input)
	doc, err := pawnfile.Load(cfg.Input)
	if err != nil {
		return err
	}

	cachePath, err := cfg.CachePath()
	if err != nil {
		return err
	}
	store, err := cache.Load(cachePath)
	if err != nil {
		return err
	}

	needs := translate.NeedsTranslationFor(cfg.SourceLang)
	var pending, cached, untranslatable int
	for _, lit := range doc.Literals {
		m := mask.Mask(lit.Text)
		switch {
		case !needs(m.Text):
			untranslatable++
		default:
			if _, ok := store.Get(m.Text); ok {
				cached++
			} else {
				pending++
			}
		}
	}

	logInfo(i18n.T("would translate %d, cached %d, untranslatable %d, total %d"),
		pending, cached, untranslatable, len(doc.Literals))
	return nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [file]",
		Short: "Show cache and failure-log statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	cachePath, err := cfg.CachePath()
	if err != nil {
		return err
	}
	store, err := cache.Load(cachePath)
	if err != nil {
		return err
	}
	logInfo(i18n.T("cache %s: %d entries"), store.Path(), store.Len())

	failures, err := translate.CountFailures(cfg.FailureLog)
	if err != nil {
		return err
	}
	logInfo(i18n.T("failure log %s: %d entries"), cfg.FailureLog, failures)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pwnlate %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// summaryLine renders a run summary for the final log line.
func summaryLine(sum *translate.Summary) string {
	s := fmt.Sprintf("%d literals: %d translated, %d cached, %d skipped",
		sum.Total, sum.Translated, sum.Cached, sum.Skipped)
	if sum.Deferred > 0 {
		s += fmt.Sprintf(", %d deferred", sum.Deferred)
	}
	if sum.Failed > 0 {
		s += fmt.Sprintf(", %d failed", sum.Failed)
	}
	return s
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}
