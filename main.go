// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/dchest/uniuri"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
	"gopkg.in/natefinch/lumberjack.v2"

	"crcsum/internal/checksum"
	"crcsum/internal/config"
	"crcsum/internal/monstatus"
	"crcsum/internal/pkg/crc32c"
	"crcsum/internal/pkg/global"
	"crcsum/internal/pkg/sys"
	"crcsum/internal/version"
	"crcsum/internal/web"
)

func main() {
	setupFlagsAndEnvParser()

	if viper.GetBool("version") {
		fmt.Println(version.Print())
		return
	}

	debug := viper.GetBool("debug")
	if debug {
		_, _ = fmt.Fprintln(os.Stderr, "enable debug mode")
	}

	setupLogger()

	cfg := mustParseConfig()

	if sys.IsLinux {
		if _, err := maxprocs.Set(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Failed to set GOMAXPROCS automatically.")
			_, _ = fmt.Fprintln(os.Stderr, "Consider to set env manually if you are running with cgroup.")
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	c := checksum.New(cfg.Checksum)

	area := openStatusArea(cfg.Status.File)

	var code int
	if address := viper.GetString("serve"); address != "" {
		code = serve(c, cfg.Web, area, address, debug)
	} else {
		code = run(c, area, pflag.Args())
	}

	if area != nil {
		publish(c, area)
		if err := area.Detach(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "failed to detach status area:", err)
		}
	}

	os.Exit(code)
}

func setupFlagsAndEnvParser() {
	pflag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [flags] [path ...]\n\n", global.Name)
		_, _ = fmt.Fprintln(os.Stderr, "Print the CRC-32C of files, directories are walked, no path or '-' reads stdin.")
		_, _ = fmt.Fprintln(os.Stderr)
		pflag.PrintDefaults()
	}

	pflag.String("config-file", "", "path to config file")

	pflag.Bool("raw", false, "print the raw crc register instead of the check value")
	pflag.Bool("dupes", false, "print groups of files with identical content")
	pflag.Bool("summary", false, "print totals to stderr when done")
	pflag.Bool("string", false, "checksum the arguments themselves instead of files")

	pflag.String("hardware", "", "use the cpu crc32 instruction: auto, on or off")
	pflag.String("buffer-size", "", "read buffer size, for example 1MiB")
	pflag.String("read-limit", "", "limit read speed, for example 50MiB, bytes per second")
	pflag.Int("workers", 0, "number of files checksummed in parallel")

	pflag.String("serve", "", "serve the http interface on this address instead of checksumming paths")
	pflag.String("web-secret-token", "", "web interface secret token")
	pflag.String("web-root", "", "directory available to GET /v1/checksum?path=")

	pflag.String("status-file", "", "publish counters into this memory mapped status file")

	pflag.Bool("log-json", false, "log as json format")
	pflag.String("log-level", "warn", "log level")
	pflag.String("log-file", "", "also write log to this file, rotated")

	pflag.Bool("debug", false, "enable debug mode")
	pflag.Bool("version", false, "print version and exit")

	// this avoids 'pflag: help requested' error when calling for help message.
	if slices.Contains(os.Args[1:], "--help") || slices.Contains(os.Args[1:], "-h") {
		pflag.Usage()
		_, _ = fmt.Fprintln(os.Stderr, "\nNote: command arguments will override config file, but won't change config file.")
		os.Exit(0)
		return
	}

	pflag.Parse()

	viper.SetEnvPrefix("CRCSUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	lo.Must0(viper.BindPFlags(pflag.CommandLine), "failed to parse combine argument with env")
}

func errExit(msg ...any) {
	_, _ = fmt.Fprintln(os.Stderr, msg...)
	os.Exit(1)
}

func parseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}

	errExit(fmt.Sprintf("unknown log level %q, only trace/debug/info/warn/error is allowed", s))

	return zerolog.NoLevel
}

// stdout is reserved for checksums, logs go to stderr.
func setupLogger() {
	jsonLog := viper.GetBool("log-json")
	logFile := viper.GetString("log-file")
	logLevel := parseLogLevel(viper.GetString("log-level"))

	var w io.Writer = os.Stderr

	if !jsonLog {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if logFile != "" {
		rotation := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, //days
		}
		w = zerolog.MultiLevelWriter(rotation, w)
	}

	log.Logger = log.Output(w).Level(logLevel)
}

func mustParseConfig() config.Config {
	cfg := config.Default()

	if configFilePath := viper.GetString("config-file"); configFilePath != "" {
		var err error
		cfg, err = config.LoadFromFile(configFilePath)
		if err != nil {
			errExit("failed to load config", err)
		}
	}

	if viper.IsSet("hardware") {
		cfg.Checksum.Hardware = config.HardwareMode(viper.GetString("hardware"))
	}

	if viper.IsSet("buffer-size") {
		cfg.Checksum.RawBufferSize = viper.GetString("buffer-size")
	}

	if viper.IsSet("read-limit") {
		cfg.Checksum.RawReadLimit = viper.GetString("read-limit")
	}

	if viper.IsSet("workers") {
		cfg.Checksum.Workers = viper.GetInt("workers")
	}

	if viper.IsSet("web-root") {
		cfg.Web.Root = viper.GetString("web-root")
	}

	if viper.IsSet("status-file") {
		cfg.Status.File = viper.GetString("status-file")
	}

	if err := cfg.Normalize(); err != nil {
		errExit("invalid config", err)
	}

	return cfg
}

func openStatusArea(path string) *monstatus.Area {
	if path == "" {
		return nil
	}

	area, err := monstatus.Open(path)
	if err != nil {
		if errors.Is(err, monstatus.ErrUnsupported) {
			log.Warn().Str("platform", sys.Platform).Msg("status file is not supported on this platform, ignored")
			return nil
		}

		errExit("failed to open status file", err)
	}

	return area
}

func publish(c *checksum.Checker, area *monstatus.Area) {
	st := c.Stats()

	err := area.Publish(monstatus.Record{
		Updated:  time.Now(),
		Files:    st.Files,
		Bytes:    st.Bytes,
		Failures: st.Failures,
		PID:      uint32(os.Getpid()),
		Hardware: c.Hardware(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to publish status")
	}
}

// keepPublishing refreshes the status area every second until ctx is done.
func keepPublishing(ctx context.Context, c *checksum.Checker, area *monstatus.Area) {
	if area == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				publish(c, area)
			}
		}
	}()
}

func run(c *checksum.Checker, area *monstatus.Area, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keepPublishing(ctx, c, area)

	raw := viper.GetBool("raw")
	start := time.Now()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	red := color.New(color.FgRed)

	var dupes *checksum.Dupes
	if viper.GetBool("dupes") {
		dupes = checksum.NewDupes()
	}

	failed := false
	report := func(r checksum.Result) {
		if r.Err != nil {
			failed = true
			_, _ = red.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			return
		}

		value := r.Sum()
		if raw {
			value = r.CRC
		}

		_, _ = fmt.Fprintf(out, "%08x  %s\n", value, r.Path)

		if dupes != nil {
			dupes.Add(r)
		}
	}

	if viper.GetBool("string") {
		for _, arg := range args {
			value := crc32c.String(arg, c.Hardware())
			if !raw {
				value = crc32c.Finalize(value)
			}

			_, _ = fmt.Fprintf(out, "%08x  %q\n", value, arg)
		}

		return 0
	}

	stdin := len(args) == 0 || slices.Contains(args, "-")
	paths := lo.Without(args, "-")

	if stdin {
		r, _ := c.Reader(ctx, os.Stdin)
		r.Path = "-"
		report(r)
	}

	if err := c.Paths(ctx, paths, report); err != nil {
		failed = true
		_, _ = red.Fprintln(os.Stderr, err)
	}

	if dupes != nil {
		for i, group := range dupes.Groups() {
			if i == 0 {
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, "duplicates:")
			}

			for _, path := range group {
				_, _ = fmt.Fprintf(out, "  %s\n", path)
			}
			_, _ = fmt.Fprintln(out)
		}
	}

	if viper.GetBool("summary") {
		_ = out.Flush()
		printSummary(c, time.Since(start))
	}

	if failed || ctx.Err() != nil {
		return 1
	}

	return 0
}

func printSummary(c *checksum.Checker, took time.Duration) {
	st := c.Stats()

	rate := "-"
	if took > 0 {
		rate = humanize.IBytes(uint64(float64(st.Bytes)/took.Seconds())) + "/s"
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s files, %s, %s failures in %s (%s, %s)\n",
		humanize.Comma(st.Files),
		humanize.IBytes(uint64(st.Bytes)),
		humanize.Comma(st.Failures),
		took.Round(time.Millisecond),
		rate,
		c.Strategy(),
	)
}

func serve(c *checksum.Checker, cfg config.Web, area *monstatus.Area, address string, debug bool) int {
	webToken := viper.GetString("web-secret-token")
	if webToken == "" {
		webToken = uniuri.NewLen(32)
		_, _ = fmt.Fprintf(os.Stderr, "web secret token is empty, generating new token: %s\n", webToken)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keepPublishing(ctx, c, area)

	server := &http.Server{
		Addr:              address,
		Handler:           web.New(c, cfg, webToken, debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var done = make(chan error, 2)

	go func() {
		fmt.Println("start", "http://"+address)
		done <- server.ListenAndServe()
	}()

	signalChan := make(chan os.Signal, 1)

	signal.Notify(
		signalChan,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)

	go func() {
		<-signalChan
		done <- nil
	}()

	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Println("shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to shutdown http server", err)
		return 1
	}

	return 0
}
