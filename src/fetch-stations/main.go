package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jack-barr3tt/odpt-stations/src/common/config"
	"github.com/jack-barr3tt/odpt-stations/src/common/data"
	"github.com/jack-barr3tt/odpt-stations/src/common/odpt"
	"github.com/jack-barr3tt/odpt-stations/src/common/output"
	"github.com/jack-barr3tt/odpt-stations/src/common/utils"
	"go.uber.org/zap"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

var errUsage = errors.New("usage error")

type cliFlags struct {
	apiKey        string
	baseURL       string
	output        string
	pretty        bool
	geoJSON       bool
	operatorsFile string
	configDir     string
	timeout       time.Duration
	logLevel      string
	keyFromEnv    bool
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.SugaredLogger
	baseDir string
}

// programDir is where operators.txt and defaults.json are looked for by default.
func programDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func (a *app) parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("fetch-stations", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Fetch all stations from the ODPT API")
		fmt.Fprintln(fs.Output(), "Usage: fetch-stations [flags] [API_KEY]")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.baseURL, "base-url", config.BaseURLFromEnv(), "Base URL for the ODPT API")
	fs.StringVar(&f.output, "output", "", "Output file (default: stdout)")
	fs.StringVar(&f.output, "o", "", "Output file (shorthand)")
	fs.BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")
	fs.BoolVar(&f.geoJSON, "geojson", false, "Write output as a GeoJSON FeatureCollection")
	fs.StringVar(&f.operatorsFile, "operators", filepath.Join(a.baseDir, config.DefaultOperators), "Operator list file")
	fs.StringVar(&f.configDir, "config-dir", a.baseDir, "Directory to start searching for "+config.DefaultConfigName)
	fs.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "Per-request timeout")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (default: LOG_LEVEL or info)")
	fs.BoolVar(&f.keyFromEnv, "key-from-env", false, "Fall back to "+config.APIKeyField+" from the environment or .env")

	// flags may follow the positional key, so keep parsing past it
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if len(positional) > 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected at most one API key argument, got %d", errUsage, len(positional))
	}
	if len(positional) == 1 {
		f.apiKey = positional[0]
	}

	return f, nil
}

func (a *app) run(ctx context.Context, f *cliFlags) error {
	apiKey, err := config.ResolveAPIKey(f.apiKey, f.configDir, f.keyFromEnv)
	if err != nil {
		return err
	}

	opts := config.Options{
		APIKey:        apiKey,
		BaseURL:       f.baseURL,
		OperatorsFile: f.operatorsFile,
		Output:        f.output,
		Pretty:        f.pretty,
		GeoJSON:       f.geoJSON,
		Timeout:       f.timeout,
	}
	if err := config.Validate(&opts); err != nil {
		return err
	}

	operators, err := config.ReadOperatorsFile(opts.OperatorsFile)
	if err != nil {
		return err
	}

	client := odpt.NewClient(opts.BaseURL, opts.APIKey, opts.Timeout, a.logger)
	result, err := data.NewAggregator(client, a.logger).Aggregate(ctx, operators)
	if err != nil {
		return err
	}

	serializer := output.NewSerializer(a.logger)
	mode := output.SelectMode(opts.GeoJSON, opts.Output)
	rendered, err := serializer.Render(mode, result.Summary(), result.Stations, opts.Pretty)
	if err != nil {
		return err
	}

	return serializer.Emit(rendered, opts.Output, a.stdout)
}

// exitCode logs err the way its category calls for and maps it to a
// process status.
func (a *app) exitCode(ctx context.Context, err error) int {
	if err == nil {
		return exitOK
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		a.logger.Warn("Interrupted by user")
		return exitInterrupted
	}

	var reqErr *odpt.RequestError
	switch {
	case errors.Is(err, config.ErrNoAPIKey):
		a.logger.Errorw("No API key provided", "error", err)
		a.logger.Error("Usage: fetch-stations [flags] [API_KEY]")
		return exitFailure
	case errors.Is(err, config.ErrInvalid):
		a.logger.Errorw("Invalid configuration", "error", err)
		return exitFailure
	case errors.Is(err, config.ErrNoOperators):
		a.logger.Errorw("No operators to fetch; aborting", "error", err)
		return exitFailure
	case errors.As(err, &reqErr):
		a.logger.Errorw("Failed to fetch data from API",
			"endpoint", reqErr.Endpoint,
			"status", reqErr.StatusCode,
			"url", reqErr.URL,
			"error", err,
		)
		return exitFailure
	default:
		a.logger.Desugar().Error("Unexpected error", zap.Error(err), zap.Stack("stack"))
		return exitFailure
	}
}

func (a *app) main(ctx context.Context, args []string) (code int) {
	f, err := a.parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(a.stderr, err)
		}
		return exitUsage
	}

	if a.logger == nil {
		utils.InitLogger(f.logLevel)
		a.logger = utils.GetLogger()
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorw("Unexpected error", "panic", r, "stack", string(debug.Stack()))
			code = exitFailure
		}
	}()

	return a.exitCode(ctx, a.run(ctx, f))
}

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		baseDir: programDir(),
	}
	code := a.main(ctx, os.Args[1:])

	stop()
	utils.SyncLogger()
	os.Exit(code)
}
