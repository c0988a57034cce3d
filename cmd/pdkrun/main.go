// Command pdkrun loads a plugin into the reference host and calls one of its
// exported functions.
//
//	pdkrun -manifest plugin.yaml -func hello -input '{"name":"Ada"}'
//	pdkrun -wasm hello.wasm -func hello -config greeting=Howdy -allow-host '*.example.com'
//	pdkrun -schema
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/wasmpdk/pdk-go/host"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// keyValues collects repeated -config key=value flags.
type keyValues map[string]string

func (kv keyValues) String() string {
	pairs := make([]string, 0, len(kv))
	for k, v := range kv {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (kv keyValues) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	kv[k] = v
	return nil
}

// list collects a repeated string flag.
type list []string

func (l *list) String() string {
	return strings.Join(*l, ",")
}

func (l *list) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type options struct {
	config       keyValues
	manifest     string
	wasm         string
	function     string
	input        string
	allowedHosts list
	logLevel     slog.Level
	schema       bool
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	opts := options{config: keyValues{}}

	fs := flag.NewFlagSet("pdkrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.manifest, "manifest", "", "path to a plugin manifest (YAML)")
	fs.StringVar(&opts.wasm, "wasm", "", "path to a plugin module, used instead of -manifest")
	fs.StringVar(&opts.function, "func", "hello", "exported function to call")
	fs.StringVar(&opts.input, "input", "", "input passed to the function")
	fs.Var(opts.config, "config", "config `key=value` (repeatable, overrides the manifest)")
	fs.Var(&opts.allowedHosts, "allow-host", "host the plugin may reach over HTTP (repeatable)")
	fs.TextVar(&opts.logLevel, "log-level", slog.LevelInfo, "log level: debug, info, warn or error")
	fs.BoolVar(&opts.schema, "schema", false, "print the manifest JSON Schema and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if !opts.schema && (opts.manifest == "") == (opts.wasm == "") {
		return opts, errors.New("exactly one of -manifest or -wasm is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "pdkrun:", err)
		return 2
	}

	if opts.schema {
		schema, err := host.ManifestSchema()
		if err != nil {
			fmt.Fprintln(stderr, "pdkrun:", err)
			return 1
		}
		fmt.Fprintln(stdout, string(schema))
		return 0
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.logLevel}))

	plugin, err := loadPlugin(ctx, opts, logger)
	if err != nil {
		logger.Error("Failed to load plugin", "error", err)
		return 1
	}
	defer func() { _ = plugin.Close(ctx) }()

	code, output, err := plugin.Call(ctx, opts.function, []byte(opts.input))
	if len(output) > 0 {
		_, _ = stdout.Write(output)
		fmt.Fprintln(stdout)
	}
	if err != nil {
		logger.Error("Plugin call failed", "function", opts.function, "code", code, "error", err)
		return 1
	}
	return 0
}

func loadPlugin(ctx context.Context, opts options, logger *slog.Logger) (*host.Plugin, error) {
	extra := []host.Option{host.WithLogger(logger)}
	if len(opts.allowedHosts) > 0 {
		extra = append(extra, host.WithAllowedHosts(opts.allowedHosts...))
	}

	if opts.manifest != "" {
		m, err := host.LoadManifest(opts.manifest)
		if err != nil {
			return nil, err
		}
		if len(opts.config) > 0 {
			merged := make(map[string]string, len(m.Config)+len(opts.config))
			for k, v := range m.Config {
				merged[k] = v
			}
			for k, v := range opts.config {
				merged[k] = v
			}
			m.Config = merged
		}
		return host.NewPluginFromManifest(ctx, m, extra...)
	}

	wasm, err := os.ReadFile(opts.wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	extra = append(extra, host.WithConfig(opts.config))
	return host.NewPlugin(ctx, wasm, extra...)
}
