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
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	goavsc "github.com/reoring/goavsc"
	"github.com/reoring/goavsc/internal/config"
	"github.com/reoring/goavsc/internal/logging"
	"github.com/reoring/goavsc/internal/watch"
	"github.com/reoring/goavsc/source/gojson"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `goavsc - schema document tool

Usage:
  goavsc check [flags] file...          parse files and report issues
  goavsc fmt [flags] [-canonical] file  print the normalized schema
  goavsc fingerprint [flags] file...    print CRC-64-AVRO and SHA-256 fingerprints
  goavsc watch [flags] file...          check, then re-check on every change

Common flags:
  -config file   TOML settings (default goavsc.toml when present)
  -path p        gjson path of a schema embedded in a larger JSON document
  -max-depth n   nesting bound (0 = library default, negative = none)
  -strict-keys   reject duplicate object keys
  -yaml          read files as YAML regardless of extension`)
}

// app carries the settings shared by all subcommands.
type app struct {
	cfg    config.Config
	opt    goavsc.ParseOpt
	log    zerolog.Logger
	stdout io.Writer
	yaml   bool
}

type commonFlags struct {
	configPath string
	path       string
	maxDepth   int
	strictKeys bool
	yaml       bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "TOML settings file")
	fs.StringVar(&c.path, "path", "", "gjson path of an embedded schema")
	fs.IntVar(&c.maxDepth, "max-depth", 0, "nesting bound")
	fs.BoolVar(&c.strictKeys, "strict-keys", false, "reject duplicate object keys")
	fs.BoolVar(&c.yaml, "yaml", false, "read files as YAML")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "check", "fmt", "fingerprint", "watch":
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", sub)
		usage(stderr)
		return 2
	}

	fs := flag.NewFlagSet(sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	var (
		canonical bool
		indent    bool
	)
	if sub == "fmt" {
		fs.BoolVar(&canonical, "canonical", false, "print the parsing canonical form")
		fs.BoolVar(&indent, "indent", false, "indent the output (indent string from config)")
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 || (sub == "fmt" && len(files) != 1) {
		fmt.Fprintf(stderr, "%s: wrong number of files\n", sub)
		return 2
	}

	a, err := newApp(fs, common, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "goavsc: %v\n", err)
		return 2
	}
	if a.cfg.JSONDriver == "go-json" {
		goavsc.SetJSONDriver(gojson.Driver())
		defer goavsc.UseDefaultJSONDriver()
		if name := goavsc.CurrentJSONDriver().Name(); name != "go-json" {
			a.log.Warn().Str("driver", name).Msg("json_driver go-json requested but this build lacks the gojson tag")
		}
	}
	a.log.Debug().Str("driver", goavsc.CurrentJSONDriver().Name()).Msg("json driver")

	switch sub {
	case "check":
		return a.check(files)
	case "fmt":
		return a.format(files[0], canonical, indent)
	case "fingerprint":
		return a.fingerprint(files)
	default:
		return a.watch(files)
	}
}

func newApp(fs *flag.FlagSet, common commonFlags, stdout, stderr io.Writer) (*app, error) {
	var (
		cfg config.Config
		err error
	)
	if common.configPath != "" {
		cfg, err = config.Load(common.configPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultPath)
	}
	if err != nil {
		return nil, err
	}

	// Flags given explicitly win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.ExtractPath = common.path
		case "max-depth":
			cfg.MaxDepth = common.maxDepth
		case "strict-keys":
			if common.strictKeys {
				cfg.DuplicateKeys = "error"
			}
		}
	})

	lc := logging.DefaultConfig(cfg.LogLevel)
	logging.ApplyEnv(&lc)
	a := &app{
		cfg:    cfg,
		log:    logging.New(stderr, lc),
		stdout: stdout,
		yaml:   common.yaml,
	}
	a.opt = cfg.ParseOpt(func(it goavsc.Issue) {
		a.log.Warn().Str("code", it.Code).Str("at", it.Path).Msg(it.Message)
	})
	return a, nil
}

// load reads one schema file, extracting the embedded schema when a path is
// configured.
func (a *app) load(file string) (goavsc.Schema, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if a.yaml || isYAML(file) {
		if a.cfg.ExtractPath != "" {
			return nil, errors.New("-path applies to JSON documents only")
		}
		return goavsc.ParseYAML(data, a.opt)
	}
	if p := a.cfg.ExtractPath; p != "" {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("%s: not a JSON document", file)
		}
		res := gjson.GetBytes(data, p)
		if !res.Exists() {
			return nil, fmt.Errorf("%s: nothing at path %q", file, p)
		}
		// Registries usually ship the schema as a JSON string.
		if res.Type == gjson.String {
			data = []byte(res.Str)
		} else {
			data = []byte(res.Raw)
		}
	}
	return goavsc.ParseBytes(data, a.opt)
}

func isYAML(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (a *app) report(file string, err error) {
	iss, ok := goavsc.AsIssues(err)
	if !ok {
		a.log.Error().Str("file", file).Err(err).Msg("failed")
		return
	}
	for _, it := range iss {
		ev := a.log.Error().Str("file", file).Str("code", it.Code).Str("at", it.Path)
		if it.Hint != "" {
			ev = ev.Str("hint", it.Hint)
		}
		if it.Cause != nil {
			ev = ev.AnErr("cause", it.Cause)
		}
		ev.Msg(it.Message)
	}
}

func (a *app) checkFile(file string) bool {
	s, err := a.load(file)
	if err != nil {
		a.report(file, err)
		return false
	}
	ev := a.log.Info().Str("file", file).Str("kind", s.Kind().String())
	if n, ok := s.(goavsc.NamedSchema); ok {
		ev = ev.Str("name", n.Name().Fullname())
	}
	ev.Msg("ok")
	return true
}

func (a *app) check(files []string) int {
	failed := 0
	for _, f := range files {
		if !a.checkFile(f) {
			failed++
		}
	}
	if failed > 0 {
		a.log.Error().Int("failed", failed).Int("total", len(files)).Msg("check failed")
		return 1
	}
	return 0
}

func (a *app) format(file string, canonical, indent bool) int {
	s, err := a.load(file)
	if err != nil {
		a.report(file, err)
		return 1
	}
	var out []byte
	switch {
	case canonical:
		out, err = goavsc.CanonicalForm(s)
	case indent:
		out, err = goavsc.MarshalIndent(s, "", a.cfg.Indent)
	default:
		out, err = goavsc.Marshal(s)
	}
	if err != nil {
		a.report(file, err)
		return 1
	}
	fmt.Fprintf(a.stdout, "%s\n", out)
	return 0
}

func (a *app) fingerprint(files []string) int {
	code := 0
	for _, f := range files {
		s, err := a.load(f)
		if err != nil {
			a.report(f, err)
			code = 1
			continue
		}
		if !a.printFingerprint(f, s) {
			code = 1
		}
	}
	return code
}

func (a *app) printFingerprint(file string, s goavsc.Schema) bool {
	fp, err := goavsc.Fingerprint64(s)
	if err != nil {
		a.report(file, err)
		return false
	}
	sum, err := goavsc.FingerprintSHA256(s)
	if err != nil {
		a.report(file, err)
		return false
	}
	fmt.Fprintf(a.stdout, "%016x  %x  %s\n", fp, sum, file)
	return true
}

func (a *app) watch(files []string) int {
	for _, f := range files {
		a.checkFile(f)
	}
	w, err := watch.New(files, a.log, func(f string) { a.checkFile(f) })
	if err != nil {
		a.log.Error().Err(err).Msg("watch")
		return 2
	}
	if err := w.Start(); err != nil {
		a.log.Error().Err(err).Msg("watch")
		return 2
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	a.log.Info().Msg("stopped")
	return 0
}
