package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/tuffie/internal/config"
	"github.com/karupanerura/tuffie/internal/dump"
	"github.com/karupanerura/tuffie/internal/evaluator"
	"github.com/karupanerura/tuffie/internal/lexer"
	"github.com/karupanerura/tuffie/internal/parser"
	"github.com/karupanerura/tuffie/internal/repl"
	"github.com/karupanerura/tuffie/internal/server"
	"github.com/karupanerura/tuffie/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	dumpTokens = "tokens"
	dumpAST    = "ast"
)

type Option struct {
	Config string   `short:"c" long:"config" description:"[OPTIONAL] Config file (YAML or JSON)" required:"false"`
	Files  []string `short:"f" long:"file" description:"[OPTIONAL] Source file to evaluate (repeatable)" required:"false"`
	Eval   string   `short:"e" long:"eval" description:"[OPTIONAL] Source text to evaluate" required:"false"`
	Dump   string   `long:"dump" description:"[OPTIONAL] What to print" choice:"tokens" choice:"ast" choice:"result" default:"result"`
	Format string   `long:"format" description:"[OPTIONAL] Output format" choice:"json" choice:"yaml" required:"false"`
	Color  string   `long:"color" description:"[OPTIONAL] Colorize JSON output" choice:"auto" choice:"always" choice:"never" required:"false"`
	Listen string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the playground API" required:"false"`
	Debug  bool     `long:"debug" description:"[OPTIONAL] Print parser debug output"`
}

type unit struct {
	name   string
	source string
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	var opt Option
	p := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	_, err := p.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(c.stdout)
			return 0
		}
		fmt.Fprintln(c.stderr, err)
		p.WriteHelp(c.stderr)
		return 1
	}

	cfg, err := loadConfig(&opt)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	hasSource := opt.Eval != "" || len(opt.Files) != 0
	if hasSource && cfg.Listen != "" {
		fmt.Fprintln(c.stderr, "--listen cannot be combined with --eval/--file")
		p.WriteHelp(c.stderr)
		return 1
	}

	// server mode
	if cfg.Listen != "" {
		if err = serve(cfg.Listen, cfg.Debug); err != nil {
			log.Printf("failed to serve playground: %v", err)
			return 1
		}
		return 0
	}

	dumper := &dump.Dumper{Format: cfg.Format, Color: cfg.Color}

	// repl mode
	if !hasSource {
		r := repl.New(cfg.Prompt, dumper)
		r.Debug = cfg.Debug
		r.Interactive = dump.IsTerminal(c.stdin)
		if err = r.Run(c.stdin, c.stdout, c.stderr); err != nil {
			log.Printf("failed to run repl: %v", err)
			return 1
		}
		return 0
	}

	units := make([]unit, 0, len(opt.Files)+1)
	for _, filePath := range opt.Files {
		b, err := os.ReadFile(filePath)
		if err != nil {
			log.Printf("failed to read source: %v", err)
			return 1
		}
		units = append(units, unit{name: filePath, source: string(b)})
	}
	if opt.Eval != "" {
		units = append(units, unit{name: "<eval>", source: opt.Eval})
	}

	outputs, err := processUnits(units, opt.Dump, cfg.Debug, c.stderr)
	if err != nil {
		c.reportError(dumper, err)
		return 1
	}
	for _, out := range outputs {
		if err = dumper.Dump(c.stdout, out); err != nil {
			log.Printf("failed to dump output: %v", err)
			return 1
		}
	}
	return 0
}

func loadConfig(opt *Option) (config.Config, error) {
	cfg := config.Default()
	if opt.Config != "" {
		var err error
		cfg, err = config.LoadFile(opt.Config)
		if err != nil {
			return config.Config{}, fmt.Errorf("config.LoadFile: %w", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)

	if opt.Format != "" {
		cfg.Format = dump.Format(opt.Format)
	}
	if opt.Color != "" {
		cfg.Color = dump.ColorMode(opt.Color)
	}
	if opt.Listen != "" {
		cfg.Listen = opt.Listen
	}
	if opt.Debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

// processUnits handles every unit concurrently and returns their outputs in
// input order. Each unit has its own environment.
func processUnits(units []unit, mode string, debug bool, warnOut io.Writer) ([]any, error) {
	outputs := make([]any, len(units))
	warnings := make([][]*lexer.UnterminatedStringError, len(units))

	eg := errgroup.Group{}
	for i := range units {
		i := i
		eg.Go(func() error {
			out, w, err := processUnit(units[i].source, mode, debug)
			if err != nil {
				return fmt.Errorf("%s: %w", units[i].name, err)
			}
			outputs[i], warnings[i] = out, w
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, ws := range warnings {
		for _, w := range ws {
			fmt.Fprintf(warnOut, "warning: %s: %v\n", units[i].name, w)
		}
	}
	return outputs, nil
}

func processUnit(source, mode string, debug bool) (any, []*lexer.UnterminatedStringError, error) {
	tokens, warnings, err := lexer.Tokenize(source)
	if err != nil {
		return nil, nil, fmt.Errorf("lexer.Tokenize: %w", err)
	}
	if mode == dumpTokens {
		return tokens, warnings, nil
	}

	parse := parser.Parse
	if debug {
		parse = parser.ParseWithDebugOutput
	}
	program, err := parse(tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("parser.Parse: %w", err)
	}
	if mode == dumpAST {
		return program, warnings, nil
	}

	results, err := evaluator.New().EvaluateProgram(program)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluator.EvaluateProgram: %w", err)
	}
	return results, warnings, nil
}

func (c *cli) reportError(dumper *dump.Dumper, err error) {
	if _, writeErr := fmt.Fprintln(c.stderr, err.Error()); writeErr != nil {
		log.Printf("failed to dump error: %v", writeErr)
	}

	var exception types.Exception
	if errors.As(err, &exception) {
		if dumpErr := dumper.Dump(c.stderr, exception.Exception()); dumpErr != nil {
			log.Printf("failed to dump error as %s: %v", dumper.Format, dumpErr)
		}
	}
}

func serve(listen string, debug bool) error {
	srv := http.Server{
		Handler: server.NewHTTPHandler(debug),
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}
