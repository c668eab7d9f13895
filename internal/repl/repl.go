package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/karupanerura/tuffie/internal/dump"
	"github.com/karupanerura/tuffie/internal/evaluator"
	"github.com/karupanerura/tuffie/internal/lexer"
	"github.com/karupanerura/tuffie/internal/parser"
	"github.com/karupanerura/tuffie/internal/types"
)

const banner = `-----------------------
--    TUFFIE LANG    --
-----------------------
  press ctrl+d to exit
`

type REPL struct {
	Prompt      string
	Dumper      *dump.Dumper
	Evaluator   *evaluator.Evaluator
	Debug       bool
	Interactive bool
}

func New(prompt string, dumper *dump.Dumper) *REPL {
	return &REPL{
		Prompt:    prompt,
		Dumper:    dumper,
		Evaluator: evaluator.New(),
	}
}

// Run reads one line at a time. A line that fails leaves the environment
// exactly as it was before the line.
func (r *REPL) Run(in io.Reader, out, errOut io.Writer) error {
	if r.Interactive {
		if _, err := io.WriteString(out, banner); err != nil {
			return fmt.Errorf("io.WriteString: %w", err)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if r.Interactive {
			if _, err := io.WriteString(out, r.Prompt); err != nil {
				return fmt.Errorf("io.WriteString: %w", err)
			}
		}
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		ret, ok, err := r.EvaluateLine(line, errOut)
		if err != nil {
			if reportErr := r.reportError(errOut, err); reportErr != nil {
				return reportErr
			}
			continue
		}
		if ok {
			if err := r.Dumper.Dump(out, ret); err != nil {
				return fmt.Errorf("dump result: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner.Scan: %w", err)
	}
	return nil
}

// EvaluateLine returns the result of the last statement of the line, if any.
func (r *REPL) EvaluateLine(line string, warnOut io.Writer) (any, bool, error) {
	tokens, warnings, err := lexer.Tokenize(line)
	if err != nil {
		return nil, false, err
	}
	for _, w := range warnings {
		if _, err := fmt.Fprintf(warnOut, "warning: %v\n", w); err != nil {
			return nil, false, fmt.Errorf("fmt.Fprintf: %w", err)
		}
	}

	parse := parser.Parse
	if r.Debug {
		parse = parser.ParseWithDebugOutput
	}
	program, err := parse(tokens)
	if err != nil {
		return nil, false, err
	}

	ev := &evaluator.Evaluator{Environment: r.Evaluator.Environment.ShallowClone()}
	results, err := ev.EvaluateProgram(program)
	if err != nil {
		return nil, false, err
	}
	r.Evaluator.Environment = ev.Environment

	if len(results) == 0 {
		return nil, false, nil
	}
	return results[len(results)-1], true, nil
}

func (r *REPL) reportError(errOut io.Writer, err error) error {
	if _, writeErr := fmt.Fprintf(errOut, "error: %v\n", err); writeErr != nil {
		return fmt.Errorf("fmt.Fprintf: %w", writeErr)
	}

	var exception types.Exception
	if errors.As(err, &exception) {
		if dumpErr := r.Dumper.Dump(errOut, exception.Exception()); dumpErr != nil {
			return fmt.Errorf("dump exception: %w", dumpErr)
		}
	}
	return nil
}
