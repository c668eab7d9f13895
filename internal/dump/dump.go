package dump

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Dumper struct {
	Format Format
	Color  ColorMode
}

func (d *Dumper) Dump(w io.Writer, v any) error {
	switch d.Format {
	case FormatJSON, "":
		return d.dumpJSON(w, v)
	case FormatYAML:
		return dumpYAML(w, v)
	default:
		return fmt.Errorf("unsupported dump format: %q", d.Format)
	}
}

func (d *Dumper) dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if d.colorize(w) {
		opts = append(opts, json.Colorize(json.DefaultColorScheme))
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}

func (d *Dumper) colorize(w io.Writer) bool {
	switch d.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTerminal(w)
	}
}

// dumpYAML goes through JSON first so that the MarshalJSON methods of tokens
// and AST nodes decide the shape.
func dumpYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	var generic any
	if err = decoder.Decode(&generic); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	out, err := yaml.Marshal(normalizeNumbers(generic))
	if err != nil {
		return fmt.Errorf("yaml.Marshal: %w", err)
	}

	if _, err = w.Write(out); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	return nil
}

func normalizeNumbers(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		for key, value := range vv {
			vv[key] = normalizeNumbers(value)
		}
		return vv

	case []any:
		for i, value := range vv {
			vv[i] = normalizeNumbers(value)
		}
		return vv

	case json.Number:
		if n, err := vv.Int64(); err == nil {
			return n
		}
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return vv.String()

	default:
		return v
	}
}

// IsTerminal reports whether f is a file descriptor attached to a terminal.
func IsTerminal(f any) bool {
	if f, ok := f.(interface{ Fd() uintptr }); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
