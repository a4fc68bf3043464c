// layoutctl decodes and encodes binary data using layouts described in a
// YAML schema.
//
//	layoutctl list   -s schema.yaml
//	layoutctl decode -s schema.yaml -i packet.bin packet
//	layoutctl encode -s schema.yaml -i value.yaml packet
//	layoutctl span   -s schema.yaml --hex -i packet.hex packet
//	layoutctl inspect -s schema.yaml -i packet.bin
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/buffer-layout/layout"
	"github.com/wippyai/buffer-layout/render"
	"github.com/wippyai/buffer-layout/schema"
)

type options struct {
	schema  string
	input   string
	format  string
	offset  int
	size    int
	hex     bool
	verbose bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		usage(os.Stderr, nil)
		if len(args) == 0 {
			return fmt.Errorf("missing command")
		}
		return nil
	}
	command, args := args[0], args[1:]

	var opts options
	flagSet := pflag.NewFlagSet("layoutctl "+command, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&opts.schema, "schema", "s", "", "path to the layout schema (YAML)")
	flagSet.StringVarP(&opts.input, "input", "i", "-", "input file, - for stdin")
	flagSet.StringVarP(&opts.format, "format", "f", "tree", "decode output: tree, yaml or cbor")
	flagSet.IntVar(&opts.offset, "offset", 0, "byte offset of the value in the input")
	flagSet.IntVar(&opts.size, "size", 4096, "encode buffer size")
	flagSet.BoolVar(&opts.hex, "hex", false, "input bytes are hex text")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log layout composition")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			usage(os.Stderr, flagSet)
			return nil
		}
		return err
	}

	if opts.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
		layout.SetLogger(logger)
	}

	if opts.schema == "" {
		return fmt.Errorf("--schema is required")
	}
	set, err := schema.Load(opts.schema)
	if err != nil {
		return err
	}

	c := &cli{opts: opts, set: set, stdin: stdin, stdout: stdout}
	switch command {
	case "list":
		return c.list()
	case "decode":
		return c.withLayout(flagSet.Args(), c.decode)
	case "encode":
		return c.withLayout(flagSet.Args(), c.encode)
	case "span":
		return c.withLayout(flagSet.Args(), c.span)
	case "inspect":
		data, err := c.readBytes()
		if err != nil {
			return err
		}
		return runInteractive(set, data, opts.offset)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: layoutctl <command> -s <schema.yaml> [flags] [layout]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list      list the layouts in the schema")
	fmt.Fprintln(w, "  decode    decode input bytes with a layout")
	fmt.Fprintln(w, "  encode    encode a YAML value with a layout, print hex")
	fmt.Fprintln(w, "  span      print the byte length of the encoded value")
	fmt.Fprintln(w, "  inspect   browse the schema interactively")
	if flagSet != nil {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Flags:")
		fmt.Fprint(w, flagSet.FlagUsages())
	}
}

type cli struct {
	opts   options
	set    *schema.Set
	stdin  io.Reader
	stdout io.Writer
}

func (c *cli) withLayout(args []string, fn func(layout.Layout) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one layout name, got %d", len(args))
	}
	l, err := c.set.Layout(args[0])
	if err != nil {
		return err
	}
	return fn(l)
}

func (c *cli) list() error {
	for _, name := range c.set.Names() {
		l, _ := c.set.Layout(name)
		span := "variable"
		if l.Span() >= 0 {
			span = fmt.Sprintf("%d bytes", l.Span())
		}
		fmt.Fprintf(c.stdout, "%s\t%T\t%s\n", name, l, span)
	}
	return nil
}

func (c *cli) decode(l layout.Layout) error {
	data, err := c.readBytes()
	if err != nil {
		return err
	}
	v, err := layout.Decode(l, data, c.opts.offset)
	if err != nil {
		return err
	}

	switch c.opts.format {
	case "tree":
		var st render.Styler = render.Plain{}
		if c.terminal() {
			st = render.DefaultStyled()
		}
		fmt.Fprint(c.stdout, render.Tree(v, st))
	case "yaml":
		out, err := render.YAML(v)
		if err != nil {
			return err
		}
		c.stdout.Write(out)
	case "cbor":
		out, err := render.CBOR(v)
		if err != nil {
			return err
		}
		if !c.terminal() {
			_, err = c.stdout.Write(out)
			return err
		}
		diag, err := render.Diagnose(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, diag)
	default:
		return fmt.Errorf("unknown format %q", c.opts.format)
	}
	return nil
}

func (c *cli) encode(l layout.Layout) error {
	text, err := c.read()
	if err != nil {
		return err
	}
	var v any
	if err := yaml.Unmarshal(text, &v); err != nil {
		return fmt.Errorf("parse value: %w", err)
	}
	buf := make([]byte, c.opts.size)
	n, err := layout.Encode(l, v, buf, c.opts.offset)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, hex.EncodeToString(buf[:c.opts.offset+n]))
	return nil
}

func (c *cli) span(l layout.Layout) error {
	data, err := c.readBytes()
	if err != nil {
		return err
	}
	n, err := layout.GetSpan(l, data, c.opts.offset)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, n)
	return nil
}

func (c *cli) read() ([]byte, error) {
	if c.opts.input == "-" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(c.opts.input)
}

func (c *cli) readBytes() ([]byte, error) {
	data, err := c.read()
	if err != nil {
		return nil, err
	}
	if !c.opts.hex {
		return data, nil
	}
	return parseHex(string(data))
}

// parseHex accepts hex text with any whitespace between digits.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse hex input: %w", err)
	}
	return data, nil
}

func (c *cli) terminal() bool {
	f, ok := c.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
