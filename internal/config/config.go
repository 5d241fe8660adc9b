package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/peterbourgon/ff/v3"
	"github.com/r9s-ai/macrofmt/internal/reindent"
)

// DefaultFile is read from the working directory when no config path is
// given. Its absence is not an error.
const DefaultFile = ".macrofmt"

// EnvPrefix prefixes the environment variables that override file values,
// e.g. MACROFMT_TOKEN.
const EnvPrefix = "MACROFMT"

// Overrides carries values set explicitly on the command line. Nil fields
// are left alone.
type Overrides struct {
	Token   *string
	Open    *string
	Close   *string
	Indent  *int
	Comment *string
}

type values struct {
	token   string
	open    string
	close   string
	indent  int
	comment string
}

// Load resolves a dialect from defaults, the config file at path (or
// DefaultFile when path is empty), MACROFMT_* environment variables and
// finally the command line overrides.
func Load(path string, o Overrides) (reindent.Dialect, error) {
	def := reindent.DefaultDialect()
	v := values{
		token:   def.Token,
		open:    string(def.Open),
		close:   string(def.Close),
		indent:  def.IndentWidth,
		comment: def.CommentPrefix,
	}

	fs := flag.NewFlagSet("macrofmt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&v.token, "token", v.token, "macro invocation token")
	fs.StringVar(&v.open, "open", v.open, "open brace character")
	fs.StringVar(&v.close, "close", v.close, "close brace character")
	fs.IntVar(&v.indent, "indent", v.indent, "spaces per nesting level")
	fs.StringVar(&v.comment, "comment", v.comment, "comment line prefix")

	opts := []ff.Option{
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileParser(ff.PlainParser),
	}
	if path == "" {
		opts = append(opts, ff.WithConfigFile(DefaultFile), ff.WithAllowMissingConfigFile(true))
	} else {
		if _, err := os.Stat(path); err != nil {
			return reindent.Dialect{}, fmt.Errorf("read config %q: %w", path, err)
		}
		opts = append(opts, ff.WithConfigFile(path))
	}
	if err := ff.Parse(fs, nil, opts...); err != nil {
		return reindent.Dialect{}, fmt.Errorf("parse config: %w", err)
	}

	o.apply(&v)
	return v.dialect()
}

func (o Overrides) apply(v *values) {
	if o.Token != nil {
		v.token = *o.Token
	}
	if o.Open != nil {
		v.open = *o.Open
	}
	if o.Close != nil {
		v.close = *o.Close
	}
	if o.Indent != nil {
		v.indent = *o.Indent
	}
	if o.Comment != nil {
		v.comment = *o.Comment
	}
}

func (v values) dialect() (reindent.Dialect, error) {
	open, err := singleRune("open", v.open)
	if err != nil {
		return reindent.Dialect{}, err
	}
	closeR, err := singleRune("close", v.close)
	if err != nil {
		return reindent.Dialect{}, err
	}
	d := reindent.Dialect{
		Token:         v.token,
		Open:          open,
		Close:         closeR,
		IndentWidth:   v.indent,
		CommentPrefix: v.comment,
	}
	if err := d.Validate(); err != nil {
		return reindent.Dialect{}, fmt.Errorf("invalid dialect: %w", err)
	}
	return d, nil
}

func singleRune(name, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s brace must be a single character, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, errors.New(name + " brace is not valid UTF-8")
	}
	return r, nil
}
