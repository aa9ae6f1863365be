// Package parser extracts exported function signatures from C++ source text.
// It is lexical on purpose: it only needs the declarator between the export
// annotation and the body's opening brace, so it tolerates arbitrary bodies
// without understanding them. Anything outside its narrow grammar is rejected
// with a reason, never guessed at.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"golang.org/x/sync/errgroup"

	"github.com/ctypegen/ctypegen/ctype"
)

var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrUnterminatedExport = errors.New("unterminated export")
	ErrDuplicateExport    = errors.New("duplicate export")
	ErrReservedName       = errors.New("reserved function name")
)

// reserved maps export names that collide with the error helpers every
// generated bridge carries to the reason the name cannot be exported.
var reserved = map[string]string{
	"error_status":     "its entry point would collide with the py_error_status helper",
	"error_message":    "its entry point would collide with the py_error_message helper",
	"py_error_status":  "its re-declaration would collide with the helper of the same name",
	"py_error_message": "its re-declaration would collide with the helper of the same name",
}

// Param is one declared parameter. Name must be a legal identifier on both
// sides of the boundary.
type Param struct {
	Name string
	Type ctype.Type
}

// Function is one exported function. Immutable once parsed; both generators
// read the same instances.
type Function struct {
	Name   string
	Return ctype.Type
	Params []Param

	// File and Line locate the export annotation, for diagnostics.
	File string
	Line int
}

// Source is one input file: contents plus a path used only in diagnostics.
// Reading the file is the caller's job.
type Source struct {
	Path string
	Data []byte
}

// Set is the full collection of exported functions from one scan, in
// first-seen order. Order is what makes regeneration byte-reproducible.
type Set struct {
	functions *linkedhashmap.Map[string, *Function]
}

func newSet() *Set {
	return &Set{functions: linkedhashmap.New[string, *Function]()}
}

func (s *Set) add(fn *Function) error {
	if reason, ok := reserved[fn.Name]; ok {
		return fmt.Errorf("%w %q at %s:%d: %s", ErrReservedName, fn.Name, fn.File, fn.Line, reason)
	}

	if prior, ok := s.functions.Get(fn.Name); ok {
		return fmt.Errorf("%w: %q defined at %s:%d and %s:%d", ErrDuplicateExport, fn.Name, prior.File, prior.Line, fn.File, fn.Line)
	}

	// The bridge declares py_<name> per export next to the re-declared
	// originals, so the two name sets must not intersect either.
	if base, ok := strings.CutPrefix(fn.Name, "py_"); ok {
		if prior, found := s.functions.Get(base); found {
			return fmt.Errorf("%w %q at %s:%d: it is the entry point for %q at %s:%d", ErrReservedName, fn.Name, fn.File, fn.Line, base, prior.File, prior.Line)
		}
	}
	if prior, ok := s.functions.Get("py_" + fn.Name); ok {
		return fmt.Errorf("%w %q at %s:%d: its entry point py_%s is already exported at %s:%d", ErrReservedName, fn.Name, fn.File, fn.Line, fn.Name, prior.File, prior.Line)
	}

	s.functions.Put(fn.Name, fn)
	return nil
}

// Functions returns the exported functions in first-seen order.
func (s *Set) Functions() []*Function {
	return s.functions.Values()
}

func (s *Set) Len() int {
	return s.functions.Size()
}

// ParseFile scans one source for export annotations and parses every tagged
// declarator.
func ParseFile(file Source) ([]*Function, error) {
	decls, err := Scan(string(file.Data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}

	fns := make([]*Function, 0, len(decls))
	for _, d := range decls {
		fn, err := parseSignature(d)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file.Path, d.Line, err)
		}

		fn.File = file.Path
		fn.Line = d.Line

		for _, p := range fn.Params {
			if strings.HasPrefix(p.Name, "___") {
				slog.Warn("parameter name may clash with generated locals", "function", fn.Name, "parameter", p.Name, "location", fmt.Sprintf("%s:%d", fn.File, fn.Line))
			}
		}

		fns = append(fns, fn)
	}

	return fns, nil
}

// ParseFiles parses every source concurrently and merges the results in
// input order, so the final collection is deterministic regardless of which
// file finishes first. Name uniqueness is enforced across the whole scan
// because both artifacts share one flat namespace.
func ParseFiles(ctx context.Context, files []Source) (*Set, error) {
	parsed := make([][]*Function, len(files))

	g, _ := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			fns, err := ParseFile(file)
			if err != nil {
				return err
			}

			parsed[i] = fns
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := newSet()
	for _, fns := range parsed {
		for _, fn := range fns {
			if err := set.add(fn); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
