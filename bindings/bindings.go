// Package bindings renders the two synchronized artifacts from one parsed
// export set: the C++ bridge that traps exceptions at the boundary, and the
// Python ctypes module that declares exact call types and re-raises captured
// errors. Both read the same immutable set, so they cannot drift apart.
package bindings

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ctypegen/ctypegen/parser"
)

// Options configure the caller-side module.
type Options struct {
	// DLLName is the shared library prefix the generated module loads,
	// e.g. "core" for libcore.so / libcore.dylib / core.dll.
	DLLName string

	// TypedPointers declares pointer parameters and results as
	// ctypes.POINTER(...) instead of plain address integers. void* always
	// stays opaque.
	TypedPointers bool

	// NumPy routes pointer arguments through a helper that accepts
	// C-contiguous NumPy arrays directly.
	NumPy bool
}

// Pair is one generation run's output. Both sides are rendered from the same
// set and are only ever written together.
type Pair struct {
	Bridge []byte // C++ source
	Module []byte // Python source
}

// Generate renders both artifacts. The generators share nothing but the
// read-only set, so they run concurrently.
func Generate(ctx context.Context, set *parser.Set, opts Options) (*Pair, error) {
	var pair Pair

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		pair.Bridge = Bridge(set)
		return nil
	})
	g.Go(func() error {
		pair.Module = Module(set, opts)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &pair, nil
}
