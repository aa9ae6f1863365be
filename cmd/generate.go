package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ctypegen/ctypegen/bindings"
	"github.com/ctypegen/ctypegen/envconfig"
	"github.com/ctypegen/ctypegen/format"
	"github.com/ctypegen/ctypegen/parser"
	"github.com/ctypegen/ctypegen/progress"
)

func cmdGenerate() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate SRCDIR",
		Short: "Scan SRCDIR for exported functions and write both binding files",
		Args:  cobra.ExactArgs(1),
		RunE:  generateHandler,
	}

	generateCmd.Flags().String("py", "ctypes_bindings.py", "Path of the generated Python module")
	generateCmd.Flags().String("cpp", "ctypes_bindings.cpp", "Path of the generated C++ bridge")
	generateCmd.Flags().String("dll", "core", "Library name the Python module loads, without lib prefix or extension")
	generateCmd.Flags().Bool("typed-pointers", false, "Declare pointers as ctypes.POINTER types instead of plain addresses")
	generateCmd.Flags().Bool("numpy", false, "Accept C-contiguous NumPy arrays for pointer arguments")

	return generateCmd
}

func generateHandler(cmd *cobra.Command, args []string) error {
	srcdir := args[0]

	p := progress.NewProgress(progressWriter())
	defer p.StopAndClear()

	sources, err := readSources(srcdir, p)
	if err != nil {
		return err
	}

	spinner := progress.NewSpinner("parsing exports")
	p.Add(spinner)

	set, err := parser.ParseFiles(cmd.Context(), sources)
	if err != nil {
		return err
	}

	spinner.SetMessage("rendering bindings")

	dllName, _ := cmd.Flags().GetString("dll")
	typedPointers, _ := cmd.Flags().GetBool("typed-pointers")
	numpy, _ := cmd.Flags().GetBool("numpy")

	pair, err := bindings.Generate(cmd.Context(), set, bindings.Options{
		DLLName:       dllName,
		TypedPointers: typedPointers,
		NumPy:         numpy,
	})
	if err != nil {
		return err
	}

	cppPath, _ := cmd.Flags().GetString("cpp")
	pyPath, _ := cmd.Flags().GetString("py")

	if err := writePair(cppPath, pair.Bridge, pyPath, pair.Module); err != nil {
		return err
	}

	p.StopAndClear()

	if set.Len() == 0 {
		slog.Warn("no exported functions found, the generated bindings are empty", "srcdir", srcdir)
	}

	fmt.Fprintf(os.Stderr, "wrote %s (%s) and %s (%s): %s from %s\n",
		cppPath, format.HumanBytes(int64(len(pair.Bridge))),
		pyPath, format.HumanBytes(int64(len(pair.Module))),
		format.Plural(set.Len(), "function"),
		format.Plural(len(sources), "file"))

	return nil
}

// progressWriter silences progress rendering when stderr is not an
// interactive terminal or the user disabled it.
func progressWriter() io.Writer {
	if envconfig.NoProgress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return io.Discard
	}

	return os.Stderr
}

// discover walks srcdir lexically so the scan order, and with it every
// generated artifact, is stable across runs.
func discover(srcdir string) ([]string, error) {
	info, err := os.Stat(srcdir)
	if err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", srcdir)
	}

	var paths []string
	err = filepath.WalkDir(srcdir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && slices.Contains(envconfig.Extensions, strings.ToLower(filepath.Ext(path))) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

func readSources(srcdir string, p *progress.Progress) ([]parser.Source, error) {
	paths, err := discover(srcdir)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s sources under %s", strings.Join(envconfig.Extensions, "/"), srcdir)
	}

	bar := progress.NewBar("reading sources", "files", int64(len(paths)))
	p.Add(bar)

	sources := make([]parser.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		sources = append(sources, parser.Source{Path: path, Data: data})
		bar.Inc()
	}

	return sources, nil
}

// writePair stages both artifacts next to their destinations and renames
// them into place only after both writes succeed, so a failure cannot leave
// a half-updated pair behind.
func writePair(cppPath string, bridge []byte, pyPath string, module []byte) error {
	cppTemp, err := stage(cppPath, bridge)
	if err != nil {
		return err
	}

	pyTemp, err := stage(pyPath, module)
	if err != nil {
		os.Remove(cppTemp)
		return err
	}

	if err := os.Rename(cppTemp, cppPath); err != nil {
		os.Remove(cppTemp)
		os.Remove(pyTemp)
		return err
	}

	if err := os.Rename(pyTemp, pyPath); err != nil {
		os.Remove(pyTemp)
		return err
	}

	return nil
}

func stage(path string, data []byte) (string, error) {
	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return "", err
	}

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return "", err
	}

	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return "", err
	}

	if err := os.Chmod(temp.Name(), 0o644); err != nil {
		os.Remove(temp.Name())
		return "", err
	}

	return temp.Name(), nil
}
