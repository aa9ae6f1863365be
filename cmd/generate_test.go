package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ctypegen/ctypegen/envconfig"
	"github.com/ctypegen/ctypegen/parser"
)

func writeSource(t *testing.T, dir, name, text string) {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()

	cli := NewCLI()
	cli.SetArgs(args)
	cli.SetOut(io.Discard)
	cli.SetErr(io.Discard)
	return cli.ExecuteContext(context.Background())
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src/buffers.cc", `// [[export]]
void* create_buffer(const char* name, size_t n) {
	return nullptr;
}
`)
	writeSource(t, dir, "src/math.cpp", `// [[export]]
int multiply(int a, double b) {
	return a * int(b);
}

// [[export]]
void reset_state() {
}
`)

	cppPath := filepath.Join(dir, "bindings.cpp")
	pyPath := filepath.Join(dir, "bindings.py")

	args := []string{"generate", filepath.Join(dir, "src"), "--cpp", cppPath, "--py", pyPath, "--dll", "demo"}
	if err := runCLI(t, args...); err != nil {
		t.Fatal(err)
	}

	bridge, err := os.ReadFile(cppPath)
	if err != nil {
		t.Fatal(err)
	}

	module, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`extern "C"`,
		"py_create_buffer",
		"py_multiply",
		"py_reset_state",
		"py_error_status",
		"py_error_message",
	} {
		if !strings.Contains(string(bridge), want) {
			t.Errorf("bridge missing %q", want)
		}
	}

	for _, want := range []string{
		`name = "demo.dll"`,
		"class NativeError(RuntimeError):",
		"___lib.py_multiply.argtypes = [ctypes.c_int32, ctypes.c_double]",
		"def create_buffer(name, n):",
		"def multiply(a, b):",
		`__all__ = ["NativeError", "create_buffer", "multiply", "reset_state"]`,
	} {
		if !strings.Contains(string(module), want) {
			t.Errorf("module missing %q", want)
		}
	}

	// a second run over the same tree must reproduce both artifacts exactly
	if err := runCLI(t, args...); err != nil {
		t.Fatal(err)
	}

	bridge2, err := os.ReadFile(cppPath)
	if err != nil {
		t.Fatal(err)
	}

	module2, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(string(bridge), string(bridge2)); diff != "" {
		t.Errorf("bridge changed between identical runs (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff(string(module), string(module2)); diff != "" {
		t.Errorf("module changed between identical runs (-first +second):\n%s", diff)
	}
}

func TestGenerateFlags(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src/impl.cpp", `// [[export]]
double total(const double* values, size_t n) {
	return 0;
}
`)

	cppPath := filepath.Join(dir, "bindings.cpp")
	pyPath := filepath.Join(dir, "bindings.py")

	err := runCLI(t, "generate", filepath.Join(dir, "src"),
		"--cpp", cppPath, "--py", pyPath, "--dll", "geometry", "--typed-pointers", "--numpy")
	if err != nil {
		t.Fatal(err)
	}

	module, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`name = "libgeometry.so"`,
		"import numpy",
		"ctypes.POINTER(ctypes.c_double)",
		"___addr(values, ctypes.POINTER(ctypes.c_double))",
	} {
		if !strings.Contains(string(module), want) {
			t.Errorf("module missing %q", want)
		}
	}
}

func TestGenerateNoSources(t *testing.T) {
	dir := t.TempDir()

	err := runCLI(t, "generate", dir,
		"--cpp", filepath.Join(dir, "bindings.cpp"), "--py", filepath.Join(dir, "bindings.py"))
	if err == nil || !strings.Contains(err.Error(), "no .cpp/.cc sources") {
		t.Fatalf("expected missing sources error, got %v", err)
	}
}

func TestGenerateDuplicateWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src/a.cpp", `// [[export]]
int frob(int n) {
	return n;
}
`)
	writeSource(t, dir, "src/b.cpp", `// [[export]]
int frob(int n) {
	return n + 1;
}
`)

	cppPath := filepath.Join(dir, "bindings.cpp")
	pyPath := filepath.Join(dir, "bindings.py")

	err := runCLI(t, "generate", filepath.Join(dir, "src"), "--cpp", cppPath, "--py", pyPath)
	if !errors.Is(err, parser.ErrDuplicateExport) {
		t.Fatalf("expected duplicate export error, got %v", err)
	}

	if _, err := os.Stat(cppPath); !os.IsNotExist(err) {
		t.Errorf("bridge written despite parse failure")
	}

	if _, err := os.Stat(pyPath); !os.IsNotExist(err) {
		t.Errorf("module written despite parse failure")
	}
}

func TestGenerateKeepsArtifactsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src/impl.cpp", `// [[export]]
int answer() {
	return 42;
}
`)

	cppPath := filepath.Join(dir, "bindings.cpp")
	pyPath := filepath.Join(dir, "bindings.py")

	args := []string{"generate", filepath.Join(dir, "src"), "--cpp", cppPath, "--py", pyPath}
	if err := runCLI(t, args...); err != nil {
		t.Fatal(err)
	}

	bridge, err := os.ReadFile(cppPath)
	if err != nil {
		t.Fatal(err)
	}

	module, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	// break the source, then make sure the failed rerun left both artifacts
	// from the first run untouched
	writeSource(t, dir, "src/impl.cpp", `// [[export]]
std::vector<int> answer() {
	return {};
}
`)

	if err := runCLI(t, args...); err == nil {
		t.Fatal("expected parse failure")
	}

	bridge2, err := os.ReadFile(cppPath)
	if err != nil {
		t.Fatal(err)
	}

	module2, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(string(bridge), string(bridge2)); diff != "" {
		t.Errorf("bridge modified by failed run (-before +after):\n%s", diff)
	}

	if diff := cmp.Diff(string(module), string(module2)); diff != "" {
		t.Errorf("module modified by failed run (-before +after):\n%s", diff)
	}
}

func TestGenerateExtensionsEnv(t *testing.T) {
	t.Cleanup(envconfig.LoadConfig)
	t.Setenv("CTYPEGEN_EXTENSIONS", ".cxx")
	envconfig.LoadConfig()

	dir := t.TempDir()
	writeSource(t, dir, "src/impl.cxx", `// [[export]]
int answer() {
	return 42;
}
`)
	// would fail to parse, proving .cpp files are not even read
	writeSource(t, dir, "src/ignored.cpp", `// [[export]]
std::vector<int> broken() {
	return {};
}
`)

	cppPath := filepath.Join(dir, "bindings.cpp")
	pyPath := filepath.Join(dir, "bindings.py")

	if err := runCLI(t, "generate", filepath.Join(dir, "src"), "--cpp", cppPath, "--py", pyPath); err != nil {
		t.Fatal(err)
	}

	module, err := os.ReadFile(pyPath)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(module), "def answer():") {
		t.Errorf("module missing function from .cxx source")
	}
}
