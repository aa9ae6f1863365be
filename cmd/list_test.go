package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ctypegen/ctypegen/parser"
)

func exportSet(t *testing.T) *parser.Set {
	t.Helper()

	set, err := parser.ParseFiles(context.Background(), []parser.Source{
		{Path: "src/buffers.cc", Data: []byte(`// [[export]]
void* create_buffer(const char* name, size_t n) {
	return nullptr;
}
`)},
		{Path: "src/math.cpp", Data: []byte(`// [[export]]
int multiply(int a, double b) {
	return a * int(b);
}

// [[export]]
void reset_state() {
}
`)},
	})
	if err != nil {
		t.Fatal(err)
	}

	return set
}

func TestListRows(t *testing.T) {
	got := listRows(exportSet(t))
	want := [][]string{
		{"create_buffer", "void*", "const char* name, size_t n", "src/buffers.cc:1"},
		{"multiply", "int", "int a, double b", "src/math.cpp:1"},
		{"reset_state", "void", "void", "src/math.cpp:6"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestListExports(t *testing.T) {
	var b bytes.Buffer
	listExports(exportSet(t), &b)

	out := b.String()
	for _, want := range []string{
		"NAME",
		"RETURNS",
		"PARAMETERS",
		"SOURCE",
		"create_buffer",
		"const char* name, size_t n",
		"src/math.cpp:6",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer

	cli := NewCLI()
	cli.SetArgs([]string{"version"})
	cli.SetOut(&b)
	if err := cli.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(b.String(), "ctypegen version ") {
		t.Errorf("unexpected version output %q", b.String())
	}
}
