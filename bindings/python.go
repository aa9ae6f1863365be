package bindings

import (
	"fmt"
	"strings"

	"github.com/ctypegen/ctypegen/ctype"
	"github.com/ctypegen/ctypegen/parser"
	"github.com/ctypegen/ctypegen/version"
)

// Module renders the Python artifact: platform-aware library loading, exact
// argtypes/restype declarations per entry point, and a wrapper per function
// that re-raises captured native errors under the original name.
func Module(set *parser.Set, opts Options) []byte {
	if opts.DLLName == "" {
		opts.DLLName = "core"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# Code generated by ctypegen %s. DO NOT EDIT.\n", version.Version)
	sb.WriteString(`"""ctypes bindings for the exported native functions.

Pointer values cross the boundary as plain address integers unless typed
pointer declarations were requested at generation time. Supported native
base types:
`)
	fmt.Fprintf(&sb, "%s.\n\"\"\"\n\n", strings.Join(ctype.Spellings(), ", "))

	sb.WriteString("import ctypes\nimport os\nimport platform\n")
	if opts.NumPy {
		sb.WriteString("\nimport numpy\n")
	}

	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, `def ___load_library():
    system = platform.system()
    if system == "Windows":
        name = "%s.dll"
    elif system == "Darwin":
        name = "lib%s.dylib"
    else:
        name = "lib%s.so"

    local = os.path.join(os.path.dirname(os.path.abspath(__file__)), name)
    if os.path.exists(local):
        return ctypes.CDLL(local)
    return ctypes.CDLL(name)


___lib = ___load_library()

___lib.py_error_status.argtypes = []
___lib.py_error_status.restype = ctypes.c_int32
___lib.py_error_message.argtypes = []
___lib.py_error_message.restype = ctypes.c_char_p


class NativeError(RuntimeError):
    """Raised with the captured message when a native call reports a C++
    exception."""


def ___check():
    if ___lib.py_error_status():
        raise NativeError(___lib.py_error_message().decode("utf-8", "replace"))
`, opts.DLLName, opts.DLLName, opts.DLLName)

	if opts.NumPy {
		sb.WriteString(`

def ___addr(x, typ):
    """Pass C-contiguous NumPy arrays by their base address."""
    if isinstance(x, numpy.ndarray):
        if not x.flags["C_CONTIGUOUS"]:
            raise ValueError("NumPy array arguments must be C-contiguous")
        if typ is ctypes.c_void_p:
            return x.ctypes.data
        return x.ctypes.data_as(typ)
    return x
`)
	}

	for _, fn := range set.Functions() {
		sb.WriteString("\n\n")
		sb.WriteString(declaration(fn, opts.TypedPointers))
		sb.WriteString("\n\n")
		sb.WriteString(wrapper(fn, opts))
	}

	names := []string{`"NativeError"`}
	for _, fn := range set.Functions() {
		names = append(names, fmt.Sprintf("%q", fn.Name))
	}
	fmt.Fprintf(&sb, "\n\n__all__ = [%s]\n", strings.Join(names, ", "))

	return []byte(sb.String())
}

// declaration pins the entry point's argtypes and restype so ctypes performs
// exactly the conversions the bridge expects, nothing adaptive.
func declaration(fn *parser.Function, typed bool) string {
	argtypes := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		argtypes[i] = p.Type.Ctypes(typed)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "___lib.py_%s.argtypes = [%s]\n", fn.Name, strings.Join(argtypes, ", "))
	fmt.Fprintf(&sb, "___lib.py_%s.restype = %s\n", fn.Name, fn.Return.Ctypes(typed))

	return sb.String()
}

// wrapper exposes the original name and arity. Internal locals carry the
// reserved ___ prefix so they cannot shadow parameter names.
func wrapper(fn *parser.Function, opts Options) string {
	names := make([]string, len(fn.Params))
	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
		args[i] = p.Name
		if opts.NumPy && p.Type.Pointer {
			args[i] = fmt.Sprintf("___addr(%s, %s)", p.Name, p.Type.Ctypes(opts.TypedPointers))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "def %s(%s):\n", fn.Name, strings.Join(names, ", "))

	call := fmt.Sprintf("___lib.py_%s(%s)", fn.Name, strings.Join(args, ", "))
	if fn.Return.Void() {
		fmt.Fprintf(&sb, "    %s\n    ___check()\n", call)
	} else {
		fmt.Fprintf(&sb, "    ___result = %s\n    ___check()\n    return ___result\n", call)
	}

	return sb.String()
}
