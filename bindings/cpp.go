package bindings

import (
	"fmt"
	"strings"

	"github.com/ctypegen/ctypegen/parser"
	"github.com/ctypegen/ctypegen/version"
)

// messageCap is the capacity of the thread-local error buffer in the
// generated bridge, including the terminating NUL. Longer diagnostics are
// truncated explicitly rather than overrunning the buffer.
const messageCap = 2048

// Bridge renders the C++ artifact: re-declared prototypes for the original
// functions, the thread-local error state, and one exception-trapping
// extern "C" entry point per export.
func Bridge(set *parser.Set) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// Code generated by ctypegen %s. DO NOT EDIT.\n", version.Version)
	sb.WriteString(`//
// C++ side of the generated boundary. Every entry point traps C++
// exceptions and reports them through py_error_status/py_error_message;
// nothing may unwind across the foreign-call boundary.

#include <cstdint>
#include <cstddef>
#include <cstring>
#include <exception>
`)
	if usesSSize(set) {
		sb.WriteString("#include <sys/types.h>\n")
	}
	sb.WriteString("\n")

	if set.Len() > 0 {
		sb.WriteString("// Original functions, re-declared from their parsed signatures.\n")
		for _, fn := range set.Functions() {
			sb.WriteString(prototype(fn))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `namespace {

thread_local int32_t error_status = 0;
thread_local char error_message[%d];

void set_error(const char* what) {
    error_status = 1;
    std::strncpy(error_message, what, sizeof(error_message) - 1);
    error_message[sizeof(error_message) - 1] = '\0';
}

}  // namespace

extern "C" {

int32_t py_error_status() {
    return error_status;
}

const char* py_error_message() {
    return error_message;
}
`, messageCap)

	for _, fn := range set.Functions() {
		sb.WriteString("\n")
		sb.WriteString(entryPoint(fn))
	}

	sb.WriteString("\n}  // extern \"C\"\n")

	return []byte(sb.String())
}

// prototype re-declares an original function so the bridge compiles without
// the scanned headers and links against the original objects. Spellings stay
// exactly as the source wrote them: a fixed-width typedef names a different
// builtin on different platforms, so re-spelling it would change the C++
// mangling and break the link.
func prototype(fn *parser.Function) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type.Spelling() + " " + p.Name
	}

	return fmt.Sprintf("%s %s(%s);", fn.Return.Spelling(), fn.Name, strings.Join(params, ", "))
}

// entryPoint emits the uniform calling convention: clear the error state,
// call the original inside try/catch, and on failure record the message and
// return a value-initialized result instead of unwinding. Every file-scope
// name in the body is ::-qualified because parameters may legally share it.
func entryPoint(fn *parser.Function) string {
	params := make([]string, len(fn.Params))
	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type.CABI() + " " + p.Name
		args[i] = p.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s py_%s(%s) {\n", fn.Return.CABI(), fn.Name, strings.Join(params, ", "))
	sb.WriteString("    ::error_status = 0;\n")
	sb.WriteString("    try {\n")

	call := fmt.Sprintf("::%s(%s)", fn.Name, strings.Join(args, ", "))
	if fn.Return.Void() {
		fmt.Fprintf(&sb, "        %s;\n", call)
	} else {
		fmt.Fprintf(&sb, "        return %s;\n", call)
	}

	sb.WriteString(`    } catch (const std::exception& e) {
        ::set_error(e.what());
    } catch (...) {
        ::set_error("unknown C++ exception");
    }
`)

	if !fn.Return.Void() {
		sb.WriteString("    return {};\n")
	}

	sb.WriteString("}\n")

	return sb.String()
}

// ssize_t is the one registry entry without a <cstdint>/<cstddef> home.
func usesSSize(set *parser.Set) bool {
	for _, fn := range set.Functions() {
		if fn.Return.Base == "ssize_t" {
			return true
		}

		for _, p := range fn.Params {
			if p.Type.Base == "ssize_t" {
				return true
			}
		}
	}

	return false
}
