package parser

import (
	"fmt"
	"strings"

	"github.com/ctypegen/ctypegen/ctype"
)

// pythonKeywords would make the generated wrapper a syntax error if used as
// a function or parameter name.
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// typeWords are spellings that can only be part of a type. They catch
// unnamed parameters like f(unsigned int) instead of misreading the last
// type word as a name.
var typeWords = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "float": true, "double": true, "signed": true,
	"unsigned": true, "const": true, "size_t": true, "ssize_t": true,
	"int8_t": true, "uint8_t": true, "int16_t": true, "uint16_t": true,
	"int32_t": true, "uint32_t": true, "int64_t": true, "uint64_t": true,
}

// parseSignature splits one captured declarator into return type, name and
// parameters, resolving every type through the registry.
func parseSignature(d Declaration) (*Function, error) {
	text := d.Text

	// Whole-declarator rejections first, each with its reason.
	switch {
	case strings.ContainsAny(text, "<>"):
		return nil, fmt.Errorf("%w: templated types are not supported in %q", ErrInvalidSignature, snippet(text))
	case strings.Contains(text, "&"):
		return nil, fmt.Errorf("%w: pass-by-reference is not supported in %q", ErrInvalidSignature, snippet(text))
	case strings.ContainsAny(text, "[]"):
		return nil, fmt.Errorf("%w: array types are not supported in %q", ErrInvalidSignature, snippet(text))
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		return nil, fmt.Errorf("%w: missing parameter list in %q", ErrInvalidSignature, snippet(text))
	}

	head, rest := text[:open], text[open+1:]

	closing := strings.IndexByte(rest, ')')
	if closing < 0 {
		return nil, fmt.Errorf("%w: unbalanced parameter list in %q", ErrInvalidSignature, snippet(text))
	}

	if strings.Contains(rest[:closing], "(") {
		return nil, fmt.Errorf("%w: function pointer parameters are not supported in %q", ErrInvalidSignature, snippet(text))
	}

	if err := checkTail(rest[closing+1:], text); err != nil {
		return nil, err
	}

	name, ret, err := parseHead(head, text)
	if err != nil {
		return nil, err
	}

	list := rest[:closing]
	switch {
	case strings.Contains(list, "="):
		return nil, fmt.Errorf("%w: default arguments are not supported in %q", ErrInvalidSignature, snippet(text))
	case strings.Contains(list, "..."):
		return nil, fmt.Errorf("%w: variadic functions are not supported in %q", ErrInvalidSignature, snippet(text))
	}

	params, err := parseParams(list, text)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: parameter %q declared twice in %q", ErrInvalidSignature, p.Name, snippet(text))
		}
		seen[p.Name] = true
	}

	return &Function{Name: name, Return: ret, Params: params}, nil
}

// parseHead takes the text before the parameter list: the last token is the
// function name, everything before it the return type.
func parseHead(head, decl string) (string, ctype.Type, error) {
	tokens := tokenize(head)
	if len(tokens) == 0 {
		return "", ctype.Type{}, fmt.Errorf("%w: missing return type and function name in %q", ErrInvalidSignature, snippet(decl))
	}

	name := tokens[len(tokens)-1]
	switch {
	case name == "*", typeWords[name]:
		return "", ctype.Type{}, fmt.Errorf("%w: missing function name in %q", ErrInvalidSignature, snippet(decl))
	case !isIdentifier(name):
		return "", ctype.Type{}, fmt.Errorf("%w: %q is not a valid function name", ErrInvalidSignature, name)
	case pythonKeywords[name]:
		return "", ctype.Type{}, fmt.Errorf("%w: function name %q is a Python keyword", ErrInvalidSignature, name)
	case len(tokens) == 1:
		return "", ctype.Type{}, fmt.Errorf("%w: missing return type in %q", ErrInvalidSignature, snippet(decl))
	}

	ret, err := resolveType(tokens[:len(tokens)-1], decl)
	if err != nil {
		return "", ctype.Type{}, err
	}

	return name, ret, nil
}

// parseParams splits the parameter list on commas. Both () and the C-style
// (void) declare zero parameters.
func parseParams(list, decl string) ([]Param, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	parts := strings.Split(list, ",")
	if len(parts) == 1 {
		if tokens := tokenize(parts[0]); len(tokens) == 1 && tokens[0] == "void" {
			return nil, nil
		}
	}

	params := make([]Param, 0, len(parts))
	for _, part := range parts {
		p, err := parseParam(part, decl)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	return params, nil
}

func parseParam(part, decl string) (Param, error) {
	tokens := tokenize(part)
	if len(tokens) == 0 {
		return Param{}, fmt.Errorf("%w: empty parameter declaration in %q", ErrInvalidSignature, snippet(decl))
	}

	name := tokens[len(tokens)-1]
	switch {
	case name == "*", typeWords[name]:
		return Param{}, fmt.Errorf("%w: parameter %q has no name", ErrInvalidSignature, snippet(part))
	case !isIdentifier(name):
		return Param{}, fmt.Errorf("%w: %q is not a valid parameter name", ErrInvalidSignature, name)
	case pythonKeywords[name]:
		return Param{}, fmt.Errorf("%w: parameter name %q is a Python keyword", ErrInvalidSignature, name)
	case len(tokens) == 1:
		return Param{}, fmt.Errorf("%w: parameter %q has no type", ErrInvalidSignature, name)
	}

	typ, err := resolveType(tokens[:len(tokens)-1], decl)
	if err != nil {
		return Param{}, err
	}

	if typ.Void() {
		return Param{}, fmt.Errorf("%w: parameter %q cannot have type void", ErrInvalidSignature, name)
	}

	return Param{Name: name, Type: typ}, nil
}

// resolveType collapses star tokens into pointer depth, notes pointee const,
// and resolves the remaining base spelling through the registry. A base
// token after a star is a pointer spelling the grammar refuses to untangle.
// Const before the first star binds to the pointee and is kept; const after
// it binds to the pointer itself and is dropped, as is top-level const on
// values. Neither changes the foreign type.
func resolveType(tokens []string, decl string) (ctype.Type, error) {
	var base []string
	var pointers int
	var constQual, starred bool

	for _, tok := range tokens {
		switch {
		case tok == "*":
			pointers++
			starred = true
		case tok == "const":
			if !starred {
				constQual = true
			}
		case starred:
			return ctype.Type{}, fmt.Errorf("%w: unexpected %q after '*' in %q", ErrInvalidSignature, tok, snippet(decl))
		default:
			base = append(base, tok)
		}
	}

	if len(base) == 0 {
		return ctype.Type{}, fmt.Errorf("%w: missing base type in %q", ErrInvalidSignature, snippet(decl))
	}

	return ctype.Resolve(strings.Join(base, " "), pointers, constQual)
}

// checkTail validates whatever sits between the closing parenthesis and the
// body. noexcept is the one specifier a free function can legally carry
// there.
func checkTail(tail, decl string) error {
	for _, tok := range strings.Fields(tail) {
		if tok != "noexcept" {
			return fmt.Errorf("%w: unexpected %q after parameter list in %q", ErrInvalidSignature, tok, snippet(decl))
		}
	}

	return nil
}

// tokenize splits declarator text into words, with '*' always a token of
// its own so "int*", "int *" and "int* " all read the same.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '*':
			flush()
			tokens = append(tokens, "*")
		case r == ' ' || r == '\t' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case isAlpha(r) || r == '_':
		case isNumber(r):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return s != ""
}

func isAlpha(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isNumber(r rune) bool {
	return r >= '0' && r <= '9'
}

func snippet(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
