package envconfig

import (
	"os"
	"strconv"
	"strings"
)

var (
	// Set via CTYPEGEN_DEBUG in the environment
	Debug bool
	// Set via CTYPEGEN_NOPROGRESS in the environment
	NoProgress bool
	// Set via CTYPEGEN_EXTENSIONS in the environment
	Extensions []string
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"CTYPEGEN_DEBUG":      {"CTYPEGEN_DEBUG", Debug, "Show additional debug information (e.g. CTYPEGEN_DEBUG=1)"},
		"CTYPEGEN_NOPROGRESS": {"CTYPEGEN_NOPROGRESS", NoProgress, "Do not render progress output while scanning"},
		"CTYPEGEN_EXTENSIONS": {"CTYPEGEN_EXTENSIONS", Extensions, "A comma separated list of source extensions to scan (default \".cpp,.cc\")"},
	}
}

var defaultExtensions = []string{".cpp", ".cc"}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = false
	if debug := clean("CTYPEGEN_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	NoProgress = false
	if noprogress := clean("CTYPEGEN_NOPROGRESS"); noprogress != "" {
		NoProgress = true
	}

	Extensions = defaultExtensions
	if exts := clean("CTYPEGEN_EXTENSIONS"); exts != "" {
		Extensions = nil
		for _, ext := range strings.Split(exts, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			Extensions = append(Extensions, strings.ToLower(ext))
		}
		if len(Extensions) == 0 {
			Extensions = defaultExtensions
		}
	}
}
