// SPDX-License-Identifier: MPL-2.0

package host

import (
	"strings"

	"github.com/srcload/srcload/pkg/modspec"
)

// builtinModules lists the host's built-in module names.
var builtinModules = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"sys": true, "timers": true, "tls": true, "trace_events": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}

// builtinName returns the canonical "node:" name for a built-in specifier.
func builtinName(spec string) (string, bool) {
	if strings.HasPrefix(spec, modspec.BuiltinScheme) {
		return spec, true
	}
	root, _, _ := strings.Cut(spec, "/")
	if builtinModules[root] {
		return modspec.BuiltinScheme + spec, true
	}
	return "", false
}
