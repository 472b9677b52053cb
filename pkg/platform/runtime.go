// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

// RuntimeDirPrefix prefixes the per-user directory under the system temp dir.
const RuntimeDirPrefix = "srcload-"

// runtimeDirOnce caches the runtime directory for the lifetime of the process.
var runtimeDirOnce = sync.OnceValue(func() string {
	return RuntimeDirFor(os.TempDir(), userToken(runtime.GOOS, os.Getuid, os.Getenv))
})

// RuntimeDir returns <tmp>/srcload-<uid>, the directory holding the
// persisted cache and the notification socket. It is not created.
func RuntimeDir() string {
	return runtimeDirOnce()
}

// RuntimeDirFor is the pure form of RuntimeDir.
func RuntimeDirFor(tempDir, user string) string {
	return filepath.Join(tempDir, RuntimeDirPrefix+user)
}

// userToken identifies the current user in a path. Windows has no numeric
// uid, so the account name stands in.
func userToken(goos string, getuid func() int, getenv func(string) string) string {
	if goos == Windows {
		if name := getenv("USERNAME"); name != "" {
			return name
		}
		return "user"
	}
	return strconv.Itoa(getuid())
}
