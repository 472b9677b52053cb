// SPDX-License-Identifier: MPL-2.0

package ipc

import (
	"path/filepath"
	"strconv"

	"github.com/srcload/srcload/pkg/platform"
)

// EnvSocket overrides the socket path.
const EnvSocket = "SRCLOAD_IPC_SOCKET"

// SocketPath returns the socket a process with parent ppid reports to: the
// EnvSocket value when set, else <runtime dir>/<ppid>.pipe. A watcher that
// spawns the process listens on the path named after its own pid.
func SocketPath(getenv func(string) string, ppid int) string {
	if p := getenv(EnvSocket); p != "" {
		return p
	}
	return filepath.Join(platform.RuntimeDir(), strconv.Itoa(ppid)+".pipe")
}
