// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/srcload/srcload/internal/ipc"
	"github.com/srcload/srcload/internal/issue"

	"github.com/spf13/cobra"
)

// newDepsCommand creates the `srcload deps` command tree.
func newDepsCommand(app *App) *cobra.Command {
	depsCmd := &cobra.Command{
		Use:   "deps",
		Short: "Work with the dependency notification channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var socket string
	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Print every dependency reported by child processes",
		Long: `Listen on the dependency socket and print each reported path once.

Processes started from this shell report to <runtime dir>/<ppid>.pipe, so the
default socket is named after this process. Set ipc.socket or
SRCLOAD_IPC_SOCKET in both processes to share an explicit path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := socket
			if path == "" {
				path = string(app.Loaded().IPC.Socket)
			}
			if path == "" {
				path = ipc.SocketPath(func(string) string { return "" }, os.Getpid())
			}

			var (
				mu   sync.Mutex
				seen = make(map[string]bool)
			)
			srv, err := ipc.Listen(path, func(msg ipc.Message) {
				if msg.Type != ipc.TypeDependency {
					slog.Debug("ignoring message", "type", msg.Type)
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if seen[msg.Path] {
					return
				}
				seen[msg.Path] = true
				fmt.Fprintln(app.stdout, msg.Path)
			})
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("listen for dependencies").
					WithResource(path).
					WithSuggestion("Pass --socket with a shorter path in a writable directory").
					Wrap(err).
					BuildError()
			}
			fmt.Fprintln(app.stderr, VerboseStyle.Render("listening on ")+PathStyle.Render(path))

			<-cmd.Context().Done()
			return srv.Close()
		},
	}
	listenCmd.Flags().StringVar(&socket, "socket", "", "socket path")
	depsCmd.AddCommand(listenCmd)
	return depsCmd
}
