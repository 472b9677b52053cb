// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/srcload/srcload/internal/cache"
	"github.com/srcload/srcload/internal/deps"
	"github.com/srcload/srcload/internal/host"
	"github.com/srcload/srcload/internal/ipc"
	"github.com/srcload/srcload/internal/issue"
	"github.com/srcload/srcload/internal/loader"
	"github.com/srcload/srcload/internal/resolve"
)

type (
	// session is one registration on a filesystem host, with the cache and
	// dependency channel it reports to.
	session struct {
		chain  *loader.Chain
		handle *loader.Handle
		store  cache.Store
		client *ipc.Client
	}

	sessionOptions struct {
		flavor     host.Flavor
		namespace  string
		workDir    string
		deferPrune bool
	}
)

// openStore opens the transform cache described by the configuration.
func (a *App) openStore(deferPrune bool) (cache.Store, error) {
	c := a.Loaded().Cache
	store, err := cache.Open(c.Disabled, cache.Options{
		Root:          string(c.Dir),
		MemoryEntries: c.MemoryEntries,
		Retention:     c.Retention,
		DeferPrune:    deferPrune,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open transform cache").
			WithResource(string(c.Dir)).
			WithSuggestions(
				"Point cache.dir at a writable directory",
				"Export SRCLOAD_DISABLE_CACHE=1 to keep the cache in memory",
			).
			Wrap(err).
			BuildError()
	}
	return store, nil
}

// socketPath is the dependency channel this process reports to: the
// configured socket, else the one named after the parent process.
func (a *App) socketPath() string {
	if sock := a.Loaded().IPC.Socket; sock != "" {
		return string(sock)
	}
	return ipc.SocketPath(a.getenv, os.Getppid())
}

// openSession registers a loader pipeline over a fresh filesystem host.
func (a *App) openSession(opts sessionOptions) (*session, error) {
	store, err := a.openStore(opts.deferPrune)
	if err != nil {
		return nil, err
	}

	s := &session{store: store, client: ipc.NewClient(a.socketPath())}
	tracker := deps.New(s.client)

	manifests := resolve.NewManifestCache()
	s.chain = loader.NewChain(host.New(opts.flavor,
		host.WithWorkDir(opts.workDir),
		host.WithManifests(manifests),
	))
	s.handle, err = loader.Register(s.chain, loader.Config{
		Namespace:          opts.namespace,
		WorkDir:            opts.workDir,
		ImplicitExtensions: a.Loaded().Resolve.ImplicitExtensions,
		Cache:              store,
		Tracker:            tracker,
		Manifests:          manifests,
		Getenv:             a.projectEnv,
	})
	if err != nil {
		s.close()
		return nil, issue.NewErrorContext().
			WithOperation("register loader").
			WithResource(opts.workDir).
			WithSuggestion("Check tsconfig.json for syntax errors, or set resolve.tsconfig_path").
			Wrap(err).
			BuildError()
	}
	return s, nil
}

// close unregisters the pipeline and waits for pending cache writes.
func (s *session) close() {
	if s.handle != nil {
		s.handle.Unregister()
	}
	if s.client != nil {
		_ = s.client.Close()
	}
	s.store.Flush()
}
