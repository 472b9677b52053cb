// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/srcload/srcload/internal/config"
	"github.com/srcload/srcload/internal/host"
	"github.com/srcload/srcload/internal/ipc"
	"github.com/srcload/srcload/internal/testutil"
	"github.com/srcload/srcload/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	staticConfig struct {
		cfg config.Config
	}

	lockedBuffer struct {
		mu  sync.Mutex
		buf bytes.Buffer
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cfg := s.cfg
	return &cfg, nil
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testConfig is the default configuration with the cache under a
// temporary directory.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := *config.DefaultConfig()
	cfg.Cache.Dir = types.FilesystemPath(t.TempDir())
	return cfg
}

func runCLI(ctx context.Context, cfg config.Config, stdout, stderr *lockedBuffer, args ...string) error {
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(string) string { return "" },
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func run(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr lockedBuffer
	err := runCLI(context.Background(), cfg, &stdout, &stderr, args...)
	return stdout.String(), err
}

func exitCode(t *testing.T, err error) types.ExitCode {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %T: %v", err, err)
	return exitErr.Code
}

func TestResolveCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"src/index.ts": "import { x } from './util'\n",
		"src/util.ts":  "export const x = 1\n",
	})
	defer testutil.MustChdir(t, root)()
	cfg := testConfig(t)

	out, err := run(t, cfg, "resolve", "./util", "--from", "src/index.ts")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.ToSlash(strings.TrimSpace(out)), "src/util.ts"), out)

	out, err = run(t, cfg, "resolve", "./src/util.ts", "--long", "--flavor", "cjs")
	require.NoError(t, err)
	assert.Contains(t, out, "location")
	assert.Contains(t, out, "format")
	assert.Contains(t, out, "dependency")

	_, err = run(t, cfg, "resolve", "./missing", "--from", "src/index.ts")
	require.Error(t, err)
	assert.Equal(t, types.ExitNotFound, exitCode(t, err))

	_, err = run(t, cfg, "resolve", "./util", "--flavor", "amd")
	require.Error(t, err)
	assert.Equal(t, types.ExitUsage, exitCode(t, err))
}

func TestTransformCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"a.ts":   "export const n: number = 1\n",
		"b.mts":  "export const s: string = 'b'\n",
		"bad.ts": "export const = \n",
		"x.json": "{}\n",
	})
	defer testutil.MustChdir(t, root)()
	cfg := testConfig(t)

	t.Run("stdout", func(t *testing.T) {
		out, err := run(t, cfg, "transform", "a.ts")
		require.NoError(t, err)
		assert.Contains(t, out, "const n = 1")
		assert.NotContains(t, out, ": number")
		assert.NotContains(t, out, "sourceMappingURL")
	})

	t.Run("inline map", func(t *testing.T) {
		out, err := run(t, cfg, "transform", "--inline-map", "a.ts")
		require.NoError(t, err)
		assert.Contains(t, out, "//# sourceMappingURL=data:application/json")
	})

	t.Run("out dir", func(t *testing.T) {
		outDir := filepath.Join(root, "dist")
		_, err := run(t, cfg, "transform", "--out", outDir, "a.ts", "b.mts")
		require.NoError(t, err)

		js, err := os.ReadFile(filepath.Join(outDir, "a.js"))
		require.NoError(t, err)
		assert.Contains(t, string(js), "//# sourceMappingURL=a.js.map")
		assert.FileExists(t, filepath.Join(outDir, "a.js.map"))

		mjs, err := os.ReadFile(filepath.Join(outDir, "b.mjs"))
		require.NoError(t, err)
		assert.Contains(t, string(mjs), "export")
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := run(t, cfg, "transform", "bad.ts")
		require.Error(t, err)
		assert.Equal(t, types.ExitTransform, exitCode(t, err))
	})

	t.Run("not transformable", func(t *testing.T) {
		_, err := run(t, cfg, "transform", "x.json")
		require.Error(t, err)
		assert.Equal(t, types.ExitUsage, exitCode(t, err))
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := run(t, cfg, "transform", "--format", "json", "a.ts")
		require.Error(t, err)
		assert.Equal(t, types.ExitUsage, exitCode(t, err))
	})
}

func TestCacheCommands(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a.ts": "export const n: number = 1\n"})
	defer testutil.MustChdir(t, root)()
	cfg := testConfig(t)

	out, err := run(t, cfg, "cache", "path")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), string(cfg.Cache.Dir)), out)

	_, err = run(t, cfg, "transform", "a.ts")
	require.NoError(t, err)

	out, err = run(t, cfg, "cache", "info")
	require.NoError(t, err)
	assert.Regexp(t, `entries\s+1\b`, out)

	out, err = run(t, cfg, "cache", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 0 entries")

	out, err = run(t, cfg, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 entries")

	out, err = run(t, cfg, "cache", "info")
	require.NoError(t, err)
	assert.Regexp(t, `entries\s+0\b`, out)

	cfg.Cache.Disabled = true
	out, err = run(t, cfg, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, "(memory only)\n", out)
}

func TestConfigCommands(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resolve.ImplicitExtensions = true

	out, err := run(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "implicit_extensions: true")
	assert.Contains(t, out, `level: "warn"`)

	out, err = run(t, cfg, "--log-level", "debug", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `level: "debug"`)

	_, err = run(t, cfg, "--log-level", "loud", "config", "show")
	require.Error(t, err)
	assert.Equal(t, types.ExitUsage, exitCode(t, err))

	custom := filepath.Join(t.TempDir(), "custom.cue")
	out, err = run(t, cfg, "--config", custom, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, custom+"\n", out)
}

func TestDepsListen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	dir, err := os.MkdirTemp("", "dl")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "deps.pipe")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t)
	var stdout, stderr lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- runCLI(ctx, cfg, &stdout, &stderr, "deps", "listen", "--socket", sock)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "listening on")
	}, 5*time.Second, 10*time.Millisecond)

	client := ipc.NewClient(sock)
	defer client.Close()
	for _, p := range []string{"/src/a.ts", "/src/a.ts", "/src/b.ts"} {
		require.NoError(t, client.Send(ctx, ipc.Message{Type: ipc.TypeDependency, Path: p}))
	}

	require.Eventually(t, func() bool {
		return stdout.String() == "/src/a.ts\n/src/b.ts\n"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("deps listen did not stop")
	}
}

func TestSessionSocketPath(t *testing.T) {
	t.Parallel()

	open := func(t *testing.T, cfg config.Config, env map[string]string) *session {
		t.Helper()
		app := NewApp(Dependencies{
			Config: staticConfig{cfg: cfg},
			Getenv: func(key string) string { return env[key] },
		})
		app.loaded = &cfg
		s, err := app.openSession(sessionOptions{flavor: host.CommonJS, workDir: t.TempDir()})
		require.NoError(t, err)
		t.Cleanup(s.close)
		require.NotNil(t, s.client, "the dependency channel is always wired")
		return s
	}

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		s := open(t, testConfig(t), nil)
		want := ipc.SocketPath(func(string) string { return "" }, os.Getppid())
		assert.Equal(t, want, s.client.Path())
		assert.Equal(t, strconv.Itoa(os.Getppid())+".pipe", filepath.Base(s.client.Path()))
	})

	t.Run("environment", func(t *testing.T) {
		t.Parallel()
		s := open(t, testConfig(t), map[string]string{ipc.EnvSocket: "/tmp/watch.pipe"})
		assert.Equal(t, "/tmp/watch.pipe", s.client.Path())
	})

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.IPC.Socket = "/run/srcload.pipe"
		s := open(t, cfg, map[string]string{ipc.EnvSocket: "/tmp/watch.pipe"})
		assert.Equal(t, "/run/srcload.pipe", s.client.Path())
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "srcload "), out)
}
