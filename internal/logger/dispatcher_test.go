package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orgoj/logfanout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Endpoint error paths are exercised on purpose; keep the diagnostics
	// off the test output.
	GetAppLogger().SetWriter(io.Discard)
	os.Exit(m.Run())
}

// plainFormatter renders "[LEVEL] message" with no timestamp or call
// site, which makes file contents exactly predictable.
func plainFormatter(r Record, _ TimeFormatter) string {
	return "[" + r.Level.String() + "] " + r.Message
}

func newPlainFileEndpoint(t *testing.T, name, path string, level Level) *FileEndpoint {
	t.Helper()
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: name, Type: "file", Path: path})
	require.NoError(t, err)
	ep.SetMinimumLevel(level)
	ep.SetFormatters(plainFormatter, nil)
	return ep
}

func TestDispatcherEndToEnd(t *testing.T) {
	path := tempLogFilePath(t, "all.log")
	ep := newPlainFileEndpoint(t, "all", path, LevelAll)

	d := NewDispatcher([]Endpoint{ep})
	defer d.Close()

	d.Debug("d")
	d.Info("i")
	d.Notice("n")
	d.Warning("w")
	d.Error("e")
	d.Critical("c")
	d.Barrier()

	want := strings.Join([]string{
		"[DEBUG] d",
		"[INFO] i",
		"[NOTICE] n",
		"[WARNING] w",
		"[ERROR] e",
		"[CRITICAL] c",
	}, "\n") + "\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestDispatcherPerEndpointThresholds(t *testing.T) {
	debugPath := tempLogFilePath(t, "debug.log")
	noticePath := tempLogFilePath(t, "notice.log")

	debugEp := newPlainFileEndpoint(t, "debug-ep", debugPath, LevelDebug)
	noticeEp := newPlainFileEndpoint(t, "notice-ep", noticePath, LevelNotice)

	d := NewDispatcher([]Endpoint{debugEp, noticeEp})
	defer d.Close()

	d.Info("only the permissive endpoint sees this")
	d.Warning("both see this")
	d.Barrier()

	assert.Equal(t,
		"[INFO] only the permissive endpoint sees this\n[WARNING] both see this\n",
		readFile(t, debugPath))
	assert.Equal(t,
		"[WARNING] both see this\n",
		readFile(t, noticePath))
}

func TestDispatcherFormattedVariants(t *testing.T) {
	path := tempLogFilePath(t, "fmt.log")
	ep := newPlainFileEndpoint(t, "fmt", path, LevelAll)

	d := NewDispatcher([]Endpoint{ep})
	defer d.Close()

	d.Infof("user %s logged in %d times", "alice", 3)
	d.Errorf("code %d", 500)
	d.Barrier()

	assert.Equal(t,
		"[INFO] user alice logged in 3 times\n[ERROR] code 500\n",
		readFile(t, path))
}

func TestDispatcherLogUsesExplicitLevel(t *testing.T) {
	path := tempLogFilePath(t, "explicit.log")
	ep := newPlainFileEndpoint(t, "explicit", path, LevelAll)

	d := NewDispatcher([]Endpoint{ep})
	defer d.Close()

	d.Log(LevelWarning, "direct")
	d.Barrier()

	assert.Equal(t, "[WARNING] direct\n", readFile(t, path))
}

func TestDispatcherCapturesCallSiteByDefault(t *testing.T) {
	path := tempLogFilePath(t, "caller.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "caller", Type: "file", Path: path})
	require.NoError(t, err)

	d := NewDispatcher([]Endpoint{ep})
	defer d.Close()

	d.Info("where am I")
	d.Barrier()

	assert.Contains(t, readFile(t, path), "dispatcher_test.go",
		"the record must carry the caller's file, not the dispatcher's")
}

func TestDispatcherWithoutCaller(t *testing.T) {
	path := tempLogFilePath(t, "nocaller.log")
	ep, err := NewFileEndpoint(config.EndpointConfig{Name: "nc", Type: "file", Path: path})
	require.NoError(t, err)

	d := NewDispatcher([]Endpoint{ep}, WithoutCaller())
	defer d.Close()

	d.Info("anonymous")
	d.Barrier()

	assert.NotContains(t, readFile(t, path), "dispatcher_test.go")
}

func TestDispatcherRateLimit(t *testing.T) {
	path := tempLogFilePath(t, "limited.log")
	ep := newPlainFileEndpoint(t, "limited", path, LevelAll)

	// Burst of 5; everything past the burst inside the same instant is
	// dropped.
	d := NewDispatcher([]Endpoint{ep}, WithRateLimit(5))
	defer d.Close()

	for i := 0; i < 100; i++ {
		d.Info("spam")
	}
	d.Barrier()

	lines := strings.Count(readFile(t, path), "\n")
	assert.LessOrEqual(t, lines, 6, "the limiter must drop the flood")
	assert.GreaterOrEqual(t, lines, 1, "the first records must pass")
}

func TestDispatcherRecordWriterPreferred(t *testing.T) {
	ep, mock := newMockedGelfEndpoint(t, gelfConfig())

	d := NewDispatcher([]Endpoint{ep}, WithoutCaller())
	defer d.Close()

	d.Error("structured path")
	d.Barrier()

	require.Len(t, mock.messages, 1)
	assert.Equal(t, int32(3), mock.messages[0].Level,
		"the record's own level must reach the wire, not the plain-write default")
	assert.NotContains(t, mock.messages[0].Short, "\n")
}

func TestDispatcherBarrierCoversAllEndpoints(t *testing.T) {
	pathA := tempLogFilePath(t, "a.log")
	pathB := tempLogFilePath(t, "b.log")
	epA := newPlainFileEndpoint(t, "a", pathA, LevelAll)
	epB := newPlainFileEndpoint(t, "b", pathB, LevelAll)

	d := NewDispatcher([]Endpoint{epA, epB})
	defer d.Close()

	for i := 0; i < 200; i++ {
		d.Info("x")
	}
	d.Barrier()

	assert.Equal(t, 200, strings.Count(readFile(t, pathA), "\n"))
	assert.Equal(t, 200, strings.Count(readFile(t, pathB), "\n"))
}

func TestNewDispatcherFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Endpoints: []config.EndpointConfig{
			{Name: "main", Type: "file", Enabled: true, Path: filepath.Join(dir, "main.log")},
			{Name: "off", Type: "file", Enabled: false, Path: filepath.Join(dir, "off.log")},
			{Name: "spin", Type: "rotating", Enabled: true, Path: filepath.Join(dir, "spin.log"), Slots: 3},
		},
	}

	d, err := NewDispatcherFromConfig(cfg)
	require.NoError(t, err)
	defer d.Close()

	require.Len(t, d.Endpoints(), 2, "disabled endpoints must be skipped")
	assert.Equal(t, "main", d.Endpoints()[0].Name())
	assert.Equal(t, "spin", d.Endpoints()[1].Name())

	d.Info("hello")
	d.Barrier()
	assert.Contains(t, readFile(t, filepath.Join(dir, "main.log")), "hello")
	_, err = os.Stat(filepath.Join(dir, "off.log"))
	assert.True(t, os.IsNotExist(err), "disabled endpoint must not touch the filesystem")
}

func TestNewDispatcherFromConfigNoEnabledEndpoints(t *testing.T) {
	cfg := &config.Config{
		Endpoints: []config.EndpointConfig{
			{Name: "off", Type: "file", Enabled: false, Path: "unused.log"},
		},
	}

	_, err := NewDispatcherFromConfig(cfg)
	assert.Error(t, err)
}

func TestNewDispatcherFromConfigRollsBackOnError(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Endpoints: []config.EndpointConfig{
			{Name: "good", Type: "file", Enabled: true, Path: filepath.Join(dir, "good.log")},
			{Name: "bad", Type: "unknown-type", Enabled: true},
		},
	}

	_, err := NewDispatcherFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestDispatcherCloseClosesEveryEndpoint(t *testing.T) {
	path := tempLogFilePath(t, "closed.log")
	ep := newPlainFileEndpoint(t, "closed", path, LevelAll)

	d := NewDispatcher([]Endpoint{ep})
	d.Info("final words")
	d.Close()

	// Close drains pending writes before shutting the endpoint down.
	assert.Equal(t, "[INFO] final words\n", readFile(t, path))
}
