package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

const testSeed = `{"path":"/home","tag":"home","attrs":{"name":"main","w":"40ft","l":"30ft"}}
{"path":"/home/kitchen","tag":"room","attrs":{"name":"kitchen","w":"10ft","l":"10ft","x":"0ft","y":"0ft","activity":"cooking"}}
{"path":"/home/kitchen/motion","tag":"motion","attrs":{"name":"km","x":"5ft","y":"5ft","raw-state":"false"}}
{"path":"/home/den","tag":"room","attrs":{"name":"den","w":"12ft","l":"10ft","x":"10ft","y":"0ft","activity":"unknown"}}
`

// cliEnv is an isolated config and data directory pair.
type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
	require.NoError(t, os.MkdirAll(env.dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.dataDir, "home.jsonl"), []byte(testSeed), 0o644))
	return env
}

func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hometree v"+Version)
}

func TestInitCreatesConfigAndSeed(t *testing.T) {
	dir := t.TempDir()
	env := cliEnv{configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}

	out, _, err := env.run(t, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "hometree initialized")
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.dataDir, "home.jsonl"))

	// Second run leaves existing files alone.
	out, _, err = env.run(t, "", "init")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrote")

	out, _, err = env.run(t, "", "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "- hue-bridge (hue-bridge)")
	assert.Contains(t, out, "<text>: over the desk")
}

func TestTree(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "tree")
	require.NoError(t, err)

	want := "- home (home)\n" +
		"    { l: 30ft }\n" +
		"    { w: 40ft }\n" +
		"  - den (room)\n"
	assert.True(t, strings.HasPrefix(out, want), "got:\n%s", out)
	assert.Contains(t, out, "  - kitchen (room)\n      { activity: cooking }\n")
	assert.Contains(t, out, "    - motion (motion)\n")
}

func TestTreeSelector(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "tree", "--selector", "home > room")
	require.NoError(t, err)

	// Intermediate nodes absent from the result render without a tag.
	assert.Contains(t, out, "- home\n")
	assert.Contains(t, out, "  - kitchen (room)\n")
	assert.NotContains(t, out, "motion")
}

func TestTreeJSON(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "--json", "tree", "-s", "motion")
	require.NoError(t, err)
	assert.Contains(t, out, `"path": "/home/kitchen/motion"`)
	assert.Contains(t, out, `"tag": "motion"`)
}

func TestQuery(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "query", "room")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/home/den\troom\t"))
	assert.True(t, strings.HasPrefix(lines[1], "/home/kitchen\troom\t"))
	assert.Contains(t, lines[1], "activity=cooking")
}

func TestQueryInvalidSelector(t *testing.T) {
	_, _, err := newCLIEnv(t).run(t, "", "query", "room >")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidSelector)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestBirdseyeActivity(t *testing.T) {
	out, _, err := newCLIEnv(t).run(t, "", "birdseye", "--activity", "den=reading")
	require.NoError(t, err)
	assert.Contains(t, out, "room den [reading]")
	assert.Contains(t, out, "room kitchen [cooking]")
}

func TestBirdseyeBadActivity(t *testing.T) {
	_, _, err := newCLIEnv(t).run(t, "", "birdseye", "--activity", "den")
	require.ErrorIs(t, err, errUsage)
}

func TestWatchAppliesUpdates(t *testing.T) {
	stdin := "room > activity=x\n" +
		"room[name=kitchen] activity=dishes\n" +
		"not-an-update\n" +
		"# comment\n"
	out, errOut, err := newCLIEnv(t).run(t, stdin, "watch")
	require.NoError(t, err)

	before, after, ok := strings.Cut(out, "# room[name=kitchen] activity=dishes")
	require.True(t, ok, "got:\n%s", out)
	assert.Contains(t, before, "{ activity: cooking }")
	assert.Contains(t, after, "{ activity: *dishes }")
	assert.Contains(t, after, "{ activity: unknown }")
	assert.Contains(t, errOut, `skipping "room > activity=x"`)
	assert.Contains(t, errOut, `skipping "not-an-update"`)
	assert.NotContains(t, out, "# room > activity=x")
}

func TestParseUpdate(t *testing.T) {
	target, key, value, err := parseUpdate("home > room[name=den] activity=tv time")
	require.Error(t, err) // last field has no '='
	assert.Empty(t, target)

	target, key, value, err = parseUpdate("home > room[name=den] activity=")
	require.NoError(t, err)
	assert.Equal(t, "home > room[name=den]", target)
	assert.Equal(t, "activity", key)
	assert.Equal(t, "", value)

	_, _, _, err = parseUpdate("activity=x")
	assert.ErrorIs(t, err, errUsage)

	_, _, _, err = parseUpdate("room > activity=x")
	assert.ErrorIs(t, err, types.ErrInvalidSelector)
}

func TestConfigFromFile(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"),
		[]byte("backend: dolt\n"), 0o644))

	_, _, err := env.run(t, "", "tree")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(fmt.Errorf("x: %w", types.ErrNodeNotFound)))
	assert.Equal(t, exitSysError, exitCode(errors.New("disk on fire")))
}
