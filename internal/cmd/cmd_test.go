package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"setbridge/internal/config"
	"setbridge/internal/config/yamlstore"
	"setbridge/internal/engine"
	"setbridge/internal/ini"
	"setbridge/internal/solution"
	"setbridge/internal/winreg"
)

const testSolution = `name = "app"

[[groups]]
name = "view"
backend = "ini"
path = '%INI%'

[[groups.settings]]
name = "window.width"
kind = "integer"

[[groups.settings]]
name = "window.title"
default = "Editor"
`

type testEnv struct {
	app  *App
	home string
	ini  string
	out  *bytes.Buffer
	err  *bytes.Buffer
}

// newTestEnv creates an App rooted in a temp home holding the "app"
// solution, whose INI file starts as "[window]\nwidth=800\n".
func newTestEnv(t *testing.T, overrides map[string]string) *testEnv {
	t.Helper()
	home := t.TempDir()
	env := &testEnv{
		home: home,
		ini:  filepath.Join(home, "app.ini"),
		out:  &bytes.Buffer{},
		err:  &bytes.Buffer{},
	}
	if err := os.WriteFile(env.ini, []byte("[window]\nwidth=800\n"), 0o644); err != nil {
		t.Fatalf("write ini: %v", err)
	}
	sol := strings.Replace(testSolution, "%INI%", env.ini, 1)
	if err := os.WriteFile(filepath.Join(home, "app.solution.toml"), []byte(sol), 0o644); err != nil {
		t.Fatalf("write solution: %v", err)
	}

	paths := config.Paths{Home: home, ConfigFile: filepath.Join(home, config.ConfigFileName)}
	store, err := yamlstore.New(paths.ConfigFile)
	if err != nil {
		t.Fatalf("yamlstore.New: %v", err)
	}
	config.ApplyDefaults(store)
	for k, v := range overrides {
		store.SetInMemory(k, v)
	}

	app, err := NewApp(paths, store, env.out, env.err, engine.WithRegistryStore(winreg.NewMemory()))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.SolutionPath = solution.SearchPath{home}
	env.app = app
	return env
}

func (e *testEnv) run(args ...string) error {
	e.out.Reset()
	e.err.Reset()
	root := newRootCmd(NewTestProvider(e.app))
	root.SetArgs(args)
	root.SetOut(e.out)
	root.SetErr(e.err)
	return root.Execute()
}

func (e *testEnv) readINI(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.ini)
	if err != nil {
		t.Fatalf("read ini: %v", err)
	}
	return string(data)
}

func TestCaptureText(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.run("capture", "app"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	got := env.out.String()
	for _, want := range []string{"view.window.width = 800\n", "view.window.title = Editor (default)\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestCaptureJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	env.app.JSON = true
	if err := env.run("capture", "app", "view"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	var result captureResult
	if err := json.Unmarshal(env.out.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, env.out.String())
	}
	if result.Solution != "app" || len(result.Values) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Values[0].Setting != "window.width" || result.Values[0].Value != float64(800) {
		t.Errorf("first value = %+v", result.Values[0])
	}
}

func TestCaptureUnknownGroup(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.run("capture", "app", "nope")
	if err == nil {
		t.Fatal("expected error for unknown group")
	}
	if !strings.Contains(env.err.String(), "nope") {
		t.Errorf("stderr = %q", env.err.String())
	}
}

func TestCaptureMissingFileFailsGroup(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := os.Remove(env.ini); err != nil {
		t.Fatal(err)
	}
	if err := env.run("capture", "app"); err == nil {
		t.Fatal("expected error when the ini file is missing")
	}
}

func TestApplyAssignments(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.run("apply", "app", "view.window.width=1024"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.readINI(t); got != "[window]\nwidth=1024\n" {
		t.Errorf("ini = %q", got)
	}
	if !strings.Contains(env.out.String(), "✓ view") {
		t.Errorf("output = %q", env.out.String())
	}
}

func TestApplyUnset(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.run("apply", "app", "--unset", "view.window.width"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.readINI(t); strings.Contains(got, "width") {
		t.Errorf("width still present: %q", got)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"not an assignment", []string{"apply", "app", "view.window.width", "x=1"}},
		{"unconvertible", []string{"apply", "app", "view.window.width=wide"}},
		{"unknown setting", []string{"apply", "app", "view.window.depth=3"}},
		{"nothing", []string{"apply", "app"}},
		{"missing snapshot", []string{"apply", "--snapshot", "deadbeef"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if err := env.run(tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
			if got := env.readINI(t); got != "[window]\nwidth=800\n" {
				t.Errorf("ini changed: %q", got)
			}
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.app.JSON = true
	if err := env.run("capture", "app", "--save", "--label", "before"); err != nil {
		t.Fatalf("capture --save: %v", err)
	}
	var captured captureResult
	if err := json.Unmarshal(env.out.Bytes(), &captured); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if captured.Snapshot == "" {
		t.Fatal("no snapshot id reported")
	}
	env.app.JSON = false

	if err := env.run("apply", "app", "view.window.width=1"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := env.run("apply", "--snapshot", captured.Snapshot[:8]); err != nil {
		t.Fatalf("apply --snapshot: %v", err)
	}
	f, err := ini.ReadFile(env.ini)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if v, _ := f.Get("window.width"); v != "800" {
		t.Errorf("window.width = %q after restore, want 800", v)
	}

	if err := env.run("snapshot", "list"); err != nil {
		t.Fatalf("snapshot list: %v", err)
	}
	if !strings.Contains(env.out.String(), "before") {
		t.Errorf("list output = %q", env.out.String())
	}

	if err := env.run("snapshot", "show", captured.Snapshot); err != nil {
		t.Fatalf("snapshot show: %v", err)
	}
	if !strings.Contains(env.out.String(), "view.window.width = 800") {
		t.Errorf("show output = %q", env.out.String())
	}

	if err := env.run("snapshot", "delete", captured.Snapshot); err != nil {
		t.Fatalf("snapshot delete: %v", err)
	}
	if err := env.run("snapshot", "list"); err != nil {
		t.Fatalf("snapshot list: %v", err)
	}
	if !strings.Contains(env.out.String(), "No snapshots") {
		t.Errorf("list after delete = %q", env.out.String())
	}
}

func TestIniCommands(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.run("ini", "set", env.ini, "window.height=600", "theme=dark"); err != nil {
		t.Fatalf("ini set: %v", err)
	}
	if err := env.run("ini", "get", env.ini, "window.height"); err != nil {
		t.Fatalf("ini get: %v", err)
	}
	if got := env.out.String(); got != "600\n" {
		t.Errorf("ini get = %q", got)
	}

	if err := env.run("ini", "unset", env.ini, "theme"); err != nil {
		t.Fatalf("ini unset: %v", err)
	}
	if err := env.run("ini", "keys", env.ini); err != nil {
		t.Fatalf("ini keys: %v", err)
	}
	if got := env.out.String(); got != "window.width\nwindow.height\n" {
		t.Errorf("ini keys = %q", got)
	}

	if err := env.run("ini", "get", env.ini, "missing"); err != nil {
		t.Fatalf("ini get missing: %v", err)
	}
	if got := env.out.String(); got != "missing (not set)\n" {
		t.Errorf("ini get missing = %q", got)
	}
}

func TestResolveCmd(t *testing.T) {
	env := newTestEnv(t, map[string]string{"folder.Test": "/srv/test"})

	if err := env.run("resolve", "${folder:Test}/x", "plain"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := env.out.String(); got != "/srv/test/x\nplain\n" {
		t.Errorf("resolve = %q", got)
	}

	if err := env.run("resolve", "--list"); err != nil {
		t.Fatalf("resolve --list: %v", err)
	}
	for _, name := range []string{"env", "folder", "reg"} {
		if !strings.Contains(env.out.String(), name+"\n") {
			t.Errorf("resolver %q not listed: %q", name, env.out.String())
		}
	}
}

func TestSolutionsCmd(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.run("solutions"); err != nil {
		t.Fatalf("solutions: %v", err)
	}
	if got := env.out.String(); !strings.HasPrefix(got, "app ") || !strings.Contains(got, "1 groups") {
		t.Errorf("solutions = %q", got)
	}
}

func TestConfigCmds(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.run("config", "set", "log.level", "debug"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if err := env.run("config", "get", "log.level"); err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := env.out.String(); got != "debug\n" {
		t.Errorf("config get = %q", got)
	}

	if err := env.run("config", "set", "log.level", "loud"); err == nil {
		t.Error("expected error for invalid log.level")
	}
	if err := env.run("config", "set", "no.such.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}

	if err := env.run("config", "list"); err != nil {
		t.Fatalf("config list: %v", err)
	}
	if !strings.Contains(env.out.String(), "engine.concurrency = 4") {
		t.Errorf("config list = %q", env.out.String())
	}

	if err := env.run("config", "unset", "log.level"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(env.home, config.ConfigFileName))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "log.level") {
		t.Errorf("config file still has log.level:\n%s", data)
	}

	if err := env.run("config", "validate"); err != nil {
		t.Errorf("config validate: %v", err)
	}
}

func TestWatchNeedsFileGroups(t *testing.T) {
	env := newTestEnv(t, nil)
	sol := `name = "reg"

[[groups]]
name = "keys"
backend = "registry"
key = 'HKCU\Software\App'

[[groups.settings]]
name = "x"
`
	if err := os.WriteFile(filepath.Join(env.home, "reg.solution.toml"), []byte(sol), 0o644); err != nil {
		t.Fatal(err)
	}
	err := env.run("watch", "reg")
	if err == nil || !strings.Contains(err.Error(), "no file-backed groups") {
		t.Errorf("watch err = %v", err)
	}
	if !strings.Contains(env.err.String(), "keys is not file backed") {
		t.Errorf("stderr = %q", env.err.String())
	}
}
