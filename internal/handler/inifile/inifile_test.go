package inifile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"setbridge/internal/resolver"
	"setbridge/internal/settings"
)

const fixture = "; editor settings\r\n" +
	"theme = dark\r\n" +
	"[window]\r\n" +
	"width=800\r\n" +
	"maximized=false\r\n" +
	"[[font]]\r\n" +
	"size=12.5\r\n"

type testEnv struct {
	dir     string
	path    string
	handler *Handler
	group   *settings.Group
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "editor.ini")
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}

	reg := resolver.New()
	if err := reg.Add("test", resolver.NewMap(map[string]string{"dir": dir})); err != nil {
		t.Fatal(err)
	}
	g, err := settings.NewGroup("editor", &settings.IniBackend{Path: resolver.NewString("${test:dir}/editor.ini")})
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{dir: dir, path: path, handler: New(reg, nil), group: g}
}

func (e *testEnv) add(t *testing.T, name string, kind settings.Kind, def any) *settings.Setting {
	t.Helper()
	s, err := e.group.Add(name, kind, def)
	if err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return s
}

func TestCapture(t *testing.T) {
	env := setup(t)
	theme := env.add(t, "theme", settings.KindString, nil)
	width := env.add(t, "window.width", settings.KindInteger, nil)
	maximized := env.add(t, "window.maximized", settings.KindBoolean, nil)
	size := env.add(t, "window.font.size", settings.KindReal, nil)
	missing := env.add(t, "window.height", settings.KindInteger, nil)
	defaulted := env.add(t, "window.left", settings.KindInteger, 10)

	values, err := env.handler.Capture(context.Background(), env.group, env.group.Settings)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	tests := []struct {
		s    *settings.Setting
		want any
		prov settings.Provenance
	}{
		{theme, "dark", settings.UserSetting},
		{width, int64(800), settings.UserSetting},
		{maximized, false, settings.UserSetting},
		{size, 12.5, settings.UserSetting},
		{missing, nil, settings.NotFound},
		{defaulted, int64(10), settings.Default},
	}
	for _, tt := range tests {
		e, ok := values.Get(tt.s)
		if !ok {
			t.Errorf("no entry for %s", tt.s)
			continue
		}
		if e.Value != tt.want || e.Provenance != tt.prov {
			t.Errorf("%s = %#v/%s, want %#v/%s", tt.s, e.Value, e.Provenance, tt.want, tt.prov)
		}
	}
	if values.Len() != len(env.group.Settings) {
		t.Errorf("Len() = %d, want %d", values.Len(), len(env.group.Settings))
	}
}

func TestCaptureMissingFile(t *testing.T) {
	env := setup(t)
	env.add(t, "theme", settings.KindString, nil)
	if err := os.Remove(env.path); err != nil {
		t.Fatal(err)
	}
	_, err := env.handler.Capture(context.Background(), env.group, env.group.Settings)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Capture error = %v, want fs.ErrNotExist", err)
	}
}

func TestCaptureWrongBackend(t *testing.T) {
	g, _ := settings.NewGroup("x", &settings.JSONBackend{})
	_, err := New(nil, nil).Capture(context.Background(), g, nil)
	if !errors.Is(err, settings.ErrBackendMismatch) {
		t.Errorf("Capture error = %v, want ErrBackendMismatch", err)
	}
}

func TestApply(t *testing.T) {
	env := setup(t)
	theme := env.add(t, "theme", settings.KindString, nil)
	width := env.add(t, "window.width", settings.KindInteger, nil)
	maximized := env.add(t, "window.maximized", settings.KindBoolean, nil)
	height := env.add(t, "window.height", settings.KindInteger, nil)

	values := settings.NewValues()
	values.Put(theme, "light")
	values.Put(width, 1024)
	values.Put(maximized, nil)
	values.Put(height, "600")

	ok, err := env.handler.Apply(context.Background(), env.group, values)
	if err != nil || !ok {
		t.Fatalf("Apply = %v, %v; want true, nil", ok, err)
	}

	raw, err := os.ReadFile(env.path)
	if err != nil {
		t.Fatal(err)
	}
	want := "; editor settings\r\n" +
		"theme = light\r\n" +
		"[window]\r\n" +
		"width=1024\r\n" +
		"height=600\r\n" +
		"[[font]]\r\n" +
		"size=12.5\r\n"
	if string(raw) != want {
		t.Errorf("file =\n%q\nwant\n%q", raw, want)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	env := setup(t)
	for _, name := range []string{"theme", "window.width", "window.maximized", "window.font.size"} {
		env.add(t, name, settings.KindString, nil)
	}
	ctx := context.Background()

	values, err := env.handler.Capture(ctx, env.group, env.group.Settings)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	ok, err := env.handler.Apply(ctx, env.group, values)
	if err != nil || !ok {
		t.Fatalf("Apply = %v, %v", ok, err)
	}
	raw, _ := os.ReadFile(env.path)
	if string(raw) != fixture {
		t.Errorf("round trip changed the file:\n%q", raw)
	}
}

func TestApplyUnformattable(t *testing.T) {
	env := setup(t)
	width := env.add(t, "window.width", settings.KindInteger, nil)
	theme := env.add(t, "theme", settings.KindString, nil)

	values := settings.NewValues()
	values.Put(width, "wide")
	values.Put(theme, "blue")

	ok, err := env.handler.Apply(context.Background(), env.group, values)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ok {
		t.Error("Apply reported success with an unconvertible value")
	}

	f, _ := os.ReadFile(env.path)
	if got := string(f); got == fixture {
		t.Error("valid values were not written")
	}
}

func TestApplyCanceled(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.handler.Apply(ctx, env.group, settings.NewValues()); !errors.Is(err, context.Canceled) {
		t.Errorf("Apply error = %v, want context.Canceled", err)
	}
}
