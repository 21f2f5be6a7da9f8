package syscall

import (
	"context"
	"errors"
	"testing"

	"setbridge/internal/settings"
)

func newGroup(t *testing.T, function string) *settings.Group {
	t.Helper()
	g, err := settings.NewGroup("desktop", &settings.SystemCallBackend{Function: function})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func add(t *testing.T, g *settings.Group, name string, kind settings.Kind, def any) *settings.Setting {
	t.Helper()
	s, err := g.Add(name, kind, def)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newMemory() *Memory {
	m := NewMemory()
	m.Register(FunctionSystemParametersInfo, map[string]any{
		"MouseSpeed":      uint32(10),
		"DragFullWindows": uint32(1),
	})
	return m
}

func TestCapture(t *testing.T) {
	g := newGroup(t, FunctionSystemParametersInfo)
	speed := add(t, g, "MouseSpeed", settings.KindInteger, nil)
	drag := add(t, g, "DragFullWindows", settings.KindBoolean, nil)
	unknown := add(t, g, "Unknown", settings.KindInteger, 5)

	values, err := New(newMemory(), nil).Capture(context.Background(), g, g.Settings)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	tests := []struct {
		s    *settings.Setting
		want any
		prov settings.Provenance
	}{
		{speed, int64(10), settings.UserSetting},
		{drag, true, settings.UserSetting},
		{unknown, int64(5), settings.Default},
	}
	for _, tt := range tests {
		e, _ := values.Get(tt.s)
		if e.Value != tt.want || e.Provenance != tt.prov {
			t.Errorf("%s = %#v/%s, want %#v/%s", tt.s, e.Value, e.Provenance, tt.want, tt.prov)
		}
	}
}

func TestApply(t *testing.T) {
	mem := newMemory()
	g := newGroup(t, FunctionSystemParametersInfo)
	speed := add(t, g, "MouseSpeed", settings.KindInteger, nil)
	drag := add(t, g, "DragFullWindows", settings.KindBoolean, nil)
	unknown := add(t, g, "Unknown", settings.KindInteger, nil)

	values := settings.NewValues()
	values.Put(speed, "15")
	values.Put(drag, nil)
	values.Put(unknown, 1)

	ok, err := New(mem, nil).Apply(context.Background(), g, values)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ok {
		t.Error("Apply should fail for the nil and unknown settings")
	}
	if v, _ := mem.Get(context.Background(), FunctionSystemParametersInfo, "MouseSpeed"); v != int64(15) {
		t.Errorf("MouseSpeed = %#v, want int64(15)", v)
	}
	if v, _ := mem.Get(context.Background(), FunctionSystemParametersInfo, "DragFullWindows"); v != uint32(1) {
		t.Errorf("DragFullWindows changed to %#v", v)
	}
}

func TestGroupFailures(t *testing.T) {
	ctx := context.Background()

	g := newGroup(t, "NoSuchFunction")
	add(t, g, "x", settings.KindInteger, nil)
	if _, err := New(newMemory(), nil).Capture(ctx, g, g.Settings); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("Capture error = %v, want ErrUnknownFunction", err)
	}

	empty := newGroup(t, "")
	if _, err := New(newMemory(), nil).Apply(ctx, empty, settings.NewValues()); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("Apply error = %v, want ErrUnknownFunction", err)
	}

	wrong, _ := settings.NewGroup("other", &settings.SystemSettingsBackend{})
	if _, err := New(newMemory(), nil).Capture(ctx, wrong, nil); !errors.Is(err, settings.ErrBackendMismatch) {
		t.Errorf("Capture error = %v, want ErrBackendMismatch", err)
	}
}
