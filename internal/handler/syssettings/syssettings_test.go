package syssettings

import (
	"context"
	"errors"
	"testing"
	"time"

	"setbridge/internal/settings"
)

func newGroup(t *testing.T) *settings.Group {
	t.Helper()
	g, err := settings.NewGroup("display", &settings.SystemSettingsBackend{})
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

func fast() []Option {
	return []Option{WithWait(50 * time.Millisecond), WithPoll(10 * time.Millisecond)}
}

func TestWaitForEnabled(t *testing.T) {
	h := New(NewMemory(), fast()...)
	ctx := context.Background()

	tests := []struct {
		name  string
		after int
		want  bool
	}{
		{"already enabled", 0, true},
		{"enabled after a few polls", 3, true},
		{"enabled too late", 10, false},
		{"never enabled", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewMemoryItem(1).EnableAfter(tt.after)
			if got := h.WaitForEnabled(ctx, item); got != tt.want {
				t.Errorf("WaitForEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitForEnabledZeroWaitChecksOnce(t *testing.T) {
	h := New(NewMemory(), WithWait(0))
	item := NewMemoryItem(1).EnableAfter(1)
	if h.WaitForEnabled(context.Background(), item) {
		t.Error("zero wait should not poll")
	}
	if item.checks != 1 {
		t.Errorf("checks = %d, want 1", item.checks)
	}
}

func TestWaitForEnabledCanceled(t *testing.T) {
	h := New(NewMemory(), WithWait(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if h.WaitForEnabled(ctx, NewMemoryItem(1).EnableAfter(-1)) {
		t.Error("WaitForEnabled returned true on a canceled context")
	}
}

func TestCaptureCachesItems(t *testing.T) {
	mem := NewMemory()
	mem.Add("Display.Brightness", NewMemoryItem(uint32(80)))
	mem.Add("Display.NightLight", NewMemoryItem(true).EnableAfter(2))
	mem.Add("Display.Locked", NewMemoryItem("x").EnableAfter(-1))

	g := newGroup(t)
	brightness := add(t, g, "Display.Brightness", settings.KindInteger, nil)
	night := add(t, g, "Display.NightLight", settings.KindBoolean, nil)
	locked := add(t, g, "Display.Locked", settings.KindString, "default")
	unknown := add(t, g, "Display.Unknown", settings.KindString, nil)

	h := New(mem, fast()...)
	ctx := context.Background()
	values, err := h.Capture(ctx, g, g.Settings)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	tests := []struct {
		s    *settings.Setting
		want any
		prov settings.Provenance
	}{
		{brightness, int64(80), settings.UserSetting},
		{night, true, settings.UserSetting},
		{locked, "default", settings.Default},
		{unknown, nil, settings.NotFound},
	}
	for _, tt := range tests {
		e, _ := values.Get(tt.s)
		if e.Value != tt.want || e.Provenance != tt.prov {
			t.Errorf("%s = %#v/%s, want %#v/%s", tt.s, e.Value, e.Provenance, tt.want, tt.prov)
		}
	}

	if got := mem.Lookups(); got != 4 {
		t.Fatalf("Lookups() = %d, want 4", got)
	}
	if _, err := h.Capture(ctx, g, []*settings.Setting{brightness, night}); err != nil {
		t.Fatal(err)
	}
	if got := mem.Lookups(); got != 4 {
		t.Errorf("Lookups() after second capture = %d, want 4 (cached)", got)
	}
}

func TestApply(t *testing.T) {
	mem := NewMemory()
	item := NewMemoryItem(int64(1))
	mem.Add("Mouse.Speed", item)
	mem.Add("Mouse.Locked", NewMemoryItem(0).EnableAfter(-1))

	g := newGroup(t)
	speed := add(t, g, "Mouse.Speed", settings.KindInteger, nil)
	locked := add(t, g, "Mouse.Locked", settings.KindInteger, nil)

	values := settings.NewValues()
	values.Put(speed, "12")
	values.Put(locked, 3)

	ok, err := New(mem, fast()...).Apply(context.Background(), g, values)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ok {
		t.Error("Apply should fail for the disabled item")
	}
	if v, _ := item.GetValue(); v != int64(12) {
		t.Errorf("Mouse.Speed = %#v, want int64(12)", v)
	}
}

func TestApplyNil(t *testing.T) {
	mem := NewMemory()
	mem.Add("A", NewMemoryItem(1))
	g := newGroup(t)
	a := add(t, g, "A", settings.KindInteger, nil)
	values := settings.NewValues()
	values.Put(a, nil)
	if ok, err := New(mem, fast()...).Apply(context.Background(), g, values); ok || err != nil {
		t.Errorf("Apply = %v, %v; want false, nil", ok, err)
	}
}

func TestUnsupported(t *testing.T) {
	g := newGroup(t)
	s := add(t, g, "A", settings.KindInteger, nil)
	h := New(nil)
	if _, err := h.Capture(context.Background(), g, g.Settings); !errors.Is(err, settings.ErrUnsupported) {
		t.Errorf("Capture error = %v, want ErrUnsupported", err)
	}
	values := settings.NewValues()
	values.Put(s, 1)
	if _, err := h.Apply(context.Background(), g, values); !errors.Is(err, settings.ErrUnsupported) {
		t.Errorf("Apply error = %v, want ErrUnsupported", err)
	}
}
