package resolver

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"setbridge/internal/winreg"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := New()
	m := NewMap(nil)

	if err := r.Add("custom", m); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("custom", m); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Add error = %v, want ErrDuplicate", err)
	}
	if _, ok := r.Lookup("custom"); !ok {
		t.Error("Lookup(custom) not found after Add")
	}
	if err := r.Remove("custom"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.Remove("custom"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Remove error = %v, want ErrNotRegistered", err)
	}
}

func TestRegistry_InvalidNames(t *testing.T) {
	r := New()
	for _, name := range []string{"", "a:b", "a}b", "a?b"} {
		if err := r.Add(name, NewMap(nil)); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if err := r.Add("nil", nil); err == nil {
		t.Error("Add with nil resolver should fail")
	}
}

func TestRegistry_DefaultNames(t *testing.T) {
	r := NewDefault(WithRegistryStore(winreg.NewMemory()))
	got := fmt.Sprint(r.Names())
	if got != "[env folder reg]" {
		t.Errorf("Names() = %s, want [env folder reg]", got)
	}
}

func TestRegistry_Scope(t *testing.T) {
	r := New()
	release, err := r.Scope("scoped", NewMap(map[string]string{"k": "v"}))
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}

	got, _ := r.Resolve("${scoped:k}")
	if got != "v" {
		t.Errorf("inside scope got %q, want v", got)
	}

	release()
	release()

	got, _ = r.Resolve("${scoped:k}")
	if got != "${scoped:k}" {
		t.Errorf("after release got %q, want verbatim expression", got)
	}
	if _, err := r.Scope("scoped", NewMap(nil)); err != nil {
		t.Errorf("re-Scope after release: %v", err)
	}
}

func TestRegistry_With(t *testing.T) {
	r := New()
	sentinel := errors.New("from fn")

	err := r.With("w", Func(func(name string) (string, bool, error) {
		return "<" + name + ">", true, nil
	}), func() error {
		got, err := r.Resolve("${w:x}")
		if err != nil {
			return err
		}
		if got != "<x>" {
			t.Errorf("inside With got %q, want <x>", got)
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("With error = %v, want fn error", err)
	}
	if _, ok := r.Lookup("w"); ok {
		t.Error("resolver still registered after With returned")
	}
}

func TestRegistry_ScopeDuplicateFails(t *testing.T) {
	r := NewDefault(WithRegistryStore(winreg.NewMemory()))
	if _, err := r.Scope(Env, NewMap(nil)); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Scope(env) error = %v, want ErrDuplicate", err)
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	base := New()
	if err := base.Add("a", NewMap(nil)); err != nil {
		t.Fatal(err)
	}
	c := base.Clone()
	if err := c.Add("b", NewMap(nil)); err != nil {
		t.Fatal(err)
	}
	if _, ok := base.Lookup("b"); ok {
		t.Error("registration on clone leaked into base")
	}
	if _, ok := c.Lookup("a"); !ok {
		t.Error("clone lost base registration")
	}
}

func TestRegistry_ConcurrentScopesOnClones(t *testing.T) {
	base := New()
	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := base.Clone()
			want := fmt.Sprintf("v%d", i)
			err := r.With("test", NewMap(map[string]string{"k": want}), func() error {
				got, err := r.Resolve("${test:k}")
				if err != nil {
					return err
				}
				if got != want {
					return fmt.Errorf("got %q, want %q", got, want)
				}
				return nil
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
