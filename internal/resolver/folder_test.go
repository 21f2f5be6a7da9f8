package resolver

import (
	"os"
	"testing"

	"setbridge/internal/winreg"
)

func TestFolderResolver(t *testing.T) {
	f := NewFolderResolver()
	f.AddPath("Custom", "/opt/custom")
	r := NewDefault(WithFolders(f), WithRegistryStore(winreg.NewMemory()))

	got, err := r.Resolve("${folder:Custom}/file.ini")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/opt/custom/file.ini" {
		t.Errorf("got %q, want /opt/custom/file.ini", got)
	}

	got, _ = r.Resolve("${folder:NotAFolder?none}")
	if got != "none" {
		t.Errorf("unknown folder got %q, want none", got)
	}

	f.RemovePath("Custom")
	got, _ = r.Resolve("${folder:Custom?gone}")
	if got != "gone" {
		t.Errorf("removed path got %q, want gone", got)
	}
}

func TestFolderResolver_Special(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	f := NewFolderResolver()
	for _, name := range []string{"UserProfile", "userprofile"} {
		got, ok, err := f.ResolveValue(name)
		if err != nil || !ok || got != home {
			t.Errorf("ResolveValue(%q) = %q, %v, %v; want %q", name, got, ok, err, home)
		}
	}
}

func TestFolderResolver_EnvBacked(t *testing.T) {
	t.Setenv("SystemRoot", "/fake/windows")
	f := NewFolderResolver()

	got, ok, _ := f.ResolveValue("Windows")
	if !ok || got != "/fake/windows" {
		t.Errorf("Windows = %q, %v", got, ok)
	}

	t.Setenv("ProgramData", "")
	if _, ok, _ := f.ResolveValue("CommonApplicationData"); ok {
		t.Error("empty env-backed folder should report no value")
	}
}

func TestSpecialFolders(t *testing.T) {
	names := SpecialFolders()
	if len(names) != len(specialFolders) {
		t.Errorf("SpecialFolders() has %d names, table has %d", len(names), len(specialFolders))
	}
}
