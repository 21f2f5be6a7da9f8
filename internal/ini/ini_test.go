package ini

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// doc joins lines with "\n" and terminates the last one.
func doc(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

var sample = doc(
	"; top comment",
	"root=1",
	"",
	"[first]",
	"a = one",
	"b=two",
	"    continued",
	"    more",
	"",
	"[[nested]]",
	"c=3",
	"[[[deep]]]",
	"d=4",
	"",
	"[second]",
	"e=5",
)

func TestRead(t *testing.T) {
	got := Read(sample)
	want := map[string]string{
		"root":                "1",
		"first.a":             "one",
		"first.b":             "two\ncontinued\nmore",
		"first.nested.c":      "3",
		"first.nested.deep.d": "4",
		"second.e":            "5",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestRead_SectionDepth(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]string
	}{
		{
			name: "gap in depth nests under nearest shallower",
			src:  doc("[a]", "[[[b]]]", "x=1", "[[c]]", "y=2"),
			want: map[string]string{"a.b.x": "1", "a.c.y": "2"},
		},
		{
			name: "nested header without parent",
			src:  doc("[[b]]", "x=1"),
			want: map[string]string{"b.x": "1"},
		},
		{
			name: "shallower header closes deeper sections",
			src:  doc("[a]", "[[b]]", "[c]", "x=1"),
			want: map[string]string{"c.x": "1"},
		},
		{
			name: "indentation does not nest sections",
			src:  doc("[a]", "    [b]", "x=1"),
			want: map[string]string{"b.x": "1"},
		},
		{
			name: "spaces inside brackets",
			src:  doc("[ spaced ]", "k = v"),
			want: map[string]string{"spaced.k": "v"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Read(tt.src); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_Malformed(t *testing.T) {
	src := doc("[unterminated", "not a pair", "=novalue", "[]", "# comment", "k=v", "[a]]")
	got := Read(src)
	want := map[string]string{"k": "v"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestRead_MultiLine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		key  string
		want string
	}{
		{"lf", "k=a\n  b\n  c\n", "k", "a\nb\nc"},
		{"crlf", "k=a\r\n  b\r\n", "k", "a\r\nb"},
		{"mixed terminators", "k=a\n  b\r\n  c\n", "k", "a\nb\r\nc"},
		{"relative indentation kept", "k=a\n    b\n      c\n", "k", "a\nb\n  c"},
		{"empty first line", "k=\n  a\n  b\n", "k", "\na\nb"},
		{"blank line ends value", "k=a\n\n  b\n", "k", "a"},
		{"deeper key line continues", "k=a\n  x=1\n", "k", "a\nx=1"},
		{"indented key continues deeper indent", "  k=a\n    b\n  j=c\n", "j", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.src).Get(tt.key)
			if !ok {
				t.Fatalf("Get(%q) not found", tt.key)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewline(t *testing.T) {
	if nl := Parse("a=1\r\nb=2\n").Newline(); nl != "\r\n" {
		t.Errorf("Newline() = %q, want CRLF", nl)
	}
	if nl := Parse("a=1").Newline(); nl != "\n" {
		t.Errorf("Newline() without terminators = %q, want LF", nl)
	}
}

func TestKeysAndSections(t *testing.T) {
	f := Parse(sample)
	wantKeys := []string{"root", "first.a", "first.b", "first.nested.c", "first.nested.deep.d", "second.e"}
	if got := f.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}
	wantSections := []string{"first", "first.nested", "first.nested.deep", "second"}
	if got := f.Sections(); !reflect.DeepEqual(got, wantSections) {
		t.Errorf("Sections() = %v, want %v", got, wantSections)
	}
}

func TestDuplicateKeys(t *testing.T) {
	src := doc("k=1", "k=2")
	if got, _ := Parse(src).Get("k"); got != "2" {
		t.Errorf("Get(k) = %q, want last occurrence 2", got)
	}

	out, err := Write(src, map[string]string{"k": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if out != doc("k=1", "k=3") {
		t.Errorf("update duplicate = %q", out)
	}

	out, err = Write(src, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("delete duplicate = %q, want empty", out)
	}
}

func TestWrite_RoundTripIdentity(t *testing.T) {
	sources := map[string]string{
		"sample":            sample,
		"crlf":              strings.ReplaceAll(sample, "\n", "\r\n"),
		"no final newline":  strings.TrimSuffix(sample, "\n"),
		"tabs and spaces":   "[s]\n\tk\t=\tv\t\n\t\tmore\t\n  other =  x  \n",
		"malformed":         doc("[unterminated", "not a pair", "=novalue", "[]", "k=v"),
		"duplicates":        doc("[a]", "k=1", "[b]", "k=2", "[a]", "k=3"),
		"irregular indent":  doc("k=a", "          b", "   c"),
		"empty":             "",
		"blank lines only":  "\n\n\r\n",
		"lone carriage ret": "k=a\rb\n",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			out, err := Write(src, Read(src))
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if out != src {
				t.Errorf("round trip changed text\n got: %q\nwant: %q", out, src)
			}
		})
	}
}

func TestWrite_RevertRestoresOriginal(t *testing.T) {
	for _, src := range []string{sample, strings.ReplaceAll(sample, "\n", "\r\n")} {
		original := Read(src)
		updated := make(map[string]string, len(original))
		for k, v := range original {
			updated[k] = v + "X"
		}

		changed, err := Write(src, updated)
		if err != nil {
			t.Fatal(err)
		}
		if got := Read(changed); !reflect.DeepEqual(got, updated) {
			t.Fatalf("Read(updated) = %v, want %v", got, updated)
		}

		reverted, err := Write(changed, original)
		if err != nil {
			t.Fatal(err)
		}
		if reverted != src {
			t.Errorf("revert did not restore original\n got: %q\nwant: %q", reverted, src)
		}
	}
}

func TestWrite_RevertNormalizesIrregularIndent(t *testing.T) {
	src := doc("[s]", "k=a", "          b", "          c", "j=1")
	original := Read(src)

	changed, err := Write(src, map[string]string{"s.k": "z", "s.j": "1"})
	if err != nil {
		t.Fatal(err)
	}
	reverted, err := Write(changed, original)
	if err != nil {
		t.Fatal(err)
	}
	if got := Read(reverted); !reflect.DeepEqual(got, original) {
		t.Errorf("Read(reverted) = %v, want %v", got, original)
	}
	want := doc("[s]", "k=a", "    b", "    c", "j=1")
	if reverted != want {
		t.Errorf("reverted = %q, want canonical indent %q", reverted, want)
	}
}

func TestWrite_Edits(t *testing.T) {
	base := Read(sample)
	with := func(edit func(m map[string]string)) map[string]string {
		m := make(map[string]string, len(base))
		for k, v := range base {
			m[k] = v
		}
		edit(m)
		return m
	}

	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{
			name:   "change keeps separator",
			values: with(func(m map[string]string) { m["first.a"] = "uno" }),
			want:   strings.Replace(sample, "a = one\n", "a = uno\n", 1),
		},
		{
			name:   "multi-line to single line",
			values: with(func(m map[string]string) { m["first.b"] = "flat" }),
			want:   strings.Replace(sample, "b=two\n    continued\n    more\n", "b=flat\n", 1),
		},
		{
			name:   "single line to multi-line",
			values: with(func(m map[string]string) { m["second.e"] = "x\ny" }),
			want:   strings.Replace(sample, "e=5\n", "e=x\n    y\n", 1),
		},
		{
			name:   "delete",
			values: with(func(m map[string]string) { delete(m, "first.nested.c") }),
			want:   strings.Replace(sample, "c=3\n", "", 1),
		},
		{
			name:   "add root key after last root entry",
			values: with(func(m map[string]string) { m["zzz"] = "9" }),
			want:   strings.Replace(sample, "root=1\n", "root=1\nzzz=9\n", 1),
		},
		{
			name:   "add key to existing section",
			values: with(func(m map[string]string) { m["first.z"] = "26" }),
			want:   strings.Replace(sample, "    more\n", "    more\nz=26\n", 1),
		},
		{
			name:   "add nested section under existing",
			values: with(func(m map[string]string) { m["first.nested.new.k"] = "v" }),
			want:   strings.Replace(sample, "d=4\n", "d=4\n[[[new]]]\nk=v\n", 1),
		},
		{
			name:   "add top-level section",
			values: with(func(m map[string]string) { m["third.x"] = "1" }),
			want:   sample + "[third]\nx=1\n",
		},
		{
			name: "add chain of sections",
			values: with(func(m map[string]string) {
				m["second.s1.s2.k"] = "v"
				m["third.x"] = "1"
			}),
			want: sample + "[[s1]]\n[[[s2]]]\nk=v\n[third]\nx=1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Write(sample, tt.values)
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if got != tt.want {
				t.Errorf("Write()\n got: %q\nwant: %q", got, tt.want)
			}
			if read := Read(got); !reflect.DeepEqual(read, tt.values) {
				t.Errorf("Read(Write()) = %v, want %v", read, tt.values)
			}
		})
	}
}

func TestWrite_CRLF(t *testing.T) {
	src := "[s]\r\nk=v\r\n"
	got, err := Write(src, map[string]string{"s.k": "w", "s.n": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "[s]\r\nk=w\r\nn=1\r\n"; got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}

	got, err = Write(src, map[string]string{"s.k": "a\nb"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "[s]\r\nk=a\r\n    b\r\n"; got != want {
		t.Errorf("multi-line Write() = %q, want %q", got, want)
	}
}

func TestWrite_NoFinalNewline(t *testing.T) {
	got, err := Write("a=1\nb=2", map[string]string{"a": "1", "b": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a=1\nb=3" {
		t.Errorf("update last line = %q", got)
	}

	got, err = Write("a=1\nb=2", map[string]string{"a": "1", "b": "2", "c": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a=1\nb=2\nc=3\n" {
		t.Errorf("append after unterminated line = %q", got)
	}
}

func TestWrite_Options(t *testing.T) {
	got, err := Write("a=1", map[string]string{"a": "1", "b": "x\ny"}, WithNewline("\r\n"), WithIndent("\t"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "a=1\r\nb=x\r\n\ty\r\n"; got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
}

func TestWrite_EmptySource(t *testing.T) {
	got, err := Write("", map[string]string{"x": "1", "s.y": "2", "s.t.z": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if want := doc("x=1", "[s]", "y=2", "[[t]]", "z=3"); got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
}

func TestWrite_RootKeyBeforeFirstSection(t *testing.T) {
	src := doc("; header", "[s]", "k=v")
	got, err := Write(src, map[string]string{"s.k": "v", "top": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := doc("; header", "top=1", "[s]", "k=v"); got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
}

func TestWrite_CopiesIndentAndSeparator(t *testing.T) {
	src := doc("[s]", "  k = v")
	got, err := Write(src, map[string]string{"s.k": "v", "s.n": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := doc("[s]", "  k = v", "  n = 1"); got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
}

func TestWrite_InvalidKey(t *testing.T) {
	for _, key := range []string{"a..b", "s.", ".x", "a=b"} {
		if _, err := Write("", map[string]string{key: "1"}); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestUpdateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.ini")
	if err := os.WriteFile(path, []byte(sample), 0600); err != nil {
		t.Fatal(err)
	}

	err := UpdateFile(path, func(values map[string]string) error {
		values["first.a"] = "uno"
		delete(values, "second.e")
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Replace(strings.Replace(sample, "a = one\n", "a = uno\n", 1), "e=5\n", "", 1)
	if string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestUpdateFile_Missing(t *testing.T) {
	err := UpdateFile(filepath.Join(t.TempDir(), "nope.ini"), func(map[string]string) error { return nil })
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("UpdateFile on missing file error = %v, want fs.ErrNotExist", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.ini")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile on missing file error = %v, want fs.ErrNotExist", err)
	}
}

func TestUpdateFile_FnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.ini")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := UpdateFile(path, func(map[string]string) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("UpdateFile error = %v, want boom", err)
	}
}
