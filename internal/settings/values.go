package settings

// Provenance records where a value came from.
type Provenance string

const (
	// UserSetting is a value read from, or written to, the backend.
	UserSetting Provenance = "user"
	// Default is the setting's declared default, used when the backend has
	// no value.
	Default Provenance = "default"
	// NotFound means the backend had no usable value and there is no default.
	NotFound Provenance = "not-found"
)

// Entry is one setting's value and provenance.
type Entry struct {
	Setting    *Setting
	Value      any
	Provenance Provenance
}

// Values maps settings to values, keeping the order in which settings were
// first set. Values is not safe for concurrent use.
type Values struct {
	order   []*Setting
	entries map[*Setting]Entry
}

// NewValues returns an empty container.
func NewValues() *Values {
	return &Values{entries: make(map[*Setting]Entry)}
}

// Set stores value for s. Setting an existing entry keeps its position.
func (v *Values) Set(s *Setting, value any, p Provenance) {
	if _, ok := v.entries[s]; !ok {
		v.order = append(v.order, s)
	}
	v.entries[s] = Entry{Setting: s, Value: value, Provenance: p}
}

// Put stores a user value for s.
func (v *Values) Put(s *Setting, value any) {
	v.Set(s, value, UserSetting)
}

// SetFound converts raw to the setting's kind and records it as a user
// setting. A raw value that does not convert is treated as missing.
func (v *Values) SetFound(s *Setting, raw any) {
	converted, err := Convert(s.Kind, raw)
	if err != nil || converted == nil {
		v.SetMissing(s)
		return
	}
	v.Set(s, converted, UserSetting)
}

// SetMissing records that the backend has no value for s: the declared
// default when there is one, else a nil NotFound entry.
func (v *Values) SetMissing(s *Setting) {
	if s.HasDefault() {
		v.Set(s, s.Default, Default)
		return
	}
	v.Set(s, nil, NotFound)
}

// Get returns the entry for s.
func (v *Values) Get(s *Setting) (Entry, bool) {
	e, ok := v.entries[s]
	return e, ok
}

// Value returns the value stored for s, or nil.
func (v *Values) Value(s *Setting) any {
	return v.entries[s].Value
}

// Delete removes s.
func (v *Values) Delete(s *Setting) {
	if _, ok := v.entries[s]; !ok {
		return
	}
	delete(v.entries, s)
	for i, o := range v.order {
		if o == s {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (v *Values) Len() int { return len(v.order) }

// Settings returns the settings in insertion order.
func (v *Values) Settings() []*Setting {
	out := make([]*Setting, len(v.order))
	copy(out, v.order)
	return out
}

// Entries returns the entries in insertion order.
func (v *Values) Entries() []Entry {
	out := make([]Entry, 0, len(v.order))
	for _, s := range v.order {
		out = append(out, v.entries[s])
	}
	return out
}

// Filter returns the entries whose setting belongs to g.
func (v *Values) Filter(g *Group) *Values {
	out := NewValues()
	for _, s := range v.order {
		if s.Group == g {
			out.order = append(out.order, s)
			out.entries[s] = v.entries[s]
		}
	}
	return out
}

// Merge copies every entry of other into v.
func (v *Values) Merge(other *Values) {
	for _, e := range other.Entries() {
		v.Set(e.Setting, e.Value, e.Provenance)
	}
}
