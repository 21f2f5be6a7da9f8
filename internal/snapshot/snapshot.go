// Package snapshot persists captured settings so they can be applied again
// later. Snapshots are stored as JSON records in a KV table ("snapshots").
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"setbridge/internal/kvstorage"
	"setbridge/internal/settings"
)

// Table is the KV table snapshots are stored in.
const Table = "snapshots"

var (
	// ErrNotFound is returned when no snapshot matches an id.
	ErrNotFound = errors.New("snapshot not found")

	// ErrAmbiguous is returned when an id prefix matches several snapshots.
	ErrAmbiguous = errors.New("ambiguous snapshot id")
)

// Entry is one captured setting.
type Entry struct {
	Group      string              `json:"group"`
	Setting    string              `json:"setting"`
	Kind       settings.Kind       `json:"kind"`
	Value      any                 `json:"value"`
	Provenance settings.Provenance `json:"provenance"`
}

// Snapshot is a stored capture of a solution.
type Snapshot struct {
	ID        string    `json:"id"`
	Solution  string    `json:"solution"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Values rebuilds the captured values against sol for re-apply. Entries
// recorded as not found carry no value and are left out, as are entries
// whose setting sol no longer declares; the IDs of the latter are returned.
func (s *Snapshot) Values(sol *settings.Solution) (*settings.Values, []string) {
	values := settings.NewValues()
	var unknown []string
	for _, e := range s.Entries {
		if e.Provenance == settings.NotFound {
			continue
		}
		g := sol.Group(e.Group)
		var st *settings.Setting
		if g != nil {
			st = g.Setting(e.Setting)
		}
		if st == nil {
			unknown = append(unknown, e.Group+"/"+e.Setting)
			continue
		}
		v, err := settings.Convert(st.Kind, e.Value)
		if err != nil {
			unknown = append(unknown, st.ID())
			continue
		}
		values.Set(st, v, e.Provenance)
	}
	return values, unknown
}

// EntriesOf flattens values into snapshot entries, in value order.
func EntriesOf(values *settings.Values) []Entry {
	entries := make([]Entry, 0, values.Len())
	for _, e := range values.Entries() {
		entries = append(entries, Entry{
			Group:      e.Setting.Group.Name,
			Setting:    e.Setting.Name,
			Kind:       e.Setting.Kind,
			Value:      e.Value,
			Provenance: e.Provenance,
		})
	}
	return entries
}

// Summary returns a count of the entries per provenance.
func (s *Snapshot) Summary() map[settings.Provenance]int {
	counts := make(map[settings.Provenance]int)
	for _, e := range s.Entries {
		counts[e.Provenance]++
	}
	return counts
}

// Store saves and loads snapshots.
type Store struct {
	kv  kvstorage.KVStore
	now func() time.Time
}

// New returns a Store over kv.
func New(kv kvstorage.KVStore) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Save stores values captured from sol under a new random id.
func (s *Store) Save(ctx context.Context, sol *settings.Solution, values *settings.Values, label string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Solution:  sol.Name,
		Label:     label,
		CreatedAt: s.now().UTC(),
		Entries:   EntriesOf(values),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %s: %w", snap.ID, err)
	}
	if err := s.kv.Set(ctx, snap.ID, data, kvstorage.SetOptions{Exists: kvstorage.FailIfExists}); err != nil {
		return nil, fmt.Errorf("saving snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}

// Load returns the snapshot with the given id. A unique prefix of an id is
// accepted.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	key, err := s.match(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, key)
}

func (s *Store) get(ctx context.Context, key string) (*Snapshot, error) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstorage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("loading snapshot %s: %w", key, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// match expands an id prefix to a stored key.
func (s *Store) match(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty id: %w", ErrNotFound)
	}
	keys, err := s.kv.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}
	var found []string
	for _, k := range keys {
		if k == id {
			return k, nil
		}
		if strings.HasPrefix(k, id) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%s matches %d snapshots: %w", id, len(found), ErrAmbiguous)
}

// List returns every stored snapshot, oldest first. A solution name, when
// given, restricts the result to snapshots of that solution.
func (s *Store) List(ctx context.Context, solution string) ([]*Snapshot, error) {
	keys, err := s.kv.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	var snaps []*Snapshot
	for _, k := range keys {
		snap, err := s.get(ctx, k)
		if err != nil {
			return nil, err
		}
		if solution != "" && snap.Solution != solution {
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// Delete removes the snapshot with the given id or unique id prefix and
// returns its full id.
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	key, err := s.match(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return "", fmt.Errorf("deleting snapshot %s: %w", key, err)
	}
	return key, nil
}
