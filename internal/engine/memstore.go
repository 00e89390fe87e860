package engine

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// MemStore is the thread-safe embedded engine.
// Writes are applied to memory under the lock and persisted in the background.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [area][key]json
	data     map[string]map[string]string
	versions map[string]uint64
	volatile map[string]bool

	persister Persister
	wg        sync.WaitGroup
	saveMu    sync.Mutex
	saved     map[string]uint64

	lmu       sync.Mutex
	listeners map[int]engine.Listener
	nextID    int

	log *slog.Logger
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and a persister, which may be nil.
// The session area is volatile: it is never handed to the persister.
func NewMemStore(initialData map[string]map[string]string, p Persister) *MemStore {
	data := make(map[string]map[string]string)
	for area, kv := range initialData {
		if area == engine.AreaSession {
			continue
		}
		cp := make(map[string]string, len(kv))
		for k, v := range kv {
			cp[k] = v
		}
		data[area] = cp
	}
	return &MemStore{
		data:      data,
		versions:  make(map[string]uint64),
		volatile:  map[string]bool{engine.AreaSession: true},
		persister: p,
		saved:     make(map[string]uint64),
		listeners: make(map[int]engine.Listener),
		log:       slog.Default(),
	}
}

// SetLogger replaces the logger used for background persistence failures.
func (m *MemStore) SetLogger(l *slog.Logger) {
	if l != nil {
		m.log = l.With(slog.String("component", "engine"))
	}
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

func (m *MemStore) GetItem(area, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[area][key]
	if !ok {
		return "", engine.ErrKeyNotFound
	}
	return val, nil
}

func (m *MemStore) SetItem(area, key, value string) error {
	if !engine.ValidName(area) || !engine.ValidName(key) {
		return engine.ErrInvalidKey
	}
	if !json.Valid([]byte(value)) {
		return engine.ErrInvalidValue
	}

	m.mu.Lock()
	if m.data[area] == nil {
		m.data[area] = make(map[string]string)
	}
	old := m.data[area][key]
	m.data[area][key] = value
	snapshot, version := m.snapshotLocked(area)
	m.mu.Unlock()

	m.persist(area, version, snapshot)
	m.notify(engine.StorageEvent{Area: area, Key: key, OldValue: old, NewValue: value})
	return nil
}

func (m *MemStore) RemoveItem(area, key string) error {
	m.mu.Lock()
	old, ok := m.data[area][key]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.data[area], key)
	snapshot, version := m.snapshotLocked(area)
	m.mu.Unlock()

	m.persist(area, version, snapshot)
	m.notify(engine.StorageEvent{Area: area, Key: key, OldValue: old})
	return nil
}

func (m *MemStore) Clear(area string) error {
	m.mu.Lock()
	old := m.data[area]
	if len(old) == 0 {
		m.mu.Unlock()
		return nil
	}
	m.data[area] = make(map[string]string)
	snapshot, version := m.snapshotLocked(area)
	m.mu.Unlock()

	m.persist(area, version, snapshot)
	for k, v := range old {
		m.notify(engine.StorageEvent{Area: area, Key: k, OldValue: v})
	}
	return nil
}

func (m *MemStore) Keys(area string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data[area]))
	for k := range m.data[area] {
		list = append(list, k)
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) Areas() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []string
	for area, kv := range m.data {
		if len(kv) > 0 {
			list = append(list, area)
		}
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) Dump(area string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kv, ok := m.data[area]
	if !ok {
		return nil, engine.ErrAreaNotFound
	}
	// Return a copy to prevent external mutation of the internal map
	out := make(map[string]string, len(kv))
	for k, v := range kv {
		out[k] = v
	}
	return out, nil
}

// snapshotLocked bumps the area version and copies its contents for the
// persister. It MUST be called while holding m.mu.Lock.
// Volatile areas yield a nil snapshot.
func (m *MemStore) snapshotLocked(area string) (map[string]string, uint64) {
	m.versions[area]++
	if m.volatile[area] || m.persister == nil {
		return nil, m.versions[area]
	}
	cp := make(map[string]string, len(m.data[area]))
	for k, v := range m.data[area] {
		cp[k] = v
	}
	return cp, m.versions[area]
}

// persist saves the snapshot in the background. A snapshot older than the
// last one written for the same area is dropped.
func (m *MemStore) persist(area string, version uint64, snapshot map[string]string) {
	if snapshot == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.saveMu.Lock()
		defer m.saveMu.Unlock()
		if version <= m.saved[area] {
			return
		}
		if err := m.persister.SaveArea(area, snapshot); err != nil {
			m.log.Error("persist area", slog.String("area", area), slog.Any("error", err))
			return
		}
		m.saved[area] = version
	}()
}

// Subscribe registers fn for every subsequent mutation.
func (m *MemStore) Subscribe(fn engine.Listener) func() {
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.lmu.Unlock()

	return func() {
		m.lmu.Lock()
		delete(m.listeners, id)
		m.lmu.Unlock()
	}
}

func (m *MemStore) notify(ev engine.StorageEvent) {
	m.lmu.Lock()
	fns := make([]engine.Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// --- Area scope ---

// Area returns a scope pinned to one area.
func (m *MemStore) Area(area string) engine.AreaScope {
	return &memAreaScope{store: m, area: area}
}

type memAreaScope struct {
	store *MemStore
	area  string
}

func (a *memAreaScope) Name() string                       { return a.area }
func (a *memAreaScope) GetItem(key string) (string, error) { return a.store.GetItem(a.area, key) }
func (a *memAreaScope) SetItem(key, value string) error    { return a.store.SetItem(a.area, key, value) }
func (a *memAreaScope) RemoveItem(key string) error        { return a.store.RemoveItem(a.area, key) }
func (a *memAreaScope) Keys() ([]string, error)            { return a.store.Keys(a.area) }
func (a *memAreaScope) Clear() error                       { return a.store.Clear(a.area) }
