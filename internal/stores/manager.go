package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/vectorDB"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// Manager owns one vector collection per (store prefix, category). Appends
// are serialized per category; reads and appends to different categories run
// concurrently. The readiness flag gates every query path.
type Manager struct {
	backend vectorDB.DataStore

	mu     sync.RWMutex
	prefix string
	counts map[string]int //normalized category -> chunk count
	ready  bool

	appendLocks sync.Map //normalized category -> *sync.Mutex

	logger *logger_i.Logger
}

func NewManager(backend vectorDB.DataStore, defaultPrefix string) *Manager {
	return &Manager{
		backend: backend,
		prefix:  defaultPrefix,
		counts:  make(map[string]int),
		logger:  logger_i.NewLogger("store_manager"),
	}
}

// NormalizeCategory keeps category names unique within a prefix regardless
// of model casing or spacing.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	return strings.ReplaceAll(c, " ", "_")
}

func collectionName(prefix string, category string) string {
	return prefix + config.StoreNameSeparator + NormalizeCategory(category)
}

func categoryOf(prefix string, collection string) (string, bool) {
	lead := prefix + config.StoreNameSeparator
	if !strings.HasPrefix(collection, lead) {
		return "", false
	}
	return strings.TrimPrefix(collection, lead), true
}

// CreateOrAppend adds chunks to a category's store, creating it on first
// use. Appends are monotonic: no dedup, the store only grows.
func (m *Manager) CreateOrAppend(ctx context.Context, category string, chunks []corpus.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	normalized := NormalizeCategory(category)
	if normalized == "" {
		return 0, faults.New(faults.InvalidInput, "empty category name")
	}

	lock, _ := m.appendLocks.LoadOrStore(normalized, &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	m.mu.RLock()
	prefix := m.prefix
	m.mu.RUnlock()

	name := collectionName(prefix, category)
	if err := m.backend.EnsureCollection(ctx, name); err != nil {
		return 0, faults.Wrap(faults.CorruptIndex, "could not create category store", err)
	}
	if err := m.backend.UpsertChunks(ctx, name, chunks, vectors); err != nil {
		return 0, faults.Wrap(faults.CorruptIndex, "could not append to category store", err)
	}

	m.mu.Lock()
	m.counts[normalized] += len(chunks)
	m.ready = true
	m.mu.Unlock()

	m.logger.Debug("appended chunks", "category", normalized, "count", len(chunks))
	return len(chunks), nil
}

// Load scans persisted collections under the prefix and rebuilds the
// in-memory view. Partial success is a per-category result, not a failure.
func (m *Manager) Load(ctx context.Context, prefix string) (map[string]bool, error) {
	all, err := m.backend.ListCollections(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.CorruptIndex, "could not list category stores", err)
	}

	var matched []string
	for _, name := range all {
		if _, ok := categoryOf(prefix, name); ok {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return nil, faults.New(faults.StoreNotFound, fmt.Sprintf("no stores found for prefix %q", prefix))
	}

	results := make(map[string]bool, len(matched))
	counts := make(map[string]int, len(matched))
	for _, name := range matched {
		category, _ := categoryOf(prefix, name)
		count, err := m.backend.Count(ctx, name)
		if err != nil {
			m.logger.Error("category store failed to load", "category", category, "error", err)
			results[category] = false
			continue
		}
		counts[category] = count
		results[category] = true
	}

	m.mu.Lock()
	m.prefix = prefix
	m.counts = counts
	m.ready = len(counts) > 0
	m.mu.Unlock()

	m.logger.Info("loaded category stores", "prefix", prefix, "categories", len(counts))
	return results, nil
}

// Delete removes matching persisted stores. An empty prefix deletes ALL
// stores across every namespace.
func (m *Manager) Delete(ctx context.Context, prefix string) (map[string]bool, error) {
	all, err := m.backend.ListCollections(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.CorruptIndex, "could not list category stores", err)
	}

	results := make(map[string]bool)
	for _, name := range all {
		label := name
		if prefix != "" {
			category, ok := categoryOf(prefix, name)
			if !ok {
				continue
			}
			label = category
		} else {
			m.logger.Warn("deleting store outside any requested prefix", "collection", name)
		}

		if err := m.backend.DeleteCollection(ctx, name); err != nil {
			m.logger.Error("failed to delete store", "collection", name, "error", err)
			results[label] = false
			continue
		}
		results[label] = true
	}

	m.mu.Lock()
	if prefix == "" || prefix == m.prefix {
		m.counts = make(map[string]int)
		m.ready = false
	}
	m.mu.Unlock()

	m.logger.Info("deleted category stores", "prefix", prefix, "deleted", len(results))
	return results, nil
}

// ListCategories is O(categories): counts come from the in-memory view,
// never a chunk scan.
func (m *Manager) ListCategories() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.counts))
	for category, count := range m.counts {
		out[category] = count
	}
	return out
}

// CategoryNames returns the known categories sorted for stable output.
func (m *Manager) CategoryNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.counts))
	for category := range m.counts {
		names = append(names, category)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) HasCategory(category string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.counts[NormalizeCategory(category)]
	return ok
}

// CollectionFor resolves a category to its backend collection name under
// the active prefix.
func (m *Manager) CollectionFor(category string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return collectionName(m.prefix, category)
}

func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

func (m *Manager) ActivePrefix() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefix
}

// SetActivePrefix switches the namespace new appends land in.
func (m *Manager) SetActivePrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefix != "" && prefix != m.prefix {
		m.prefix = prefix
		m.counts = make(map[string]int)
		m.ready = false
	}
}

func (m *Manager) Backend() vectorDB.DataStore {
	return m.backend
}
