package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

// Registry keeps the list of named datasets in a single JSON file. Every
// Save reads the whole file and rewrites it, so two processes saving at the
// same time can lose an update. Calls within one process are serialised.
type Registry struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a Registry backed by the file at path. The file is created on
// the first Save.
func New(path string) *Registry {
	return &Registry{path: path, now: time.Now}
}

// Path returns the backing file.
func (r *Registry) Path() string {
	return r.path
}

// Load returns all datasets in file order. A missing file is an empty
// registry; an unreadable or corrupt one is logged and treated as empty.
func (r *Registry) Load() []common.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Registry) load() []common.Dataset {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("[Registry] Could not read graph configurations", "path", r.path, "err", err)
		}
		return []common.Dataset{}
	}

	var datasets []common.Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		logger.Warn("[Registry] Ignoring corrupt graph configurations", "path", r.path, "err", err)
		return []common.Dataset{}
	}
	if datasets == nil {
		datasets = []common.Dataset{}
	}
	return datasets
}

// Get returns the dataset called name.
func (r *Registry) Get(name string) (common.Dataset, bool) {
	for _, d := range r.Load() {
		if d.Name == name {
			return d, true
		}
	}
	return common.Dataset{}, false
}

// Names returns the dataset names in file order.
func (r *Registry) Names() []string {
	datasets := r.Load()
	names := make([]string, 0, len(datasets))
	for _, d := range datasets {
		names = append(names, d.Name)
	}
	return names
}

// Save records papers under name. An existing dataset gets the union of its
// papers and the new ones, first-seen order kept, and a new UpdatedAt. A new
// dataset is appended.
func (r *Registry) Save(name string, papers []string) (common.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	datasets := r.load()
	now := r.now().UTC()

	idx := -1
	for i, d := range datasets {
		if d.Name == name {
			idx = i
			break
		}
	}

	if idx >= 0 {
		datasets[idx].Papers = union(datasets[idx].Papers, papers)
		datasets[idx].UpdatedAt = now
	} else {
		datasets = append(datasets, common.Dataset{
			Name:      name,
			Papers:    union(nil, papers),
			CreatedAt: now,
			UpdatedAt: now,
		})
		idx = len(datasets) - 1
	}

	if err := r.write(datasets); err != nil {
		return common.Dataset{}, err
	}
	logger.Debug("[Registry] Saved graph configuration", "name", name, "papers", len(datasets[idx].Papers))
	return datasets[idx], nil
}

func (r *Registry) write(datasets []common.Dataset) error {
	data, err := json.MarshalIndent(datasets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graph configurations: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create registry directory: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save graph configurations: %w", err)
	}
	return nil
}

func union(existing, add []string) []string {
	out := make([]string, 0, len(existing)+len(add))
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, list := range [][]string{existing, add} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
