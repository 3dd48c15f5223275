// Package archive keeps bounded, ranked records of the best genomes seen
// across a run, with atomic JSON persistence.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/forage/config"
)

// Entry is one archived champion.
type Entry struct {
	GenomeID   int     `json:"genome_id"`
	Fitness    float64 `json:"fitness"`
	Generation int     `json:"generation"`
	Small      int     `json:"small_food"`
	Big        int     `json:"big_food"`

	Genome *genetics.Genome `json:"-"`
}

// Archive holds two independent top-K lists: champions on the training
// layout, and champions re-scored across randomized layouts. Both stay
// sorted descending by fitness with no duplicate genome identity.
// Safe for concurrent use.
type Archive struct {
	mu     sync.Mutex
	size   int
	path   string
	best   []Entry
	robust []Entry
}

// New creates an empty archive persisting to the configured path.
func New(cfg config.ArchiveConfig) *Archive {
	return &Archive{size: cfg.Size, path: cfg.Path}
}

// ConsiderBest offers an entry to the training-layout list.
// Returns true if admitted.
func (a *Archive) ConsiderBest(e Entry) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	admitted := false
	a.best, admitted = a.insert(a.best, e)
	return admitted
}

// ConsiderRobust offers an entry to the robustness-tested list.
// Returns true if admitted.
func (a *Archive) ConsiderRobust(e Entry) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	admitted := false
	a.robust, admitted = a.insert(a.robust, e)
	return admitted
}

// insert keeps the list sorted descending and bounded. Duplicate genome IDs
// are rejected, and once the list is full the K-th fitness is the admission bar.
func (a *Archive) insert(list []Entry, e Entry) ([]Entry, bool) {
	for _, existing := range list {
		if existing.GenomeID == e.GenomeID {
			return list, false
		}
	}

	idx := sort.Search(len(list), func(i int) bool {
		return list[i].Fitness < e.Fitness
	})
	if len(list) >= a.size && idx >= a.size {
		return list, false
	}

	list = append(list, Entry{})
	copy(list[idx+1:], list[idx:])
	list[idx] = e
	if len(list) > a.size {
		list = list[:a.size]
	}
	return list, true
}

// Best returns a copy of the training-layout list, sorted descending.
func (a *Archive) Best() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.best...)
}

// Robust returns a copy of the robustness-tested list, sorted descending.
func (a *Archive) Robust() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.robust...)
}

// AdmissionBar returns the fitness required to enter the training-layout
// list: zero while under capacity, otherwise the K-th entry's fitness.
func (a *Archive) AdmissionBar() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.best) < a.size {
		return 0
	}
	return a.best[len(a.best)-1].Fitness
}

type archiveFile struct {
	Best   []entryJSON `json:"best"`
	Robust []entryJSON `json:"robust"`
}

// Save writes both lists atomically: marshal to a temp file in the target
// directory, then rename over the destination. Readers never observe a
// partial archive.
func (a *Archive) Save() error {
	a.mu.Lock()
	file := archiveFile{
		Best:   encodeEntries(a.best),
		Robust: encodeEntries(a.robust),
	}
	path := a.path
	a.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".archive-*.json")
	if err != nil {
		return fmt.Errorf("archive: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("archive: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("archive: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("archive: rename: %w", err)
	}
	return nil
}

// Load reads a saved archive. Entries arrive ranked; insertion re-validates
// ordering and bounds so a hand-edited file still loads into a consistent
// state.
func Load(cfg config.ArchiveConfig) (*Archive, error) {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", cfg.Path, err)
	}

	var file archiveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %w", cfg.Path, err)
	}

	a := New(cfg)
	for _, ej := range file.Best {
		e, err := ej.decode()
		if err != nil {
			return nil, err
		}
		a.best, _ = a.insert(a.best, e)
	}
	for _, ej := range file.Robust {
		e, err := ej.decode()
		if err != nil {
			return nil, err
		}
		a.robust, _ = a.insert(a.robust, e)
	}
	return a, nil
}
