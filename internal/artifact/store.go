// Package artifact collects named byte blobs produced by stages and
// publishes them once the run ends, regardless of its outcome.
package artifact

import (
	"sort"
	"sync"
)

type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store is the in-memory artifact registry for a single run. Stages add
// blobs while running; the publisher drains it at finalization.
type Store struct {
	mu        sync.Mutex
	artifacts map[string]Artifact
}

func NewStore() *Store {
	return &Store{
		artifacts: make(map[string]Artifact),
	}
}

// Add registers a blob under a unique name. Re-adding a name replaces the
// previous blob.
func (s *Store) Add(name, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifacts[name] = Artifact{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}
}

func (s *Store) Get(name string) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, ok := s.artifacts[name]

	return artifact, ok
}

// List returns all artifacts ordered by name, so publication output is
// stable between runs.
func (s *Store) List() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifacts := make([]Artifact, 0, len(s.artifacts))
	for _, artifact := range s.artifacts {
		artifacts = append(artifacts, artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name < artifacts[j].Name
	})

	return artifacts
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.artifacts)
}
