package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
	bolt "go.etcd.io/bbolt"
)

var (
	projectsBucket = []byte("projects")
	activeKey      = []byte("active")
)

// ActiveProjects returns the names of the projects selected with `manage`
func (s *Store) ActiveProjects(ctx context.Context) ([]string, error) {
	result := []string{}
	err := s.view(ctx, func(tx *bolt.Tx) error {
		item := tx.Bucket(projectsBucket).Get(activeKey)
		if item == nil {
			return nil
		}

		return json.Unmarshal(item, &result)
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to read active projects")
	}

	return result, nil
}

// SetActiveProjects replaces the list of active projects. Names are stored sorted and
// without duplicates.
func (s *Store) SetActiveProjects(ctx context.Context, names []string) error {
	seen := make(map[string]bool, len(names))
	sorted := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			sorted = append(sorted, name)
		}
	}
	sort.Strings(sorted)

	encoded, err := json.Marshal(sorted)
	if err != nil {
		return err
	}

	err = s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(projectsBucket).Put(activeKey, encoded)
	})
	return eris.Wrap(err, "failed to save active projects")
}

// ProjectChanges is the difference between two sets of active projects
type ProjectChanges struct {
	Added   []string
	Removed []string
}

func (c ProjectChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// ReplaceActiveProjects stores names as the active projects and reports how they differ from
// the previously stored ones. Reading and writing happen in the same transaction.
func (s *Store) ReplaceActiveProjects(ctx context.Context, names []string) (ProjectChanges, error) {
	var changes ProjectChanges

	err := s.BatchUpdate(ctx, func(ctx context.Context) error {
		previous, err := s.ActiveProjects(ctx)
		if err != nil {
			return err
		}

		changes = diffNames(previous, names)
		return s.SetActiveProjects(ctx, names)
	})

	return changes, err
}

func diffNames(before, after []string) ProjectChanges {
	inBefore := make(map[string]bool, len(before))
	for _, name := range before {
		inBefore[name] = true
	}

	inAfter := make(map[string]bool, len(after))
	changes := ProjectChanges{Added: []string{}, Removed: []string{}}
	for _, name := range after {
		if !inAfter[name] && !inBefore[name] {
			changes.Added = append(changes.Added, name)
		}
		inAfter[name] = true
	}

	for _, name := range before {
		if !inAfter[name] {
			changes.Removed = append(changes.Removed, name)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	return changes
}
