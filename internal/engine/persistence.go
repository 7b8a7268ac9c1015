package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/internal/persistence"
	"github.com/gcbaptista/go-collection-search/model"
)

const (
	dataDirPerm    = 0755
	definitionFile = "definition.msgpack.lz4"
)

func (e *Engine) definitionPath(name string) string {
	return filepath.Join(e.dataDir, name, definitionFile)
}

// loadProblemsFromDisk rebuilds an instance for every valid definition under
// the data directory. Results are never persisted, so every reloaded problem
// starts loaded but not executed.
func (e *Engine) loadProblemsFromDisk() {
	entries, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.log.Warn("failed to read data directory, no problems loaded", zap.String("dir", e.dataDir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := e.definitionPath(name)

		var def model.ProblemDefinition
		if err := persistence.LoadSnapshot(path, &def); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.log.Debug("directory without definition skipped", zap.String("dir", name))
			} else {
				e.log.Warn("failed to load definition, skipping", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if def.Name != name {
			e.log.Warn("definition name does not match its directory, skipping",
				zap.String("definition", def.Name), zap.String("dir", name))
			continue
		}

		instance, err := BuildInstance(def, e.defaults, e.log)
		if err != nil {
			e.log.Warn("failed to rebuild problem, skipping", zap.String("problem", name), zap.Error(err))
			continue
		}
		e.problems[name] = instance
		e.log.Info("problem loaded", zap.String("problem", name))
	}
	e.metrics.SetProblems(len(e.problems))
}

// persistDefinition writes the definition snapshot of a problem.
func (e *Engine) persistDefinition(def model.ProblemDefinition) error {
	if err := persistence.SaveSnapshot(e.definitionPath(def.Name), def); err != nil {
		return fmt.Errorf("failed to persist definition for problem '%s': %w", def.Name, err)
	}
	return nil
}

// removeDefinition deletes the on-disk directory of a problem.
func (e *Engine) removeDefinition(name string) error {
	dir := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete problem data directory %s: %w", dir, err)
	}
	return nil
}
