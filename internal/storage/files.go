package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"gopkg.in/yaml.v3"
)

// Static data files may be written as JSON or YAML.
var dataExts = []string{".json", ".yaml", ".yml"}

// Files loads static game data from a data directory:
//
//	dialogues/   one dialogue tree or a collection of trees per file
//	quests.*     quest collection
//	events.*     random event catalog
//	npcs.*       NPC roster
//	pcs/         one PC spec per file
type Files struct {
	dataDir string
	logger  *slog.Logger
}

// NewFiles creates a static data loader rooted at dataDir
func NewFiles(dataDir string, logger *slog.Logger) *Files {
	if dataDir == "" {
		dataDir = "./data"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Files{dataDir: dataDir, logger: logger}
}

func isDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range dataExts {
		if ext == e {
			return true
		}
	}
	return false
}

// readDoc decodes a JSON or YAML file into target. YAML is converted to
// JSON first so the custom JSON decoders on dialogue and quest types apply.
func readDoc(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse yaml %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("failed to convert yaml %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// findDoc returns the first existing <base>.json, <base>.yaml or <base>.yml.
func (f *Files) findDoc(base string) (string, bool) {
	for _, ext := range dataExts {
		path := filepath.Join(f.dataDir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadDialogues reads every file under dialogues/. A file holding a single
// tree (it has a "nodes" key) is keyed by its id, or by the file name when
// the id is missing.
func (f *Files) LoadDialogues(ctx context.Context) (dialogue.Collection, error) {
	dir := filepath.Join(f.dataDir, "dialogues")
	trees := make(dialogue.Collection)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDataFile(path) {
			return nil
		}

		var probe map[string]json.RawMessage
		if err := readDoc(path, &probe); err != nil {
			return err
		}

		if _, single := probe["nodes"]; single {
			var t dialogue.Tree
			if err := readDoc(path, &t); err != nil {
				return err
			}
			if t.ID == "" {
				t.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			trees[t.ID] = &t
			return nil
		}

		var c dialogue.Collection
		if err := readDoc(path, &c); err != nil {
			return err
		}
		for id, t := range c {
			if t == nil {
				continue
			}
			if t.ID == "" {
				t.ID = id
			}
			trees[id] = t
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("No dialogues directory", "path", dir)
			return trees, nil
		}
		return nil, fmt.Errorf("failed to load dialogues: %w", err)
	}

	f.logger.Debug("Dialogues loaded", "count", len(trees))
	return trees, nil
}

// LoadQuests reads quests.*. A missing file yields an empty collection.
func (f *Files) LoadQuests(ctx context.Context) (quest.Collection, error) {
	quests := make(quest.Collection)
	path, ok := f.findDoc("quests")
	if !ok {
		return quests, nil
	}
	if err := readDoc(path, &quests); err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	for id, q := range quests {
		if q != nil && q.ID == "" {
			q.ID = id
		}
	}
	return quests, nil
}

// LoadEvents reads events.*. A missing file yields an empty catalog.
func (f *Files) LoadEvents(ctx context.Context) (*encounter.Catalog, error) {
	catalog := &encounter.Catalog{}
	path, ok := f.findDoc("events")
	if !ok {
		return catalog, nil
	}
	if err := readDoc(path, catalog); err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return catalog, nil
}

// LoadNPCs reads npcs.*. A missing file yields an empty roster.
func (f *Files) LoadNPCs(ctx context.Context) (actor.Roster, error) {
	roster := make(actor.Roster)
	path, ok := f.findDoc("npcs")
	if !ok {
		return roster, nil
	}
	if err := readDoc(path, &roster); err != nil {
		return nil, fmt.Errorf("failed to load npcs: %w", err)
	}
	roster.Normalize()
	return roster, nil
}

// GetPCSpec loads pcs/<pcID>.{json,yaml,yml}. The id always comes from pcID.
func (f *Files) GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error) {
	path, ok := f.findDoc(filepath.Join("pcs", pcID))
	if !ok {
		return nil, fmt.Errorf("PC not found: %s", pcID)
	}

	var spec actor.PCSpec
	if err := readDoc(path, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	spec.ID = pcID
	return &spec, nil
}

func (f *Files) ListPCs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.dataDir, "pcs"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read PCs directory: %w", err)
	}

	var pcIDs []string
	for _, entry := range entries {
		if !entry.IsDir() && isDataFile(entry.Name()) {
			pcIDs = append(pcIDs, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		}
	}
	sort.Strings(pcIDs)
	return pcIDs, nil
}
