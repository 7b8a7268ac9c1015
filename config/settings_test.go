package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSearchParametersValidate(t *testing.T) {
	tests := []struct {
		name           string
		params         SearchParameters
		expectedErrors int
		contains       string
	}{
		{
			name:           "defaults are valid",
			params:         DefaultSearchParameters(),
			expectedErrors: 0,
		},
		{
			name: "zero tolerances are valid",
			params: SearchParameters{
				BlockSize:  1,
				SearchMode: ModeCostGroupsDescending,
			},
			expectedErrors: 0,
		},
		{
			name: "negative tolerances",
			params: SearchParameters{
				CollectionTolerance:   -0.1,
				ItemTolerance:         -1,
				CostRoundingTolerance: -0.01,
				BlockSize:             10,
				SearchMode:            1,
			},
			expectedErrors: 3,
			contains:       "collection_tolerance",
		},
		{
			name: "bad mode and sizes",
			params: SearchParameters{
				ExtraKeep:   -1,
				BlockSize:   0,
				MaxRetained: -5,
				SearchMode:  5,
			},
			expectedErrors: 4,
			contains:       "search_mode must be between 1 and 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.params.Validate()
			if len(errs) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.expectedErrors, len(errs), errs)
			}
			if tt.contains != "" && !strings.Contains(strings.Join(errs, "\n"), tt.contains) {
				t.Errorf("Expected an error containing %q, got %v", tt.contains, errs)
			}
		})
	}
}

func TestApplyDefaultsKeepsZeroTolerances(t *testing.T) {
	p := SearchParameters{}
	p.ApplyDefaults()

	if p.BlockSize != DefaultBlockSize {
		t.Errorf("Expected block size %d, got %d", DefaultBlockSize, p.BlockSize)
	}
	if p.SearchMode != DefaultSearchMode {
		t.Errorf("Expected search mode %d, got %d", DefaultSearchMode, p.SearchMode)
	}
	if p.CollectionTolerance != 0 || p.MaxRetained != 0 {
		t.Error("ApplyDefaults must not touch fields where zero is meaningful")
	}
}

func TestModeHelpers(t *testing.T) {
	tests := []struct {
		mode      int
		byCost    bool
		ascending bool
	}{
		{ModeValueGroupsAscending, false, true},
		{ModeValueGroupsDescending, false, false},
		{ModeCostGroupsAscending, true, true},
		{ModeCostGroupsDescending, true, false},
	}
	for _, tt := range tests {
		p := SearchParameters{SearchMode: tt.mode}
		if p.ByCost() != tt.byCost || p.GroupsAscending() != tt.ascending {
			t.Errorf("mode %d: ByCost=%v GroupsAscending=%v", tt.mode, p.ByCost(), p.GroupsAscending())
		}
	}
}

func TestLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	content := `port: "9090"
log_level: debug
defaults:
  collection_tolerance: 0.1
  search_mode: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected server fields: %+v", cfg)
	}
	if cfg.Defaults.CollectionTolerance != 0.1 || cfg.Defaults.SearchMode != 3 {
		t.Errorf("unexpected defaults: %+v", cfg.Defaults)
	}
	// fields absent from the file keep their defaults
	if cfg.Defaults.ItemTolerance != DefaultItemTolerance || cfg.MaxWorkers != 4 {
		t.Errorf("expected untouched fields to keep defaults: %+v", cfg)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port, got %s", cfg.Port)
	}
}

func TestLoadServerConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadServerConfig(path); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}
