package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the search caps and spacing constants shared by every pass.
type Tuning struct {
	MaxPOIAttempts      int     `yaml:"max_poi_attempts" json:"max_poi_attempts"`
	MaxBuildingAttempts int     `yaml:"max_building_attempts" json:"max_building_attempts"`
	PathMaxSteps        int     `yaml:"path_max_steps" json:"path_max_steps"`
	PathJitter          float64 `yaml:"path_jitter" json:"path_jitter"`
	LandmarkAttempts    int     `yaml:"landmark_attempts" json:"landmark_attempts"`

	SpawnMaxRetries int `yaml:"spawn_max_retries" json:"spawn_max_retries"`
	SpawnRadius     int `yaml:"spawn_radius" json:"spawn_radius"`
	ExteriorPadding int `yaml:"exterior_padding" json:"exterior_padding"`

	MinGridCells int `yaml:"min_grid_cells" json:"min_grid_cells"`
	// AllocationCeiling multiplies the budget to cap template fill attempts.
	AllocationCeiling int `yaml:"allocation_ceiling" json:"allocation_ceiling"`
}

func Defaults() Tuning {
	return Tuning{
		MaxPOIAttempts:      60,
		MaxBuildingAttempts: 50,
		PathMaxSteps:        4000,
		PathJitter:          0.45,
		LandmarkAttempts:    200,
		SpawnMaxRetries:     50,
		SpawnRadius:         3,
		ExteriorPadding:     10,
		MinGridCells:        32,
		AllocationCeiling:   3,
	}
}

// Normalize turns a zero Tuning into Defaults. Otherwise non-positive caps
// and distances fall back to their defaults; a path_jitter of 0 is kept and
// carves straight paths.
func (t *Tuning) Normalize() {
	d := Defaults()
	if *t == (Tuning{}) {
		*t = d
		return
	}
	if t.MaxPOIAttempts <= 0 {
		t.MaxPOIAttempts = d.MaxPOIAttempts
	}
	if t.MaxBuildingAttempts <= 0 {
		t.MaxBuildingAttempts = d.MaxBuildingAttempts
	}
	if t.PathMaxSteps <= 0 {
		t.PathMaxSteps = d.PathMaxSteps
	}
	if t.PathJitter < 0 {
		t.PathJitter = d.PathJitter
	}
	if t.LandmarkAttempts <= 0 {
		t.LandmarkAttempts = d.LandmarkAttempts
	}
	if t.SpawnMaxRetries <= 0 {
		t.SpawnMaxRetries = d.SpawnMaxRetries
	}
	if t.SpawnRadius <= 0 {
		t.SpawnRadius = d.SpawnRadius
	}
	if t.ExteriorPadding <= 0 {
		t.ExteriorPadding = d.ExteriorPadding
	}
	if t.MinGridCells <= 0 {
		t.MinGridCells = d.MinGridCells
	}
	if t.AllocationCeiling <= 0 {
		t.AllocationCeiling = d.AllocationCeiling
	}
}

// Load reads tuning.yaml on top of Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	return t, nil
}
