// Package estimators has simple reference implementations of the
// three kinds of motion estimator the align harness can drive: a tile
// block matcher over a box pyramid, a per-tile Lucas-Kanade refiner,
// and Horn-Schunck dense flow.
package estimators

import(
	"fmt"
)

type BlockMatcherConfig struct {
	TileSize     int   `yaml:"tile_size"`
	Factors      []int `yaml:"factors"`       // finest first; the first is applied to the input
	SearchRadius int   `yaml:"search_radius"` // in pixels of each level, around the upsampled coarser guess
}

type LucasKanadeConfig struct {
	Iterations int `yaml:"iterations"`
}

type HornSchunckConfig struct {
	Alpha      float64 `yaml:"alpha"`
	Iterations int     `yaml:"iterations"`
}

func NewBlockMatcherConfig() BlockMatcherConfig {
	return BlockMatcherConfig{TileSize: 16, Factors: []int{1, 2, 2, 4}, SearchRadius: 4}
}

func NewLucasKanadeConfig() LucasKanadeConfig {
	return LucasKanadeConfig{Iterations: 8}
}

func NewHornSchunckConfig() HornSchunckConfig {
	return HornSchunckConfig{Alpha: 0.05, Iterations: 200}
}

func (c BlockMatcherConfig)Validate() error {
	if c.TileSize < 1 {
		return fmt.Errorf("block matcher tile_size %d < 1", c.TileSize)
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("block matcher needs at least one level factor")
	}
	for i, f := range c.Factors {
		if f < 1 {
			return fmt.Errorf("block matcher factor[%d]=%d < 1", i, f)
		}
	}
	if c.SearchRadius < 0 {
		return fmt.Errorf("block matcher search_radius %d < 0", c.SearchRadius)
	}
	return nil
}

func (c LucasKanadeConfig)Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("lucas-kanade iterations %d < 1", c.Iterations)
	}
	return nil
}

func (c HornSchunckConfig)Validate() error {
	if c.Alpha <= 0 {
		return fmt.Errorf("horn-schunck alpha %g must be positive", c.Alpha)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("horn-schunck iterations %d < 1", c.Iterations)
	}
	return nil
}
