package experiment

import(
	"fmt"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/synthburst/pkg/align"
	"github.com/abworrall/synthburst/pkg/estimators"
	"github.com/abworrall/synthburst/pkg/evaluate"
	"github.com/abworrall/synthburst/pkg/synth"
)

/* Example config file ...

synth:
  burst_size: 8
  downsample_factor: 2
  transform:
    max_translation: 8
    max_rotation: 1.5
    border_crop: 16
align:
  matcher_grey: fft
do_dense: false
block_matching:
  tile_size: 16
  factors: [1, 2, 2, 4]
  search_radius: 4

*/

type Config struct {
	Verbosity       int                                `yaml:"verbosity"`
	Synth           synth.Config                       `yaml:"synth"`
	Align           align.Config                       `yaml:"align"`

	DoBlockMatching bool                               `yaml:"do_block_matching"`
	DoRefinement    bool                               `yaml:"do_refinement"`
	DoDense         bool                               `yaml:"do_dense"`
	BlockMatching   estimators.BlockMatcherConfig      `yaml:"block_matching"`
	Kanade          estimators.LucasKanadeConfig       `yaml:"kanade"`
	Dense           estimators.HornSchunckConfig       `yaml:"dense"`

	Evaluation      evaluate.Config                    `yaml:"evaluation"`
}

func NewConfig() Config {
	return Config{
		Synth:           synth.NewConfig(),
		Align:           align.NewConfig(),
		DoBlockMatching: true,
		DoRefinement:    true,
		DoDense:         true,
		BlockMatching:   estimators.NewBlockMatcherConfig(),
		Kanade:          estimators.NewLucasKanadeConfig(),
		Dense:           estimators.NewHornSchunckConfig(),
		Evaluation:      evaluate.NewConfig(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize pushes the verbosity down into each stage, and checks
// everything that could be wrong before any pixels are touched.
func (c *Config)Finalize() error {
	c.Synth.Verbosity = c.Verbosity
	c.Align.Verbosity = c.Verbosity
	c.Evaluation.Verbosity = c.Verbosity

	if err := c.Synth.Finalize(); err != nil {
		return fmt.Errorf("synth: %v", err)
	}
	if err := c.Align.Finalize(); err != nil {
		return fmt.Errorf("align: %v", err)
	}
	if c.DoRefinement && !c.DoBlockMatching {
		return fmt.Errorf("do_refinement needs do_block_matching, it is seeded from it")
	}
	if c.DoBlockMatching {
		if err := c.BlockMatching.Validate(); err != nil {
			return err
		}
	}
	if c.DoRefinement {
		if err := c.Kanade.Validate(); err != nil {
			return err
		}
	}
	if c.DoDense {
		if err := c.Dense.Validate(); err != nil {
			return err
		}
	}
	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation: %v", err)
	}
	return nil
}

// Harness builds the alignment harness, with whichever estimators are
// switched on.
func (c Config)Harness() (*align.Harness, error) {
	h := &align.Harness{Config: c.Align}

	if c.DoBlockMatching {
		bm, err := estimators.NewBlockMatcher(c.BlockMatching)
		if err != nil {
			return nil, err
		}
		h.Matcher = bm
	}
	if c.DoRefinement {
		lk, err := estimators.NewLucasKanade(c.Kanade)
		if err != nil {
			return nil, err
		}
		h.Refiner = lk
	}
	if c.DoDense {
		hs, err := estimators.NewHornSchunck(c.Dense)
		if err != nil {
			return nil, err
		}
		h.Dense = hs
	}

	return h, nil
}
