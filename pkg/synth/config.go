package synth

import(
	"fmt"
	"log"

	"golang.org/x/image/draw"
	"gopkg.in/yaml.v2"
)

/* Example config file ...

burst_size: 6
downsample_factor: 2
interpolation: bilinear
seed: 42
transform:
  max_translation: 5
  max_rotation: 0
  max_shear: 0
  max_ar_factor: 0
  border_crop: 4

*/

// TransformBounds limits the random distortion applied to each
// non-anchor frame. The zero value means no distortion beyond the
// anchor's centering shift.
type TransformBounds struct {
	MaxTranslation float64 `yaml:"max_translation"` // pixels, per axis
	MaxRotation    float64 `yaml:"max_rotation"`    // degrees
	MaxShear       float64 `yaml:"max_shear"`
	MaxArFactor    float64 `yaml:"max_ar_factor"`   // log of the aspect ratio factor
	MaxScale       float64 `yaml:"max_scale"`       // log of the isotropic scale
	BorderCrop     *int    `yaml:"border_crop,omitempty"`
}

type Config struct {
	Verbosity        int             `yaml:"verbosity"`
	BurstSize        int             `yaml:"burst_size"`
	DownsampleFactor int             `yaml:"downsample_factor"`
	Interpolation    string          `yaml:"interpolation"`
	Seed             int64           `yaml:"seed"`
	Parallelism      int             `yaml:"parallelism"` // frames synthesized concurrently; <=1 is serial
	Transform        TransformBounds `yaml:"transform"`

	// Values we figure out in Finalize
	Kernel          *draw.Kernel     `yaml:"-"`
}

func NewConfig() Config {
	return Config{
		BurstSize:        6,
		DownsampleFactor: 2,
		Interpolation:    "bilinear",
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse synth config: %v", err)
	}
	return c, c.Finalize()
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize does sanity checks, and looks up the interpolation kernel.
// All configuration errors surface here, before any pixel is touched.
func (c *Config)Finalize() error {
	if c.BurstSize < 1 {
		return fmt.Errorf("burst_size must be >= 1, got %d", c.BurstSize)
	}
	if c.DownsampleFactor < 1 {
		return fmt.Errorf("downsample_factor must be >= 1, got %d", c.DownsampleFactor)
	}
	if c.Transform.BorderCrop != nil && *c.Transform.BorderCrop < 0 {
		return fmt.Errorf("border_crop must be >= 0, got %d", *c.Transform.BorderCrop)
	}

	k, err := GetKernel(c.Interpolation)
	if err != nil {
		return err
	}
	c.Kernel = k

	return nil
}

func (c Config)GetBorderCrop() int {
	if c.Transform.BorderCrop == nil {
		return 0
	}
	return *c.Transform.BorderCrop
}
