package experiment

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/synthburst/pkg/emath"
)

// A Source is one image that bursts get synthesized from. Pixel values
// are in [0,255].
type Source struct {
	LoadFilename string
	CameraModel  string // From EXIF, if there was any
	Image        emath.Field
}

func (s Source)String() string {
	str := fmt.Sprintf("%s %s", s.LoadFilename, s.Image)
	if s.CameraModel != "" {
		str += fmt.Sprintf(" (%s)", s.CameraModel)
	}
	return str
}

// LoadFilesAndDirs loads every image it can find, recursing into
// directories. A .yaml file replaces the configuration.
func (e *Experiment)LoadFilesAndDirs(args ...string) (error) {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := e.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file, load it
			if err := e.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (e *Experiment)loadFile(filename string) error {
	ext := filepath.Ext(filename)

	switch strings.ToLower(ext) {

	case ".tif", ".tiff":
		s, err := loadImage(filename, tiff.Decode)
		if err != nil {
			return fmt.Errorf("Loading %s as TIFF failed: %v", filename, err)
		}
		e.AddSource(s)

	case ".png":
		s, err := loadImage(filename, png.Decode)
		if err != nil {
			return fmt.Errorf("Loading %s as PNG failed: %v", filename, err)
		}
		e.AddSource(s)

	case ".jpg", ".jpeg":
		s, err := loadImage(filename, jpeg.Decode)
		if err != nil {
			return fmt.Errorf("Loading %s as JPEG failed: %v", filename, err)
		}
		e.AddSource(s)

	case ".yaml":
		cfg, err := loadConfig(filename)
		if err != nil {
			return fmt.Errorf("Loading %s as config YAML failed: %v", filename, err)
		}
		e.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)
	}

	return nil
}

func loadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	return newConfigFromYaml(contents)
}

func loadImage(filename string, decode func(io.Reader) (image.Image, error)) (Source, error) {
	s := Source{LoadFilename: filename}

	// EXIF is optional; most developed images we'd use won't carry a
	// camera, and nothing downstream depends on it
	if reader, err := os.Open(filename); err != nil {
		return s, fmt.Errorf("open+r exif '%s': %v", filename, err)
	} else {
		if ex, err := exif.Decode(reader); err == nil {
			if tag, err := ex.Get(exif.Model); err == nil {
				s.CameraModel, _ = tag.StringVal()
			}
		}
		reader.Close()
	}

	// Re-open the file, now for the image data
	if reader, err := os.Open(filename); err != nil {
		return s, fmt.Errorf("open+r img '%s': %v", filename, err)
	} else if img, err := decode(reader); err != nil {
		reader.Close()
		return s, fmt.Errorf("decoding '%s': %v", filename, err)
	} else {
		reader.Close()
		s.Image = ImageToField(img)
	}

	return s, nil
}

// ImageToField pulls the RGB values out of any image, scaling them
// into [0,255].
func ImageToField(img image.Image) emath.Field {
	b := img.Bounds()
	f := emath.NewField(b.Dx(), b.Dy(), 3)
	for y:=b.Min.Y; y<b.Max.Y; y++ {
		for x:=b.Min.X; x<b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			v := f.Vec(x-b.Min.X, y-b.Min.Y)
			v[0], v[1], v[2] = float64(r)/257.0, float64(g)/257.0, float64(bl)/257.0
		}
	}
	return f
}
