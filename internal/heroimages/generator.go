// Package heroimages turns one source photo into the resized JPEG and WebP
// variants the site's hero banner uses.
package heroimages

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"lodge/pkg/logger"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	DefaultOutDir   = "site/assets/images"
	DefaultBaseName = "hero"
	SourceFileName  = "hero-source.jpg"

	JPEGQuality = 82
	WebPQuality = 80

	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

var DefaultWidths = []int{400, 800, 1600, 1800}

type Variant struct {
	Width  int
	Height int
	Format string
	Path   string
}

type Options struct {
	URL      string
	OutDir   string
	BaseName string
	Widths   []int
}

func (o Options) withDefaults() Options {
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}
	if o.BaseName == "" {
		o.BaseName = DefaultBaseName
	}
	if len(o.Widths) == 0 {
		o.Widths = DefaultWidths
	}
	return o
}

// SourcePath is where the downloaded source is cached between runs.
func (o Options) SourcePath() string {
	return filepath.Join(o.withDefaults().OutDir, SourceFileName)
}

type Generator struct {
	downloader *Downloader
	log        *logger.Logger
}

func NewGenerator(downloader *Downloader, log *logger.Logger) *Generator {
	return &Generator{
		downloader: downloader,
		log:        log,
	}
}

// Run resolves the source image and writes every variant. An explicit URL is
// always downloaded; otherwise the cached source is reused, and only when it is
// missing is the default URL fetched.
func (g *Generator) Run(ctx context.Context, opts Options) ([]Variant, error) {
	opts = opts.withDefaults()
	src := opts.SourcePath()

	switch {
	case opts.URL != "":
		if err := g.downloader.Download(ctx, opts.URL, src); err != nil {
			return nil, err
		}
	case !fileExists(src):
		g.log.Info("No --url provided and no cached source found, using the default image", "path", src)
		if err := g.downloader.Download(ctx, DefaultSourceURL, src); err != nil {
			return nil, err
		}
	default:
		g.log.Info("Using existing local file", "path", src)
	}

	return g.Generate(src, opts)
}

// Generate writes <base>-<width>.jpg and <base>-<width>.webp for each width,
// overwriting previous output.
func (g *Generator) Generate(src string, opts Options) ([]Variant, error) {
	opts = opts.withDefaults()

	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source image %s: %w", src, err)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", opts.OutDir, err)
	}

	variants := make([]Variant, 0, len(opts.Widths)*2)
	for _, width := range opts.Widths {
		if width <= 0 {
			return nil, fmt.Errorf("invalid width %d", width)
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		bounds := resized.Bounds()

		jpgPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s-%d.jpg", opts.BaseName, width))
		g.log.Info("Generating variant", "path", jpgPath, "width", width)
		if err := imaging.Save(resized, jpgPath, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return nil, fmt.Errorf("write %s: %w", jpgPath, err)
		}
		variants = append(variants, Variant{Width: bounds.Dx(), Height: bounds.Dy(), Format: FormatJPEG, Path: jpgPath})

		webpPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s-%d.webp", opts.BaseName, width))
		if err := saveWebP(resized, webpPath); err != nil {
			return nil, err
		}
		variants = append(variants, Variant{Width: bounds.Dx(), Height: bounds.Dy(), Format: FormatWebP, Path: webpPath})
	}

	g.log.Info("Image generation complete", "out_dir", opts.OutDir, "variants", len(variants))
	return variants, nil
}

func saveWebP(img image.Image, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := webp.Encode(f, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
