package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"photoflow/internal/apperr"
	"photoflow/internal/model"
)

// fileStorage defines the interface for file storage.
// It allows saving and loading files from a backend (e.g., local FS, S3, MinIO).
type fileStorage interface {
	Save(ctx context.Context, subdir, filename string, src io.Reader) (string, error)
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// ProgressFunc reports fractional pipeline progress in [0, 1].
type ProgressFunc func(fraction float64)

// Processor executes the operation pipeline for a processing job: load,
// decode, apply the ordered operation list, encode, and store the output.
type Processor struct {
	fileStorage fileStorage
	fontPath    string
	maxPixels   int
	thumbSize   int
}

// Option configures a Processor.
type Option func(*Processor)

// WithFontPath overrides the embedded Go Regular face used by text overlays
// with a TTF file.
func WithFontPath(path string) Option {
	return func(p *Processor) { p.fontPath = path }
}

// WithMaxPixels caps the decoded image area. Zero disables the check.
func WithMaxPixels(n int) Option {
	return func(p *Processor) { p.maxPixels = n }
}

// WithThumbnailSize sets the bounding square for generated thumbnails.
func WithThumbnailSize(n int) Option {
	return func(p *Processor) { p.thumbSize = n }
}

// New creates a new Processor with the given file storage backend.
func New(fs fileStorage, opts ...Option) *Processor {
	p := &Processor{
		fileStorage: fs,
		thumbSize:   256,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes the full pipeline for one job: load the source image, bring
// it upright when the job asks for auto-orientation, apply every operation in
// order, encode the result, and store the output (plus thumbnail when
// requested). Progress is reported after each completed operation.
func (p *Processor) Run(ctx context.Context, img model.Image, job model.Job, progress ProgressFunc) (*model.Result, error) {
	start := time.Now()

	srcReader, err := p.fileStorage.Load(ctx, img.Path)
	if err != nil {
		return nil, apperr.New(apperr.CategoryNetwork, fmt.Errorf("load source image: %w", err))
	}
	defer srcReader.Close()

	src, err := imaging.Decode(srcReader)
	if err != nil {
		return nil, apperr.New(apperr.CategoryInvalidInput, fmt.Errorf("decode image: %w", err))
	}

	if p.maxPixels > 0 {
		b := src.Bounds()
		if b.Dx()*b.Dy() > p.maxPixels {
			return nil, apperr.New(apperr.CategoryImageTooLarge,
				fmt.Errorf("image %dx%d exceeds pixel limit %d", b.Dx(), b.Dy(), p.maxPixels))
		}
	}

	if job.AutoOrient {
		src = AutoOrient(src, img.Orientation)
	}

	out, err := p.Apply(ctx, src, job.Operations, progress)
	if err != nil {
		return nil, err
	}

	format, ext, err := exportFormat(job.Export.Format)
	if err != nil {
		return nil, apperr.New(apperr.CategoryInvalidInput, err)
	}

	encoded, err := encode(out, format, job.Export.Quality)
	if err != nil {
		return nil, apperr.New(apperr.CategoryExportFailed, fmt.Errorf("encode output: %w", err))
	}

	outName := job.ID.String() + ext
	dst, err := p.fileStorage.Save(ctx, "processed", outName, bytes.NewReader(encoded))
	if err != nil {
		return nil, apperr.New(apperr.CategoryNetwork, fmt.Errorf("save output: %w", err))
	}

	result := &model.Result{
		SourcePath: img.Path,
		OutputPath: dst,
		SizeBytes:  int64(len(encoded)),
		Width:      out.Bounds().Dx(),
		Height:     out.Bounds().Dy(),
		Operations: job.Operations,
	}

	if job.Thumbnail {
		thumbPath, thumbErr := p.saveThumbnail(ctx, out, outName)
		if thumbErr != nil {
			return nil, thumbErr
		}
		result.ThumbnailPath = thumbPath
	}

	result.ElapsedMS = time.Since(start).Milliseconds()

	return result, nil
}

// Apply folds the ordered operation list over the image, reporting
// fractional progress after each step. The context is checked between
// operations only; an operation already running is never interrupted.
func (p *Processor) Apply(ctx context.Context, src image.Image, ops []model.Operation, progress ProgressFunc) (image.Image, error) {
	if err := model.ValidateOperations(ops); err != nil {
		return nil, apperr.New(apperr.CategoryInvalidInput, err)
	}

	out := src
	total := len(ops)

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := p.applyOperation(ctx, out, op)
		if err != nil {
			err = fmt.Errorf("apply %s (step %d/%d): %w", op.Kind, i+1, total, err)
			// Apply-time failures trace back to the request unless the
			// operation already classified them.
			if apperr.CategoryOf(err) == apperr.CategoryUnknown {
				err = apperr.New(apperr.CategoryInvalidInput, err)
			}
			return nil, err
		}
		out = next

		if progress != nil {
			progress(float64(i+1) / float64(total))
		}
	}

	return out, nil
}

// saveThumbnail encodes and stores a bounded thumbnail of the output image.
func (p *Processor) saveThumbnail(ctx context.Context, out image.Image, outName string) (string, error) {
	thumb := imaging.Thumbnail(out, p.thumbSize, p.thumbSize, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", apperr.New(apperr.CategoryExportFailed, fmt.Errorf("encode thumbnail: %w", err))
	}

	thumbName := strings.TrimSuffix(outName, path.Ext(outName)) + ".jpg"
	dst, err := p.fileStorage.Save(ctx, "thumbnails", thumbName, buf)
	if err != nil {
		return "", apperr.New(apperr.CategoryNetwork, fmt.Errorf("save thumbnail: %w", err))
	}

	return dst, nil
}

// exportFormat resolves the job export format into an imaging format and a
// file extension. Empty defaults to JPEG.
func exportFormat(name string) (imaging.Format, string, error) {
	switch strings.ToLower(name) {
	case "", "jpg", "jpeg":
		return imaging.JPEG, ".jpg", nil
	case "png":
		return imaging.PNG, ".png", nil
	default:
		return 0, "", fmt.Errorf("unsupported export format: %q", name)
	}
}

func encode(img image.Image, format imaging.Format, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)

	var opts []imaging.EncodeOption
	if format == imaging.JPEG {
		// JPEG has no alpha channel; flatten transparency (e.g. corners
		// exposed by arbitrary rotation) onto white instead of black.
		b := img.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), color.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)

		if quality <= 0 || quality > 100 {
			quality = 90
		}
		opts = append(opts, imaging.JPEGQuality(quality))
	}

	if err := imaging.Encode(buf, img, format, opts...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
