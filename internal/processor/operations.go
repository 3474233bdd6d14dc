package processor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"photoflow/internal/apperr"
	"photoflow/internal/model"
)

// applyOperation dispatches a single operation to its transform.
func (p *Processor) applyOperation(ctx context.Context, src image.Image, op model.Operation) (image.Image, error) {
	switch op.Kind {
	case model.OpResize:
		return applyResize(src, op)
	case model.OpCrop:
		return applyCrop(src, op)
	case model.OpRotate:
		return applyRotate(src, op)
	case model.OpFlip:
		return applyFlip(src, op)
	case model.OpFilter:
		return applyFilter(src, op)
	case model.OpBrightness:
		return adjust(src, op, imaging.AdjustBrightness)
	case model.OpContrast:
		return adjust(src, op, imaging.AdjustContrast)
	case model.OpSaturation:
		return adjust(src, op, imaging.AdjustSaturation)
	case model.OpBlur:
		return applyBlur(src, op)
	case model.OpText:
		return p.applyText(src, op)
	case model.OpOverlay:
		return p.applyOverlay(ctx, src, op)
	default:
		return nil, fmt.Errorf("unknown operation kind: %q", op.Kind)
	}
}

// applyResize scales the image to the requested dimensions. A zero width or
// height preserves the aspect ratio.
func applyResize(src image.Image, op model.Operation) (image.Image, error) {
	width, err := op.IntParam("width", 0)
	if err != nil {
		return nil, err
	}
	height, err := op.IntParam("height", 0)
	if err != nil {
		return nil, err
	}

	return imaging.Resize(src, width, height, imaging.Lanczos), nil
}

// applyCrop cuts the requested rectangle out of the image. Rectangles that
// extend past the image bounds are clamped to the bounds; a rectangle that
// falls entirely outside is an error.
func applyCrop(src image.Image, op model.Operation) (image.Image, error) {
	x, err := op.IntParam("x", 0)
	if err != nil {
		return nil, err
	}
	y, err := op.IntParam("y", 0)
	if err != nil {
		return nil, err
	}
	width, err := op.IntParam("width", 0)
	if err != nil {
		return nil, err
	}
	height, err := op.IntParam("height", 0)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	rect := image.Rect(x, y, x+width, y+height).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle lies outside the image")
	}

	return imaging.Crop(src, rect), nil
}

// applyRotate rotates the image counter-clockwise by the given angle.
// Right angles use the lossless rotations; arbitrary angles resample and
// leave exposed corners transparent. JPEG export flattens that transparency
// onto white at encode time.
func applyRotate(src image.Image, op model.Operation) (image.Image, error) {
	angle, err := op.FloatParam("angle", 0)
	if err != nil {
		return nil, err
	}
	if math.IsInf(angle, 0) || math.IsNaN(angle) {
		return nil, fmt.Errorf("rotate: angle must be finite")
	}

	// Normalize to [0, 360).
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}

	switch angle {
	case 0:
		return src, nil
	case 90:
		return imaging.Rotate90(src), nil
	case 180:
		return imaging.Rotate180(src), nil
	case 270:
		return imaging.Rotate270(src), nil
	default:
		return imaging.Rotate(src, angle, color.Transparent), nil
	}
}

func applyFlip(src image.Image, op model.Operation) (image.Image, error) {
	switch op.StringParam("direction", "horizontal") {
	case "vertical":
		return imaging.FlipV(src), nil
	default:
		return imaging.FlipH(src), nil
	}
}

func applyFilter(src image.Image, op model.Operation) (image.Image, error) {
	switch name := op.StringParam("name", ""); name {
	case "grayscale":
		return imaging.Grayscale(src), nil
	case "sepia":
		return sepia(src), nil
	case "invert":
		return imaging.Invert(src), nil
	case "sharpen":
		sigma, err := op.FloatParam("sigma", 1)
		if err != nil {
			return nil, err
		}
		return imaging.Sharpen(src, sigma), nil
	default:
		return nil, fmt.Errorf("unknown filter name %q", name)
	}
}

// sepia applies the standard sepia tone matrix per channel.
func sepia(src image.Image) image.Image {
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		r := float64(c.R)
		g := float64(c.G)
		b := float64(c.B)

		return color.NRGBA{
			R: clamp8(0.393*r + 0.769*g + 0.189*b),
			G: clamp8(0.349*r + 0.686*g + 0.168*b),
			B: clamp8(0.272*r + 0.534*g + 0.131*b),
			A: c.A,
		}
	})
}

// adjust runs one of the imaging percentage adjustments (brightness,
// contrast, saturation) with the op's amount param.
func adjust(src image.Image, op model.Operation, fn func(image.Image, float64) *image.NRGBA) (image.Image, error) {
	amount, err := op.FloatParam("amount", 0)
	if err != nil {
		return nil, err
	}

	return fn(src, amount), nil
}

func applyBlur(src image.Image, op model.Operation) (image.Image, error) {
	sigma, err := op.FloatParam("sigma", 0)
	if err != nil {
		return nil, err
	}

	return imaging.Blur(src, sigma), nil
}

// applyText draws a text overlay anchored in one of the image corners or the
// center. Font size defaults to 5% of the image width. Without a configured
// font path the embedded Go Regular face is used.
func (p *Processor) applyText(src image.Image, op model.Operation) (image.Image, error) {
	text := op.StringParam("text", "")

	dc := gg.NewContextForImage(src)
	dc.SetColor(parseColor(op.StringParam("color", "white")))

	fontSize, err := op.FloatParam("size", float64(dc.Width())*0.05)
	if err != nil {
		return nil, err
	}

	if p.fontPath != "" {
		if err := dc.LoadFontFace(p.fontPath, fontSize); err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
	} else {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("parse embedded font: %w", err)
		}
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: fontSize}))
	}

	tw, th := dc.MeasureString(text)

	margin, err := op.FloatParam("margin", 10)
	if err != nil {
		return nil, err
	}

	var x, y float64
	switch op.StringParam("anchor", "bottom-right") {
	case "top-left":
		x, y = margin, margin+th
	case "top-right":
		x, y = float64(dc.Width())-tw-margin, margin+th
	case "bottom-left":
		x, y = margin, float64(dc.Height())-margin
	case "center":
		x, y = (float64(dc.Width())-tw)/2, (float64(dc.Height())+th)/2
	default: // bottom-right
		x, y = float64(dc.Width())-tw-margin, float64(dc.Height())-margin
	}

	dc.DrawString(text, x, y)
	dc.Fill()

	return dc.Image(), nil
}

// applyOverlay composites a stored asset on top of the image. Position
// defaults to the top-left corner, opacity to fully opaque.
func (p *Processor) applyOverlay(ctx context.Context, src image.Image, op model.Operation) (image.Image, error) {
	assetPath := op.StringParam("asset", "")

	reader, err := p.fileStorage.Load(ctx, assetPath)
	if err != nil {
		return nil, apperr.New(apperr.CategoryNotFound, fmt.Errorf("load overlay asset %q: %w", assetPath, err))
	}
	defer reader.Close()

	asset, err := imaging.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode overlay asset: %w", err)
	}

	x, err := op.IntParam("x", 0)
	if err != nil {
		return nil, err
	}
	y, err := op.IntParam("y", 0)
	if err != nil {
		return nil, err
	}
	opacity, err := op.FloatParam("opacity", 1)
	if err != nil {
		return nil, err
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("overlay opacity must be within [0, 1]")
	}

	return imaging.Overlay(src, asset, image.Pt(x, y), opacity), nil
}

// parseColor maps a small named palette to colors; unknown names fall back
// to white.
func parseColor(name string) color.Color {
	switch name {
	case "black":
		return color.Black
	case "red":
		return color.NRGBA{R: 255, A: 255}
	case "green":
		return color.NRGBA{G: 255, A: 255}
	case "blue":
		return color.NRGBA{B: 255, A: 255}
	default:
		return color.White
	}
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
