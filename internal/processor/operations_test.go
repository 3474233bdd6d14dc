package processor

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"photoflow/internal/model"
)

func op(kind model.OpKind, params map[string]string) model.Operation {
	return model.Operation{Kind: kind, Params: params}
}

func TestApplyResize(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	out, err := applyResize(src, op(model.OpResize, map[string]string{"width": "40", "height": "20"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("resize = %dx%d, want 40x20", b.Dx(), b.Dy())
	}

	// Zero height keeps the 2:1 aspect ratio.
	out, err = applyResize(src, op(model.OpResize, map[string]string{"width": "40"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("aspect resize = %dx%d, want 40x20", b.Dx(), b.Dy())
	}
}

func TestApplyCrop(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	out, err := applyCrop(src, op(model.OpCrop, map[string]string{"x": "10", "y": "10", "width": "30", "height": "20"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("crop = %dx%d, want 30x20", b.Dx(), b.Dy())
	}
}

func TestApplyCropClampsToBounds(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	out, err := applyCrop(src, op(model.OpCrop, map[string]string{"x": "50", "y": "0", "width": "100", "height": "100"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("clamped crop = %dx%d, want 50x50", b.Dx(), b.Dy())
	}
}

func TestApplyCropOutsideBounds(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	_, err := applyCrop(src, op(model.OpCrop, map[string]string{"x": "200", "y": "0", "width": "10", "height": "10"}))
	if err == nil || !strings.Contains(err.Error(), "outside") {
		t.Fatalf("crop outside bounds = %v, want outside-bounds error", err)
	}
}

func TestApplyRotateRightAngles(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	for _, angle := range []string{"90", "270", "-90", "450"} {
		out, err := applyRotate(src, op(model.OpRotate, map[string]string{"angle": angle}))
		if err != nil {
			t.Fatal(err)
		}
		if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 100 {
			t.Fatalf("rotate %s = %dx%d, want 50x100", angle, b.Dx(), b.Dy())
		}
	}

	out, err := applyRotate(src, op(model.OpRotate, map[string]string{"angle": "180"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("rotate 180 = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestApplyRotateNormalizesLargeAngles(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	// 720 is two full turns; the image comes back untouched.
	out, err := applyRotate(src, op(model.OpRotate, map[string]string{"angle": "720"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("rotate 720 = %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	out, err = applyRotate(src, op(model.OpRotate, map[string]string{"angle": "-630"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 100 {
		t.Fatalf("rotate -630 = %dx%d, want 50x100", b.Dx(), b.Dy())
	}
}

func TestApplyRotateRejectsNonFiniteAngle(t *testing.T) {
	src := imaging.New(10, 10, color.White)

	// FloatParam already rejects these; the guard in applyRotate keeps the
	// normalization from looping forever if one slips through anyway.
	for _, angle := range []string{"inf", "-Inf", "nan"} {
		done := make(chan error, 1)
		go func() {
			_, err := applyRotate(src, op(model.OpRotate, map[string]string{"angle": angle}))
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				t.Errorf("applyRotate(angle=%s) = nil, want error", angle)
			}
		case <-time.After(time.Second):
			t.Fatalf("applyRotate(angle=%s) did not return", angle)
		}
	}
}

func TestApplyRotateArbitraryAngleGrowsCanvas(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	out, err := applyRotate(src, op(model.OpRotate, map[string]string{"angle": "45"}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() <= 100 || b.Dy() <= 50 {
		t.Fatalf("rotate 45 = %dx%d, want a larger canvas", b.Dx(), b.Dy())
	}
}

func TestApplyFlip(t *testing.T) {
	src := imaging.New(2, 1, color.White)
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})

	out, err := applyFlip(src, op(model.OpFlip, map[string]string{"direction": "horizontal"}))
	if err != nil {
		t.Fatal(err)
	}

	r, _, _, _ := out.At(1, 0).RGBA()
	if r>>8 != 255 {
		t.Fatal("horizontal flip did not move the red pixel to the right edge")
	}
}

func TestApplyFilterUnknownName(t *testing.T) {
	src := imaging.New(2, 2, color.White)

	_, err := applyFilter(src, op(model.OpFilter, map[string]string{"name": "posterize"}))
	if err == nil || !strings.Contains(err.Error(), "unknown filter") {
		t.Fatalf("filter = %v, want unknown-filter error", err)
	}
}

func TestSepiaClampsChannels(t *testing.T) {
	src := imaging.New(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := sepia(src)
	c := out.(*image.NRGBA).NRGBAAt(0, 0)
	if c.R != 255 || c.G != 255 || c.B != 238 || c.A != 255 {
		t.Fatalf("sepia(white) = %+v, want {255 255 238 255}", c)
	}
}

func TestClamp8(t *testing.T) {
	if got := clamp8(300); got != 255 {
		t.Fatalf("clamp8(300) = %d", got)
	}
	if got := clamp8(-5); got != 0 {
		t.Fatalf("clamp8(-5) = %d", got)
	}
	if got := clamp8(128.7); got != 128 {
		t.Fatalf("clamp8(128.7) = %d", got)
	}
}

func TestApplyOperationUnknownKind(t *testing.T) {
	p := New(newMemStorage())
	src := imaging.New(2, 2, color.White)

	_, err := p.applyOperation(context.Background(), src, op("emboss", nil))
	if err == nil || !strings.Contains(err.Error(), "unknown operation kind") {
		t.Fatalf("applyOperation = %v, want unknown-kind error", err)
	}
}

func TestApplyText(t *testing.T) {
	// No font path configured: the embedded Go Regular face is used.
	p := New(newMemStorage())
	src := imaging.New(200, 100, color.White)

	out, err := p.applyText(src, op(model.OpText, map[string]string{
		"text":   "hello",
		"color":  "black",
		"anchor": "center",
		"size":   "32",
	}))
	if err != nil {
		t.Fatal(err)
	}

	b := out.Bounds()
	drawn := false
	for y := b.Min.Y; y < b.Max.Y && !drawn; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			if r>>8 < 250 || g>>8 < 250 || bl>>8 < 250 {
				drawn = true
				break
			}
		}
	}
	if !drawn {
		t.Fatal("text overlay left the canvas blank")
	}
}

func TestApplyTextMissingFontFile(t *testing.T) {
	p := New(newMemStorage(), WithFontPath("testdata/missing.ttf"))
	src := imaging.New(40, 20, color.White)

	_, err := p.applyText(src, op(model.OpText, map[string]string{"text": "hello"}))
	if err == nil || !strings.Contains(err.Error(), "load font") {
		t.Fatalf("applyText = %v, want load-font error", err)
	}
}

func TestApplyOverlay(t *testing.T) {
	store := newMemStorage()

	overlay := imaging.New(4, 4, color.NRGBA{R: 255, A: 255})
	if err := store.put("assets/badge.png", encodePNG(t, overlay)); err != nil {
		t.Fatal(err)
	}

	p := New(store)
	src := imaging.New(10, 10, color.White)

	out, err := p.applyOverlay(context.Background(), src, op(model.OpOverlay, map[string]string{
		"asset": "assets/badge.png",
		"x":     "2",
		"y":     "2",
	}))
	if err != nil {
		t.Fatal(err)
	}

	r, _, b, _ := out.At(3, 3).RGBA()
	if r>>8 != 255 || b>>8 != 0 {
		t.Fatal("overlay pixel not composited onto the source")
	}
}

func TestApplyOverlayRejectsBadOpacity(t *testing.T) {
	store := newMemStorage()

	overlay := imaging.New(2, 2, color.White)
	if err := store.put("assets/badge.png", encodePNG(t, overlay)); err != nil {
		t.Fatal(err)
	}

	p := New(store)
	src := imaging.New(4, 4, color.White)

	_, err := p.applyOverlay(context.Background(), src, op(model.OpOverlay, map[string]string{
		"asset":   "assets/badge.png",
		"opacity": "1.5",
	}))
	if err == nil || !strings.Contains(err.Error(), "opacity") {
		t.Fatalf("overlay = %v, want opacity error", err)
	}
}
