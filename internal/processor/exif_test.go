package processor

import (
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestAutoOrient(t *testing.T) {
	src := imaging.New(100, 50, color.White)

	tests := []struct {
		orientation  int
		wantW, wantH int
	}{
		{orientation: 0, wantW: 100, wantH: 50},
		{orientation: 1, wantW: 100, wantH: 50},
		{orientation: 2, wantW: 100, wantH: 50},
		{orientation: 3, wantW: 100, wantH: 50},
		{orientation: 4, wantW: 100, wantH: 50},
		{orientation: 5, wantW: 50, wantH: 100},
		{orientation: 6, wantW: 50, wantH: 100},
		{orientation: 7, wantW: 50, wantH: 100},
		{orientation: 8, wantW: 50, wantH: 100},
	}

	for _, tt := range tests {
		out := AutoOrient(src, tt.orientation)
		if b := out.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("AutoOrient(orientation %d) = %dx%d, want %dx%d",
				tt.orientation, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestExtractMetadataWithoutExif(t *testing.T) {
	src := imaging.New(4, 4, color.White)
	meta, err := ExtractMetadata(encodePNG(t, src))
	if err != nil {
		t.Fatalf("ExtractMetadata = %v, want nil for exif-less image", err)
	}
	if meta.Orientation != 0 || meta.CameraModel != "" || !meta.TakenAt.IsZero() {
		t.Fatalf("ExtractMetadata = %+v, want zero metadata", meta)
	}
}

func TestIsNoExif(t *testing.T) {
	if !isNoExif(errors.New("no exif data")) {
		t.Fatal("isNoExif(no exif data) = false")
	}
	if isNoExif(errors.New("short read")) {
		t.Fatal("isNoExif(short read) = true")
	}
	if isNoExif(nil) {
		t.Fatal("isNoExif(nil) = true")
	}
}
