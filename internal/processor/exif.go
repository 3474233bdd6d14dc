package processor

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
	"image"
)

// Metadata holds the subset of EXIF data the service records per upload.
type Metadata struct {
	Orientation int
	CameraModel string
	TakenAt     time.Time
}

const exifTimeLayout = "2006:01:02 15:04:05"

// ExtractMetadata reads EXIF tags from raw image bytes. Images without EXIF
// data yield a zero Metadata and no error.
func ExtractMetadata(data []byte) (Metadata, error) {
	var meta Metadata

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		if isNoExif(err) {
			return meta, nil
		}
		return meta, err
	}

	for _, tag := range tags {
		switch tag.TagName {
		case "Orientation":
			// Only the root IFD orientation applies to the full image;
			// thumbnail IFDs carry their own.
			if meta.Orientation == 0 {
				if v, convErr := strconv.Atoi(tag.FormattedFirst); convErr == nil {
					meta.Orientation = v
				}
			}
		case "Model":
			if meta.CameraModel == "" {
				meta.CameraModel = strings.TrimSpace(tag.FormattedFirst)
			}
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			if meta.TakenAt.IsZero() {
				if t, parseErr := time.Parse(exifTimeLayout, tag.FormattedFirst); parseErr == nil {
					meta.TakenAt = t
				}
			}
		}
	}

	return meta, nil
}

// AutoOrient normalizes an image according to its EXIF orientation tag so
// that every downstream operation sees an upright bitmap. Orientation values
// follow the EXIF spec (1 = upright, 2-8 = mirrored/rotated variants).
func AutoOrient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func isNoExif(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
