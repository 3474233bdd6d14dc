package model

import (
	"fmt"
	"math"
	"strconv"
)

// OpKind identifies a single image transform step.
type OpKind string

const (
	OpResize     OpKind = "resize"
	OpCrop       OpKind = "crop"
	OpRotate     OpKind = "rotate"
	OpFlip       OpKind = "flip"
	OpFilter     OpKind = "filter"
	OpBrightness OpKind = "brightness"
	OpContrast   OpKind = "contrast"
	OpSaturation OpKind = "saturation"
	OpBlur       OpKind = "blur"
	OpText       OpKind = "text"
	OpOverlay    OpKind = "overlay"
)

// Operation is a single named transform with its parameters.
// Operations are immutable once created and consumed in order.
type Operation struct {
	Kind   OpKind            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// knownKinds holds every operation kind the pipeline can execute.
var knownKinds = map[OpKind]struct{}{
	OpResize:     {},
	OpCrop:       {},
	OpRotate:     {},
	OpFlip:       {},
	OpFilter:     {},
	OpBrightness: {},
	OpContrast:   {},
	OpSaturation: {},
	OpBlur:       {},
	OpText:       {},
	OpOverlay:    {},
}

// filterNames holds the accepted values of the "name" param of a filter op.
var filterNames = map[string]struct{}{
	"grayscale": {},
	"sepia":     {},
	"invert":    {},
	"sharpen":   {},
}

// Validate checks that the operation kind is known and that its required
// parameters are present and well formed. Geometry that exceeds the image
// bounds is not an error here; the pipeline clamps it at apply time.
func (op Operation) Validate() error {
	if _, ok := knownKinds[op.Kind]; !ok {
		return fmt.Errorf("unknown operation kind: %q", op.Kind)
	}

	switch op.Kind {
	case OpResize:
		w, errW := op.IntParam("width", 0)
		h, errH := op.IntParam("height", 0)
		if errW != nil {
			return errW
		}
		if errH != nil {
			return errH
		}
		if w <= 0 && h <= 0 {
			return fmt.Errorf("resize: at least one of width/height must be positive")
		}
	case OpCrop:
		for _, key := range []string{"width", "height"} {
			v, err := op.IntParam(key, 0)
			if err != nil {
				return err
			}
			if v <= 0 {
				return fmt.Errorf("crop: %s must be positive", key)
			}
		}
	case OpRotate:
		if _, err := op.FloatParam("angle", 0); err != nil {
			return err
		}
	case OpFlip:
		dir := op.StringParam("direction", "horizontal")
		if dir != "horizontal" && dir != "vertical" {
			return fmt.Errorf("flip: direction must be horizontal or vertical, got %q", dir)
		}
	case OpFilter:
		name := op.StringParam("name", "")
		if _, ok := filterNames[name]; !ok {
			return fmt.Errorf("filter: unknown filter name %q", name)
		}
	case OpBrightness, OpContrast, OpSaturation:
		v, err := op.FloatParam("amount", 0)
		if err != nil {
			return err
		}
		if v < -100 || v > 100 {
			return fmt.Errorf("%s: amount must be within [-100, 100]", op.Kind)
		}
	case OpBlur:
		sigma, err := op.FloatParam("sigma", 0)
		if err != nil {
			return err
		}
		if sigma <= 0 {
			return fmt.Errorf("blur: sigma must be positive")
		}
	case OpText:
		if op.StringParam("text", "") == "" {
			return fmt.Errorf("text: text param is required")
		}
	case OpOverlay:
		if op.StringParam("asset", "") == "" {
			return fmt.Errorf("overlay: asset param is required")
		}
	}

	return nil
}

// ValidateOperations validates an ordered operation list as a whole.
func ValidateOperations(ops []Operation) error {
	if len(ops) == 0 {
		return fmt.Errorf("operation list is empty")
	}

	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}

	return nil
}

// IntParam parses an integer parameter, returning def if the key is absent.
func (op Operation) IntParam(key string, def int) (int, error) {
	raw, ok := op.Params[key]
	if !ok || raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid %s: %v", op.Kind, key, err)
	}

	return v, nil
}

// FloatParam parses a float parameter, returning def if the key is absent.
// Non-finite values are rejected: ParseFloat accepts "inf" and "nan", which
// would otherwise slip past range checks and angle normalization.
func (op Operation) FloatParam(key string, def float64) (float64, error) {
	raw, ok := op.Params[key]
	if !ok || raw == "" {
		return def, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid %s: %v", op.Kind, key, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %s must be finite, got %q", op.Kind, key, raw)
	}

	return v, nil
}

// StringParam returns a string parameter, or def if the key is absent.
func (op Operation) StringParam(key, def string) string {
	if v, ok := op.Params[key]; ok && v != "" {
		return v
	}

	return def
}
