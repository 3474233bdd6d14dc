package model

import (
	"strings"
	"testing"
)

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr string
	}{
		{
			name: "valid resize",
			op:   Operation{Kind: OpResize, Params: map[string]string{"width": "800", "height": "600"}},
		},
		{
			name: "resize keeps aspect with one dimension",
			op:   Operation{Kind: OpResize, Params: map[string]string{"width": "800"}},
		},
		{
			name:    "resize without dimensions",
			op:      Operation{Kind: OpResize},
			wantErr: "width/height",
		},
		{
			name:    "resize with garbage width",
			op:      Operation{Kind: OpResize, Params: map[string]string{"width": "wide"}},
			wantErr: "invalid width",
		},
		{
			name: "valid crop",
			op:   Operation{Kind: OpCrop, Params: map[string]string{"x": "10", "y": "20", "width": "300", "height": "200"}},
		},
		{
			name:    "crop with zero width",
			op:      Operation{Kind: OpCrop, Params: map[string]string{"width": "0", "height": "10"}},
			wantErr: "width must be positive",
		},
		{
			name: "valid rotate",
			op:   Operation{Kind: OpRotate, Params: map[string]string{"angle": "90"}},
		},
		{
			name:    "rotate with garbage angle",
			op:      Operation{Kind: OpRotate, Params: map[string]string{"angle": "ninety"}},
			wantErr: "invalid angle",
		},
		{
			name:    "rotate with infinite angle",
			op:      Operation{Kind: OpRotate, Params: map[string]string{"angle": "inf"}},
			wantErr: "must be finite",
		},
		{
			name:    "rotate with negative infinite angle",
			op:      Operation{Kind: OpRotate, Params: map[string]string{"angle": "-Inf"}},
			wantErr: "must be finite",
		},
		{
			name: "valid flip",
			op:   Operation{Kind: OpFlip, Params: map[string]string{"direction": "vertical"}},
		},
		{
			name:    "flip with unknown direction",
			op:      Operation{Kind: OpFlip, Params: map[string]string{"direction": "diagonal"}},
			wantErr: "direction",
		},
		{
			name: "valid filter",
			op:   Operation{Kind: OpFilter, Params: map[string]string{"name": "sepia"}},
		},
		{
			name:    "unknown filter name",
			op:      Operation{Kind: OpFilter, Params: map[string]string{"name": "posterize"}},
			wantErr: "unknown filter",
		},
		{
			name: "valid brightness",
			op:   Operation{Kind: OpBrightness, Params: map[string]string{"amount": "-15.5"}},
		},
		{
			name:    "brightness out of range",
			op:      Operation{Kind: OpBrightness, Params: map[string]string{"amount": "150"}},
			wantErr: "within [-100, 100]",
		},
		{
			name:    "brightness with nan amount",
			op:      Operation{Kind: OpBrightness, Params: map[string]string{"amount": "nan"}},
			wantErr: "must be finite",
		},
		{
			name:    "saturation with infinite amount",
			op:      Operation{Kind: OpSaturation, Params: map[string]string{"amount": "+Inf"}},
			wantErr: "must be finite",
		},
		{
			name:    "blur without sigma",
			op:      Operation{Kind: OpBlur},
			wantErr: "sigma must be positive",
		},
		{
			name: "valid text",
			op:   Operation{Kind: OpText, Params: map[string]string{"text": "hello"}},
		},
		{
			name:    "text without text",
			op:      Operation{Kind: OpText},
			wantErr: "text param is required",
		},
		{
			name:    "overlay without asset",
			op:      Operation{Kind: OpOverlay},
			wantErr: "asset param is required",
		},
		{
			name:    "unknown kind",
			op:      Operation{Kind: "emboss"},
			wantErr: "unknown operation kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOperations(t *testing.T) {
	if err := ValidateOperations(nil); err == nil {
		t.Fatal("ValidateOperations(nil) = nil, want error")
	}

	ops := []Operation{
		{Kind: OpResize, Params: map[string]string{"width": "100"}},
		{Kind: OpFilter, Params: map[string]string{"name": "nope"}},
	}

	err := ValidateOperations(ops)
	if err == nil || !strings.Contains(err.Error(), "operation 1") {
		t.Fatalf("ValidateOperations() = %v, want error naming operation 1", err)
	}
}

func TestParamHelpers(t *testing.T) {
	op := Operation{Kind: OpResize, Params: map[string]string{"width": "640", "scale": "1.5", "mode": "fit"}}

	if v, err := op.IntParam("width", 0); err != nil || v != 640 {
		t.Fatalf("IntParam(width) = %d, %v", v, err)
	}
	if v, err := op.IntParam("height", 480); err != nil || v != 480 {
		t.Fatalf("IntParam(height) default = %d, %v", v, err)
	}
	if v, err := op.FloatParam("scale", 0); err != nil || v != 1.5 {
		t.Fatalf("FloatParam(scale) = %v, %v", v, err)
	}
	if v := op.StringParam("mode", "fill"); v != "fit" {
		t.Fatalf("StringParam(mode) = %q", v)
	}
	if v := op.StringParam("anchor", "center"); v != "center" {
		t.Fatalf("StringParam(anchor) default = %q", v)
	}
	if _, err := op.IntParam("scale", 0); err == nil {
		t.Fatal("IntParam(scale) = nil error, want parse error")
	}
}

func TestFloatParamRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"inf", "+Inf", "-inf", "nan", "NaN"} {
		op := Operation{Kind: OpBlur, Params: map[string]string{"sigma": raw}}
		if _, err := op.FloatParam("sigma", 0); err == nil {
			t.Errorf("FloatParam(%q) = nil error, want non-finite error", raw)
		}
	}
}
