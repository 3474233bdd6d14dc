package main

import (
	"fmt"
	"strings"

	"photoflow/internal/model"
)

// parseOperations turns --op flag values into an ordered operation list.
//
// Flag syntax, one op per flag, applied in order:
//
//	resize=800x600          crop=10,20,300,200      rotate=90
//	flip=horizontal         filter=sepia            brightness=15
//	contrast=-10            saturation=20           blur=2.5
//	text=hello world        overlay=assets/logo.png
func parseOperations(specs []string) ([]model.Operation, error) {
	ops := make([]model.Operation, 0, len(specs))

	for _, spec := range specs {
		kind, arg, _ := strings.Cut(spec, "=")

		op, err := parseOperation(model.OpKind(strings.TrimSpace(kind)), strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("--op %q: %w", spec, err)
		}

		ops = append(ops, op)
	}

	return ops, nil
}

func parseOperation(kind model.OpKind, arg string) (model.Operation, error) {
	op := model.Operation{Kind: kind, Params: map[string]string{}}

	switch kind {
	case model.OpResize:
		w, h, ok := strings.Cut(arg, "x")
		if !ok {
			return model.Operation{}, fmt.Errorf("expected WIDTHxHEIGHT")
		}
		op.Params["width"] = w
		op.Params["height"] = h
	case model.OpCrop:
		parts := strings.Split(arg, ",")
		if len(parts) != 4 {
			return model.Operation{}, fmt.Errorf("expected X,Y,WIDTH,HEIGHT")
		}
		op.Params["x"] = strings.TrimSpace(parts[0])
		op.Params["y"] = strings.TrimSpace(parts[1])
		op.Params["width"] = strings.TrimSpace(parts[2])
		op.Params["height"] = strings.TrimSpace(parts[3])
	case model.OpRotate:
		op.Params["angle"] = arg
	case model.OpFlip:
		op.Params["direction"] = arg
	case model.OpFilter:
		op.Params["name"] = arg
	case model.OpBrightness, model.OpContrast, model.OpSaturation:
		op.Params["amount"] = arg
	case model.OpBlur:
		op.Params["sigma"] = arg
	case model.OpText:
		op.Params["text"] = arg
	case model.OpOverlay:
		op.Params["asset"] = arg
	default:
		return model.Operation{}, fmt.Errorf("unknown operation kind %q", kind)
	}

	if err := op.Validate(); err != nil {
		return model.Operation{}, err
	}

	return op, nil
}
