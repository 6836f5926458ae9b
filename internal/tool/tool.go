// Package tool defines tool declarations and the interfaces the loop uses to
// offer and invoke them.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Tool is anything that can be offered to the model.
type Tool interface {
	Declaration() Declaration
}

// Invocable is a tool the loop executes itself. Tools that are declared but
// not Invocable are answered with an error result when called.
//
// Execute returns an error for tool-level failures; the loop turns it into
// an error result for the model. Cancellation is reported by the context.
type Invocable interface {
	Tool
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Validator is implemented by request types that check themselves after decoding.
type Validator interface {
	Validate() error
}

// Decode converts a model-supplied argument map into a typed request using the
// request's json tags, then validates it when it implements Validator.
func Decode[Req any](args map[string]any) (*Req, error) {
	var req Req
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           &req,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// Handler executes a decoded request.
type Handler[Req any] func(ctx context.Context, req *Req) (Result, error)

// Func adapts a typed handler into an Invocable.
type Func[Req any] struct {
	decl    Declaration
	handler Handler[Req]
}

// NewFunc creates an Invocable from a declaration and a typed handler.
func NewFunc[Req any](decl Declaration, h Handler[Req]) *Func[Req] {
	if h == nil {
		panic("handler is required")
	}
	return &Func[Req]{decl: decl, handler: h}
}

func (f *Func[Req]) Declaration() Declaration {
	return f.decl
}

func (f *Func[Req]) Execute(ctx context.Context, args map[string]any) (Result, error) {
	req, err := Decode[Req](args)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", f.decl.Name, err)
	}
	return f.handler(ctx, req)
}

// JSON marshals v as the model-facing content of a result.
func JSON(v any) (Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal response: %w", err)
	}
	return Result{Content: string(b), Display: StringDisplay(string(b))}, nil
}
