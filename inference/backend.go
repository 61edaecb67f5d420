// Package inference - Backend capability interface and tensor descriptors.
package inference

import (
	"context"
	"fmt"
)

// TensorKind classifies a declared tensor by the role it plays in detection.
type TensorKind string

const (
	// KindUnknown is a tensor the pipeline does not use.
	KindUnknown TensorKind = ""
	// KindImage is the planar image input [batch, channels, height, width].
	KindImage TensorKind = "image"
	// KindImageInfo is the per-image metadata input [batch, metaDim].
	KindImageInfo TensorKind = "image_info"
	// KindDetection is the detection output [1, 1, proposals, objectSize].
	KindDetection TensorKind = "detection"
)

// TensorDesc describes a tensor declared by a backend.
type TensorDesc struct {
	// The name of the tensor in the model graph.
	Name string `json:"name" yaml:"name"`
	// The dimensions of the tensor, outermost first.
	Dims []int64 `json:"dims" yaml:"dims"`
	// The element precision of the tensor.
	Precision Precision `json:"precision" yaml:"precision"`
	// The role of the tensor.
	Kind TensorKind `json:"kind" yaml:"kind"`
}

// Rank returns the number of dimensions.
func (d TensorDesc) Rank() int {
	return len(d.Dims)
}

// Elements returns the number of elements described by Dims. Non-positive
// dimensions yield zero.
func (d TensorDesc) Elements() int64 {
	if len(d.Dims) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range d.Dims {
		if dim <= 0 {
			return 0
		}
		n *= dim
	}
	return n
}

func (d TensorDesc) String() string {
	return fmt.Sprintf("%s%v(%s,%s)", d.Name, d.Dims, d.Precision, d.Kind)
}

// FindKind returns the first descriptor of the given kind.
//
// Arguments:
//   - descs: The declared tensors.
//   - kind: The kind to look for.
//
// Returns:
//   - TensorDesc: The matching descriptor.
//   - bool: False when no descriptor has that kind.
func FindKind(descs []TensorDesc, kind TensorKind) (TensorDesc, bool) {
	for _, d := range descs {
		if d.Kind == kind {
			return d, true
		}
	}
	return TensorDesc{}, false
}

// Blob is a flat tensor buffer.
type Blob[T uint8 | float32] struct {
	Name string
	Dims []int64
	Data []T
}

// Request holds the packed inputs for one inference call.
type Request struct {
	// Image is the planar image batch.
	Image Blob[uint8]
	// Info is the image metadata tensor; nil when the backend does not declare one.
	Info *Blob[float32]
}

// Backend is the capability contract every inference runtime implements.
//
// A Backend is constructed explicitly, handed to the pipeline, and torn down by
// the caller with Close. Infer is a single blocking call; it is neither retried
// nor cancelled once started.
type Backend interface {
	// DeclareInputs returns the model inputs.
	DeclareInputs() []TensorDesc
	// DeclareOutputs returns the model outputs.
	DeclareOutputs() []TensorDesc
	// Infer runs the model on the packed request and returns the detection output.
	Infer(ctx context.Context, req Request) (Blob[float32], error)
	// Close releases the runtime resources held by the backend.
	Close() error
}
