package onnx

import (
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/inference"
)

// precisionOf maps an ONNX element type to a Precision.
func precisionOf(t ort.TensorElementDataType) (inference.Precision, error) {
	switch t {
	case ort.TensorElementDataTypeUint8:
		return inference.PrecisionU8, nil
	case ort.TensorElementDataTypeFloat:
		return inference.PrecisionFP32, nil
	case ort.TensorElementDataTypeFloat16:
		return inference.PrecisionFP16, nil
	case ort.TensorElementDataTypeInt64:
		return inference.PrecisionI64, nil
	default:
		return "", inference.Configurationf("unsupported element type %v", t)
	}
}

// declareInputs converts model inputs to descriptors. A dynamic leading
// dimension is replaced by batchSize; rank-4 inputs are images and rank-2
// inputs carry image info.
func declareInputs(infos []ort.InputOutputInfo, batchSize int) ([]inference.TensorDesc, error) {
	descs := make([]inference.TensorDesc, 0, len(infos))
	for _, info := range infos {
		precision, err := precisionOf(info.DataType)
		if err != nil {
			return nil, inference.Configurationf("input %s: %v", info.Name, err)
		}

		dims := append([]int64(nil), info.Dimensions...)
		if len(dims) > 0 && dims[0] <= 0 {
			dims[0] = int64(batchSize)
		}

		kind := inference.KindUnknown
		switch len(dims) {
		case 4:
			kind = inference.KindImage
		case 2:
			kind = inference.KindImageInfo
		}

		descs = append(descs, inference.TensorDesc{
			Name:      info.Name,
			Dims:      dims,
			Precision: precision,
			Kind:      kind,
		})
	}
	return descs, nil
}

// declareOutput picks the detection output: the one named name, or the only
// output when name is empty.
func declareOutput(infos []ort.InputOutputInfo, name string) (inference.TensorDesc, error) {
	var found *ort.InputOutputInfo
	switch {
	case name != "":
		for i := range infos {
			if infos[i].Name == name {
				found = &infos[i]
				break
			}
		}
		if found == nil {
			return inference.TensorDesc{}, inference.Configurationf("model has no output named %q", name)
		}
	case len(infos) == 1:
		found = &infos[0]
	default:
		return inference.TensorDesc{}, inference.Configurationf(
			"model declares %d outputs, set detection_output to pick one", len(infos))
	}

	precision, err := precisionOf(found.DataType)
	if err != nil {
		return inference.TensorDesc{}, inference.Configurationf("output %s: %v", found.Name, err)
	}
	if precision != inference.PrecisionFP32 {
		return inference.TensorDesc{}, inference.Configurationf("output %s is %s, want %s",
			found.Name, precision, inference.PrecisionFP32)
	}

	return inference.TensorDesc{
		Name:      found.Name,
		Dims:      append([]int64(nil), found.Dimensions...),
		Precision: precision,
		Kind:      inference.KindDetection,
	}, nil
}

func resolved(dims []int64) bool {
	for _, d := range dims {
		if d <= 0 {
			return false
		}
	}
	return len(dims) > 0
}
