package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/inference"
)

func TestDeclareInputs(t *testing.T) {
	infos := []ort.InputOutputInfo{
		{Name: "image_tensor", Dimensions: ort.NewShape(-1, 3, 300, 300), DataType: ort.TensorElementDataTypeUint8},
		{Name: "image_info", Dimensions: ort.NewShape(-1, 3), DataType: ort.TensorElementDataTypeFloat},
	}

	descs, err := declareInputs(infos, 4)
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, inference.TensorDesc{
		Name: "image_tensor", Dims: []int64{4, 3, 300, 300},
		Precision: inference.PrecisionU8, Kind: inference.KindImage,
	}, descs[0])
	assert.Equal(t, inference.TensorDesc{
		Name: "image_info", Dims: []int64{4, 3},
		Precision: inference.PrecisionFP32, Kind: inference.KindImageInfo,
	}, descs[1])

	// the model info is not modified
	assert.Equal(t, int64(-1), infos[0].Dimensions[0])
}

func TestDeclareInputsUnsupportedType(t *testing.T) {
	_, err := declareInputs([]ort.InputOutputInfo{
		{Name: "x", Dimensions: ort.NewShape(1, 3), DataType: ort.TensorElementDataTypeString},
	}, 1)
	assert.True(t, inference.IsConfiguration(err))
}

func TestDeclareOutput(t *testing.T) {
	infos := []ort.InputOutputInfo{
		{Name: "num_detections", Dimensions: ort.NewShape(1), DataType: ort.TensorElementDataTypeFloat},
		{Name: "detection_out", Dimensions: ort.NewShape(1, 1, 100, 7), DataType: ort.TensorElementDataTypeFloat},
	}

	out, err := declareOutput(infos, "detection_out")
	require.NoError(t, err)
	assert.Equal(t, inference.KindDetection, out.Kind)
	assert.Equal(t, []int64{1, 1, 100, 7}, out.Dims)

	_, err = declareOutput(infos, "")
	assert.True(t, inference.IsConfiguration(err))

	_, err = declareOutput(infos, "boxes")
	assert.True(t, inference.IsConfiguration(err))

	out, err = declareOutput(infos[1:], "")
	require.NoError(t, err)
	assert.Equal(t, "detection_out", out.Name)

	_, err = declareOutput([]ort.InputOutputInfo{
		{Name: "d", Dimensions: ort.NewShape(1, 1, 100, 7), DataType: ort.TensorElementDataTypeInt64},
	}, "")
	assert.True(t, inference.IsConfiguration(err))
}

func TestResolved(t *testing.T) {
	assert.True(t, resolved([]int64{1, 1, 100, 7}))
	assert.False(t, resolved([]int64{1, 1, -1, 7}))
	assert.False(t, resolved(nil))
}
