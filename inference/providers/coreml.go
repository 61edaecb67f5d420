// Package providers - CoreML execution provider.
package providers

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreML provider flags, see coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly                uint32 = 0x001
	coreMLFlagEnableOnSubgraph          uint32 = 0x002
	coreMLFlagOnlyEnableDeviceWithANE   uint32 = 0x004
	coreMLFlagOnlyAllowStaticInputShape uint32 = 0x008
	coreMLFlagCreateMLProgram           uint32 = 0x010
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// MLProgram or NeuralNetwork. Default: NeuralNetwork
	ModelFormat string `json:"modelFormat" yaml:"modelFormat"`
	// CPUOnly, CPUAndNeuralEngine or ALL. Default: ALL
	MLComputeUnits string `json:"mlComputeUnits" yaml:"mlComputeUnits"`
	// Only allow the CoreML EP to take nodes with inputs that have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Enable CoreML EP to run on a subgraph in the body of a control flow operator.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs" yaml:"enableOnSubgraphs"`
}

// Flags converts the options to the CoreML provider bit flags.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	switch o.MLComputeUnits {
	case "CPUOnly":
		flags |= coreMLFlagUseCPUOnly
	case "CPUAndNeuralEngine":
		flags |= coreMLFlagOnlyEnableDeviceWithANE
	}
	if o.ModelFormat == "MLProgram" {
		flags |= coreMLFlagCreateMLProgram
	}
	if o.RequireStaticInputShapes {
		flags |= coreMLFlagOnlyAllowStaticInputShape
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLFlagEnableOnSubgraph
	}
	return flags
}
