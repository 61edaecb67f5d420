// Package inference - Tensor element precisions.
package inference

import "strings"

// Precision represents the element type of a declared tensor.
type Precision string

// Precision constants are the element types a backend may declare.
const (
	PrecisionU8   Precision = "U8"
	PrecisionFP16 Precision = "FP16"
	PrecisionFP32 Precision = "FP32"
	PrecisionI64  Precision = "I64"
)

// ParsePrecision normalizes a precision name such as "fp32" or "uint8".
//
// Arguments:
//   - s: The precision name.
//
// Returns:
//   - Precision: The matching precision.
//   - error: A configuration error when the name is not recognized.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "U8", "UINT8":
		return PrecisionU8, nil
	case "FP16", "FLOAT16":
		return PrecisionFP16, nil
	case "", "FP32", "FLOAT", "FLOAT32":
		return PrecisionFP32, nil
	case "I64", "INT64":
		return PrecisionI64, nil
	default:
		return "", Configurationf("unknown precision %q", s)
	}
}

// UnmarshalText accepts any spelling ParsePrecision does.
func (p *Precision) UnmarshalText(text []byte) error {
	v, err := ParsePrecision(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
