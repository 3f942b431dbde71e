package serialization

import (
	"time"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "NNFS"
	FormatVersion   = 1
	FixedHeaderSize = 56 // magic + version + header size + data size + checksum
	ChecksumSize    = 32 // SHA-256
	ChecksumOffset  = 0x18
	DTypeFloat64    = "float64"
	float64Size     = 8
)

// Header represents the JSON header of an NNFS file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ID            string            `json:"id"`         // Unique file identifier
	ModelType     string            `json:"model_type"` // e.g. "Sequential"
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "0.dense.weight"
	Layer  int    `json:"layer"`  // Index of the owning layer
	DType  string `json:"dtype"`  // Always float64
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Entry is a named tensor to write, or one that was read back.
type Entry struct {
	Name   string
	Layer  int
	Tensor *tensor.Tensor
}
