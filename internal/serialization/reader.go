package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Reader holds a fully decoded and verified NNFS file.
type Reader struct {
	header  Header
	entries []Entry
}

// NewReader reads and verifies an NNFS stream.
//
// The magic bytes and version are checked first, then the sizes, the
// checksum and the header. Tensor values are decoded only after all checks
// pass.
func NewReader(r io.Reader) (*Reader, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed[:4]); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(fixed[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if _, err := io.ReadFull(r, fixed[4:]); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}

	version := binary.LittleEndian.Uint32(fixed[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[8:16])
	dataSize := binary.LittleEndian.Uint64(fixed[16:24])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize%float64Size != 0 || dataSize > math.MaxInt32*float64Size {
		return nil, &ValidationError{Type: "invalid_data_size", Details: fmt.Sprintf("%d bytes", dataSize)}
	}
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := ValidateChecksum(ComputeChecksum(headerJSON, data), stored); err != nil {
		return nil, err
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("%w: failed to parse header JSON: %v", ErrInvalidHeader, err)
	}
	//nolint:gosec // G115: dataSize bounded above
	if err := ValidateHeader(&header, int64(dataSize)); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	entries := make([]Entry, len(header.Tensors))
	for i, meta := range header.Tensors {
		raw := data[meta.Offset : meta.Offset+meta.Size]
		values := make([]float64, len(raw)/float64Size)
		for j := range values {
			values[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[j*float64Size:]))
		}
		t, err := tensor.FromSlice(values, tensor.Shape(meta.Shape))
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		entries[i] = Entry{Name: meta.Name, Layer: meta.Layer, Tensor: t}
	}

	return &Reader{header: header, entries: entries}, nil
}

// LoadFile reads and verifies the NNFS file at path.
func LoadFile(path string) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r, err := NewReader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

// Metadata returns the custom metadata stored with the tensors.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// Entries returns the tensors in file order.
func (r *Reader) Entries() []Entry {
	return r.entries
}

// Tensor returns the tensor with the given name.
func (r *Reader) Tensor(name string) (*tensor.Tensor, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Tensor, true
		}
	}
	return nil, false
}

// StateDict returns the tensors keyed by name.
func (r *Reader) StateDict() map[string]*tensor.Tensor {
	stateDict := make(map[string]*tensor.Tensor, len(r.entries))
	for _, e := range r.entries {
		stateDict[e.Name] = e.Tensor
	}
	return stateDict
}
