package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
)

// Writer writes tensors in NNFS format to an io.Writer.
type Writer struct {
	w   io.Writer
	now func() time.Time
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// WriteTensors writes entries in the given order.
//
// The whole file is assembled in memory first so that the checksum, which
// precedes the header, covers exactly what follows it.
func (w *Writer) WriteTensors(entries []Entry, modelType string, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		ID:            uuid.NewString(),
		ModelType:     modelType,
		CreatedAt:     w.now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(entries)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var offset int64
	for _, e := range entries {
		if e.Tensor == nil {
			return fmt.Errorf("tensor %q is nil", e.Name)
		}
		size := int64(e.Tensor.Len()) * float64Size
		meta := TensorMeta{
			Name:   e.Name,
			Layer:  e.Layer,
			DType:  DTypeFloat64,
			Shape:  []int(e.Tensor.Shape().Clone()),
			Offset: offset,
			Size:   size,
		}
		if err := ValidateTensorMeta(meta); err != nil {
			return err
		}
		header.Tensors = append(header.Tensors, meta)
		offset += size
	}
	if err := ValidateHeader(&header, offset); err != nil {
		return err
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	data := make([]byte, 0, offset)
	for _, e := range entries {
		for _, v := range e.Tensor.Data() {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[8:16], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(data)))
	checksum := ComputeChecksum(headerJSON, data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	for _, part := range [][]byte{fixed, headerJSON, data} {
		if _, err := w.w.Write(part); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// SaveFile writes entries to path, replacing any existing file.
func SaveFile(path string, entries []Entry, modelType string, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := NewWriter(bw).WriteTensors(entries, modelType, metadata); err != nil {
		_ = file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Close()
}
