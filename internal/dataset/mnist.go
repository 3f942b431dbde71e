package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/born-ml/nnfs/internal/tensor"
)

// IDX magic numbers (unsigned byte data, 1 or 3 dimensions).
const (
	idxLabelsMagic = 0x00000801 // 2049
	idxImagesMagic = 0x00000803 // 2051
)

// Header limits. Larger values are rejected before anything is allocated.
const (
	maxIDXPixels = 1 << 16 // per image, 256x256
	maxIDXItems  = 1 << 24 // images or labels per file
)

// MNISTSplit selects the training or the test files.
type MNISTSplit int

// MNIST file sets.
const (
	MNISTTrain MNISTSplit = iota // train-*-idx?-ubyte, 60,000 samples
	MNISTTest                    // t10k-*-idx?-ubyte, 10,000 samples
)

func (s MNISTSplit) prefix() string {
	if s == MNISTTest {
		return "t10k"
	}
	return "train"
}

// LoadMNIST loads MNIST data from official IDX binary files.
//
// Expected files in dir (each optionally gzip-compressed with a .gz suffix):
//   - train-images-idx3-ubyte (or t10k-images-idx3-ubyte for test)
//   - train-labels-idx1-ubyte (or t10k-labels-idx1-ubyte for test)
//
// Pixels are normalized from 0-255 to [0, 1] and stored flat ([rows*cols]),
// labels must be 0-9. maxSamples > 0 truncates the set.
func LoadMNIST(dir string, split MNISTSplit, maxSamples int, opts ...Option) (*Dataset, error) {
	imagePath, err := findIDX(dir, split.prefix()+"-images-idx3-ubyte")
	if err != nil {
		return nil, err
	}
	labelPath, err := findIDX(dir, split.prefix()+"-labels-idx1-ubyte")
	if err != nil {
		return nil, err
	}

	images, rows, cols, err := readIDXImagesFile(imagePath)
	if err != nil {
		return nil, err
	}
	labels, err := readIDXLabelsFile(labelPath)
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, formatErrorf(dir, "image count (%d) != label count (%d)", len(images), len(labels))
	}

	n := len(images)
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		if labels[i] > 9 {
			return nil, formatErrorf(labelPath, "label %d at index %d outside [0, 9]", labels[i], i)
		}
		pixels := make([]float64, rows*cols)
		for j, p := range images[i] {
			pixels[j] = float64(p) / 255.0
		}
		input, err := tensor.FromSlice(pixels, tensor.Shape{rows * cols})
		if err != nil {
			return nil, err
		}
		samples[i] = Sample{Input: input, Label: int(labels[i])}
	}

	return New(samples, 10, opts...)
}

// findIDX returns dir/name, or dir/name.gz if only the compressed file exists.
func findIDX(dir, name string) (string, error) {
	plain := filepath.Join(dir, name)
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}
	gz := plain + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return gz, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	return "", fmt.Errorf("mnist: neither %s nor %s found: %w", plain, gz, fs.ErrNotExist)
}

// openIDX opens path and transparently decompresses gzip content.
func openIDX(path string) (io.Reader, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(file)
	head, err := br.Peek(2)
	if err == nil && bytes.Equal(head, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, nil, formatErrorf(path, "corrupt gzip stream: %v", err)
		}
		return gz, file, nil
	}
	return br, file, nil
}

func readIDXImagesFile(path string) ([][]byte, int, int, error) {
	r, closer, err := openIDX(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer closer.Close()

	images, rows, cols, err := ReadIDXImages(r)
	if err != nil {
		return nil, 0, 0, withPath(path, err)
	}
	return images, rows, cols, nil
}

func readIDXLabelsFile(path string) ([]byte, error) {
	r, closer, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	labels, err := ReadIDXLabels(r)
	if err != nil {
		return nil, withPath(path, err)
	}
	return labels, nil
}

func withPath(path string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		return &FormatError{Path: path, Reason: fe.Reason}
	}
	return err
}

// ReadIDXImages reads an MNIST image stream in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// Returns a *FormatError on a bad magic number, zero or oversized
// dimensions, an oversized count or a truncated stream.
func ReadIDXImages(r io.Reader) ([][]byte, int, int, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, formatErrorf("", "failed to read image header: %v", err)
	}
	if header.Magic != idxImagesMagic {
		return nil, 0, 0, formatErrorf("", "invalid image magic number: got %d, want %d", header.Magic, idxImagesMagic)
	}
	if header.Rows == 0 || header.Cols == 0 {
		return nil, 0, 0, formatErrorf("", "invalid image size %dx%d", header.Rows, header.Cols)
	}

	pixels := uint64(header.Rows) * uint64(header.Cols)
	if pixels > maxIDXPixels {
		return nil, 0, 0, formatErrorf("", "image size %dx%d exceeds %d pixels", header.Rows, header.Cols, maxIDXPixels)
	}
	if header.Count > maxIDXItems {
		return nil, 0, 0, formatErrorf("", "image count %d exceeds %d", header.Count, maxIDXItems)
	}

	imageSize := int(pixels)
	images := make([][]byte, 0, min(int(header.Count), 1<<16))
	for i := 0; i < int(header.Count); i++ {
		img := make([]byte, imageSize)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, 0, 0, formatErrorf("", "failed to read image %d of %d: %v", i, header.Count, err)
		}
		images = append(images, img)
	}
	return images, int(header.Rows), int(header.Cols), nil
}

// ReadIDXLabels reads an MNIST label stream in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, formatErrorf("", "failed to read label header: %v", err)
	}
	if header.Magic != idxLabelsMagic {
		return nil, formatErrorf("", "invalid label magic number: got %d, want %d", header.Magic, idxLabelsMagic)
	}
	if header.Count > maxIDXItems {
		return nil, formatErrorf("", "label count %d exceeds %d", header.Count, maxIDXItems)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(header.Count)))
	if err != nil {
		return nil, formatErrorf("", "failed to read labels: %v", err)
	}
	if len(labels) != int(header.Count) {
		return nil, formatErrorf("", "truncated labels: got %d of %d", len(labels), header.Count)
	}
	return labels, nil
}

// WriteIDXImages encodes images (all rows*cols bytes) in IDX format.
// It is the inverse of ReadIDXImages and is used to produce fixtures.
func WriteIDXImages(w io.Writer, images [][]byte, rows, cols int) error {
	header := []uint32{idxImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}
	for i, img := range images {
		if len(img) != rows*cols {
			return fmt.Errorf("image %d has %d bytes, want %d", i, len(img), rows*cols)
		}
		if _, err := w.Write(img); err != nil {
			return err
		}
	}
	return nil
}

// WriteIDXLabels encodes labels in IDX format.
func WriteIDXLabels(w io.Writer, labels []byte) error {
	if err := binary.Write(w, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}); err != nil {
		return err
	}
	_, err := w.Write(labels)
	return err
}
