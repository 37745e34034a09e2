// Package dataset loads the MNIST benchmark data used by the optimizer
// comparison experiments.
//
// Images are read from the classic IDX files and normalized into the spline
// layers' default grid range [-1, 1].
package dataset

import (
	"encoding/binary"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

const (
	imagesMagic = 2051
	labelsMagic = 2049
)

// Dataset is a fully materialized split: one row of X per example, pixels
// normalized to [-1, 1], with the matching class labels.
type Dataset struct {
	X      *mat.Dense
	Labels []int
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	n, _ := d.X.Dims()
	return n
}

// Features returns the per-example feature count.
func (d *Dataset) Features() int {
	_, c := d.X.Dims()
	return c
}

// Load reads a train or test split from dir, expecting the standard MNIST
// file names (e.g. train-images-idx3-ubyte and train-labels-idx1-ubyte for
// prefix "train").
func Load(dir, prefix string) (*Dataset, error) {
	images, rows, cols, err := readIDXImages(filepath.Join(dir, prefix+"-images-idx3-ubyte"))
	if err != nil {
		return nil, err
	}
	labels, err := readIDXLabels(filepath.Join(dir, prefix+"-labels-idx1-ubyte"))
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, errors.Errorf("dataset: %d images but %d labels in %s split", len(images), len(labels), prefix)
	}

	features := rows * cols
	x := mat.NewDense(len(images), features, nil)
	for i, img := range images {
		row := x.RawRowView(i)
		for j, px := range img {
			// Map [0, 255] into the spline grid range [-1, 1].
			row[j] = float64(px)/127.5 - 1
		}
	}
	out := &Dataset{X: x, Labels: make([]int, len(labels))}
	for i, l := range labels {
		out.Labels[i] = int(l)
	}

	klog.V(1).Infof("dataset: loaded %d %s examples (%dx%d)", len(images), prefix, rows, cols)
	return out, nil
}

// Batch gathers the given example indices into a dense batch.
func (d *Dataset) Batch(idx []int) (*mat.Dense, []int) {
	x := mat.NewDense(len(idx), d.Features(), nil)
	labels := make([]int, len(idx))
	for b, i := range idx {
		copy(x.RawRowView(b), d.X.RawRowView(i))
		labels[b] = d.Labels[i]
	}
	return x, labels
}

// Shuffled returns a permutation of the example indices.
func (d *Dataset) Shuffled(rng *rand.Rand) []int {
	return rng.Perm(d.Len())
}

// readIDXImages reads an MNIST image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
func readIDXImages(filename string) ([][]byte, int, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, 0, errors.WithStack(err)
	}
	defer file.Close()
	return parseIDXImages(file)
}

func parseIDXImages(r io.Reader) ([][]byte, int, int, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, 0, 0, errors.Wrap(err, "dataset: failed to read magic")
	}
	if magic != imagesMagic {
		return nil, 0, 0, errors.Errorf("dataset: invalid image magic number: got %d, want %d", magic, imagesMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(r, binary.BigEndian, &numImages); err != nil {
		return nil, 0, 0, errors.WithStack(err)
	}
	if err := binary.Read(r, binary.BigEndian, &numRows); err != nil {
		return nil, 0, 0, errors.WithStack(err)
	}
	if err := binary.Read(r, binary.BigEndian, &numCols); err != nil {
		return nil, 0, 0, errors.WithStack(err)
	}

	imageSize := int(numRows * numCols)
	images := make([][]byte, numImages)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "dataset: failed to read image %d", i)
		}
	}
	return images, int(numRows), int(numCols), nil
}

// readIDXLabels reads an MNIST label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()
	return parseIDXLabels(file)
}

func parseIDXLabels(r io.Reader) ([]byte, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "dataset: failed to read magic")
	}
	if magic != labelsMagic {
		return nil, errors.Errorf("dataset: invalid label magic number: got %d, want %d", magic, labelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, errors.WithStack(err)
	}
	labels := make([]byte, numLabels)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrap(err, "dataset: failed to read labels")
	}
	return labels, nil
}
