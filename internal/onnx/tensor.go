package onnx

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/courtvis/internal/mempool"
)

// Tensor is a float32 tensor in row-major order. Images use NCHW.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// Elements returns the number of values described by shape.
func Elements(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, v := range shape {
		n *= int(v)
	}
	return n
}

// ImageTensor resizes img to size x size and packs it as a [1, 3, size, size]
// RGB tensor scaled to [0, 1]. The data comes from the buffer pool; call
// Release once the tensor has been consumed.
func ImageTensor(img image.Image, size int) (Tensor, error) {
	if img == nil {
		return Tensor{}, errors.New("nil image")
	}
	if size <= 0 {
		return Tensor{}, fmt.Errorf("invalid input size %d", size)
	}
	resized := imaging.Resize(img, size, size, imaging.Linear)
	plane := size * size
	data := mempool.GetFloat32(3 * plane)
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			px := row[x*4:]
			data[i] = float32(px[0]) / 255
			data[plane+i] = float32(px[1]) / 255
			data[2*plane+i] = float32(px[2]) / 255
		}
	}
	return Tensor{Data: data, Shape: []int64{1, 3, int64(size), int64(size)}}, nil
}

// Verify checks that the data length matches the shape.
func (t Tensor) Verify() error {
	if err := ValidateNCHW(t.Shape); err != nil {
		return err
	}
	if want := Elements(t.Shape); len(t.Data) != want {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), want, t.Shape)
	}
	return nil
}

// Release returns pooled data. The tensor must not be used afterwards.
func (t *Tensor) Release() {
	mempool.PutFloat32(t.Data)
	t.Data = nil
}
