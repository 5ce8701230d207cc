package onnx

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNCHW(t *testing.T) {
	assert.NoError(t, ValidateNCHW([]int64{1, 3, 8, 8}))
	assert.Error(t, ValidateNCHW([]int64{1, 3, 8}))
	assert.Error(t, ValidateNCHW([]int64{1, 0, 8, 8}))
}

func TestElements(t *testing.T) {
	assert.Equal(t, 0, Elements(nil))
	assert.Equal(t, 96, Elements([]int64{1, 4, 4, 6}))
}

func TestImageTensor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 51, A: 255})
		}
	}
	tensor, err := ImageTensor(img, 8)
	require.NoError(t, err)
	require.NoError(t, tensor.Verify())
	assert.Equal(t, []int64{1, 3, 8, 8}, tensor.Shape)

	plane := 64
	assert.InDelta(t, 1.0, tensor.Data[0], 1e-6)
	assert.InDelta(t, 0.0, tensor.Data[plane], 1e-6)
	assert.InDelta(t, 0.2, tensor.Data[2*plane+10], 1e-6)

	tensor.Release()
	assert.Nil(t, tensor.Data)
}

func TestImageTensor_Errors(t *testing.T) {
	_, err := ImageTensor(nil, 8)
	assert.Error(t, err)
	_, err = ImageTensor(image.NewRGBA(image.Rect(0, 0, 2, 2)), 0)
	assert.Error(t, err)
}

func TestTensor_VerifyLength(t *testing.T) {
	assert.Error(t, Tensor{Data: make([]float32, 5), Shape: []int64{1, 1, 2, 2}}.Verify())
}

func TestLibraryCandidates_EnvFirst(t *testing.T) {
	t.Setenv(EnvLibraryPath, "/custom/libonnxruntime.so")
	c := LibraryCandidates(false)
	require.NotEmpty(t, c)
	assert.Equal(t, "/custom/libonnxruntime.so", c[0])
	assert.Len(t, LibraryCandidates(true), len(c)+1)
}
