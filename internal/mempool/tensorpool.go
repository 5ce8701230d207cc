// Package mempool recycles the float32 buffers that hold model input tensors.
package mempool

import "sync"

const classStep = 1024

var float32Pools sync.Map // size class -> *sync.Pool

// sizeClass rounds n up to the next multiple of 1024, with 1024 as the floor.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

func poolFor(cls int) *sync.Pool {
	if p, ok := float32Pools.Load(cls); ok {
		return p.(*sync.Pool)
	}
	p, _ := float32Pools.LoadOrStore(cls, &sync.Pool{
		New: func() any {
			buf := make([]float32, cls)
			return &buf
		},
	})
	return p.(*sync.Pool)
}

// GetFloat32 returns a buffer of length n. Contents are not zeroed; callers
// overwrite every element. Return it with PutFloat32.
func GetFloat32(n int) []float32 {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	bp, _ := poolFor(cls).Get().(*[]float32)
	if bp == nil || cap(*bp) < cls {
		buf := make([]float32, cls)
		bp = &buf
	}
	return (*bp)[:n]
}

// PutFloat32 hands buf back for reuse. Nil and foreign-sized buffers are
// dropped.
func PutFloat32(buf []float32) {
	if cap(buf) < classStep || cap(buf)%classStep != 0 {
		return
	}
	buf = buf[:cap(buf)]
	poolFor(cap(buf)).Put(&buf)
}
