// Package imagedata holds the voxel buffer type passed through the pipeline.
//
// An Image is the concrete handle behind the pipeline's "current data":
// data sources own one, operator runs consume one and produce another, and
// branch outputs absorb one. Voxel storage is pooled, so a buffer handed to
// a run that ends up canceled must be returned with Release so the storage
// can be reused.
package imagedata

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voxelkit/tomopipe/errors"
)

// Image is a dense 3D scalar volume.
type Image struct {
	id string

	// Dims is the voxel extent along x, y, z.
	Dims [3]int
	// Spacing is the physical voxel size along x, y, z.
	Spacing [3]float64

	voxels   []float32
	released bool
}

var voxelPool sync.Pool

// New allocates an Image of the given extent with unit spacing.
// Voxel storage comes from the pool when a large enough buffer is available.
func New(dims [3]int) *Image {
	n := dims[0] * dims[1] * dims[2]
	var voxels []float32
	if v, ok := voxelPool.Get().([]float32); ok && cap(v) >= n {
		voxels = v[:n]
		clear(voxels)
	} else {
		voxels = make([]float32, n)
	}
	return &Image{
		id:      uuid.NewString(),
		Dims:    dims,
		Spacing: [3]float64{1, 1, 1},
		voxels:  voxels,
	}
}

// FromVoxels builds an Image around an existing voxel slice.
// The slice length must match the extent.
func FromVoxels(dims [3]int, voxels []float32) (*Image, error) {
	if n := dims[0] * dims[1] * dims[2]; n != len(voxels) {
		return nil, errors.DimensionMismatch(dims, len(voxels))
	}
	return &Image{
		id:      uuid.NewString(),
		Dims:    dims,
		Spacing: [3]float64{1, 1, 1},
		voxels:  voxels,
	}, nil
}

// ID returns the image identity. Copies get a fresh identity.
func (im *Image) ID() string { return im.id }

// Voxels exposes the raw voxel slice. The caller must not retain it past a
// Release of the image.
func (im *Image) Voxels() []float32 { return im.voxels }

// At returns the voxel at (x, y, z).
func (im *Image) At(x, y, z int) float32 {
	return im.voxels[im.index(x, y, z)]
}

// SetAt stores a voxel value at (x, y, z).
func (im *Image) SetAt(x, y, z int, v float32) {
	im.voxels[im.index(x, y, z)] = v
}

func (im *Image) index(x, y, z int) int {
	return x + im.Dims[0]*(y+im.Dims[1]*z)
}

// DeepCopy returns an independent copy of the image with a new identity.
// It backs the copy-on-read semantics of DataSource.CopyData.
func (im *Image) DeepCopy() *Image {
	if im == nil {
		return nil
	}
	out := New(im.Dims)
	out.Spacing = im.Spacing
	copy(out.voxels, im.voxels)
	return out
}

// Release returns the voxel storage to the pool. The image must not be used
// afterwards. Release is nil-safe and idempotent so cancellation handlers can
// call it unconditionally.
func (im *Image) Release() {
	if im == nil || im.released {
		return
	}
	im.released = true
	voxelPool.Put(im.voxels[:cap(im.voxels)]) //nolint:staticcheck // slice header reuse is the point
	im.voxels = nil
}

// Released reports whether the image's storage has been returned to the pool.
func (im *Image) Released() bool { return im != nil && im.released }

// Validate checks that the extent is positive and matches the voxel count.
func (im *Image) Validate() error {
	for _, d := range im.Dims {
		if d <= 0 {
			return errors.InvalidInput("dims", "extent must be positive")
		}
	}
	if n := im.Dims[0] * im.Dims[1] * im.Dims[2]; n != len(im.voxels) {
		return errors.DimensionMismatch(im.Dims, len(im.voxels))
	}
	return nil
}
