package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KyungWonPark/nifti"
	"github.com/gonum/matrix/mat64"
)

// Loader reads one subject's ROI time series as a TR x voxel matrix.
type Loader interface {
	Load(path string) (*mat64.Dense, error)
}

// NewLoader picks a loader by file extension.
func NewLoader(path string) (Loader, error) {
	switch {
	case strings.HasSuffix(path, ".nii"), strings.HasSuffix(path, ".nii.gz"):
		return NiftiLoader{}, nil
	case strings.HasSuffix(path, ".npy"):
		return NpyLoader{}, nil
	}
	return nil, fmt.Errorf("NewLoader: unsupported file type: %s", filepath.Base(path))
}

// Load reads path with the loader matching its extension.
func Load(path string) (*mat64.Dense, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

// NiftiLoader loads .nii and .nii.gz ROI images. Rows are volumes and columns
// are the voxels that are non-zero in at least one volume, in x-fastest order.
type NiftiLoader struct{}

// Load implements Loader.
func (NiftiLoader) Load(path string) (*mat64.Dense, error) {
	// LoadImage panics on a file it cannot open.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("NiftiLoader: %w", err)
	}

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	if img.GetHeader().Bitpix == 0 {
		return nil, fmt.Errorf("NiftiLoader: %s: unreadable header", path)
	}

	dims := img.GetDims()
	for i, d := range dims[:3] {
		if d < 1 {
			return nil, fmt.Errorf("NiftiLoader: %s: dim[%d] is %d", path, i+1, d)
		}
	}
	if dims[3] < 1 {
		dims[3] = 1
	}

	return sampleVolumes(&img, dims), nil
}

// sampleVolumes densifies an image, one goroutine per volume, and drops the
// voxels that are zero everywhere. dims is [x, y, z, t].
func sampleVolumes(img *nifti.Nifti1Image, dims [4]int) *mat64.Dense {
	nx, ny, nz, nt := dims[0], dims[1], dims[2], dims[3]
	full := mat64.NewDense(nt, nx*ny*nz, nil)

	var wg sync.WaitGroup
	wg.Add(nt)
	for t := 0; t < nt; t++ {
		go func(t int) {
			defer wg.Done()
			row := full.RawRowView(t)
			for z := 0; z < nz; z++ {
				for y := 0; y < ny; y++ {
					for x := 0; x < nx; x++ {
						v := img.GetAt(uint32(x), uint32(y), uint32(z), uint32(t))
						row[x+nx*(y+ny*z)] = float64(v)
					}
				}
			}
		}(t)
	}
	wg.Wait()

	return dropEmptyColumns(full)
}

func dropEmptyColumns(X *mat64.Dense) *mat64.Dense {
	rows, cols := X.Dims()

	var keep []int
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if X.At(i, j) != 0 {
				keep = append(keep, j)
				break
			}
		}
	}

	out := mat64.NewDense(rows, len(keep), nil)
	if len(keep) == 0 {
		return out
	}
	for i := 0; i < rows; i++ {
		src := X.RawRowView(i)
		dst := out.RawRowView(i)
		for k, j := range keep {
			dst[k] = src[j]
		}
	}
	return out
}
