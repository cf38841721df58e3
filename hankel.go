package dmd

import (
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Hankel builds the delay-embedded representation of a batch of time
// series. Every series is an (L × feat) matrix with time along the rows.
// The embedding of a series is an (L-K+1 × K·feat) matrix whose row i
// holds the window of K consecutive samples starting at time i:
//
// out.At(i, k*feat+f) == in.At(i+k, f)
//
// for 0 <= i <= L-K, 0 <= k < K and 0 <= f < feat. The batch elements are
// embedded concurrently.
func Hankel(series []*mat.CDense, k int) ([]*mat.CDense, error) {
	if len(series) == 0 {
		return nil, errors.New("dmd: empty batch")
	}
	l, feat := series[0].Dims()
	if k < 1 || k > l {
		return nil, errors.Errorf("dmd: window %d out of range for series of length %d", k, l)
	}
	for b, s := range series {
		if sl, sf := s.Dims(); sl != l || sf != feat {
			return nil, errors.Errorf("dmd: series %d is %dx%d, want %dx%d", b, sl, sf, l, feat)
		}
	}

	out := make([]*mat.CDense, len(series))
	var wg sync.WaitGroup
	wg.Add(len(series))
	for b := range series {
		go func(b int) {
			defer wg.Done()
			out[b] = hankelSingle(series[b], k)
		}(b)
	}
	wg.Wait()
	return out, nil
}

// hankelSingle copies the overlapping windows row by row. When the source
// rows are contiguous a whole window is one copy.
func hankelSingle(s *mat.CDense, k int) *mat.CDense {
	l, feat := s.Dims()
	src := s.RawCMatrix()
	out := mat.NewCDense(l-k+1, k*feat, nil)
	dst := out.RawCMatrix()
	for i := 0; i <= l-k; i++ {
		row := dst.Data[i*dst.Stride : i*dst.Stride+k*feat]
		if src.Stride == feat {
			copy(row, src.Data[i*feat:(i+k)*feat])
			continue
		}
		for w := 0; w < k; w++ {
			copy(row[w*feat:(w+1)*feat], src.Data[(i+w)*src.Stride:(i+w)*src.Stride+feat])
		}
	}
	return out
}
