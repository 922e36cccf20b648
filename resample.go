package main

// linearResampler converts a stream between sample rates by linear
// interpolation. State carries across process calls so chunk boundaries
// are seamless. Positions are kept as integer ratios so long streams do
// not drift.
type linearResampler struct {
	inRate  int64
	outRate int64
	n       int64   // output samples produced
	base    int64   // absolute input index of the first sample of the next chunk
	last    float64 // input sample at base-1
}

func newLinearResampler(inRate, outRate int) *linearResampler {
	return &linearResampler{inRate: int64(inRate), outRate: int64(outRate)}
}

// process appends the output samples computable from in to dst. An output
// sample is produced once both neighbouring input samples are known.
func (r *linearResampler) process(dst, in []float64) []float64 {
	end := r.base + int64(len(in))
	at := func(i int64) float64 {
		if i < r.base {
			return r.last
		}
		return in[i-r.base]
	}

	for {
		pos := r.n * r.inRate
		i := pos / r.outRate
		if i+1 >= end {
			break
		}
		frac := float64(pos%r.outRate) / float64(r.outRate)
		a, b := at(i), at(i+1)
		dst = append(dst, a+(b-a)*frac)
		r.n++
	}

	if len(in) > 0 {
		r.last = in[len(in)-1]
		r.base = end
	}
	return dst
}
