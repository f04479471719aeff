package sample

// Downsample decimates src to at most maxPoints elements for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates. If len(src) <= maxPoints, src is copied whole.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if maxPoints <= 0 {
		return dst[:0]
	}
	if len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		dst = append(dst, src[int(float64(i)*step)])
	}

	return dst
}
