package utils

// Pair holds a value for each camera of a stereo rig. First is the reference camera.
type Pair[T any] struct {
	First  T `json:"first" yaml:"first"`
	Second T `json:"second" yaml:"second"`
}

// NewPair returns a pair of the given values.
func NewPair[T any](first, second T) Pair[T] {
	return Pair[T]{First: first, Second: second}
}

// MapPair applies fn to both values of a pair.
func MapPair[T, U any](p Pair[T], fn func(T) U) Pair[U] {
	return Pair[U]{First: fn(p.First), Second: fn(p.Second)}
}

// MapPairErr applies fn to both values of a pair and stops at the first error.
func MapPairErr[T, U any](p Pair[T], fn func(T) (U, error)) (Pair[U], error) {
	first, err := fn(p.First)
	if err != nil {
		return Pair[U]{}, err
	}
	second, err := fn(p.Second)
	if err != nil {
		return Pair[U]{}, err
	}
	return Pair[U]{First: first, Second: second}, nil
}

// Slice returns the values as a two element slice, first camera first.
func (p Pair[T]) Slice() []T {
	return []T{p.First, p.Second}
}
