package util

import (
	"golang.org/x/exp/constraints"
)

// Lerp realiza interpolação linear entre dois floats.
func Lerp[T constraints.Float](start, end, amount T) T {
	return start + amount*(end-start)
}

// Clamp restringe um valor ao intervalo [lower, upper].
func Clamp[T constraints.Ordered](v, lower, upper T) T {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

// Abs retorna o valor absoluto.
func Abs[T constraints.Signed | constraints.Float](n T) T {
	if n < 0 {
		return -n
	}
	return n
}

// Max retorna o maior de dois valores.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min retorna o menor de dois valores.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
