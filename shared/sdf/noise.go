// Package sdf implementa o grafo de nós de campos de distância com sinal
// (primitivas, modificadores e operadores com blending suave), o grafo meta
// com parâmetros probabilísticos e o rebaixamento de um para o outro.
package sdf

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// mix64 é o finalizador de avalanche do SplitMix64; base de todos os hashes
// de célula usados pelos geradores de ruído.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// hashCell combina a semente com uma célula inteira do lattice.
func hashCell(seed uint64, x, y, z int32) uint64 {
	h := seed
	h = mix64(h ^ uint64(uint32(x)))
	h = mix64(h ^ uint64(uint32(y))<<1)
	h = mix64(h ^ uint64(uint32(z))<<2)
	return h
}

// hashUnitFloat converte um hash em um float uniforme em [0, 1).
func hashUnitFloat(h uint64) float32 {
	return float32(h>>40) / float32(1<<24)
}

// cellGradient devolve um gradiente unitário pseudoaleatório para a célula.
func cellGradient(seed uint64, x, y, z int32) mgl32.Vec3 {
	h := hashCell(seed, x, y, z)
	// Dois ângulos uniformes bastam para uma distribuição adequada ao ruído.
	theta := float64(hashUnitFloat(h)) * 2 * math.Pi
	cz := float64(hashUnitFloat(mix64(h)))*2 - 1
	sz := math.Sqrt(1 - cz*cz)
	return mgl32.Vec3{
		float32(sz * math.Cos(theta)),
		float32(sz * math.Sin(theta)),
		float32(cz),
	}
}

// fade é a quíntica de suavização clássica 6t⁵-15t⁴+10t³.
func fade(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

// GradientNoise avalia ruído de gradiente 3D com semente, em ~[-1, 1].
func GradientNoise(p mgl32.Vec3, seed uint64) float32 {
	fx := float32(math.Floor(float64(p.X())))
	fy := float32(math.Floor(float64(p.Y())))
	fz := float32(math.Floor(float64(p.Z())))
	x0, y0, z0 := int32(fx), int32(fy), int32(fz)
	rx, ry, rz := p.X()-fx, p.Y()-fy, p.Z()-fz

	dot := func(cx, cy, cz int32, ox, oy, oz float32) float32 {
		g := cellGradient(seed, cx, cy, cz)
		return g.X()*(rx-ox) + g.Y()*(ry-oy) + g.Z()*(rz-oz)
	}

	u, v, w := fade(rx), fade(ry), fade(rz)
	lerp := func(a, b, t float32) float32 { return a + t*(b-a) }

	c000 := dot(x0, y0, z0, 0, 0, 0)
	c100 := dot(x0+1, y0, z0, 1, 0, 0)
	c010 := dot(x0, y0+1, z0, 0, 1, 0)
	c110 := dot(x0+1, y0+1, z0, 1, 1, 0)
	c001 := dot(x0, y0, z0+1, 0, 0, 1)
	c101 := dot(x0+1, y0, z0+1, 1, 0, 1)
	c011 := dot(x0, y0+1, z0+1, 0, 1, 1)
	c111 := dot(x0+1, y0+1, z0+1, 1, 1, 1)

	return lerp(
		lerp(lerp(c000, c100, u), lerp(c010, c110, u), v),
		lerp(lerp(c001, c101, u), lerp(c011, c111, u), v),
		w,
	)
}
