package util

import (
	"fmt"
)

// Coord representa uma coordenada inteira no grid de voxels (ou de chunks).
// X, Y e Z seguem o sistema da malha do objeto, não o do mundo.
type Coord struct {
	X, Y, Z int
}

// NewCoord cria uma nova coordenada.
func NewCoord(x, y, z int) Coord {
	return Coord{X: x, Y: y, Z: z}
}

// SplatCoord cria uma coordenada com o mesmo valor nos três eixos.
func SplatCoord(v int) Coord {
	return Coord{X: v, Y: v, Z: v}
}

// Add soma duas coordenadas.
func (c Coord) Add(other Coord) Coord {
	return Coord{X: c.X + other.X, Y: c.Y + other.Y, Z: c.Z + other.Z}
}

// Sub subtrai duas coordenadas.
func (c Coord) Sub(other Coord) Coord {
	return Coord{X: c.X - other.X, Y: c.Y - other.Y, Z: c.Z - other.Z}
}

// AddScalar desloca os três eixos pelo mesmo valor.
func (c Coord) AddScalar(v int) Coord {
	return Coord{X: c.X + v, Y: c.Y + v, Z: c.Z + v}
}

// Scale multiplica os três eixos pelo mesmo fator.
func (c Coord) Scale(v int) Coord {
	return Coord{X: c.X * v, Y: c.Y * v, Z: c.Z * v}
}

// Div divide os três eixos (divisão inteira truncada; use FloorDiv para índices).
func (c Coord) Div(v int) Coord {
	return Coord{X: c.X / v, Y: c.Y / v, Z: c.Z / v}
}

// Equals verifica igualdade entre coordenadas.
func (c Coord) Equals(other Coord) bool {
	return c.X == other.X && c.Y == other.Y && c.Z == other.Z
}

// Axis retorna o componente do eixo dado (0=X, 1=Y, 2=Z).
func (c Coord) Axis(axis int) int {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// WithAxis retorna uma cópia com o componente do eixo dado substituído.
func (c Coord) WithAxis(axis, v int) Coord {
	switch axis {
	case 0:
		c.X = v
	case 1:
		c.Y = v
	default:
		c.Z = v
	}
	return c
}

// Min retorna o mínimo componente a componente.
func (c Coord) Min(other Coord) Coord {
	return Coord{X: Min(c.X, other.X), Y: Min(c.Y, other.Y), Z: Min(c.Z, other.Z)}
}

// Max retorna o máximo componente a componente.
func (c Coord) Max(other Coord) Coord {
	return Coord{X: Max(c.X, other.X), Y: Max(c.Y, other.Y), Z: Max(c.Z, other.Z)}
}

// String retorna a representação em string da coordenada.
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// AxisOffsets lista os seis deslocamentos unitários na ordem
// X-, X+, Y-, Y+, Z-, Z+ (a mesma ordem dos bits de adjacência dos voxels).
var AxisOffsets = [6]Coord{
	{X: -1}, {X: 1},
	{Y: -1}, {Y: 1},
	{Z: -1}, {Z: 1},
}

// FloorDiv faz divisão inteira com arredondamento para baixo (funciona com negativos).
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// VoxelRange é um intervalo 3D semiaberto [Lower, Upper) de coordenadas de voxel.
type VoxelRange struct {
	Lower, Upper Coord
}

// NewVoxelRange cria um intervalo semiaberto.
func NewVoxelRange(lower, upper Coord) VoxelRange {
	return VoxelRange{Lower: lower, Upper: upper}
}

// IsEmpty verifica se o intervalo não contém nenhuma coordenada.
func (r VoxelRange) IsEmpty() bool {
	return r.Upper.X <= r.Lower.X || r.Upper.Y <= r.Lower.Y || r.Upper.Z <= r.Lower.Z
}

// Contains verifica se a coordenada está dentro do intervalo.
func (r VoxelRange) Contains(c Coord) bool {
	return c.X >= r.Lower.X && c.X < r.Upper.X &&
		c.Y >= r.Lower.Y && c.Y < r.Upper.Y &&
		c.Z >= r.Lower.Z && c.Z < r.Upper.Z
}

// Intersect retorna a interseção de dois intervalos (pode resultar vazio).
func (r VoxelRange) Intersect(other VoxelRange) VoxelRange {
	return VoxelRange{
		Lower: r.Lower.Max(other.Lower),
		Upper: r.Upper.Min(other.Upper),
	}
}

// Clamp restringe o intervalo a [lower, upper).
func (r VoxelRange) Clamp(lower, upper Coord) VoxelRange {
	return r.Intersect(VoxelRange{Lower: lower, Upper: upper})
}

// Count retorna o número de coordenadas no intervalo.
func (r VoxelRange) Count() int {
	if r.IsEmpty() {
		return 0
	}
	d := r.Upper.Sub(r.Lower)
	return d.X * d.Y * d.Z
}

// ForEach visita cada coordenada do intervalo em ordem row-major (X externo, Z interno).
func (r VoxelRange) ForEach(f func(c Coord)) {
	for x := r.Lower.X; x < r.Upper.X; x++ {
		for y := r.Lower.Y; y < r.Upper.Y; y++ {
			for z := r.Lower.Z; z < r.Upper.Z; z++ {
				f(Coord{X: x, Y: y, Z: z})
			}
		}
	}
}

// String retorna a representação em string do intervalo.
func (r VoxelRange) String() string {
	return fmt.Sprintf("[%v..%v)", r.Lower, r.Upper)
}
