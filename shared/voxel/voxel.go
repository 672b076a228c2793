// Package voxel implementa a representação espacial autoritativa dos objetos
// de voxel: registro compacto de 3 bytes por voxel, chunks de estado
// Empty/Uniform/NonUniform, mutação com escopo, regiões conectadas,
// divisão de componentes desconexos e contabilidade inercial.
package voxel

import (
	"math"
	"math/bits"
)

// VoxelType identifica o tipo de material de um voxel (índice no registro de tipos).
type VoxelType uint8

// EmptyVoxelType é o sentinela reservado para voxels vazios.
const EmptyVoxelType VoxelType = 255

// SignedDistanceStep é o passo de quantização da distância com sinal,
// em unidades de extensão de voxel.
const SignedDistanceStep float32 = 0.02

// QuantizedSignedDistance é a distância com sinal quantizada em um byte.
// Negativa = dentro da superfície. Faixa representável ≈ [-2.54, +2.54].
type QuantizedSignedDistance int8

// QuantizeSignedDistance converte uma distância em unidades de voxel para a
// forma quantizada. Quantizar novamente o valor reconstituído é idempotente.
func QuantizeSignedDistance(d float32) QuantizedSignedDistance {
	q := math.Round(float64(d / SignedDistanceStep))
	if q > 127 {
		q = 127
	} else if q < -127 {
		q = -127
	}
	return QuantizedSignedDistance(q)
}

// Value reconstitui a distância em unidades de extensão de voxel.
func (q QuantizedSignedDistance) Value() float32 {
	return float32(q) * SignedDistanceStep
}

// IsNegative indica se a distância está estritamente dentro da superfície.
// Distância exatamente zero conta como fora (voxel vazio).
func (q QuantizedSignedDistance) IsNegative() bool {
	return q < 0
}

// VoxelFlags é o bitfield de estado derivado de um voxel.
type VoxelFlags uint8

const (
	// FlagIsEmpty marca o voxel como vazio (distância com sinal >= 0).
	FlagIsEmpty VoxelFlags = 1 << 0

	// Bits de adjacência: vizinho não-vazio presente em cada uma das seis
	// faces alinhadas aos eixos, na ordem X-, X+, Y-, Y+, Z-, Z+.
	FlagHasAdjacentXDn VoxelFlags = 1 << 2
	FlagHasAdjacentXUp VoxelFlags = 1 << 3
	FlagHasAdjacentYDn VoxelFlags = 1 << 4
	FlagHasAdjacentYUp VoxelFlags = 1 << 5
	FlagHasAdjacentZDn VoxelFlags = 1 << 6
	FlagHasAdjacentZUp VoxelFlags = 1 << 7

	// FlagAdjacencyMask cobre os seis bits de adjacência.
	FlagAdjacencyMask VoxelFlags = FlagHasAdjacentXDn | FlagHasAdjacentXUp |
		FlagHasAdjacentYDn | FlagHasAdjacentYUp |
		FlagHasAdjacentZDn | FlagHasAdjacentZUp

	// FlagFullAdjacency indica vizinhos não-vazios em todas as seis faces.
	FlagFullAdjacency = FlagAdjacencyMask
)

// AdjacencyFlagForFace retorna o bit de adjacência para o índice de face
// (0..5 na ordem X-, X+, Y-, Y+, Z-, Z+).
func AdjacencyFlagForFace(face int) VoxelFlags {
	return FlagHasAdjacentXDn << face
}

// BlockedFaceCount conta quantas das seis faces têm vizinho não-vazio.
func (f VoxelFlags) BlockedFaceCount() int {
	return bits.OnesCount8(uint8(f & FlagAdjacencyMask))
}

// SurfacePlacement classifica a posição de um voxel não-vazio na superfície.
type SurfacePlacement uint8

const (
	PlacementInterior SurfacePlacement = iota
	PlacementFace
	PlacementEdge
	PlacementCorner
)

// String implementa fmt.Stringer.
func (p SurfacePlacement) String() string {
	switch p {
	case PlacementInterior:
		return "Interior"
	case PlacementFace:
		return "Face"
	case PlacementEdge:
		return "Edge"
	default:
		return "Corner"
	}
}

// Placement deriva a classificação de superfície da contagem de faces bloqueadas.
func (f VoxelFlags) Placement() SurfacePlacement {
	switch f.BlockedFaceCount() {
	case 6:
		return PlacementInterior
	case 5:
		return PlacementFace
	case 4:
		return PlacementEdge
	default:
		return PlacementCorner
	}
}

// Voxel é o registro compacto de 3 bytes de um voxel.
type Voxel struct {
	Type  VoxelType
	SD    QuantizedSignedDistance
	Flags VoxelFlags
}

// EmptyVoxel retorna um voxel vazio com a distância máxima representável.
func EmptyVoxel() Voxel {
	return Voxel{Type: EmptyVoxelType, SD: 127, Flags: FlagIsEmpty}
}

// NewVoxel cria um voxel a partir de um tipo e uma distância em unidades de
// voxel. O invariante vazio ⇔ distância >= 0 é estabelecido aqui; os bits de
// adjacência começam zerados e são preenchidos pelo escopo de mutação.
func NewVoxel(t VoxelType, d float32) Voxel {
	sd := QuantizeSignedDistance(d)
	if !sd.IsNegative() {
		return Voxel{Type: EmptyVoxelType, SD: sd, Flags: FlagIsEmpty}
	}
	return Voxel{Type: t, SD: sd}
}

// IsEmpty indica se o voxel é vazio.
func (v Voxel) IsEmpty() bool {
	return v.Flags&FlagIsEmpty != 0
}

// IsSurface indica se o voxel é não-vazio e exposto (Face, Edge ou Corner).
func (v Voxel) IsSurface() bool {
	return !v.IsEmpty() && v.Flags&FlagAdjacencyMask != FlagFullAdjacency
}

// WithSignedDistance retorna uma cópia com nova distância, mantendo o
// invariante vazio ⇔ distância >= 0 na mesma atualização.
func (v Voxel) WithSignedDistance(sd QuantizedSignedDistance) Voxel {
	v.SD = sd
	if !sd.IsNegative() {
		v.Type = EmptyVoxelType
		v.Flags |= FlagIsEmpty
	} else {
		v.Flags &^= FlagIsEmpty
	}
	return v
}
