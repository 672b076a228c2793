package voxel

import (
	"VoxelForge/shared/util"
)

// ChunkSize é o comprimento da aresta de um chunk, em voxels.
const ChunkSize = 16

// ChunkVoxelCount é o número de voxels em um chunk.
const ChunkVoxelCount = ChunkSize * ChunkSize * ChunkSize

// NonEmptyVoxelThreshold é o número mínimo de voxels vazios em uma face de
// chunk para que a face conte como exposta na classificação de obscurecimento
// usada pelo culling de submeshes.
const NonEmptyVoxelThreshold = 8

// RegionLabel identifica uma região conectada local a um chunk.
type RegionLabel uint8

// EmptyRegionLabel é o rótulo sentinela de voxels vazios.
const EmptyRegionLabel RegionLabel = 255

// MaxRegionsPerChunk limita o número de regiões locais distinguíveis;
// regiões além do limite saturam no último rótulo.
const MaxRegionsPerChunk = 254

// ChunkState indica a forma de armazenamento de um chunk.
type ChunkState uint8

const (
	// ChunkEmpty: todos os voxels vazios; nenhum array armazenado.
	ChunkEmpty ChunkState = iota
	// ChunkUniform: todos os voxels idênticos (tipo, distância e flags);
	// armazenado como um único voxel.
	ChunkUniform
	// ChunkNonUniform: array denso de ChunkVoxelCount voxels, com época de
	// invalidação e mapa de rótulos de região.
	ChunkNonUniform
)

// RegionConnection registra a adjacência entre uma região local e uma região
// do chunk vizinho no sentido positivo do eixo dado. É a entrada da resolução
// de conectividade entre chunks.
type RegionConnection struct {
	Axis     uint8
	Local    RegionLabel
	Neighbor RegionLabel
}

// Chunk é um bloco fixo de ChunkSize³ voxels: a menor unidade de rastreio de
// mutação e de regeneração de mesh.
type Chunk struct {
	State ChunkState

	// UniformVoxel é o voxel compartilhado quando State == ChunkUniform.
	UniformVoxel Voxel

	// Voxels é o array denso quando State == ChunkNonUniform,
	// indexado por x*256 + y*16 + z.
	Voxels []Voxel

	// Epoch é a época de invalidação, incrementada a cada commit de mutação
	// que toca o chunk.
	Epoch uint64

	// RegionLabels tem um rótulo por voxel (EmptyRegionLabel para vazios).
	RegionLabels []RegionLabel

	// RegionCount é o número de regiões locais após a última rotulagem.
	RegionCount int

	// RegionVoxelCounts conta os voxels de cada região local.
	RegionVoxelCounts []int

	// FaceRegions resume, para cada face (ordem X-, X+, Y-, Y+, Z-, Z+),
	// os rótulos de região que tocam a face.
	FaceRegions [6][]RegionLabel

	// FaceEmptyCounts conta voxels vazios em cada face do chunk.
	FaceEmptyCounts [6]int

	// Connections lista as adjacências de região com os vizinhos nos
	// sentidos +X, +Y e +Z, recalculadas na resolução de conectividade.
	Connections []RegionConnection

	// SurfaceVoxelCount conta voxels não-vazios com classificação de
	// superfície (Face, Edge ou Corner).
	SurfaceVoxelCount int
}

// chunkVoxelIndex converte uma coordenada local (0..15 em cada eixo) no
// índice linear do array de voxels. Strides: [256, 16, 1] sobre (x, y, z).
func chunkVoxelIndex(local util.Coord) int {
	return local.X*ChunkSize*ChunkSize + local.Y*ChunkSize + local.Z
}

// chunkLocalCoord inverte chunkVoxelIndex.
func chunkLocalCoord(idx int) util.Coord {
	return util.Coord{
		X: idx / (ChunkSize * ChunkSize),
		Y: (idx / ChunkSize) % ChunkSize,
		Z: idx % ChunkSize,
	}
}

// VoxelAtIndex retorna o voxel no índice linear local, em qualquer estado.
func (c *Chunk) VoxelAtIndex(idx int) Voxel {
	switch c.State {
	case ChunkEmpty:
		return EmptyVoxel()
	case ChunkUniform:
		return c.UniformVoxel
	default:
		return c.Voxels[idx]
	}
}

// IsOccupied indica se o chunk contém ao menos um voxel não-vazio.
func (c *Chunk) IsOccupied() bool {
	switch c.State {
	case ChunkEmpty:
		return false
	case ChunkUniform:
		return !c.UniformVoxel.IsEmpty()
	default:
		for i := range c.Voxels {
			if !c.Voxels[i].IsEmpty() {
				return true
			}
		}
		return false
	}
}

// RegionLabelAtIndex retorna o rótulo local do voxel, em qualquer estado.
// Chunks uniformes não-vazios são uma única região de rótulo 0.
func (c *Chunk) RegionLabelAtIndex(idx int) RegionLabel {
	switch c.State {
	case ChunkEmpty:
		return EmptyRegionLabel
	case ChunkUniform:
		if c.UniformVoxel.IsEmpty() {
			return EmptyRegionLabel
		}
		return 0
	default:
		if c.RegionLabels == nil {
			return EmptyRegionLabel
		}
		return c.RegionLabels[idx]
	}
}

// expandToNonUniform materializa o array denso de voxels. Idempotente.
func (c *Chunk) expandToNonUniform() {
	if c.State == ChunkNonUniform {
		return
	}
	voxels := make([]Voxel, ChunkVoxelCount)
	fill := EmptyVoxel()
	if c.State == ChunkUniform {
		fill = c.UniformVoxel
	}
	for i := range voxels {
		voxels[i] = fill
	}
	c.State = ChunkNonUniform
	c.Voxels = voxels
	c.RegionLabels = nil
	c.RegionCount = 0
}

// maybeCollapse recolhe o chunk para Empty ou Uniform quando possível.
// O recolhimento é oportunista; mesher e colisor lidam com os três estados.
func (c *Chunk) maybeCollapse() {
	if c.State != ChunkNonUniform {
		return
	}
	first := c.Voxels[0]
	for i := 1; i < ChunkVoxelCount; i++ {
		if c.Voxels[i] != first {
			return
		}
	}
	c.Voxels = nil
	c.RegionLabels = nil
	if first.IsEmpty() {
		c.State = ChunkEmpty
		c.RegionCount = 0
		for f := range c.FaceRegions {
			c.FaceRegions[f] = nil
			c.FaceEmptyCounts[f] = ChunkSize * ChunkSize
		}
		c.SurfaceVoxelCount = 0
		c.Connections = nil
		return
	}
	c.State = ChunkUniform
	c.UniformVoxel = first
	c.RegionCount = 1
	c.RegionVoxelCounts = []int{ChunkVoxelCount}
	for f := range c.FaceRegions {
		c.FaceRegions[f] = []RegionLabel{0}
		c.FaceEmptyCounts[f] = 0
	}
	c.SurfaceVoxelCount = 0
	if first.IsSurface() {
		c.SurfaceVoxelCount = ChunkVoxelCount
	}
}

// faceLocalCoord devolve a coordenada local do voxel (a, b) na face dada.
// Para a face do eixo ax (0..2) no lado side (0 = inferior, 1 = superior),
// os eixos restantes são percorridos por a e b.
func faceLocalCoord(face, a, b int) util.Coord {
	axis := face / 2
	side := face % 2
	fixed := 0
	if side == 1 {
		fixed = ChunkSize - 1
	}
	switch axis {
	case 0:
		return util.Coord{X: fixed, Y: a, Z: b}
	case 1:
		return util.Coord{X: a, Y: fixed, Z: b}
	default:
		return util.Coord{X: a, Y: b, Z: fixed}
	}
}

// recomputeRegions rotula as regiões conectadas locais (conectividade 6) e
// atualiza os resumos por face e as contagens de vazios e de superfície.
func (c *Chunk) recomputeRegions() {
	switch c.State {
	case ChunkEmpty:
		c.RegionCount = 0
		c.RegionVoxelCounts = nil
		for f := range c.FaceRegions {
			c.FaceRegions[f] = nil
			c.FaceEmptyCounts[f] = ChunkSize * ChunkSize
		}
		c.SurfaceVoxelCount = 0
		return
	case ChunkUniform:
		if c.UniformVoxel.IsEmpty() {
			c.State = ChunkEmpty
			c.recomputeRegions()
			return
		}
		c.RegionCount = 1
		c.RegionVoxelCounts = []int{ChunkVoxelCount}
		for f := range c.FaceRegions {
			c.FaceRegions[f] = []RegionLabel{0}
			c.FaceEmptyCounts[f] = 0
		}
		c.SurfaceVoxelCount = 0
		if c.UniformVoxel.IsSurface() {
			c.SurfaceVoxelCount = ChunkVoxelCount
		}
		return
	}

	if c.RegionLabels == nil {
		c.RegionLabels = make([]RegionLabel, ChunkVoxelCount)
	}
	for i := range c.RegionLabels {
		c.RegionLabels[i] = EmptyRegionLabel
	}

	// Flood fill com pilha explícita; rótulos em ordem de varredura para
	// que a rotulagem seja determinística.
	var stack []int
	next := 0
	c.SurfaceVoxelCount = 0
	for i := 0; i < ChunkVoxelCount; i++ {
		if c.Voxels[i].IsEmpty() {
			continue
		}
		if c.Voxels[i].IsSurface() {
			c.SurfaceVoxelCount++
		}
		if c.RegionLabels[i] != EmptyRegionLabel {
			continue
		}
		// Regiões além do orçamento saturam no último rótulo (viram uma só).
		label := RegionLabel(util.Min(next, MaxRegionsPerChunk-1))
		if next < MaxRegionsPerChunk {
			next++
		}
		c.RegionLabels[i] = label
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			local := chunkLocalCoord(cur)
			for _, off := range util.AxisOffsets {
				n := local.Add(off)
				if n.X < 0 || n.X >= ChunkSize || n.Y < 0 || n.Y >= ChunkSize || n.Z < 0 || n.Z >= ChunkSize {
					continue
				}
				ni := chunkVoxelIndex(n)
				if c.Voxels[ni].IsEmpty() || c.RegionLabels[ni] != EmptyRegionLabel {
					continue
				}
				c.RegionLabels[ni] = label
				stack = append(stack, ni)
			}
		}
	}
	c.RegionCount = next
	c.RegionVoxelCounts = make([]int, next)
	for i := 0; i < ChunkVoxelCount; i++ {
		if label := c.RegionLabels[i]; label != EmptyRegionLabel {
			c.RegionVoxelCounts[label]++
		}
	}

	// Resumos por face.
	var seen [MaxRegionsPerChunk + 1]bool
	for f := 0; f < 6; f++ {
		c.FaceRegions[f] = c.FaceRegions[f][:0]
		c.FaceEmptyCounts[f] = 0
		for i := range seen {
			seen[i] = false
		}
		for a := 0; a < ChunkSize; a++ {
			for b := 0; b < ChunkSize; b++ {
				idx := chunkVoxelIndex(faceLocalCoord(f, a, b))
				label := c.RegionLabels[idx]
				if label == EmptyRegionLabel {
					c.FaceEmptyCounts[f]++
					continue
				}
				if !seen[label] {
					seen[label] = true
					c.FaceRegions[f] = append(c.FaceRegions[f], label)
				}
			}
		}
	}
}

// FaceIsExposed indica se a face tem voxels vazios suficientes para contar
// como exposta no culling de submeshes.
func (c *Chunk) FaceIsExposed(face int) bool {
	switch c.State {
	case ChunkEmpty:
		return true
	case ChunkUniform:
		return c.UniformVoxel.IsEmpty()
	default:
		return c.FaceEmptyCounts[face] >= NonEmptyVoxelThreshold
	}
}

// NeedsMesh indica se o chunk pode contribuir células de superfície.
func (c *Chunk) NeedsMesh() bool {
	switch c.State {
	case ChunkEmpty:
		return false
	case ChunkUniform:
		return c.SurfaceVoxelCount > 0
	default:
		return c.SurfaceVoxelCount > 0
	}
}
