// Package mesh extrai malhas triangulares de objetos de voxels por surface
// nets sobre amostras em centros de voxel, mantém os fragmentos por chunk e
// o mesh global concatenado com tabela lateral de intervalos.
package mesh

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

const (
	chunkSize   = voxel.ChunkSize
	paddedSize  = chunkSize + 2 // amostras com uma camada de borda por lado
	cellGrid    = chunkSize + 1 // células com canto mínimo em [-1, chunkSize)
	sampleCount = paddedSize * paddedSize * paddedSize
	cellCount   = cellGrid * cellGrid * cellGrid
)

// Fragment é a malha de um único chunk: índices locais ao fragmento.
type Fragment struct {
	Positions []float32 // xyz por vértice, em unidades de mundo
	Normals   []float32 // xyz por vértice
	UVs       []float32 // uv por vértice, projeção no eixo dominante
	Materials []uint8   // índice de material por vértice
	Indices   []uint32
}

// VertexCount retorna o número de vértices do fragmento.
func (f *Fragment) VertexCount() int { return len(f.Positions) / 3 }

// TriangleCount retorna o número de triângulos do fragmento.
func (f *Fragment) TriangleCount() int { return len(f.Indices) / 3 }

// IsEmpty indica ausência de geometria.
func (f *Fragment) IsEmpty() bool { return len(f.Indices) == 0 }

// mesherScratch agrupa os buffers transitórios da extração, reciclados entre
// chunks para evitar pressão de GC.
type mesherScratch struct {
	samples  [sampleCount]float32
	types    [sampleCount]uint8
	occupied [sampleCount]bool
	cells    [cellCount]int32
}

var mesherScratchPool = sync.Pool{
	New: func() any { return new(mesherScratch) },
}

func sampleIndex(x, y, z int) int {
	return (x+1)*paddedSize*paddedSize + (y+1)*paddedSize + z + 1
}

func cellIndex(x, y, z int) int {
	return (x+1)*cellGrid*cellGrid + (y+1)*cellGrid + z + 1
}

// MeshChunk extrai o fragmento de superfície do chunk dado. As amostras são
// as distâncias quantizadas nos centros de voxel, saturadas em ±1 voxel para
// a interpolação; voxels fora do objeto contam como vazios. Cada célula com
// sinais mistos emite um vértice no centroide dos cruzamentos de aresta;
// cada aresta +eixo com mudança de sinal emite um quad voltado para o lado
// vazio. A enumeração é em ordem de varredura, então o fragmento é
// determinístico para um snapshot de época.
func MeshChunk(o *voxel.ChunkedVoxelObject, chunkCoord util.Coord) *Fragment {
	scratch := mesherScratchPool.Get().(*mesherScratch)
	defer mesherScratchPool.Put(scratch)

	h := o.VoxelExtent()
	base := chunkCoord.Scale(chunkSize)

	// Amostragem com borda de um voxel por lado.
	for x := -1; x <= chunkSize; x++ {
		for y := -1; y <= chunkSize; y++ {
			for z := -1; z <= chunkSize; z++ {
				idx := sampleIndex(x, y, z)
				v, ok := o.Get(base.X+x, base.Y+y, base.Z+z)
				if !ok {
					v = voxel.EmptyVoxel()
				}
				d := v.SD.Value()
				scratch.samples[idx] = util.Clamp(d, -1, 1)
				scratch.types[idx] = uint8(v.Type)
				scratch.occupied[idx] = !v.IsEmpty()
			}
		}
	}
	for i := range scratch.cells {
		scratch.cells[i] = -1
	}

	frag := &Fragment{}
	for x := 0; x < chunkSize; x++ {
		for y := 0; y < chunkSize; y++ {
			for z := 0; z < chunkSize; z++ {
				inside := scratch.occupied[sampleIndex(x, y, z)]
				for axis := 0; axis < 3; axis++ {
					nx, ny, nz := x, y, z
					switch axis {
					case 0:
						nx++
					case 1:
						ny++
					default:
						nz++
					}
					if scratch.occupied[sampleIndex(nx, ny, nz)] == inside {
						continue
					}
					emitQuad(frag, scratch, base, h, x, y, z, axis, inside)
				}
			}
		}
	}
	return frag
}

// emitQuad materializa os vértices das quatro células ao redor da aresta e
// emite dois triângulos com o enrolamento voltado para o lado vazio.
func emitQuad(frag *Fragment, s *mesherScratch, base util.Coord, h float32, x, y, z, axis int, lowerInside bool) {
	u, v := (axis+1)%3, (axis+2)%3
	var du, dv [3]int
	du[u], dv[v] = 1, 1

	corner := func(su, sv int) uint32 {
		cx := x - su*du[0] - sv*dv[0]
		cy := y - su*du[1] - sv*dv[1]
		cz := z - su*du[2] - sv*dv[2]
		return ensureCellVertex(frag, s, base, h, cx, cy, cz)
	}

	a := corner(1, 1)
	b := corner(0, 1)
	c := corner(0, 0)
	d := corner(1, 0)
	if lowerInside {
		frag.Indices = append(frag.Indices, a, b, c, a, c, d)
	} else {
		frag.Indices = append(frag.Indices, a, d, c, a, c, b)
	}
}

// ensureCellVertex devolve o índice do vértice da célula, criando-o na
// primeira referência. A posição é o centroide dos cruzamentos de aresta da
// célula; a normal é a diferença central do gradiente das amostras.
func ensureCellVertex(frag *Fragment, s *mesherScratch, base util.Coord, h float32, cx, cy, cz int) uint32 {
	ci := cellIndex(cx, cy, cz)
	if s.cells[ci] >= 0 {
		return uint32(s.cells[ci])
	}

	var centroid mgl32.Vec3
	crossings := 0
	var corners [8]float32
	var cornerOcc [8]bool
	for i := 0; i < 8; i++ {
		ox, oy, oz := i&1, i>>1&1, i>>2&1
		si := sampleIndex(cx+ox, cy+oy, cz+oz)
		corners[i] = s.samples[si]
		cornerOcc[i] = s.occupied[si]
	}

	// Arestas da célula: pares de cantos que diferem em um bit.
	for i := 0; i < 8; i++ {
		for bit := 0; bit < 3; bit++ {
			j := i | 1<<bit
			if j == i {
				continue
			}
			if cornerOcc[i] == cornerOcc[j] {
				continue
			}
			d0, d1 := corners[i], corners[j]
			t := float32(0.5)
			if d0 != d1 {
				t = util.Clamp(d0/(d0-d1), 0, 1)
			}
			p := mgl32.Vec3{float32(i & 1), float32(i >> 1 & 1), float32(i >> 2 & 1)}
			p[bit] = t
			centroid = centroid.Add(p)
			crossings++
		}
	}
	if crossings == 0 {
		centroid = mgl32.Vec3{0.5, 0.5, 0.5}
	} else {
		centroid = centroid.Mul(1 / float32(crossings))
	}

	// Posição em mundo: amostras ficam em centros de voxel, (c + 0.5)h.
	pos := mgl32.Vec3{
		(float32(base.X+cx) + 0.5 + centroid.X()) * h,
		(float32(base.Y+cy) + 0.5 + centroid.Y()) * h,
		(float32(base.Z+cz) + 0.5 + centroid.Z()) * h,
	}

	normal := cellNormal(corners)

	// Material do canto mais interno.
	mat := uint8(0)
	best := float32(2)
	for i := 0; i < 8; i++ {
		if cornerOcc[i] && corners[i] < best {
			best = corners[i]
			ox, oy, oz := i&1, i>>1&1, i>>2&1
			mat = s.types[sampleIndex(cx+ox, cy+oy, cz+oz)]
		}
	}

	uv := dominantAxisUV(pos, normal, h)

	idx := uint32(frag.VertexCount())
	s.cells[ci] = int32(idx)
	frag.Positions = append(frag.Positions, pos.X(), pos.Y(), pos.Z())
	frag.Normals = append(frag.Normals, normal.X(), normal.Y(), normal.Z())
	frag.UVs = append(frag.UVs, uv[0], uv[1])
	frag.Materials = append(frag.Materials, mat)
	return idx
}

// cellNormal aproxima o gradiente pela diferença das médias das faces
// opostas da célula (diferença central de 6 pontos no passo da célula).
func cellNormal(corners [8]float32) mgl32.Vec3 {
	gx := (corners[1] + corners[3] + corners[5] + corners[7]) - (corners[0] + corners[2] + corners[4] + corners[6])
	gy := (corners[2] + corners[3] + corners[6] + corners[7]) - (corners[0] + corners[1] + corners[4] + corners[5])
	gz := (corners[4] + corners[5] + corners[6] + corners[7]) - (corners[0] + corners[1] + corners[2] + corners[3])
	n := mgl32.Vec3{gx, gy, gz}
	if n.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// dominantAxisUV projeta a posição no plano perpendicular ao maior
// componente da normal (triplanar com um único eixo dominante por vértice).
func dominantAxisUV(pos, normal mgl32.Vec3, h float32) [2]float32 {
	ax, ay, az := util.Abs(normal.X()), util.Abs(normal.Y()), util.Abs(normal.Z())
	switch {
	case ax >= ay && ax >= az:
		return [2]float32{pos.Y() / h, pos.Z() / h}
	case ay >= az:
		return [2]float32{pos.X() / h, pos.Z() / h}
	default:
		return [2]float32{pos.X() / h, pos.Y() / h}
	}
}
