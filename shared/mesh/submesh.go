package mesh

import (
	"sort"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// Mesh é o mesh global concatenado de um objeto: buffers compartilhados por
// todos os fragmentos de chunk, com índices relativos ao início dos buffers.
type Mesh struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Materials []uint8
	Indices   []uint32
}

// SubmeshRange é a entrada da tabela lateral (chunk → intervalos): posições
// do fragmento dentro dos buffers globais, em vértices e em índices.
type SubmeshRange struct {
	VertexStart, VertexCount int
	IndexStart, IndexCount   int
}

// allocRange é um intervalo livre do alocador.
type allocRange struct {
	start, length int
}

// RangeAllocator administra intervalos dentro de um buffer crescente com uma
// free list ordenada por início: alocação best-fit, liberação com fusão de
// vizinhos e crescimento no fim quando nenhum buraco serve.
type RangeAllocator struct {
	free []allocRange
	size int
}

// Size retorna a extensão total administrada (inclui buracos livres).
func (a *RangeAllocator) Size() int { return a.size }

// FreeTotal retorna a soma dos intervalos livres.
func (a *RangeAllocator) FreeTotal() int {
	total := 0
	for _, r := range a.free {
		total += r.length
	}
	return total
}

// Allocate reserva um intervalo de n unidades: o menor buraco que couber,
// ou crescimento no fim. n deve ser positivo.
func (a *RangeAllocator) Allocate(n int) int {
	best := -1
	for i, r := range a.free {
		if r.length < n {
			continue
		}
		if best < 0 || r.length < a.free[best].length {
			best = i
		}
	}
	if best >= 0 {
		r := a.free[best]
		if r.length == n {
			a.free = append(a.free[:best], a.free[best+1:]...)
		} else {
			a.free[best] = allocRange{start: r.start + n, length: r.length - n}
		}
		return r.start
	}
	start := a.size
	a.size += n
	return start
}

// Free devolve um intervalo, fundindo-o com vizinhos adjacentes.
func (a *RangeAllocator) Free(start, length int) {
	if length <= 0 {
		return
	}
	pos := sort.Search(len(a.free), func(i int) bool {
		return a.free[i].start >= start
	})
	a.free = append(a.free, allocRange{})
	copy(a.free[pos+1:], a.free[pos:])
	a.free[pos] = allocRange{start: start, length: length}

	// Funde com o vizinho seguinte e depois com o anterior.
	if pos+1 < len(a.free) && a.free[pos].start+a.free[pos].length == a.free[pos+1].start {
		a.free[pos].length += a.free[pos+1].length
		a.free = append(a.free[:pos+1], a.free[pos+2:]...)
	}
	if pos > 0 && a.free[pos-1].start+a.free[pos-1].length == a.free[pos].start {
		a.free[pos-1].length += a.free[pos].length
		a.free = append(a.free[:pos], a.free[pos+1:]...)
	}
}

// Reset descarta todo o estado do alocador.
func (a *RangeAllocator) Reset() {
	a.free = a.free[:0]
	a.size = 0
}

// compactionThreshold dispara a compactação quando a fração livre dos
// buffers de índice excede este valor.
const compactionThreshold = 0.5

// ChunkSubmeshManager mantém os fragmentos por chunk, o mesh global e a
// tabela lateral, fazendo splice por chunk em vez de reconstrução total.
// Não trava internamente; a sincronização é do chamador, como no resto do
// núcleo de objetos.
type ChunkSubmeshManager struct {
	fragments map[int]*Fragment
	ranges    map[int]SubmeshRange
	mesh      Mesh

	vertexAlloc RangeAllocator
	indexAlloc  RangeAllocator

	// updated acumula os chunks emendados desde o último Take, para que o
	// renderizador reenvie apenas os intervalos tocados.
	updated map[int]SubmeshRange
}

// NewChunkSubmeshManager cria um gerenciador vazio.
func NewChunkSubmeshManager() *ChunkSubmeshManager {
	return &ChunkSubmeshManager{
		fragments: make(map[int]*Fragment),
		ranges:    make(map[int]SubmeshRange),
		updated:   make(map[int]SubmeshRange),
	}
}

// Mesh retorna o mesh global. Válido até o próximo escopo de mutação do
// objeto dono; chamadores externos guardam apenas o id do objeto.
func (m *ChunkSubmeshManager) Mesh() *Mesh { return &m.mesh }

// Fragment retorna o fragmento do chunk, se existir.
func (m *ChunkSubmeshManager) Fragment(chunkIndex int) (*Fragment, bool) {
	f, ok := m.fragments[chunkIndex]
	return f, ok
}

// Ranges devolve uma cópia da tabela lateral (chunk → intervalos).
func (m *ChunkSubmeshManager) Ranges() map[int]SubmeshRange {
	out := make(map[int]SubmeshRange, len(m.ranges))
	for k, v := range m.ranges {
		out[k] = v
	}
	return out
}

// TriangleCount soma os triângulos de todas as entradas da tabela lateral.
func (m *ChunkSubmeshManager) TriangleCount() int {
	total := 0
	for _, r := range m.ranges {
		total += r.IndexCount / 3
	}
	return total
}

// TakeUpdatedRanges drena os intervalos emendados desde a última chamada.
func (m *ChunkSubmeshManager) TakeUpdatedRanges() map[int]SubmeshRange {
	out := m.updated
	m.updated = make(map[int]SubmeshRange)
	return out
}

// ReplaceFragment corta o fragmento antigo do chunk e emenda o novo nos
// buffers globais. Um fragmento nil ou vazio apenas remove a entrada; a
// remoção também descarta a faixa staged do chunk, então ela NÃO aparece em
// TakeUpdatedRanges — quem consome uploads incrementais observa remoções
// pelo retorno cleared de CollectWork.
func (m *ChunkSubmeshManager) ReplaceFragment(chunkIndex int, frag *Fragment) {
	if old, ok := m.ranges[chunkIndex]; ok {
		m.vertexAlloc.Free(old.VertexStart, old.VertexCount)
		m.indexAlloc.Free(old.IndexStart, old.IndexCount)
		delete(m.ranges, chunkIndex)
		delete(m.fragments, chunkIndex)
		delete(m.updated, chunkIndex)
	}
	if frag == nil || frag.IsEmpty() {
		m.maybeCompact()
		return
	}

	r := SubmeshRange{
		VertexCount: frag.VertexCount(),
		IndexCount:  len(frag.Indices),
	}
	r.VertexStart = m.vertexAlloc.Allocate(r.VertexCount)
	r.IndexStart = m.indexAlloc.Allocate(r.IndexCount)
	m.growBuffers()

	copy(m.mesh.Positions[r.VertexStart*3:], frag.Positions)
	copy(m.mesh.Normals[r.VertexStart*3:], frag.Normals)
	copy(m.mesh.UVs[r.VertexStart*2:], frag.UVs)
	copy(m.mesh.Materials[r.VertexStart:], frag.Materials)
	for i, idx := range frag.Indices {
		m.mesh.Indices[r.IndexStart+i] = idx + uint32(r.VertexStart)
	}

	m.fragments[chunkIndex] = frag
	m.ranges[chunkIndex] = r
	m.updated[chunkIndex] = r
	m.maybeCompact()
}

func (m *ChunkSubmeshManager) growBuffers() {
	if need := m.vertexAlloc.Size() * 3; len(m.mesh.Positions) < need {
		m.mesh.Positions = append(m.mesh.Positions, make([]float32, need-len(m.mesh.Positions))...)
		m.mesh.Normals = append(m.mesh.Normals, make([]float32, need-len(m.mesh.Normals))...)
	}
	if need := m.vertexAlloc.Size() * 2; len(m.mesh.UVs) < need {
		m.mesh.UVs = append(m.mesh.UVs, make([]float32, need-len(m.mesh.UVs))...)
	}
	if need := m.vertexAlloc.Size(); len(m.mesh.Materials) < need {
		m.mesh.Materials = append(m.mesh.Materials, make([]uint8, need-len(m.mesh.Materials))...)
	}
	if need := m.indexAlloc.Size(); len(m.mesh.Indices) < need {
		m.mesh.Indices = append(m.mesh.Indices, make([]uint32, need-len(m.mesh.Indices))...)
	}
}

// maybeCompact reconstrói os buffers densos quando a fragmentação dos
// índices passa do limiar, em ordem de varredura de chunk.
func (m *ChunkSubmeshManager) maybeCompact() {
	size := m.indexAlloc.Size()
	if size == 0 || float64(m.indexAlloc.FreeTotal())/float64(size) <= compactionThreshold {
		return
	}
	m.Compact()
}

// Compact reempacota todos os fragmentos em ordem de índice de chunk.
func (m *ChunkSubmeshManager) Compact() {
	keys := make([]int, 0, len(m.fragments))
	for k := range m.fragments {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	m.vertexAlloc.Reset()
	m.indexAlloc.Reset()
	m.mesh = Mesh{}
	for k := range m.ranges {
		delete(m.ranges, k)
	}

	for _, k := range keys {
		frag := m.fragments[k]
		r := SubmeshRange{
			VertexStart: m.vertexAlloc.Allocate(frag.VertexCount()),
			VertexCount: frag.VertexCount(),
			IndexStart:  m.indexAlloc.Allocate(len(frag.Indices)),
			IndexCount:  len(frag.Indices),
		}
		m.growBuffers()
		copy(m.mesh.Positions[r.VertexStart*3:], frag.Positions)
		copy(m.mesh.Normals[r.VertexStart*3:], frag.Normals)
		copy(m.mesh.UVs[r.VertexStart*2:], frag.UVs)
		copy(m.mesh.Materials[r.VertexStart:], frag.Materials)
		for i, idx := range frag.Indices {
			m.mesh.Indices[r.IndexStart+i] = idx + uint32(r.VertexStart)
		}
		m.ranges[k] = r
		m.updated[k] = r
	}
}

// chunkIsObscured indica se todos os vizinhos de face existem e apresentam
// faces opostas sem exposição suficiente; o fragmento de um chunk obscurecido
// nunca é visível e pode ser pulado.
func chunkIsObscured(o *voxel.ChunkedVoxelObject, chunkCoord util.Coord) bool {
	shape := o.ChunkShape()
	for face, off := range util.AxisOffsets {
		n := chunkCoord.Add(off)
		if n.X < 0 || n.Y < 0 || n.Z < 0 || n.X >= shape.X || n.Y >= shape.Y || n.Z >= shape.Z {
			return false
		}
		neighbor := o.ChunkAt(o.ChunkLinearIndex(n))
		opposite := face ^ 1
		if neighbor.FaceIsExposed(opposite) {
			return false
		}
	}
	return true
}

// SyncWithObject drena os chunks invalidados do objeto e refaz apenas os
// fragmentos correspondentes, mantendo a tabela lateral coerente.
func (m *ChunkSubmeshManager) SyncWithObject(o *voxel.ChunkedVoxelObject) {
	for _, chunkIndex := range o.TakeInvalidatedMeshChunks() {
		chunkCoord := o.ChunkCoordOf(chunkIndex)
		chunk := o.ChunkAt(chunkIndex)
		if !chunk.NeedsMesh() || chunkIsObscured(o, chunkCoord) {
			m.ReplaceFragment(chunkIndex, nil)
			continue
		}
		m.ReplaceFragment(chunkIndex, MeshChunk(o, chunkCoord))
	}
}

// MeshWork descreve um chunk invalidado cuja extração pode rodar fora da
// thread dona do objeto. A época carimba o estado pedido; resultados de
// épocas antigas são descartados na emenda.
type MeshWork struct {
	ChunkIndex int
	ChunkCoord util.Coord
	Epoch      uint64
}

// CollectWork é a metade barata de SyncWithObject: drena os chunks
// invalidados, remove na hora os fragmentos de chunks vazios ou obscurecidos
// (devolvidos em cleared, para que o renderizador descarte a geometria) e
// devolve o restante para extração externa (um pool de workers, por exemplo).
func (m *ChunkSubmeshManager) CollectWork(o *voxel.ChunkedVoxelObject) (work []MeshWork, cleared []int) {
	for _, chunkIndex := range o.TakeInvalidatedMeshChunks() {
		chunkCoord := o.ChunkCoordOf(chunkIndex)
		chunk := o.ChunkAt(chunkIndex)
		if !chunk.NeedsMesh() || chunkIsObscured(o, chunkCoord) {
			m.ReplaceFragment(chunkIndex, nil)
			cleared = append(cleared, chunkIndex)
			continue
		}
		work = append(work, MeshWork{
			ChunkIndex: chunkIndex,
			ChunkCoord: chunkCoord,
			Epoch:      chunk.Epoch,
		})
	}
	return work, cleared
}

// ApplyWork emenda um fragmento extraído externamente. Devolve false se o
// chunk mudou de época desde o pedido; nesse caso o chunk já foi (ou será)
// re-coletado e o fragmento é lixo.
func (m *ChunkSubmeshManager) ApplyWork(o *voxel.ChunkedVoxelObject, w MeshWork, frag *Fragment) bool {
	if o.ChunkAt(w.ChunkIndex).Epoch != w.Epoch {
		return false
	}
	m.ReplaceFragment(w.ChunkIndex, frag)
	return true
}
