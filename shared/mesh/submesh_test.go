package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

type sphereField struct {
	radius float32
}

func (f sphereField) DomainExtents() mgl32.Vec3 {
	d := 2 * f.radius
	return mgl32.Vec3{d, d, d}
}

func (f sphereField) Distance(p mgl32.Vec3) float32 {
	return p.Len() - f.radius
}

func generateSphere(t *testing.T, radius float32) *voxel.ChunkedVoxelObject {
	t.Helper()
	o, err := voxel.GenerateFromField(sphereField{radius: radius}, voxel.UniformTypeField{}, voxel.DefaultTypeRegistry(), 1)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestAlocadorBestFitEFusao(t *testing.T) {
	var a RangeAllocator
	s1 := a.Allocate(10)
	s2 := a.Allocate(4)
	s3 := a.Allocate(6)
	if s1 != 0 || s2 != 10 || s3 != 14 {
		t.Fatalf("alocação sequencial: %d, %d, %d", s1, s2, s3)
	}

	a.Free(s1, 10)
	a.Free(s3, 6)
	// Best fit: um pedido de 5 cabe no buraco de 6, não no de 10.
	if got := a.Allocate(5); got != 14 {
		t.Errorf("best fit deveria usar o buraco de 6 (início 14), usou %d", got)
	}
	if a.Size() != 20 {
		t.Errorf("não deveria crescer: size = %d", a.Size())
	}

	// Liberar o vizinho funde os intervalos e permite uma alocação grande.
	a.Free(s2, 4)
	if got := a.Allocate(14); got != 0 {
		t.Errorf("fusão 0..14 deveria servir o pedido no início, serviu %d", got)
	}
}

func TestAlocadorCresceQuandoNaoCabe(t *testing.T) {
	var a RangeAllocator
	a.Allocate(8)
	a.Free(0, 8)
	if got := a.Allocate(12); got != 8 {
		t.Errorf("pedido maior que todo buraco deveria crescer no fim: início %d", got)
	}
	if a.FreeTotal() != 8 {
		t.Errorf("buraco original deveria permanecer livre: %d", a.FreeTotal())
	}
}

func TestMeshDaEsferaTemGeometriaCoerente(t *testing.T) {
	o := generateSphere(t, 6)
	m := NewChunkSubmeshManager()
	m.SyncWithObject(o)

	if m.TriangleCount() == 0 {
		t.Fatal("esfera deveria produzir triângulos")
	}
	if m.TriangleCount()*3 != sumIndexCounts(m) {
		t.Error("soma da tabela lateral difere da contagem de triângulos")
	}

	// Normais apontam para fora: produto com o raio a partir do centro do
	// grid é positivo na grande maioria dos vértices.
	center := gridCenter(o)
	mesh := m.Mesh()
	outward, total := 0, 0
	for _, r := range m.Ranges() {
		for v := r.VertexStart; v < r.VertexStart+r.VertexCount; v++ {
			p := mgl32.Vec3{mesh.Positions[v*3], mesh.Positions[v*3+1], mesh.Positions[v*3+2]}
			n := mgl32.Vec3{mesh.Normals[v*3], mesh.Normals[v*3+1], mesh.Normals[v*3+2]}
			if p.Sub(center).Dot(n) > 0 {
				outward++
			}
			total++
		}
	}
	if total == 0 {
		t.Fatal("nenhum vértice emitido")
	}
	if float64(outward) < 0.95*float64(total) {
		t.Errorf("apenas %d/%d normais apontam para fora", outward, total)
	}
}

func sumIndexCounts(m *ChunkSubmeshManager) int {
	total := 0
	for _, r := range m.Ranges() {
		total += r.IndexCount
	}
	return total
}

func gridCenter(o *voxel.ChunkedVoxelObject) mgl32.Vec3 {
	shape := o.VoxelGridShape()
	h := o.VoxelExtent()
	return mgl32.Vec3{
		float32(shape.X) * 0.5 * h,
		float32(shape.Y) * 0.5 * h,
		float32(shape.Z) * 0.5 * h,
	}
}

func TestMutacaoLocalSubstituiApenasFragmentosIntersectados(t *testing.T) {
	o := generateSphere(t, 10)
	m := NewChunkSubmeshManager()
	m.SyncWithObject(o)
	m.TakeUpdatedRanges()

	before := m.Ranges()

	// Remove um único voxel de superfície.
	var target util.Coord
	found := false
	o.ForEachNonEmptyVoxel(func(c util.Coord, v voxel.Voxel) {
		if !found && v.IsSurface() {
			target, found = c, true
		}
	})
	if !found {
		t.Fatal("nenhum voxel de superfície")
	}
	scope := o.BeginMutation()
	o.SetVoxel(target, voxel.EmptyVoxel())
	scope.Commit()

	m.SyncWithObject(o)
	updated := m.TakeUpdatedRanges()

	// Apenas chunks que intersectam a mutação (o tocado e vizinhos de face)
	// podem ter sido substituídos.
	targetChunk := target.Div(voxel.ChunkSize)
	for chunkIndex := range updated {
		cc := o.ChunkCoordOf(chunkIndex)
		d := cc.Sub(targetChunk)
		if util.Abs(d.X)+util.Abs(d.Y)+util.Abs(d.Z) > 1 {
			t.Errorf("chunk %v substituído sem intersectar a mutação em %v", cc, target)
		}
	}

	// Os demais fragmentos permanecem com os mesmos intervalos.
	after := m.Ranges()
	for k, r := range before {
		if _, touched := updated[k]; touched {
			continue
		}
		if after[k] != r {
			t.Errorf("intervalo do chunk %d mudou sem mutação: %+v -> %+v", k, r, after[k])
		}
	}

	if m.TriangleCount()*3 != sumIndexCounts(m) {
		t.Error("tabela lateral inconsistente após splice")
	}
}

func TestFragmentoDeterministicoPorEpoca(t *testing.T) {
	o := generateSphere(t, 5)
	var someChunk util.Coord
	found := false
	shape := o.ChunkShape()
	for x := 0; x < shape.X && !found; x++ {
		for y := 0; y < shape.Y && !found; y++ {
			for z := 0; z < shape.Z && !found; z++ {
				c := util.NewCoord(x, y, z)
				if o.ChunkAt(o.ChunkLinearIndex(c)).NeedsMesh() {
					someChunk, found = c, true
				}
			}
		}
	}
	if !found {
		t.Fatal("nenhum chunk com superfície")
	}

	a := MeshChunk(o, someChunk)
	b := MeshChunk(o, someChunk)
	if a.VertexCount() != b.VertexCount() || len(a.Indices) != len(b.Indices) {
		t.Fatal("extração não determinística")
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("posição %d difere entre extrações", i)
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("índice %d difere entre extrações", i)
		}
	}
}

func TestColetaEEmendaExternasEquivalemAoSync(t *testing.T) {
	o := generateSphere(t, 6)

	direct := NewChunkSubmeshManager()
	direct.SyncWithObject(o)

	o.InvalidateAllMeshChunks()
	external := NewChunkSubmeshManager()
	work, _ := external.CollectWork(o)
	if len(work) == 0 {
		t.Fatal("esfera deveria gerar trabalho de extração")
	}
	for _, w := range work {
		if !external.ApplyWork(o, w, MeshChunk(o, w.ChunkCoord)) {
			t.Errorf("emenda do chunk %d rejeitada sem mudança de época", w.ChunkIndex)
		}
	}

	if direct.TriangleCount() != external.TriangleCount() {
		t.Errorf("triângulos divergem: sync=%d externo=%d",
			direct.TriangleCount(), external.TriangleCount())
	}
}

func TestEmendaDeEpocaAntigaEhDescartada(t *testing.T) {
	o := generateSphere(t, 6)
	m := NewChunkSubmeshManager()
	work, _ := m.CollectWork(o)
	if len(work) == 0 {
		t.Fatal("nenhum trabalho coletado")
	}
	w := work[0]
	frag := MeshChunk(o, w.ChunkCoord)

	// Qualquer mutação num voxel do chunk avança a época e invalida o pedido.
	var target util.Coord
	found := false
	base := w.ChunkCoord.Scale(voxel.ChunkSize)
	o.ForEachNonEmptyVoxel(func(c util.Coord, _ voxel.Voxel) {
		d := c.Sub(base)
		if !found && d.X >= 0 && d.X < voxel.ChunkSize &&
			d.Y >= 0 && d.Y < voxel.ChunkSize &&
			d.Z >= 0 && d.Z < voxel.ChunkSize {
			target, found = c, true
		}
	})
	if !found {
		t.Fatal("chunk coletado sem voxels")
	}
	scope := o.BeginMutation()
	o.SetVoxel(target, voxel.EmptyVoxel())
	scope.Commit()

	if m.ApplyWork(o, w, frag) {
		t.Error("fragmento de época antiga deveria ser descartado")
	}
}

func TestCompactacaoPreservaTriangulos(t *testing.T) {
	o := generateSphere(t, 8)
	m := NewChunkSubmeshManager()
	m.SyncWithObject(o)

	want := m.TriangleCount()
	m.Compact()
	if got := m.TriangleCount(); got != want {
		t.Errorf("compactação mudou a contagem de triângulos: %d != %d", got, want)
	}
	if m.indexAlloc.FreeTotal() != 0 {
		t.Errorf("após compactar não deveriam restar buracos: %d", m.indexAlloc.FreeTotal())
	}
}
