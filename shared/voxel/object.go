package voxel

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
)

// MinVoxelExtent é o piso imposto para a extensão de voxel de um objeto.
const MinVoxelExtent float32 = 1e-3

// ChunkedVoxelObject é a representação espacial autoritativa de um objeto de
// voxel: um grid (Nx, Ny, Nz) de chunks de aresta fixa com acesso aleatório
// O(1), classificação de superfície, rastreio de componentes conectados e
// mutação localizada por região.
//
// A estrutura não é sincronizada internamente: cada objeto é mutado por no
// máximo uma goroutine por vez (modelo cooperativo de um tick de simulação).
type ChunkedVoxelObject struct {
	voxelExtent float32
	chunkShape  util.Coord
	chunks      []Chunk

	// originOffset é o deslocamento da origem deste grid dentro do grid de
	// voxels do objeto pai, quando o objeto nasceu de uma divisão.
	originOffset util.Coord

	// invalidatedMeshChunks acumula índices de chunk que precisam de
	// reextração de mesh desde a última sincronização.
	invalidatedMeshChunks map[int]struct{}

	// connectivityDirty acumula índices de chunk cuja rotulagem de regiões
	// e conexões de fronteira precisam ser recalculadas.
	connectivityDirty map[int]struct{}

	// forest é a floresta de conjuntos disjuntos global sobre chaves
	// (chunk, rótulo), reconstruída por ResolveConnectedRegionsBetweenAllChunks.
	forest map[regionKey]regionKey

	// Estado do escopo de mutação corrente.
	scopeDepth int
	touched    map[int]struct{}
}

// NewEmptyObject cria um objeto vazio com o formato de chunks dado.
func NewEmptyObject(voxelExtent float32, chunkShape util.Coord) (*ChunkedVoxelObject, error) {
	if voxelExtent < MinVoxelExtent {
		return nil, fmt.Errorf("extensão de voxel %g abaixo do piso %g", voxelExtent, MinVoxelExtent)
	}
	if chunkShape.X <= 0 || chunkShape.Y <= 0 || chunkShape.Z <= 0 {
		return nil, fmt.Errorf("formato de chunks inválido %v", chunkShape)
	}
	n := chunkShape.X * chunkShape.Y * chunkShape.Z
	o := &ChunkedVoxelObject{
		voxelExtent:           voxelExtent,
		chunkShape:            chunkShape,
		chunks:                make([]Chunk, n),
		invalidatedMeshChunks: make(map[int]struct{}),
		connectivityDirty:     make(map[int]struct{}),
		forest:                make(map[regionKey]regionKey),
		touched:               make(map[int]struct{}),
	}
	for i := range o.chunks {
		o.chunks[i].FaceEmptyCounts = [6]int{
			ChunkSize * ChunkSize, ChunkSize * ChunkSize, ChunkSize * ChunkSize,
			ChunkSize * ChunkSize, ChunkSize * ChunkSize, ChunkSize * ChunkSize,
		}
	}
	return o, nil
}

// VoxelExtent retorna o lado de um voxel em unidades de mundo.
func (o *ChunkedVoxelObject) VoxelExtent() float32 { return o.voxelExtent }

// ChunkShape retorna o formato do grid em chunks.
func (o *ChunkedVoxelObject) ChunkShape() util.Coord { return o.chunkShape }

// VoxelGridShape retorna o formato do grid em voxels.
func (o *ChunkedVoxelObject) VoxelGridShape() util.Coord {
	return o.chunkShape.Scale(ChunkSize)
}

// OriginOffset retorna o deslocamento (em voxels) da origem deste grid dentro
// do grid do objeto pai; zero para objetos gerados diretamente.
func (o *ChunkedVoxelObject) OriginOffset() util.Coord { return o.originOffset }

// ChunkCount retorna o número total de chunks.
func (o *ChunkedVoxelObject) ChunkCount() int { return len(o.chunks) }

// ChunkLinearIndex converte uma coordenada de chunk em índice linear
// (row-major com strides [Ny·Nz, Nz, 1]).
func (o *ChunkedVoxelObject) ChunkLinearIndex(cc util.Coord) int {
	return (cc.X*o.chunkShape.Y+cc.Y)*o.chunkShape.Z + cc.Z
}

// ChunkCoordOf inverte ChunkLinearIndex.
func (o *ChunkedVoxelObject) ChunkCoordOf(idx int) util.Coord {
	return util.Coord{
		X: idx / (o.chunkShape.Y * o.chunkShape.Z),
		Y: (idx / o.chunkShape.Z) % o.chunkShape.Y,
		Z: idx % o.chunkShape.Z,
	}
}

// ChunkAt retorna o chunk no índice linear dado (referência interna, não copie).
func (o *ChunkedVoxelObject) ChunkAt(idx int) *Chunk {
	return &o.chunks[idx]
}

// inBounds verifica se a coordenada de voxel está dentro do grid.
func (o *ChunkedVoxelObject) inBounds(c util.Coord) bool {
	s := o.VoxelGridShape()
	return c.X >= 0 && c.X < s.X && c.Y >= 0 && c.Y < s.Y && c.Z >= 0 && c.Z < s.Z
}

// splitCoord separa uma coordenada de voxel em (coordenada de chunk, local).
func splitCoord(c util.Coord) (util.Coord, util.Coord) {
	cc := util.Coord{X: c.X / ChunkSize, Y: c.Y / ChunkSize, Z: c.Z / ChunkSize}
	local := util.Coord{X: c.X % ChunkSize, Y: c.Y % ChunkSize, Z: c.Z % ChunkSize}
	return cc, local
}

// Get retorna o voxel na coordenada absoluta, ou false se fora dos limites.
// Índices fora dos limites nunca são silenciosamente truncados.
func (o *ChunkedVoxelObject) Get(i, j, k int) (Voxel, bool) {
	c := util.Coord{X: i, Y: j, Z: k}
	if !o.inBounds(c) {
		return Voxel{}, false
	}
	cc, local := splitCoord(c)
	return o.chunks[o.ChunkLinearIndex(cc)].VoxelAtIndex(chunkVoxelIndex(local)), true
}

// GetCoord é Get com uma coordenada empacotada.
func (o *ChunkedVoxelObject) GetCoord(c util.Coord) (Voxel, bool) {
	return o.Get(c.X, c.Y, c.Z)
}

// voxelIsEmptyAt trata coordenadas fora do grid como vazias.
func (o *ChunkedVoxelObject) voxelIsEmptyAt(c util.Coord) bool {
	v, ok := o.GetCoord(c)
	return !ok || v.IsEmpty()
}

// VoxelCenterPosition retorna o centro do voxel em coordenadas locais do
// objeto (unidades de mundo, origem no canto do grid).
func (o *ChunkedVoxelObject) VoxelCenterPosition(c util.Coord) mgl32.Vec3 {
	return mgl32.Vec3{
		(float32(c.X) + 0.5) * o.voxelExtent,
		(float32(c.Y) + 0.5) * o.voxelExtent,
		(float32(c.Z) + 0.5) * o.voxelExtent,
	}
}

// FullVoxelRange retorna o intervalo de todo o grid de voxels.
func (o *ChunkedVoxelObject) FullVoxelRange() util.VoxelRange {
	return util.VoxelRange{Upper: o.VoxelGridShape()}
}

// BoundingBox retorna a caixa envolvente dos chunks ocupados, em coordenadas
// locais do objeto (unidades de mundo). Retorna false se o objeto está vazio.
func (o *ChunkedVoxelObject) BoundingBox() (util.AABB, bool) {
	lower := o.chunkShape
	upper := util.Coord{X: -1, Y: -1, Z: -1}
	for i := range o.chunks {
		if !o.chunks[i].IsOccupied() {
			continue
		}
		cc := o.ChunkCoordOf(i)
		lower = lower.Min(cc)
		upper = upper.Max(cc)
	}
	if upper.X < lower.X {
		return util.AABB{}, false
	}
	e := o.voxelExtent * ChunkSize
	return util.AABB{
		Lower: mgl32.Vec3{float32(lower.X) * e, float32(lower.Y) * e, float32(lower.Z) * e},
		Upper: mgl32.Vec3{float32(upper.X+1) * e, float32(upper.Y+1) * e, float32(upper.Z+1) * e},
	}, true
}

// IsEffectivelyEmpty indica que nenhum voxel não-vazio resta no objeto.
func (o *ChunkedVoxelObject) IsEffectivelyEmpty() bool {
	for i := range o.chunks {
		if o.chunks[i].IsOccupied() {
			return false
		}
	}
	return true
}

// ForEachNonEmptyVoxel visita todos os voxels não-vazios do objeto.
func (o *ChunkedVoxelObject) ForEachNonEmptyVoxel(f func(c util.Coord, v Voxel)) {
	for i := range o.chunks {
		ch := &o.chunks[i]
		if !ch.IsOccupied() {
			continue
		}
		base := o.ChunkCoordOf(i).Scale(ChunkSize)
		for idx := 0; idx < ChunkVoxelCount; idx++ {
			v := ch.VoxelAtIndex(idx)
			if v.IsEmpty() {
				continue
			}
			f(base.Add(chunkLocalCoord(idx)), v)
		}
	}
}

// ---------- Escopo de mutação ----------

// MutationScope agrupa mutações: durante o escopo os invariantes entre chunks
// (bits de adjacência, regiões, épocas) podem estar violados; o Commit os
// reestabelece atomicamente do ponto de vista de leitores externos.
type MutationScope struct {
	o *ChunkedVoxelObject
}

// BeginMutation abre um escopo de mutação. Escopos podem ser aninhados; o
// commit efetivo acontece quando o escopo mais externo é fechado.
func (o *ChunkedVoxelObject) BeginMutation() *MutationScope {
	o.scopeDepth++
	return &MutationScope{o: o}
}

// markTouched registra que o chunk foi modificado no escopo corrente.
func (o *ChunkedVoxelObject) markTouched(chunkIdx int) {
	o.touched[chunkIdx] = struct{}{}
}

// Commit fecha o escopo. No fechamento do escopo mais externo, cada chunk
// tocado (e as camadas de fronteira dos vizinhos) tem os bits de adjacência
// refeitos, as regiões rerotuladas, a época incrementada e o mesh invalidado.
func (s *MutationScope) Commit() {
	o := s.o
	o.scopeDepth--
	if o.scopeDepth > 0 || len(o.touched) == 0 {
		return
	}

	// Conjunto afetado: chunks tocados mais vizinhos de face, cujos voxels
	// de fronteira podem ter mudado de adjacência.
	affected := make(map[int]struct{}, len(o.touched)*3)
	for idx := range o.touched {
		affected[idx] = struct{}{}
		cc := o.ChunkCoordOf(idx)
		for _, off := range util.AxisOffsets {
			n := cc.Add(off)
			if n.X < 0 || n.X >= o.chunkShape.X || n.Y < 0 || n.Y >= o.chunkShape.Y || n.Z < 0 || n.Z >= o.chunkShape.Z {
				continue
			}
			affected[o.ChunkLinearIndex(n)] = struct{}{}
		}
	}

	// Primeiro todos os flags, depois as regiões: a rotulagem lê a contagem
	// de superfície derivada dos flags.
	for idx := range affected {
		o.recomputeAdjacencyFlags(idx)
	}
	for idx := range affected {
		ch := &o.chunks[idx]
		ch.maybeCollapse()
		ch.recomputeRegions()
		ch.Epoch++
		o.invalidatedMeshChunks[idx] = struct{}{}
		o.connectivityDirty[idx] = struct{}{}
	}
	for idx := range o.touched {
		delete(o.touched, idx)
	}
}

// recomputeAdjacencyFlags refaz os seis bits de adjacência de todos os voxels
// não-vazios do chunk, lendo a ocupação dos vizinhos (inclusive através de
// bordas de chunk; fora do grid conta como vazio).
func (o *ChunkedVoxelObject) recomputeAdjacencyFlags(chunkIdx int) {
	ch := &o.chunks[chunkIdx]
	if ch.State == ChunkEmpty {
		return
	}
	if ch.State == ChunkUniform {
		// Um chunk uniforme não-vazio só permanece uniforme se todos os
		// vizinhos de fronteira também forem não-vazios; caso contrário é
		// expandido para que os flags por voxel possam divergir.
		if o.uniformChunkFullySurrounded(chunkIdx) {
			ch.UniformVoxel.Flags = (ch.UniformVoxel.Flags &^ FlagAdjacencyMask) | FlagFullAdjacency
			return
		}
		ch.expandToNonUniform()
	}
	base := o.ChunkCoordOf(chunkIdx).Scale(ChunkSize)
	for idx := 0; idx < ChunkVoxelCount; idx++ {
		v := ch.Voxels[idx]
		if v.IsEmpty() {
			ch.Voxels[idx].Flags = v.Flags &^ FlagAdjacencyMask
			continue
		}
		abs := base.Add(chunkLocalCoord(idx))
		flags := v.Flags &^ FlagAdjacencyMask
		for face, off := range util.AxisOffsets {
			if !o.voxelIsEmptyAt(abs.Add(off)) {
				flags |= AdjacencyFlagForFace(face)
			}
		}
		ch.Voxels[idx].Flags = flags
	}
}

// uniformChunkFullySurrounded verifica se todas as camadas de voxel
// imediatamente fora do chunk são não-vazias.
func (o *ChunkedVoxelObject) uniformChunkFullySurrounded(chunkIdx int) bool {
	base := o.ChunkCoordOf(chunkIdx).Scale(ChunkSize)
	for face := 0; face < 6; face++ {
		off := util.AxisOffsets[face]
		for a := 0; a < ChunkSize; a++ {
			for b := 0; b < ChunkSize; b++ {
				local := faceLocalCoord(face, a, b)
				if o.voxelIsEmptyAt(base.Add(local).Add(off)) {
					return false
				}
			}
		}
	}
	return true
}

// SetVoxel escreve um voxel na coordenada absoluta dentro de um escopo de
// mutação. Coordenadas fora dos limites são erro de programação (panic).
func (o *ChunkedVoxelObject) SetVoxel(c util.Coord, v Voxel) {
	if !o.inBounds(c) {
		panic(fmt.Sprintf("escrita de voxel fora dos limites em %v", c))
	}
	cc, local := splitCoord(c)
	idx := o.ChunkLinearIndex(cc)
	ch := &o.chunks[idx]
	ch.expandToNonUniform()
	ch.Voxels[chunkVoxelIndex(local)] = v
	o.markTouched(idx)
}

// ---------- Consultas de superfície ----------

// ForEachSurfaceVoxelInRange visita cada voxel não-vazio com classificação
// Face, Edge ou Corner dentro do intervalo semiaberto dado, em ordem não
// especificada. Intervalos vazios terminam trivialmente.
func (o *ChunkedVoxelObject) ForEachSurfaceVoxelInRange(r util.VoxelRange, f func(c util.Coord, v Voxel)) {
	r = r.Intersect(o.FullVoxelRange())
	if r.IsEmpty() {
		return
	}
	lowerChunk := util.Coord{X: r.Lower.X / ChunkSize, Y: r.Lower.Y / ChunkSize, Z: r.Lower.Z / ChunkSize}
	upperChunk := util.Coord{X: (r.Upper.X-1)/ChunkSize + 1, Y: (r.Upper.Y-1)/ChunkSize + 1, Z: (r.Upper.Z-1)/ChunkSize + 1}
	for cx := lowerChunk.X; cx < upperChunk.X; cx++ {
		for cy := lowerChunk.Y; cy < upperChunk.Y; cy++ {
			for cz := lowerChunk.Z; cz < upperChunk.Z; cz++ {
				idx := o.ChunkLinearIndex(util.Coord{X: cx, Y: cy, Z: cz})
				ch := &o.chunks[idx]
				if ch.State == ChunkEmpty || ch.SurfaceVoxelCount == 0 {
					continue
				}
				base := util.Coord{X: cx * ChunkSize, Y: cy * ChunkSize, Z: cz * ChunkSize}
				sub := r.Intersect(util.VoxelRange{Lower: base, Upper: base.AddScalar(ChunkSize)})
				sub.ForEach(func(c util.Coord) {
					v := ch.VoxelAtIndex(chunkVoxelIndex(c.Sub(base)))
					if v.IsSurface() {
						f(c, v)
					}
				})
			}
		}
	}
}

// VoxelRangeAroundSphere retorna o intervalo conservador de voxels cuja caixa
// pode intersectar a esfera (dada em coordenadas locais do objeto).
func (o *ChunkedVoxelObject) VoxelRangeAroundSphere(s util.Sphere) util.VoxelRange {
	inv := 1 / o.voxelExtent
	lower := util.Coord{
		X: int(math.Floor(float64((s.Center.X() - s.Radius) * inv))),
		Y: int(math.Floor(float64((s.Center.Y() - s.Radius) * inv))),
		Z: int(math.Floor(float64((s.Center.Z() - s.Radius) * inv))),
	}
	upper := util.Coord{
		X: int(math.Ceil(float64((s.Center.X() + s.Radius) * inv))),
		Y: int(math.Ceil(float64((s.Center.Y() + s.Radius) * inv))),
		Z: int(math.Ceil(float64((s.Center.Z() + s.Radius) * inv))),
	}
	return util.VoxelRange{Lower: lower, Upper: upper}.Intersect(o.FullVoxelRange())
}

// ForEachSurfaceVoxelMaybeIntersectingSphere faz a travessia conservadora dos
// voxels de superfície que podem intersectar a esfera: pode visitar voxels de
// fora, nunca omite voxels de dentro.
func (o *ChunkedVoxelObject) ForEachSurfaceVoxelMaybeIntersectingSphere(s util.Sphere, f func(c util.Coord, v Voxel)) {
	o.ForEachSurfaceVoxelInRange(o.VoxelRangeAroundSphere(s), f)
}

// ForEachSurfaceVoxelMaybeIntersectingNegativeHalfspaceOfPlane visita os
// voxels de superfície que podem tocar o semiespaço negativo do plano.
func (o *ChunkedVoxelObject) ForEachSurfaceVoxelMaybeIntersectingNegativeHalfspaceOfPlane(pl util.Plane, f func(c util.Coord, v Voxel)) {
	// Raio da esfera envolvente de um voxel (meia diagonal).
	voxelRadius := o.voxelExtent * float32(math.Sqrt(3)) * 0.5
	chunkExtent := o.voxelExtent * ChunkSize
	chunkRadius := chunkExtent * float32(math.Sqrt(3)) * 0.5
	for i := range o.chunks {
		ch := &o.chunks[i]
		if ch.State == ChunkEmpty || ch.SurfaceVoxelCount == 0 {
			continue
		}
		cc := o.ChunkCoordOf(i)
		center := mgl32.Vec3{
			(float32(cc.X) + 0.5) * chunkExtent,
			(float32(cc.Y) + 0.5) * chunkExtent,
			(float32(cc.Z) + 0.5) * chunkExtent,
		}
		if pl.SignedDistance(center) > chunkRadius {
			continue
		}
		base := cc.Scale(ChunkSize)
		for idx := 0; idx < ChunkVoxelCount; idx++ {
			v := ch.VoxelAtIndex(idx)
			if !v.IsSurface() {
				continue
			}
			c := base.Add(chunkLocalCoord(idx))
			if pl.SignedDistance(o.VoxelCenterPosition(c)) <= voxelRadius {
				f(c, v)
			}
		}
	}
}

// DetermineVoxelRangesEncompassingIntersection calcula intervalos de voxel
// conservadores cobrindo a interseção deste objeto com outro, dado o
// transform que leva coordenadas locais deste objeto para as do outro.
// Retorna false quando as caixas envolventes não se sobrepõem.
func (o *ChunkedVoxelObject) DetermineVoxelRangesEncompassingIntersection(other *ChunkedVoxelObject, selfToOther util.Similarity) (util.VoxelRange, util.VoxelRange, bool) {
	selfBox, ok := o.BoundingBox()
	if !ok {
		return util.VoxelRange{}, util.VoxelRange{}, false
	}
	otherBox, ok := other.BoundingBox()
	if !ok {
		return util.VoxelRange{}, util.VoxelRange{}, false
	}

	selfInOther := selfBox.Transformed(selfToOther)
	if !selfInOther.Overlaps(otherBox) {
		return util.VoxelRange{}, util.VoxelRange{}, false
	}
	otherInSelf := otherBox.Transformed(selfToOther.Inverse())

	rangeFromBox := func(obj *ChunkedVoxelObject, box util.AABB) util.VoxelRange {
		inv := 1 / obj.voxelExtent
		lower := util.Coord{
			X: int(math.Floor(float64(box.Lower.X() * inv))),
			Y: int(math.Floor(float64(box.Lower.Y() * inv))),
			Z: int(math.Floor(float64(box.Lower.Z() * inv))),
		}
		upper := util.Coord{
			X: int(math.Ceil(float64(box.Upper.X() * inv))),
			Y: int(math.Ceil(float64(box.Upper.Y() * inv))),
			Z: int(math.Ceil(float64(box.Upper.Z() * inv))),
		}
		return util.VoxelRange{Lower: lower, Upper: upper}.Intersect(obj.FullVoxelRange())
	}

	rSelf := rangeFromBox(o, otherInSelf)
	rOther := rangeFromBox(other, selfInOther)
	if rSelf.IsEmpty() || rOther.IsEmpty() {
		return util.VoxelRange{}, util.VoxelRange{}, false
	}
	return rSelf, rOther, true
}

// ---------- Mutação por região ----------

// IncreaseSignedDistanceInRegion alarga aditivamente as distâncias com sinal
// dos voxels do intervalo dado (delta em unidades de voxel, não-negativo).
// Cada voxel cuja distância cruza zero é marcado vazio na mesma atualização e
// onEmpty é chamado com o tipo removido; os flags de adjacência dos vizinhos
// são refeitos no commit do escopo.
func (o *ChunkedVoxelObject) IncreaseSignedDistanceInRegion(region util.VoxelRange, delta float32, onEmpty func(c util.Coord, t VoxelType)) {
	o.IncreaseSignedDistancesWithFunc(region, func(util.Coord, mgl32.Vec3) float32 { return delta }, onEmpty)
}

// IncreaseSignedDistancesWithFunc é a forma geral com delta por voxel
// (usada pela absorção, onde o delta decai com a distância à forma).
// Deltas não-positivos são ignorados.
func (o *ChunkedVoxelObject) IncreaseSignedDistancesWithFunc(region util.VoxelRange, deltaAt func(c util.Coord, center mgl32.Vec3) float32, onEmpty func(c util.Coord, t VoxelType)) {
	region = region.Intersect(o.FullVoxelRange())
	if region.IsEmpty() {
		return
	}
	scope := o.BeginMutation()
	defer scope.Commit()

	region.ForEach(func(c util.Coord) {
		cc, local := splitCoord(c)
		chunkIdx := o.ChunkLinearIndex(cc)
		ch := &o.chunks[chunkIdx]
		idx := chunkVoxelIndex(local)
		v := ch.VoxelAtIndex(idx)
		if v.IsEmpty() {
			return
		}
		delta := deltaAt(c, o.VoxelCenterPosition(c))
		if delta <= 0 {
			return
		}
		newSD := QuantizeSignedDistance(v.SD.Value() + delta)
		if newSD == v.SD {
			return
		}
		removedType := v.Type
		updated := v.WithSignedDistance(newSD)
		ch.expandToNonUniform()
		ch.Voxels[idx] = updated
		o.markTouched(chunkIdx)
		if updated.IsEmpty() && onEmpty != nil {
			onEmpty(c, removedType)
		}
	})
}

// ---------- Invalidação de mesh ----------

// TakeInvalidatedMeshChunks drena e retorna os índices de chunk invalidados
// desde a última chamada, em ordem row-major (determinística).
func (o *ChunkedVoxelObject) TakeInvalidatedMeshChunks() []int {
	if len(o.invalidatedMeshChunks) == 0 {
		return nil
	}
	out := make([]int, 0, len(o.invalidatedMeshChunks))
	for idx := range o.invalidatedMeshChunks {
		out = append(out, idx)
		delete(o.invalidatedMeshChunks, idx)
	}
	sort.Ints(out)
	return out
}

// HasInvalidatedMeshChunks indica se há chunks aguardando reextração.
func (o *ChunkedVoxelObject) HasInvalidatedMeshChunks() bool {
	return len(o.invalidatedMeshChunks) > 0
}

// InvalidateAllMeshChunks marca todos os chunks ocupados para reextração
// (usado após carregar um objeto persistido).
func (o *ChunkedVoxelObject) InvalidateAllMeshChunks() {
	for i := range o.chunks {
		if o.chunks[i].IsOccupied() {
			o.invalidatedMeshChunks[i] = struct{}{}
		}
	}
}

// ---------- Snapshot para persistência e transporte ----------

// ObjectSnapshot é a forma serializável (gob) de um objeto.
type ObjectSnapshot struct {
	VoxelExtent  float32
	ChunkShape   util.Coord
	OriginOffset util.Coord
	Chunks       []Chunk
}

// Snapshot copia o estado do objeto para a forma serializável.
func (o *ChunkedVoxelObject) Snapshot() ObjectSnapshot {
	chunks := make([]Chunk, len(o.chunks))
	copy(chunks, o.chunks)
	for i := range chunks {
		if chunks[i].Voxels != nil {
			chunks[i].Voxels = append([]Voxel(nil), chunks[i].Voxels...)
		}
		// Rótulos e conexões são deriváveis; não viajam no snapshot.
		chunks[i].RegionLabels = nil
		chunks[i].Connections = nil
	}
	return ObjectSnapshot{
		VoxelExtent:  o.voxelExtent,
		ChunkShape:   o.chunkShape,
		OriginOffset: o.originOffset,
		Chunks:       chunks,
	}
}

// ApplyChunkSnapshot substitui o conteúdo de um chunk pelo recebido de um
// delta de transporte, refazendo flags e regiões do chunk e dos vizinhos de
// face e invalidando os meshes afetados.
func (o *ChunkedVoxelObject) ApplyChunkSnapshot(chunkIdx int, ch Chunk) error {
	if chunkIdx < 0 || chunkIdx >= len(o.chunks) {
		return fmt.Errorf("índice de chunk %d fora do grid %v", chunkIdx, o.chunkShape)
	}
	// Rótulos e conexões são deriváveis e refeitos abaixo.
	ch.RegionLabels = nil
	ch.Connections = nil
	o.chunks[chunkIdx] = ch

	affected := map[int]struct{}{chunkIdx: {}}
	cc := o.ChunkCoordOf(chunkIdx)
	for _, off := range util.AxisOffsets {
		n := cc.Add(off)
		if n.X < 0 || n.X >= o.chunkShape.X || n.Y < 0 || n.Y >= o.chunkShape.Y || n.Z < 0 || n.Z >= o.chunkShape.Z {
			continue
		}
		affected[o.ChunkLinearIndex(n)] = struct{}{}
	}
	for idx := range affected {
		o.recomputeAdjacencyFlags(idx)
	}
	for idx := range affected {
		c := &o.chunks[idx]
		c.maybeCollapse()
		c.recomputeRegions()
		c.Epoch++
		o.invalidatedMeshChunks[idx] = struct{}{}
		o.connectivityDirty[idx] = struct{}{}
	}
	return nil
}

// FromSnapshot reconstrói um objeto a partir do snapshot, refazendo flags,
// regiões e invalidação de mesh.
func FromSnapshot(s ObjectSnapshot) (*ChunkedVoxelObject, error) {
	o, err := NewEmptyObject(s.VoxelExtent, s.ChunkShape)
	if err != nil {
		return nil, err
	}
	if len(s.Chunks) != len(o.chunks) {
		return nil, fmt.Errorf("snapshot com %d chunks para formato %v", len(s.Chunks), s.ChunkShape)
	}
	o.originOffset = s.OriginOffset
	copy(o.chunks, s.Chunks)
	for i := range o.chunks {
		o.recomputeAdjacencyFlags(i)
	}
	for i := range o.chunks {
		o.chunks[i].recomputeRegions()
		o.connectivityDirty[i] = struct{}{}
		if o.chunks[i].IsOccupied() {
			o.invalidatedMeshChunks[i] = struct{}{}
		}
	}
	return o, nil
}
