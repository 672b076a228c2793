package voxel

import (
	"VoxelForge/shared/util"
)

// PropertyTransferrer recebe cada voxel movido durante uma divisão, para que
// o contador de propriedades inerciais possa mover massa entre agregados.
// As coordenadas são sempre no frame do grid do objeto pai.
type PropertyTransferrer interface {
	// TransferVoxel move a contribuição de um único voxel.
	TransferVoxel(c util.Coord, t VoxelType)
	// TransferUniformChunk move a contribuição de um chunk uniforme inteiro
	// de uma vez (forma fechada), dado o canto inferior em voxels.
	TransferUniformChunk(lower util.Coord, t VoxelType)
}

// SplitOffAnyDisconnectedRegionWithPropertyTransferrer destaca um componente
// conectado quando o objeto tem dois ou mais. O componente escolhido (o
// menor; empates pela menor chave (chunk, rótulo)) vira um novo objeto com o
// próprio grid e deslocamento de origem; os voxels são removidos deste objeto
// e o transferidor é invocado para cada um. Retorna o novo objeto e o
// deslocamento (em voxels) da origem dele dentro do grid deste objeto.
//
// ResolveConnectedRegionsBetweenAllChunks deve ter sido chamada desde a
// última mutação; esta função a chama por segurança (a rechamada sem mutação
// intermediária é barata e idempotente).
func (o *ChunkedVoxelObject) SplitOffAnyDisconnectedRegionWithPropertyTransferrer(xfer PropertyTransferrer) (*ChunkedVoxelObject, util.Coord, bool) {
	o.ResolveConnectedRegionsBetweenAllChunks()

	root, ok := o.smallestDisconnectedComponent()
	if !ok {
		return nil, util.Coord{}, false
	}

	// Rótulos do componente, por chunk.
	memberLabels := make(map[int32]map[RegionLabel]struct{})
	for k := range o.forest {
		if o.findRoot(k) != root {
			continue
		}
		labels := memberLabels[k.Chunk]
		if labels == nil {
			labels = make(map[RegionLabel]struct{}, 4)
			memberLabels[k.Chunk] = labels
		}
		labels[k.Label] = struct{}{}
	}

	// Limites do componente em voxels.
	grid := o.VoxelGridShape()
	lower := grid
	upper := util.Coord{X: -1, Y: -1, Z: -1}
	forEachMemberVoxel := func(f func(chunkIdx int, voxelIdx int, abs util.Coord, v Voxel)) {
		for chunkIdx, labels := range memberLabels {
			ch := &o.chunks[chunkIdx]
			base := o.ChunkCoordOf(int(chunkIdx)).Scale(ChunkSize)
			for idx := 0; idx < ChunkVoxelCount; idx++ {
				label := ch.RegionLabelAtIndex(idx)
				if label == EmptyRegionLabel {
					continue
				}
				if _, member := labels[label]; !member {
					continue
				}
				f(int(chunkIdx), idx, base.Add(chunkLocalCoord(idx)), ch.VoxelAtIndex(idx))
			}
		}
	}
	forEachMemberVoxel(func(_ int, _ int, abs util.Coord, _ Voxel) {
		lower = lower.Min(abs)
		upper = upper.Max(abs)
	})
	if upper.X < lower.X {
		// Componente espuriamente vazio: a divisão é um no-op.
		return nil, util.Coord{}, false
	}

	extent := upper.Sub(lower).AddScalar(1)
	newChunkShape := util.Coord{
		X: (extent.X + ChunkSize - 1) / ChunkSize,
		Y: (extent.Y + ChunkSize - 1) / ChunkSize,
		Z: (extent.Z + ChunkSize - 1) / ChunkSize,
	}
	// A extensão de voxel já passou pelo piso na construção do pai.
	newObj, err := NewEmptyObject(o.voxelExtent, newChunkShape)
	if err != nil {
		return nil, util.Coord{}, false
	}
	newObj.originOffset = o.originOffset.Add(lower)

	parentScope := o.BeginMutation()
	childScope := newObj.BeginMutation()

	// Chunks uniformes inteiramente no componente usam o caminho rápido.
	empty := EmptyVoxel()
	for chunkIdx, labels := range memberLabels {
		ch := &o.chunks[chunkIdx]
		if ch.State != ChunkUniform || ch.UniformVoxel.IsEmpty() {
			continue
		}
		if _, member := labels[0]; !member {
			continue
		}
		base := o.ChunkCoordOf(int(chunkIdx)).Scale(ChunkSize)
		v := ch.UniformVoxel
		for idx := 0; idx < ChunkVoxelCount; idx++ {
			newObj.SetVoxel(base.Add(chunkLocalCoord(idx)).Sub(lower), v)
		}
		ch.State = ChunkEmpty
		ch.UniformVoxel = empty
		o.markTouched(int(chunkIdx))
		xfer.TransferUniformChunk(base, v.Type)
		delete(memberLabels, chunkIdx)
	}

	forEachMemberVoxel(func(chunkIdx, voxelIdx int, abs util.Coord, v Voxel) {
		newObj.SetVoxel(abs.Sub(lower), v)
		ch := &o.chunks[chunkIdx]
		ch.expandToNonUniform()
		ch.Voxels[voxelIdx] = empty
		o.markTouched(chunkIdx)
		xfer.TransferVoxel(abs, v.Type)
	})

	childScope.Commit()
	parentScope.Commit()
	return newObj, lower, true
}
