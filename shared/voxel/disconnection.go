package voxel

// regionKey identifica uma região local no grid inteiro: (chunk, rótulo).
// A ordenação lexicográfica (Chunk, Label) é a usada para desempate.
type regionKey struct {
	Chunk int32
	Label RegionLabel
}

func (k regionKey) less(other regionKey) bool {
	if k.Chunk != other.Chunk {
		return k.Chunk < other.Chunk
	}
	return k.Label < other.Label
}

// findRoot segue os ponteiros de pai com compressão de caminho.
func (o *ChunkedVoxelObject) findRoot(k regionKey) regionKey {
	parent, ok := o.forest[k]
	if !ok || parent == k {
		return k
	}
	root := o.findRoot(parent)
	o.forest[k] = root
	return root
}

// union junta os componentes das duas chaves. A raiz menor vence, para que a
// raiz de um componente seja sempre sua menor chave (determinismo).
func (o *ChunkedVoxelObject) union(a, b regionKey) {
	ra, rb := o.findRoot(a), o.findRoot(b)
	if ra == rb {
		return
	}
	if rb.less(ra) {
		ra, rb = rb, ra
	}
	o.forest[rb] = ra
}

// recomputeChunkConnections refaz as adjacências de região do chunk com os
// vizinhos nos sentidos +X, +Y e +Z.
func (o *ChunkedVoxelObject) recomputeChunkConnections(chunkIdx int) {
	ch := &o.chunks[chunkIdx]
	ch.Connections = ch.Connections[:0]
	if ch.State == ChunkEmpty {
		return
	}
	cc := o.ChunkCoordOf(chunkIdx)
	var seen map[RegionConnection]struct{}
	for axis := 0; axis < 3; axis++ {
		ncc := cc.WithAxis(axis, cc.Axis(axis)+1)
		if ncc.Axis(axis) >= o.chunkShape.Axis(axis) {
			continue
		}
		neighbor := &o.chunks[o.ChunkLinearIndex(ncc)]
		if neighbor.State == ChunkEmpty {
			continue
		}
		// Face superior deste chunk contra a face inferior do vizinho.
		upFace := axis*2 + 1
		dnFace := axis * 2
		for a := 0; a < ChunkSize; a++ {
			for b := 0; b < ChunkSize; b++ {
				local := ch.RegionLabelAtIndex(chunkVoxelIndex(faceLocalCoord(upFace, a, b)))
				if local == EmptyRegionLabel {
					continue
				}
				remote := neighbor.RegionLabelAtIndex(chunkVoxelIndex(faceLocalCoord(dnFace, a, b)))
				if remote == EmptyRegionLabel {
					continue
				}
				conn := RegionConnection{Axis: uint8(axis), Local: local, Neighbor: remote}
				if seen == nil {
					seen = make(map[RegionConnection]struct{}, 8)
				}
				if _, dup := seen[conn]; dup {
					continue
				}
				seen[conn] = struct{}{}
				ch.Connections = append(ch.Connections, conn)
			}
		}
	}
}

// ResolveConnectedRegionsBetweenAllChunks reconstrói a floresta de conjuntos
// disjuntos global. Apenas chunks invalidados desde a última resolução têm
// suas conexões de fronteira recalculadas; a floresta em si é refeita a
// partir das conexões armazenadas. Chamada sem mutação intermediária é
// idempotente sobre a estrutura de componentes.
func (o *ChunkedVoxelObject) ResolveConnectedRegionsBetweenAllChunks() {
	if len(o.connectivityDirty) > 0 {
		// Um chunk sujo também muda as conexões armazenadas nos vizinhos
		// do lado negativo (as conexões são guardadas no chunk inferior).
		recompute := make(map[int]struct{}, len(o.connectivityDirty)*2)
		for idx := range o.connectivityDirty {
			recompute[idx] = struct{}{}
			cc := o.ChunkCoordOf(idx)
			for axis := 0; axis < 3; axis++ {
				ncc := cc.WithAxis(axis, cc.Axis(axis)-1)
				if ncc.Axis(axis) < 0 {
					continue
				}
				recompute[o.ChunkLinearIndex(ncc)] = struct{}{}
			}
		}
		for idx := range recompute {
			o.recomputeChunkConnections(idx)
		}
		for idx := range o.connectivityDirty {
			delete(o.connectivityDirty, idx)
		}
	}

	// Floresta: cada região ocupada começa como sua própria raiz; as
	// conexões armazenadas produzem as uniões.
	for k := range o.forest {
		delete(o.forest, k)
	}
	for i := range o.chunks {
		ch := &o.chunks[i]
		for label := 0; label < ch.RegionCount; label++ {
			k := regionKey{Chunk: int32(i), Label: RegionLabel(label)}
			o.forest[k] = k
		}
	}
	for i := range o.chunks {
		ch := &o.chunks[i]
		if len(ch.Connections) == 0 {
			continue
		}
		cc := o.ChunkCoordOf(i)
		for _, conn := range ch.Connections {
			ncc := cc.WithAxis(int(conn.Axis), cc.Axis(int(conn.Axis))+1)
			nIdx := o.ChunkLinearIndex(ncc)
			o.union(
				regionKey{Chunk: int32(i), Label: conn.Local},
				regionKey{Chunk: int32(nIdx), Label: conn.Neighbor},
			)
		}
	}
}

// CountConnectedComponents retorna o número de componentes conectados
// globais segundo a última resolução.
func (o *ChunkedVoxelObject) CountConnectedComponents() int {
	roots := make(map[regionKey]struct{})
	for k := range o.forest {
		roots[o.findRoot(k)] = struct{}{}
	}
	return len(roots)
}

// componentStats agrega, por raiz de componente: contagem de voxels e a
// menor chave (chunk, rótulo) pertencente ao componente.
type componentStats struct {
	voxels int
	minKey regionKey
}

// smallestDisconnectedComponent escolhe o componente a destacar quando há
// dois ou mais: o de menor contagem de voxels, com empate resolvido pela
// menor chave (chunk, rótulo) lexicográfica. Retorna false com um único
// componente (ou nenhum).
func (o *ChunkedVoxelObject) smallestDisconnectedComponent() (regionKey, bool) {
	stats := make(map[regionKey]*componentStats)
	for k := range o.forest {
		root := o.findRoot(k)
		st := stats[root]
		if st == nil {
			st = &componentStats{minKey: k}
			stats[root] = st
		} else if k.less(st.minKey) {
			st.minKey = k
		}
		st.voxels += o.chunks[k.Chunk].RegionVoxelCounts[k.Label]
	}
	if len(stats) < 2 {
		return regionKey{}, false
	}
	var best regionKey
	bestStats := (*componentStats)(nil)
	for root, st := range stats {
		if bestStats == nil ||
			st.voxels < bestStats.voxels ||
			(st.voxels == bestStats.voxels && st.minKey.less(bestStats.minKey)) {
			best = root
			bestStats = st
		}
	}
	return best, true
}
