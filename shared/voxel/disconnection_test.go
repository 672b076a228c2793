package voxel

import (
	"math"
	"testing"

	"VoxelForge/shared/util"
)

// buildTwoCubesWithBridge monta dois cubos 6³ ligados por uma ponte de um
// voxel de seção, atravessando a fronteira de chunk.
func buildTwoCubesWithBridge(t *testing.T) *ChunkedVoxelObject {
	t.Helper()
	o, err := NewEmptyObject(1, util.NewCoord(2, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	cubeA := util.NewVoxelRange(util.NewCoord(1, 1, 1), util.NewCoord(7, 7, 7))
	cubeB := util.NewVoxelRange(util.NewCoord(20, 1, 1), util.NewCoord(26, 7, 7))
	bridge := util.NewVoxelRange(util.NewCoord(7, 3, 3), util.NewCoord(20, 4, 4))
	for _, r := range []util.VoxelRange{cubeA, cubeB, bridge} {
		r.ForEach(func(c util.Coord) {
			o.SetVoxel(c, NewVoxel(0, -1))
		})
	}
	scope.Commit()
	return o
}

func TestResolucaoDeRegioesConexas(t *testing.T) {
	o := buildTwoCubesWithBridge(t)
	o.ResolveConnectedRegionsBetweenAllChunks()
	if n := o.CountConnectedComponents(); n != 1 {
		t.Fatalf("objeto com ponte deveria ter 1 componente, tem %d", n)
	}

	// Re-resolver sem mutação intermediária é idempotente.
	o.ResolveConnectedRegionsBetweenAllChunks()
	if n := o.CountConnectedComponents(); n != 1 {
		t.Errorf("re-resolução mudou a contagem de componentes para %d", n)
	}
}

func TestDesconexaoAposRemoverPonte(t *testing.T) {
	o := buildTwoCubesWithBridge(t)
	bridge := util.NewVoxelRange(util.NewCoord(7, 3, 3), util.NewCoord(20, 4, 4))
	o.IncreaseSignedDistanceInRegion(bridge, 2, nil)

	o.ResolveConnectedRegionsBetweenAllChunks()
	if n := o.CountConnectedComponents(); n != 2 {
		t.Fatalf("após remover a ponte deveriam existir 2 componentes, há %d", n)
	}
}

func TestSplitConservaMassaEMomentos(t *testing.T) {
	reg := DefaultTypeRegistry()
	o := buildTwoCubesWithBridge(t)
	inertia := NewInertialPropertyManagerForObject(o, reg)

	bridge := util.NewVoxelRange(util.NewCoord(7, 3, 3), util.NewCoord(20, 4, 4))
	o.IncreaseSignedDistanceInRegion(bridge, 2, func(c util.Coord, vt VoxelType) {
		inertia.RemoveVoxel(c, vt)
	})

	before := inertia.Properties()

	sink := NewInertialPropertyManager(reg, o.VoxelExtent())
	newObj, offset, ok := o.SplitOffAnyDisconnectedRegionWithPropertyTransferrer(inertia.TransferrerTo(sink))
	if !ok {
		t.Fatal("split deveria ter acontecido")
	}
	if newObj.IsEffectivelyEmpty() {
		t.Fatal("objeto destacado está vazio")
	}
	if o.IsEffectivelyEmpty() {
		t.Fatal("objeto pai não deveria ficar vazio")
	}

	// Os cubos têm 216 voxels cada; ambos os lados retêm exatamente um cubo.
	parentProps := inertia.Properties()
	newProps := sink.Properties()
	if math.Abs(parentProps.Mass-216) > 1e-9 {
		t.Errorf("massa do pai = %g, want 216", parentProps.Mass)
	}
	if math.Abs(newProps.Mass-216) > 1e-9 {
		t.Errorf("massa do destacado = %g, want 216", newProps.Mass)
	}

	// Conservação no frame compartilhado (antes da reancoragem).
	if math.Abs(parentProps.Mass+newProps.Mass-before.Mass) > 1e-9 {
		t.Errorf("massa não conservada: %g + %g != %g", parentProps.Mass, newProps.Mass, before.Mass)
	}
	sum := parentProps.Moments.Add(newProps.Moments)
	for i := 0; i < 3; i++ {
		if math.Abs(sum[i]-before.Moments[i]) > 1e-6 {
			t.Errorf("primeiro momento [%d] não conservado: %g != %g", i, sum[i], before.Moments[i])
		}
	}

	// O deslocamento de origem corresponde ao canto inferior do componente.
	if !offset.Equals(util.NewCoord(1, 1, 1)) {
		t.Errorf("offset da origem = %v, want (1, 1, 1)", offset)
	}
	if !newObj.OriginOffset().Equals(offset) {
		t.Errorf("OriginOffset do destacado = %v, want %v", newObj.OriginOffset(), offset)
	}

	// Após o split o pai volta a ser um único componente.
	o.ResolveConnectedRegionsBetweenAllChunks()
	if n := o.CountConnectedComponents(); n != 1 {
		t.Errorf("pai deveria ter 1 componente após split, tem %d", n)
	}
	newObj.ResolveConnectedRegionsBetweenAllChunks()
	if n := newObj.CountConnectedComponents(); n != 1 {
		t.Errorf("destacado deveria ter 1 componente, tem %d", n)
	}
}

func TestSplitSemDesconexaoEhNoOp(t *testing.T) {
	o := buildTwoCubesWithBridge(t)
	reg := DefaultTypeRegistry()
	inertia := NewInertialPropertyManagerForObject(o, reg)
	sink := NewInertialPropertyManager(reg, o.VoxelExtent())

	if _, _, ok := o.SplitOffAnyDisconnectedRegionWithPropertyTransferrer(inertia.TransferrerTo(sink)); ok {
		t.Error("objeto conexo não deveria dividir")
	}
	if sink.Properties().Mass != 0 {
		t.Error("nenhuma massa deveria ter sido transferida")
	}
}

func TestDesempatePorMenorChave(t *testing.T) {
	// Dois componentes de tamanhos iguais: o escolhido é o de menor chave
	// (chunk, rótulo), ou seja, o que aparece primeiro na varredura.
	o, err := NewEmptyObject(1, util.NewCoord(2, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	a := util.NewVoxelRange(util.NewCoord(2, 2, 2), util.NewCoord(5, 5, 5))
	b := util.NewVoxelRange(util.NewCoord(20, 2, 2), util.NewCoord(23, 5, 5))
	a.ForEach(func(c util.Coord) { o.SetVoxel(c, NewVoxel(0, -1)) })
	b.ForEach(func(c util.Coord) { o.SetVoxel(c, NewVoxel(0, -1)) })
	scope.Commit()

	reg := DefaultTypeRegistry()
	inertia := NewInertialPropertyManagerForObject(o, reg)
	sink := NewInertialPropertyManager(reg, o.VoxelExtent())
	_, offset, ok := o.SplitOffAnyDisconnectedRegionWithPropertyTransferrer(inertia.TransferrerTo(sink))
	if !ok {
		t.Fatal("split deveria ter acontecido")
	}
	if !offset.Equals(util.NewCoord(2, 2, 2)) {
		t.Errorf("componente destacado deveria ser o do chunk 0 (offset (2,2,2)), offset = %v", offset)
	}
}
