package voxel

import (
	"testing"
)

func TestQuantizeSignedDistanceIdempotente(t *testing.T) {
	tests := []float32{-2.54, -1.0, -0.37, -0.011, 0, 0.011, 0.5, 2.54, 5.0, -5.0}
	for _, d := range tests {
		q := QuantizeSignedDistance(d)
		q2 := QuantizeSignedDistance(q.Value())
		if q != q2 {
			t.Errorf("quantização de %g não é idempotente: %d -> %d", d, q, q2)
		}
	}
}

func TestVazioSeDistanciaNaoNegativa(t *testing.T) {
	tests := []struct {
		d         float32
		wantEmpty bool
	}{
		{-1.0, false},
		{-0.02, false},
		{0, true}, // distância exatamente zero é vazio
		{0.02, true},
		{1.0, true},
	}
	for _, tt := range tests {
		v := NewVoxel(0, tt.d)
		if v.IsEmpty() != tt.wantEmpty {
			t.Errorf("NewVoxel(0, %g).IsEmpty() = %v, want %v", tt.d, v.IsEmpty(), tt.wantEmpty)
		}
		if v.IsEmpty() != (v.SD >= 0) {
			t.Errorf("invariante vazio ⇔ sd >= 0 violado para d=%g (sd=%d, vazio=%v)", tt.d, v.SD, v.IsEmpty())
		}
	}
}

func TestTransicaoParaVazioMarcaNaMesmaAtualizacao(t *testing.T) {
	v := NewVoxel(3, -0.5)
	if v.IsEmpty() {
		t.Fatal("voxel inicial deveria ser não-vazio")
	}
	v = v.WithSignedDistance(QuantizeSignedDistance(0.1))
	if !v.IsEmpty() {
		t.Error("voxel cuja distância cruzou zero deve ficar vazio na mesma atualização")
	}
	if v.Type != EmptyVoxelType {
		t.Errorf("voxel esvaziado deve carregar o tipo sentinela, tem %d", v.Type)
	}
}

func TestPlacementPorFacesBloqueadas(t *testing.T) {
	tests := []struct {
		blocked int
		want    SurfacePlacement
	}{
		{6, PlacementInterior},
		{5, PlacementFace},
		{4, PlacementEdge},
		{3, PlacementCorner},
		{2, PlacementCorner},
		{1, PlacementCorner},
		{0, PlacementCorner},
	}
	for _, tt := range tests {
		var f VoxelFlags
		for i := 0; i < tt.blocked; i++ {
			f |= AdjacencyFlagForFace(i)
		}
		if got := f.Placement(); got != tt.want {
			t.Errorf("%d faces bloqueadas: placement = %v, want %v", tt.blocked, got, tt.want)
		}
	}
}
