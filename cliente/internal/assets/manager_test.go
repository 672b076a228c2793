package assets

import (
	"testing"

	"VoxelForge/shared/voxel"
)

func TestPaletaCobreORegistro(t *testing.T) {
	reg := voxel.StandardTypeRegistry()
	m := NewManager(reg)

	for i := 0; i < reg.Count(); i++ {
		c := m.Color(uint8(i))
		if c[3] != 255 {
			t.Errorf("tipo %d: alpha = %d, want 255", i, c[3])
		}
		if m.Describe(uint8(i)) == "" {
			t.Errorf("tipo %d sem nome", i)
		}
	}

	// Tipo fora do registro cai no magenta de depuração.
	if got := m.Color(200); got != [4]uint8{255, 0, 255, 255} {
		t.Errorf("cor de tipo desconhecido = %v", got)
	}
}

func TestVertexColorsExpandeRGBA(t *testing.T) {
	m := NewManager(voxel.StandardTypeRegistry())
	out := m.VertexColors([]uint8{0, 1, 2})
	if len(out) != 12 {
		t.Fatalf("len = %d, want 12", len(out))
	}
	want := m.Color(1)
	for i := 0; i < 4; i++ {
		if out[4+i] != want[i] {
			t.Errorf("componente %d do vértice 1 = %d, want %d", i, out[4+i], want[i])
		}
	}
}
