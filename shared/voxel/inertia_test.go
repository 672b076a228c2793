package voxel

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/util"
)

func TestMassaAgregadaIgualSomaDosVoxels(t *testing.T) {
	reg, err := NewTypeRegistry([]VoxelTypeSpec{
		{Name: "leve", MassDensity: 0.5},
		{Name: "pesado", MassDensity: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	o, err := NewEmptyObject(0.5, util.SplatCoord(1))
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	util.NewVoxelRange(util.NewCoord(2, 2, 2), util.NewCoord(10, 10, 10)).ForEach(func(c util.Coord) {
		vt := VoxelType(0)
		if (c.X+c.Y+c.Z)%2 == 0 {
			vt = 1
		}
		o.SetVoxel(c, NewVoxel(vt, -1))
	})
	scope.Commit()

	m := NewInertialPropertyManagerForObject(o, reg)

	sum := 0.0
	h := float64(o.VoxelExtent())
	vol := h * h * h
	o.ForEachNonEmptyVoxel(func(c util.Coord, v Voxel) {
		sum += vol * float64(reg.MassDensity(v.Type))
	})

	if math.Abs(m.Properties().Mass-sum) > 1e-9*sum {
		t.Errorf("massa agregada %g != soma das massas %g", m.Properties().Mass, sum)
	}
}

func TestFastPathChunkUniforme(t *testing.T) {
	// Objeto 3³ chunks totalmente preenchido: o chunk central recolhe para
	// Uniform e a forma fechada deve bater com a soma voxel a voxel.
	o, err := NewEmptyObject(1, util.SplatCoord(3))
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	o.FullVoxelRange().ForEach(func(c util.Coord) {
		o.SetVoxel(c, NewVoxel(0, -2))
	})
	scope.Commit()

	if o.ChunkAt(o.ChunkLinearIndex(util.SplatCoord(1))).State != ChunkUniform {
		t.Fatal("pré-condição: chunk central deveria ser Uniform")
	}

	m := NewInertialPropertyManagerForObject(o, DefaultTypeRegistry())

	// Soma voxel a voxel independente do estado dos chunks.
	ref := NewInertialPropertyManager(DefaultTypeRegistry(), o.VoxelExtent())
	o.ForEachNonEmptyVoxel(func(c util.Coord, v Voxel) {
		ref.AddVoxel(c, v.Type)
	})

	got, want := m.Properties(), ref.Properties()
	if math.Abs(got.Mass-want.Mass) > 1e-6 {
		t.Errorf("massa: %g != %g", got.Mass, want.Mass)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(got.Moments[i]-want.Moments[i]) > 1e-5 {
			t.Errorf("momento [%d]: %g != %g", i, got.Moments[i], want.Moments[i])
		}
		if math.Abs(got.MomentsOfInertia[i]-want.MomentsOfInertia[i]) > 1e-3 {
			t.Errorf("momento de inércia [%d]: %g != %g", i, got.MomentsOfInertia[i], want.MomentsOfInertia[i])
		}
		if math.Abs(got.ProductsOfInertia[i]-want.ProductsOfInertia[i]) > 1e-3 {
			t.Errorf("produto de inércia [%d]: %g != %g", i, got.ProductsOfInertia[i], want.ProductsOfInertia[i])
		}
	}
}

func TestAddRemoveVoxelEhInverso(t *testing.T) {
	m := NewInertialPropertyManager(DefaultTypeRegistry(), 1)
	m.AddVoxel(util.NewCoord(3, 4, 5), 0)
	before := m.Properties()

	m.AddVoxel(util.NewCoord(7, 1, 2), 0)
	m.RemoveVoxel(util.NewCoord(7, 1, 2), 0)

	after := m.Properties()
	if math.Abs(after.Mass-before.Mass) > 1e-12 {
		t.Errorf("massa após add/remove: %g != %g", after.Mass, before.Mass)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(after.MomentsOfInertia[i]-before.MomentsOfInertia[i]) > 1e-9 {
			t.Errorf("momento de inércia [%d] não restaurado", i)
		}
	}
}

func TestOffsetReferencePoint(t *testing.T) {
	// Deslocar o ponto de referência deve equivaler a recomputar as
	// contribuições com as posições deslocadas.
	m := NewInertialPropertyManager(DefaultTypeRegistry(), 1)
	coords := []util.Coord{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 0, Z: 7}, {X: 2, Y: 5, Z: 1}}
	for _, c := range coords {
		m.AddVoxel(c, 0)
	}

	shifted := m.Properties()
	shifted.OffsetReferencePointBy(mgl64.Vec3{2, -3, 5})

	ref := NewInertialPropertyManager(DefaultTypeRegistry(), 1)
	for _, c := range coords {
		ref.AddVoxel(c.Add(util.NewCoord(2, -3, 5)), 0)
	}
	want := ref.Properties()

	if math.Abs(shifted.Mass-want.Mass) > 1e-12 {
		t.Errorf("massa: %g != %g", shifted.Mass, want.Mass)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(shifted.Moments[i]-want.Moments[i]) > 1e-9 {
			t.Errorf("momento [%d]: %g != %g", i, shifted.Moments[i], want.Moments[i])
		}
		if math.Abs(shifted.MomentsOfInertia[i]-want.MomentsOfInertia[i]) > 1e-9 {
			t.Errorf("momento de inércia [%d]: %g != %g", i, shifted.MomentsOfInertia[i], want.MomentsOfInertia[i])
		}
		if math.Abs(shifted.ProductsOfInertia[i]-want.ProductsOfInertia[i]) > 1e-9 {
			t.Errorf("produto de inércia [%d]: %g != %g", i, shifted.ProductsOfInertia[i], want.ProductsOfInertia[i])
		}
	}

	// O tensor relativo ao centro de massa é invariante ao deslocamento.
	orig := m.Properties()
	a := orig.InertiaTensorAboutCenterOfMass()
	b := shifted.InertiaTensorAboutCenterOfMass()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a.At(i, j)-b.At(i, j)) > 1e-8 {
				t.Errorf("tensor no COM mudou em [%d][%d]: %g != %g", i, j, a.At(i, j), b.At(i, j))
			}
		}
	}
}
