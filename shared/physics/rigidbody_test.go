package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// cubeBody monta um corpo com o agregado inercial de um cubo 4³ de voxels.
func cubeBody(t *testing.T) *DynamicRigidBody {
	t.Helper()
	m := voxel.NewInertialPropertyManager(voxel.DefaultTypeRegistry(), 1)
	util.NewVoxelRange(util.NewCoord(0, 0, 0), util.NewCoord(4, 4, 4)).ForEach(func(c util.Coord) {
		m.AddVoxel(c, 0)
	})
	return &DynamicRigidBody{
		Transform: util.IdentitySimilarity(),
		Inertial:  m.Properties(),
	}
}

func TestVelocidadeEMomentoSaoInversos(t *testing.T) {
	b := cubeBody(t)
	v := mgl64.Vec3{1.5, -2, 0.25}
	b.SetLinearVelocity(v)
	if got := b.LinearVelocity(); got.Sub(v).Len() > 1e-12 {
		t.Errorf("velocidade linear: %v != %v", got, v)
	}

	w := mgl64.Vec3{0.2, 0.1, -0.4}
	b.SetAngularVelocity(w)
	if got := b.AngularVelocity(); got.Sub(w).Len() > 1e-9 {
		t.Errorf("velocidade angular: %v != %v", got, w)
	}
}

func TestStepIntegraPosicaoEForca(t *testing.T) {
	mgr := NewRigidBodyManager()
	b := cubeBody(t)
	id := mgr.Insert(b)

	b.Force = mgl64.Vec3{b.Mass() * 2, 0, 0} // aceleração de 2 no eixo x
	mgr.Step(0.5)

	got, ok := mgr.Get(id)
	if !ok {
		t.Fatal("corpo sumiu do gerenciador")
	}
	// Semi-implícito: v = 1 após o impulso, posição avança v·dt = 0.5.
	if v := got.LinearVelocity(); math.Abs(v.X()-1) > 1e-9 {
		t.Errorf("velocidade após o passo = %v, want x=1", v)
	}
	if p := got.Transform.Translation; math.Abs(float64(p.X())-0.5) > 1e-6 {
		t.Errorf("posição após o passo = %v, want x=0.5", p)
	}
	if got.Force != (mgl64.Vec3{}) {
		t.Error("acumulador de força não foi zerado")
	}
}

func TestForcaForaDoCentroGeraTorque(t *testing.T) {
	b := cubeBody(t)
	b.ApplyForceAtPoint(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{2, 0, 0})
	// r × F = (2,0,0) × (0,0,-1) = (0·(-1)-0·0, 0·0-2·(-1), 0) = (0, 2, 0).
	if b.Torque.Sub(mgl64.Vec3{0, 2, 0}).Len() > 1e-12 {
		t.Errorf("torque = %v, want (0, 2, 0)", b.Torque)
	}
}

func TestRemoverCorpoTornaIdObsoleto(t *testing.T) {
	mgr := NewRigidBodyManager()
	id := mgr.Insert(cubeBody(t))
	other := mgr.Insert(cubeBody(t))
	if other == id {
		t.Fatal("ids deveriam ser monotônicos")
	}
	mgr.Remove(id)
	if _, ok := mgr.Get(id); ok {
		t.Error("id removido ainda resolve")
	}
	if mgr.Count() != 1 {
		t.Errorf("corpos restantes = %d", mgr.Count())
	}
}
