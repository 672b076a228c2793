package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/interaction"
	"VoxelForge/shared/sdf"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

func sphereGraph(t *testing.T, radius float32) *sdf.SDFGraph {
	t.Helper()
	g := sdf.NewGraph(0.25)
	g.AddNode(sdf.Node{Kind: sdf.NodeSphere, Radius: radius})
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	return g
}

func spawnSphere(t *testing.T, w *World, dynamic bool) interaction.VoxelObjectID {
	t.Helper()
	g := sphereGraph(t, 1.5)
	tr := util.IdentitySimilarity()
	id, err := w.SpawnGenerated(g, voxel.UniformTypeField{Type: 0}, g.VoxelExtent, tr, dynamic)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSpawnGeradoRegistraObjetoECorpo(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	id := spawnSphere(t, w, true)

	if w.ObjectCount() != 1 {
		t.Fatalf("objetos = %d, want 1", w.ObjectCount())
	}
	entry, ok := w.Objects.Get(id)
	if !ok {
		t.Fatal("objeto não registrado")
	}
	if !entry.HasBody {
		t.Error("spawn dinâmico deveria criar corpo")
	}
	if _, ok := w.Entity(id); !ok {
		t.Error("entidade ECS ausente")
	}
	if entry.Inertia.Properties().Mass <= 0 {
		t.Error("massa do objeto gerado deveria ser positiva")
	}

	// A esfera gerada é aproximadamente simétrica: centro de massa no
	// centro do grid.
	com := entry.Inertia.Properties().CenterOfMass()
	shape := entry.Object.VoxelGridShape()
	center := mgl64.Vec3{
		float64(shape.X) * 0.5 * 0.25,
		float64(shape.Y) * 0.5 * 0.25,
		float64(shape.Z) * 0.5 * 0.25,
	}
	if com.Sub(center).Len() > 0.25 {
		t.Errorf("centro de massa %v longe do centro do grid %v", com, center)
	}
}

func TestGravidadeAceleraCorpos(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	id := spawnSphere(t, w, true)
	entry, _ := w.Objects.Get(id)
	body, _ := w.Bodies.Get(entry.Body)

	w.Step(0.1)
	v := body.LinearVelocity()
	if math.Abs(v.Y()-(-0.981)) > 1e-6 {
		t.Errorf("velocidade após 0.1s de queda = %v, want y=-0.981", v)
	}
	if w.Tick != 1 {
		t.Errorf("tick = %d", w.Tick)
	}
}

func TestObjetoEstaticoNaoGanhaCorpo(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	id := spawnSphere(t, w, false)
	entry, _ := w.Objects.Get(id)
	if entry.HasBody {
		t.Error("spawn estático não deveria criar corpo")
	}
	if w.Bodies.Count() != 0 {
		t.Errorf("corpos = %d, want 0", w.Bodies.Count())
	}
	// Um passo não deve entrar em pânico nem criar física para estáticos.
	w.Step(0.1)
}

func TestAbsorvedorConsomeObjetoAteSumir(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	w.Gravity = mgl64.Vec3{}
	id := spawnSphere(t, w, true)
	entry, _ := w.Objects.Get(id)
	com := entry.Inertia.Properties().CenterOfMass()

	// Absorvedor guloso cobrindo o objeto inteiro.
	w.SpawnAbsorber(id, interaction.Absorber{
		Shape:  interaction.AbsorberSphere,
		Center: mgl32.Vec3{float32(com.X()), float32(com.Y()), float32(com.Z())},
		Radius: 4,
		Rate:   1000,
	})

	for i := 0; i < 10 && w.ObjectCount() > 0; i++ {
		w.Step(0.1)
	}
	if w.ObjectCount() != 0 {
		t.Fatalf("objeto deveria ter sido consumido, restam %d", w.ObjectCount())
	}
	if w.Bodies.Count() != 0 {
		t.Errorf("corpos órfãos: %d", w.Bodies.Count())
	}
	if _, ok := w.Entity(id); ok {
		t.Error("entidade do objeto consumido ainda existe")
	}

	// A contagem registrou as remoções do tipo 0.
	if w.Tally[0].Count == 0 {
		t.Error("contagem de absorção vazia")
	}
	wantVolume := float64(w.Tally[0].Count) * 0.25 * 0.25 * 0.25
	if math.Abs(w.Tally[0].Volume-wantVolume) > 1e-9 {
		t.Errorf("volume contabilizado = %g, want %g", w.Tally[0].Volume, wantVolume)
	}
}

func TestAbsorcaoParcialMantemAgregadoSincronizado(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	w.Gravity = mgl64.Vec3{}
	id := spawnSphere(t, w, true)
	entry, _ := w.Objects.Get(id)
	com := entry.Inertia.Properties().CenterOfMass()
	massBefore := entry.Inertia.Properties().Mass

	// Mordida lateral: remove parte do objeto sem consumi-lo nem dividi-lo.
	removed := w.AbsorbOnce(id, interaction.Absorber{
		Shape:  interaction.AbsorberSphere,
		Center: mgl32.Vec3{float32(com.X()) + 1.5, float32(com.Y()), float32(com.Z())},
		Radius: 0.5,
		Rate:   1000,
	}, 0.1)
	if removed == 0 {
		t.Fatal("mordida lateral deveria remover voxels")
	}
	entry, ok := w.Objects.Get(id)
	if !ok {
		t.Fatal("mordida parcial não deveria consumir o objeto")
	}

	// O agregado do objeto bate com uma recontagem do zero e o corpo foi
	// ressincronizado a partir dele.
	got := entry.Inertia.Properties()
	want := voxel.NewInertialPropertyManagerForObject(entry.Object, w.Registry).Properties()
	if math.Abs(got.Mass-want.Mass) > 1e-9 {
		t.Errorf("massa do agregado = %g, want %g (recontada)", got.Mass, want.Mass)
	}
	if got.Mass >= massBefore {
		t.Errorf("massa não diminuiu: %g -> %g", massBefore, got.Mass)
	}
	if got.Moments.Sub(want.Moments).Len() > 1e-9 {
		t.Errorf("primeiros momentos = %v, want %v", got.Moments, want.Moments)
	}

	body, _ := w.Bodies.Get(entry.Body)
	if math.Abs(body.Mass()-got.Mass) > 1e-9 {
		t.Errorf("massa do corpo = %g, want %g", body.Mass(), got.Mass)
	}
	comAfter := got.CenterOfMass()
	if entry.LocalCenterOfMass.Sub(mgl32.Vec3{
		float32(comAfter.X()), float32(comAfter.Y()), float32(comAfter.Z()),
	}).Len() > 1e-4 {
		t.Errorf("offset de modelo = %v, want %v", entry.LocalCenterOfMass, comAfter)
	}
}

func TestRemoveObjectLimpaTudo(t *testing.T) {
	w := NewWorld(voxel.DefaultTypeRegistry())
	id := spawnSphere(t, w, true)
	w.RemoveObject(id)
	if w.ObjectCount() != 0 || w.Bodies.Count() != 0 {
		t.Errorf("resíduos após remoção: objetos=%d corpos=%d", w.ObjectCount(), w.Bodies.Count())
	}
	// Remoção repetida é inofensiva.
	w.RemoveObject(id)
}
