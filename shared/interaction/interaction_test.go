package interaction

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/physics"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// buildCube monta um cubo sólido no intervalo dado, com extensão de voxel 1.
func buildCube(t *testing.T, chunkShape util.Coord, r util.VoxelRange) *voxel.ChunkedVoxelObject {
	t.Helper()
	o, err := voxel.NewEmptyObject(1, chunkShape)
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	r.ForEach(func(c util.Coord) {
		o.SetVoxel(c, voxel.NewVoxel(0, -1))
	})
	scope.Commit()
	return o
}

func TestAbsorcaoComFalloffEContagem(t *testing.T) {
	o := buildCube(t, util.NewCoord(1, 1, 1), util.NewVoxelRange(util.NewCoord(0, 0, 0), util.NewCoord(6, 6, 6)))
	tally := make(AbsorptionTally)

	a := &Absorber{
		Shape:  AbsorberSphere,
		Center: mgl32.Vec3{3, 3, -1},
		Radius: 1.5,
		Rate:   200,
	}
	removed := ApplyAbsorption(o, nil, a, 1, tally)
	if removed == 0 {
		t.Fatal("absorvedor colado na face deveria remover voxels")
	}

	// O voxel (2,2,0) fica a ~1.66 do centro (sd ~0.16), bem dentro do
	// alcance; o canto oposto fica além do raio de influência.
	if v, ok := o.Get(2, 2, 0); ok && !v.IsEmpty() {
		t.Error("voxel colado no absorvedor deveria ser removido")
	}
	if v, ok := o.Get(5, 5, 5); !ok || v.IsEmpty() {
		t.Error("voxel além do raio de influência não deveria ser removido")
	}

	entry := tally[0]
	if entry.Count != removed {
		t.Errorf("contagem por tipo = %d, want %d", entry.Count, removed)
	}
	if math.Abs(entry.Volume-float64(removed)) > 1e-9 {
		t.Errorf("volume acumulado = %g, want %d", entry.Volume, removed)
	}
}

func TestAbsorcaoSubtraiDoAgregadoInercial(t *testing.T) {
	o := buildCube(t, util.NewCoord(1, 1, 1), util.NewVoxelRange(util.NewCoord(0, 0, 0), util.NewCoord(6, 6, 6)))
	inertia := voxel.NewInertialPropertyManagerForObject(o, voxel.DefaultTypeRegistry())
	massBefore := inertia.Properties().Mass

	a := &Absorber{
		Shape:  AbsorberSphere,
		Center: mgl32.Vec3{3, 3, -1},
		Radius: 1.5,
		Rate:   200,
	}
	removed := ApplyAbsorption(o, inertia, a, 1, nil)
	if removed == 0 {
		t.Fatal("absorvedor colado na face deveria remover voxels")
	}

	// O agregado acompanha as remoções voxel a voxel: massa, momentos e
	// centro de massa batem com uma recontagem do zero.
	got := inertia.Properties()
	want := voxel.NewInertialPropertyManagerForObject(o, voxel.DefaultTypeRegistry()).Properties()
	if math.Abs(got.Mass-want.Mass) > 1e-9 {
		t.Errorf("massa do agregado = %g, want %g (recontada)", got.Mass, want.Mass)
	}
	if math.Abs(got.Mass-(massBefore-float64(removed))) > 1e-9 {
		t.Errorf("massa do agregado = %g, want %g", got.Mass, massBefore-float64(removed))
	}
	if got.Moments.Sub(want.Moments).Len() > 1e-9 {
		t.Errorf("primeiros momentos = %v, want %v", got.Moments, want.Moments)
	}
	if got.MomentsOfInertia.Sub(want.MomentsOfInertia).Len() > 1e-6 {
		t.Errorf("momentos de inércia = %v, want %v", got.MomentsOfInertia, want.MomentsOfInertia)
	}
	if got.CenterOfMass().Sub(want.CenterOfMass()).Len() > 1e-9 {
		t.Errorf("centro de massa = %v, want %v", got.CenterOfMass(), want.CenterOfMass())
	}
}

func TestAbsorcaoFracaDesgastaSemRemover(t *testing.T) {
	o := buildCube(t, util.NewCoord(1, 1, 1), util.NewVoxelRange(util.NewCoord(0, 0, 0), util.NewCoord(6, 6, 6)))

	// Taxa abaixo do déficit de distância: os voxels (sd = -1) são
	// desgastados mas nenhum cruza o limiar de vazio em um passo.
	a := &Absorber{
		Shape:  AbsorberSphere,
		Center: mgl32.Vec3{3, 3, -1},
		Radius: 1.5,
		Rate:   0.5,
	}
	if removed := ApplyAbsorption(o, nil, a, 1, nil); removed != 0 {
		t.Errorf("taxa fraca removeu %d voxels em um passo", removed)
	}
}

func TestGerenciadorIdsMonotonicosEResync(t *testing.T) {
	objects := NewVoxelObjectManager()

	newEntry := func() *VoxelObjectEntry {
		o := buildCube(t, util.NewCoord(1, 1, 1), util.NewVoxelRange(util.NewCoord(1, 1, 1), util.NewCoord(5, 5, 5)))
		inertia := voxel.NewInertialPropertyManagerForObject(o, voxel.DefaultTypeRegistry())
		e := &VoxelObjectEntry{Object: o, Inertia: inertia, Submeshes: mesh.NewChunkSubmeshManager()}
		e.SyncModelOffset()
		return e
	}

	a := objects.Insert(newEntry())
	b := objects.Insert(newEntry())
	if a == b {
		t.Fatal("ids deveriam ser distintos")
	}
	objects.Remove(a)
	c := objects.Insert(newEntry())
	if c == a || c == b {
		t.Errorf("id reutilizado: %d", c)
	}
	if objects.Count() != 2 {
		t.Errorf("objetos registrados = %d, want 2", objects.Count())
	}

	objects.ResyncMeshes()
	objects.ForEach(func(id VoxelObjectID, e *VoxelObjectEntry) {
		if e.Object.HasInvalidatedMeshChunks() {
			t.Errorf("objeto %d ainda tem chunks de mesh invalidados", id)
		}
		if e.Submeshes.TriangleCount() == 0 {
			t.Errorf("objeto %d ficou sem triângulos após o resync", id)
		}
	})
}

// splitScenario monta dois cubos 6³ ligados por uma ponte 2×2, com corpo
// rígido e âncoras em ambos os cubos e na ponte.
type splitScenario struct {
	objects *VoxelObjectManager
	bodies  *physics.RigidBodyManager
	anchors *physics.AnchorManager

	id      VoxelObjectID
	entry   *VoxelObjectEntry
	body    *physics.DynamicRigidBody
	comPre  mgl64.Vec3
	bridge  util.VoxelRange
	anchorA physics.AnchorID
	anchorB physics.AnchorID
	anchorP physics.AnchorID
}

func newSplitScenario(t *testing.T) *splitScenario {
	t.Helper()
	o, err := voxel.NewEmptyObject(1, util.NewCoord(2, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	scope := o.BeginMutation()
	cubeA := util.NewVoxelRange(util.NewCoord(1, 1, 1), util.NewCoord(7, 7, 7))
	cubeB := util.NewVoxelRange(util.NewCoord(20, 1, 1), util.NewCoord(26, 7, 7))
	bridge := util.NewVoxelRange(util.NewCoord(7, 3, 3), util.NewCoord(20, 5, 5))
	for _, r := range []util.VoxelRange{cubeA, cubeB, bridge} {
		r.ForEach(func(c util.Coord) {
			o.SetVoxel(c, voxel.NewVoxel(0, -1))
		})
	}
	scope.Commit()

	inertia := voxel.NewInertialPropertyManagerForObject(o, voxel.DefaultTypeRegistry())
	entry := &VoxelObjectEntry{Object: o, Inertia: inertia, Submeshes: mesh.NewChunkSubmeshManager()}
	entry.SyncModelOffset()

	s := &splitScenario{
		objects: NewVoxelObjectManager(),
		bodies:  physics.NewRigidBodyManager(),
		anchors: physics.NewAnchorManager(),
		entry:   entry,
		comPre:  inertia.Properties().CenterOfMass(),
		bridge:  bridge,
	}
	s.id = s.objects.Insert(entry)

	// Mundo alinhado ao frame local: a translação é o centro de massa.
	s.body = &physics.DynamicRigidBody{
		Transform: util.Similarity{
			Translation: mgl32.Vec3{float32(s.comPre.X()), float32(s.comPre.Y()), float32(s.comPre.Z())},
			Rotation:    mgl32.QuatIdent(),
			Scale:       1,
		},
		Inertial: inertia.Properties(),
	}
	s.body.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	s.body.SetAngularVelocity(mgl64.Vec3{0, 0, 0.5})
	entry.HasBody = true
	entry.Body = s.bodies.Insert(s.body)

	anchorAt := func(center mgl64.Vec3) physics.AnchorID {
		return s.anchors.Insert(physics.Anchor{
			Body:  entry.Body,
			Point: mgl32.Vec3{float32(center.X() - s.comPre.X()), float32(center.Y() - s.comPre.Y()), float32(center.Z() - s.comPre.Z())},
		})
	}
	s.anchorA = anchorAt(mgl64.Vec3{3.5, 3.5, 3.5})  // dentro do cubo A
	s.anchorB = anchorAt(mgl64.Vec3{22.5, 3.5, 3.5}) // dentro do cubo B
	s.anchorP = anchorAt(mgl64.Vec3{10.5, 3.5, 3.5}) // dentro da ponte
	return s
}

func (s *splitScenario) removeBridge(t *testing.T) {
	t.Helper()
	s.entry.Object.IncreaseSignedDistanceInRegion(s.bridge, 2, func(c util.Coord, vt voxel.VoxelType) {
		s.entry.Inertia.RemoveVoxel(c, vt)
	})
}

func TestSplitParticionaCorposEVelocidades(t *testing.T) {
	s := newSplitScenario(t)

	// Geometria simétrica: a ponte 2×2 é centrada nos cubos, logo o centro
	// de massa combinado fica em (13.5, 4, 4).
	if s.comPre.Sub(mgl64.Vec3{13.5, 4, 4}).Len() > 1e-9 {
		t.Fatalf("centro de massa do cenário = %v, want (13.5, 4, 4)", s.comPre)
	}

	s.removeBridge(t)
	created := HandleVoxelObjectAfterRemovingVoxels(s.objects, s.bodies, s.anchors, s.id)
	if len(created) != 1 {
		t.Fatalf("componentes destacados = %d, want 1", len(created))
	}

	child, ok := s.objects.Get(created[0])
	if !ok {
		t.Fatal("objeto destacado não registrado")
	}
	if !child.HasBody {
		t.Fatal("destacado de pai dinâmico deveria ganhar corpo")
	}

	parentProps := s.entry.Inertia.Properties()
	childProps := child.Inertia.Properties()
	if math.Abs(parentProps.Mass-216) > 1e-9 || math.Abs(childProps.Mass-216) > 1e-9 {
		t.Fatalf("massas = %g / %g, want 216 / 216", parentProps.Mass, childProps.Mass)
	}

	// O componente de menor chave (cubo A) é o destacado; o pai fica com o
	// cubo B, centro de massa (23, 4, 4).
	childBody, ok := s.bodies.Get(child.Body)
	if !ok {
		t.Fatal("corpo do destacado não registrado")
	}
	if p := childBody.Transform.Translation; p.Sub(mgl32.Vec3{4, 4, 4}).Len() > 1e-4 {
		t.Errorf("posição do destacado = %v, want (4, 4, 4)", p)
	}
	if p := s.body.Transform.Translation; p.Sub(mgl32.Vec3{23, 4, 4}).Len() > 1e-4 {
		t.Errorf("posição do pai = %v, want (23, 4, 4)", p)
	}

	// Campo de velocidade rígido: v(p) = v + ω × Δr com ω = 0.5 ẑ. O pai
	// desloca Δr = (9.5, 0, 0) e o destacado (-9.5, 0, 0).
	if v := s.body.LinearVelocity(); v.Sub(mgl64.Vec3{1, 4.75, 0}).Len() > 1e-4 {
		t.Errorf("velocidade do pai = %v, want (1, 4.75, 0)", v)
	}
	if v := childBody.LinearVelocity(); v.Sub(mgl64.Vec3{1, -4.75, 0}).Len() > 1e-4 {
		t.Errorf("velocidade do destacado = %v, want (1, -4.75, 0)", v)
	}
	if w := childBody.AngularVelocity(); w.Sub(mgl64.Vec3{0, 0, 0.5}).Len() > 1e-6 {
		t.Errorf("velocidade angular do destacado = %v, want (0, 0, 0.5)", w)
	}

	// O offset de modelo acompanha os centros de massa novos.
	if lc := s.entry.LocalCenterOfMass; lc.Sub(mgl32.Vec3{23, 4, 4}).Len() > 1e-4 {
		t.Errorf("LocalCenterOfMass do pai = %v, want (23, 4, 4)", lc)
	}
	if lc := child.LocalCenterOfMass; lc.Sub(mgl32.Vec3{3, 3, 3}).Len() > 1e-4 {
		t.Errorf("LocalCenterOfMass do destacado = %v, want (3, 3, 3)", lc)
	}
}

func TestSplitReancoraAncoras(t *testing.T) {
	s := newSplitScenario(t)
	s.removeBridge(t)
	created := HandleVoxelObjectAfterRemovingVoxels(s.objects, s.bodies, s.anchors, s.id)
	if len(created) != 1 {
		t.Fatalf("componentes destacados = %d, want 1", len(created))
	}
	child, _ := s.objects.Get(created[0])

	// Âncora do cubo A migra para o corpo do destacado, reexpressa a partir
	// do centro de massa dele: (3.5,3.5,3.5) - (1,1,1) - (3,3,3).
	a, ok := s.anchors.Get(s.anchorA)
	if !ok {
		t.Fatal("âncora do cubo A sumiu")
	}
	if a.Body != child.Body {
		t.Errorf("âncora do cubo A ficou no corpo %d, want %d", a.Body, child.Body)
	}
	if a.Point.Sub(mgl32.Vec3{-0.5, -0.5, -0.5}).Len() > 1e-4 {
		t.Errorf("ponto da âncora migrada = %v, want (-0.5, -0.5, -0.5)", a.Point)
	}

	// Âncora do cubo B permanece no pai, repontuada para o centro novo.
	b, ok := s.anchors.Get(s.anchorB)
	if !ok {
		t.Fatal("âncora do cubo B sumiu")
	}
	if b.Body != s.entry.Body {
		t.Errorf("âncora do cubo B mudou de corpo: %d", b.Body)
	}
	if b.Point.Sub(mgl32.Vec3{-0.5, -0.5, -0.5}).Len() > 1e-4 {
		t.Errorf("ponto da âncora do pai = %v, want (-0.5, -0.5, -0.5)", b.Point)
	}

	// Âncora da ponte perdeu o voxel e é descartada.
	if _, ok := s.anchors.Get(s.anchorP); ok {
		t.Error("âncora da ponte deveria ter sido removida")
	}
	if s.anchors.Count() != 2 {
		t.Errorf("âncoras restantes = %d, want 2", s.anchors.Count())
	}
}

func TestRemocaoSemDesconexaoReancoraOCorpo(t *testing.T) {
	s := newSplitScenario(t)

	// Remove só o cubo A: nenhum split (a ponte segue ligada ao cubo B),
	// mas o centro de massa migra e o corpo deve acompanhar.
	cubeA := util.NewVoxelRange(util.NewCoord(1, 1, 1), util.NewCoord(7, 7, 7))
	s.entry.Object.IncreaseSignedDistanceInRegion(cubeA, 2, func(c util.Coord, vt voxel.VoxelType) {
		s.entry.Inertia.RemoveVoxel(c, vt)
	})

	created := HandleVoxelObjectAfterRemovingVoxels(s.objects, s.bodies, s.anchors, s.id)
	if len(created) != 0 {
		t.Fatalf("nenhum componente deveria destacar, criados %d", len(created))
	}

	comAfter := s.entry.Inertia.Properties().CenterOfMass()
	want := mgl32.Vec3{float32(comAfter.X()), float32(comAfter.Y()), float32(comAfter.Z())}
	if p := s.body.Transform.Translation; p.Sub(want).Len() > 1e-4 {
		t.Errorf("translação do corpo = %v, want %v", p, want)
	}
	if s.entry.LocalCenterOfMass.Sub(want).Len() > 1e-4 {
		t.Errorf("offset de modelo = %v, want %v", s.entry.LocalCenterOfMass, want)
	}

	// A âncora do cubo A perdeu o voxel; as outras permanecem no corpo.
	if _, ok := s.anchors.Get(s.anchorA); ok {
		t.Error("âncora do cubo removido deveria sumir")
	}
	if s.anchors.Count() != 2 {
		t.Errorf("âncoras restantes = %d, want 2", s.anchors.Count())
	}
}

func TestPaiEfetivamenteVazioEhRemovido(t *testing.T) {
	s := newSplitScenario(t)
	full := s.entry.Object.FullVoxelRange()
	s.entry.Object.IncreaseSignedDistanceInRegion(full, 2, func(c util.Coord, vt voxel.VoxelType) {
		s.entry.Inertia.RemoveVoxel(c, vt)
	})

	created := HandleVoxelObjectAfterRemovingVoxels(s.objects, s.bodies, s.anchors, s.id)
	if len(created) != 0 {
		t.Fatalf("objeto esvaziado não deveria destacar componentes, criou %d", len(created))
	}
	if _, ok := s.objects.Get(s.id); ok {
		t.Error("objeto vazio deveria ter sido removido")
	}
	if s.bodies.Count() != 0 {
		t.Errorf("corpos restantes = %d, want 0", s.bodies.Count())
	}
	if s.anchors.Count() != 0 {
		t.Errorf("âncoras restantes = %d, want 0", s.anchors.Count())
	}
}
