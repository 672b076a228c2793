package interaction

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/physics"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X()), float64(v.Y()), float64(v.Z())}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X()), float32(v.Y()), float32(v.Z())}
}

// HandleVoxelObjectAfterRemovingVoxels aplica as consequências de remoção
// de voxels ao objeto dado: re-resolve as regiões conexas, destaca os
// componentes desconectados em novos objetos (com massa, tensor, posição e
// velocidades particionados), reancora ou descarta as âncoras do corpo pai
// e remove o objeto e o corpo se o pai ficou efetivamente vazio. Retorna os
// ids dos objetos criados.
//
// O transform do corpo pai fica ancorado no centro de massa da última
// sincronização (LocalCenterOfMass); todos os ajustes são calculados nesse
// frame e o transform só é realinhado ao centro de massa novo no final.
func HandleVoxelObjectAfterRemovingVoxels(
	objects *VoxelObjectManager,
	bodies *physics.RigidBodyManager,
	anchors *physics.AnchorManager,
	id VoxelObjectID,
) []VoxelObjectID {
	entry, ok := objects.Get(id)
	if !ok {
		return nil
	}
	obj := entry.Object
	h := float64(obj.VoxelExtent())

	obj.ResolveConnectedRegionsBetweenAllChunks()

	var body *physics.DynamicRigidBody
	if entry.HasBody {
		if b, ok := bodies.Get(entry.Body); ok {
			body = b
		} else {
			log.Printf("[Interacao] corpo rígido %d ausente para o objeto %d; tratando como estático", entry.Body, id)
		}
	}

	// Frame de referência: o ponto local cujo mapeamento em mundo é a
	// translação atual do corpo. Mantido fixo durante todos os splits.
	cRef := vec64(entry.LocalCenterOfMass)
	var t0 util.Similarity
	var velBefore, omega mgl64.Vec3
	if body != nil {
		t0 = body.Transform
		velBefore = body.LinearVelocity()
		omega = body.AngularVelocity()
	}
	worldOf := func(local mgl64.Vec3) mgl64.Vec3 {
		d := vec32(local.Sub(cRef)).Mul(t0.Scale)
		return vec64(t0.Translation.Add(t0.Rotation.Rotate(d)))
	}

	var created []VoxelObjectID
	for {
		sink := voxel.NewInertialPropertyManager(entry.Inertia.Registry(), obj.VoxelExtent())
		newObj, offset, split := obj.SplitOffAnyDisconnectedRegionWithPropertyTransferrer(entry.Inertia.TransferrerTo(sink))
		if !split {
			break
		}

		// As contribuições do destacado referenciam coordenadas do pai;
		// reancora o ponto de referência na origem do novo objeto.
		offsetLocal := mgl64.Vec3{float64(offset.X) * h, float64(offset.Y) * h, float64(offset.Z) * h}
		sink.PropertiesRef().OffsetReferencePointBy(offsetLocal.Mul(-1))

		childEntry := &VoxelObjectEntry{
			Object:    newObj,
			Inertia:   sink,
			Submeshes: mesh.NewChunkSubmeshManager(),
		}
		childEntry.SyncModelOffset()

		if body != nil {
			// O destacado herda rotação e escala; a posição fica no centro
			// de massa do componente e a velocidade segue o campo rígido:
			// v(p) = v + ω × (p − p_ref).
			childCOMLocal := sink.Properties().CenterOfMass()
			childWorldCOM := worldOf(childCOMLocal.Add(offsetLocal))
			childBody := &physics.DynamicRigidBody{
				Transform: util.Similarity{
					Translation: vec32(childWorldCOM),
					Rotation:    t0.Rotation,
					Scale:       t0.Scale,
				},
				Inertial: sink.Properties(),
			}
			childBody.SetLinearVelocity(velBefore.Add(omega.Cross(childWorldCOM.Sub(vec64(t0.Translation)))))
			childBody.SetAngularVelocity(omega)
			childEntry.HasBody = true
			childEntry.Body = bodies.Insert(childBody)

			migrateAnchorsToChild(anchors, entry, childEntry, cRef, childCOMLocal, offset, h)
		}

		created = append(created, objects.Insert(childEntry))
	}

	if obj.IsEffectivelyEmpty() {
		if entry.HasBody {
			anchors.ForEachOnBody(entry.Body, func(aid physics.AnchorID, _ physics.Anchor) {
				anchors.Remove(aid)
			})
			bodies.Remove(entry.Body)
		}
		objects.Remove(id)
		return created
	}

	if body != nil {
		// Ajuste único do pai: a translação segue o centro de massa novo e
		// a velocidade ganha o termo ω × Δr do deslocamento do pivô.
		comAfter := entry.Inertia.Properties().CenterOfMass()
		deltaWorld := worldOf(comAfter).Sub(vec64(t0.Translation))
		body.Transform.Translation = t0.Translation.Add(vec32(deltaWorld))
		body.Inertial = entry.Inertia.Properties()
		body.SetLinearVelocity(velBefore.Add(omega.Cross(deltaWorld)))
		body.SetAngularVelocity(omega)

		rehomeRemainingAnchors(anchors, entry, cRef, comAfter, h)
	}

	entry.SyncModelOffset()
	return created
}

// voxelCoordOfLocal devolve o voxel que contém o ponto local.
func voxelCoordOfLocal(local mgl64.Vec3, h float64) util.Coord {
	return util.Coord{
		X: int(math.Floor(local.X() / h)),
		Y: int(math.Floor(local.Y() / h)),
		Z: int(math.Floor(local.Z() / h)),
	}
}

// migrateAnchorsToChild transfere para o corpo do destacado as âncoras do
// pai cujo ponto caiu em um voxel do componente destacado.
func migrateAnchorsToChild(
	anchors *physics.AnchorManager,
	parent, child *VoxelObjectEntry,
	cRef, childCOMLocal mgl64.Vec3,
	offset util.Coord,
	h float64,
) {
	offsetLocal := mgl64.Vec3{float64(offset.X) * h, float64(offset.Y) * h, float64(offset.Z) * h}
	anchors.ForEachOnBody(parent.Body, func(aid physics.AnchorID, a physics.Anchor) {
		local := cRef.Add(vec64(a.Point))
		childCoord := voxelCoordOfLocal(local, h).Sub(offset)
		if v, ok := child.Object.GetCoord(childCoord); ok && !v.IsEmpty() {
			anchors.Replace(aid, physics.Anchor{
				Body:  child.Body,
				Point: vec32(local.Sub(offsetLocal).Sub(childCOMLocal)),
			})
		}
	})
}

// rehomeRemainingAnchors repontua as âncoras que ficaram no pai para o novo
// centro de massa; âncoras cujo voxel deixou de existir são apagadas.
func rehomeRemainingAnchors(
	anchors *physics.AnchorManager,
	parent *VoxelObjectEntry,
	cRef, comAfter mgl64.Vec3,
	h float64,
) {
	anchors.ForEachOnBody(parent.Body, func(aid physics.AnchorID, a physics.Anchor) {
		local := cRef.Add(vec64(a.Point))
		if v, ok := parent.Object.GetCoord(voxelCoordOfLocal(local, h)); ok && !v.IsEmpty() {
			anchors.Replace(aid, physics.Anchor{
				Body:  a.Body,
				Point: vec32(local.Sub(comAfter)),
			})
			return
		}
		anchors.Remove(aid)
	})
}
