// Package sim abriga o mundo de simulação do servidor: um ECS onde cada
// entidade referencia um objeto de voxels e, opcionalmente, um corpo rígido,
// um mapa de arrasto e absorvedores ativos. Os sistemas avançam geração,
// absorção, splits e física a cada tick.
package sim

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"VoxelForge/shared/interaction"
	"VoxelForge/shared/mesh"
	"VoxelForge/shared/physics"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// ObjectRef liga a entidade ao objeto de voxels no gerenciador.
type ObjectRef struct {
	ID interaction.VoxelObjectID
}

// BodyRef liga a entidade ao corpo rígido; entidades estáticas não o têm.
type BodyRef struct {
	ID physics.RigidBodyID
}

// DragRef carrega o mapa de arrasto pré-computado do objeto e a densidade
// do fluido ambiente.
type DragRef struct {
	Map     *physics.DragLoadMap
	Density float64
}

// AbsorberRef é uma entidade absorvedora apontada para um objeto alvo.
type AbsorberRef struct {
	Target   interaction.VoxelObjectID
	Absorber interaction.Absorber
}

// World agrega o ECS e os gerenciadores compartilhados da simulação. Não é
// seguro para uso concorrente: o loop de tick é o único dono.
type World struct {
	Objects *interaction.VoxelObjectManager
	Bodies  *physics.RigidBodyManager
	Anchors *physics.AnchorManager
	Tally   interaction.AbsorptionTally

	Registry *voxel.TypeRegistry
	Gravity  mgl64.Vec3
	Tick     uint64

	ecs       *ecs.World
	objects   *ecs.Map1[ObjectRef]
	objBodies *ecs.Map2[ObjectRef, BodyRef]
	drags     *ecs.Map1[DragRef]
	absorbers *ecs.Map1[AbsorberRef]

	bodyFilter     *ecs.Filter2[ObjectRef, BodyRef]
	dragFilter     *ecs.Filter2[BodyRef, DragRef]
	absorberFilter *ecs.Filter1[AbsorberRef]

	entities map[interaction.VoxelObjectID]ecs.Entity
}

// NewWorld monta um mundo vazio com gravidade padrão (-y).
func NewWorld(registry *voxel.TypeRegistry) *World {
	w := &World{
		Objects:  interaction.NewVoxelObjectManager(),
		Bodies:   physics.NewRigidBodyManager(),
		Anchors:  physics.NewAnchorManager(),
		Tally:    make(interaction.AbsorptionTally),
		Registry: registry,
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		ecs:      ecs.NewWorld(),
		entities: make(map[interaction.VoxelObjectID]ecs.Entity),
	}
	w.objects = ecs.NewMap1[ObjectRef](w.ecs)
	w.objBodies = ecs.NewMap2[ObjectRef, BodyRef](w.ecs)
	w.drags = ecs.NewMap1[DragRef](w.ecs)
	w.absorbers = ecs.NewMap1[AbsorberRef](w.ecs)
	w.bodyFilter = ecs.NewFilter2[ObjectRef, BodyRef](w.ecs)
	w.dragFilter = ecs.NewFilter2[BodyRef, DragRef](w.ecs)
	w.absorberFilter = ecs.NewFilter1[AbsorberRef](w.ecs)
	return w
}

// SpawnGenerated cria um objeto a partir de um campo de distância, com corpo
// rígido opcional posto na pose dada (a translação é o centro de massa em
// mundo).
func (w *World) SpawnGenerated(
	field voxel.SignedDistanceField,
	types voxel.VoxelTypeField,
	voxelExtent float32,
	transform util.Similarity,
	dynamic bool,
) (interaction.VoxelObjectID, error) {
	obj, err := voxel.GenerateFromField(field, types, w.Registry, voxelExtent)
	if err != nil {
		return 0, fmt.Errorf("geração do objeto falhou: %w", err)
	}
	return w.adoptObject(obj, transform, dynamic), nil
}

// adoptObject registra um objeto pronto no gerenciador, no ECS e, se
// dinâmico, no mundo físico.
func (w *World) adoptObject(obj *voxel.ChunkedVoxelObject, transform util.Similarity, dynamic bool) interaction.VoxelObjectID {
	inertia := voxel.NewInertialPropertyManagerForObject(obj, w.Registry)
	entry := &interaction.VoxelObjectEntry{
		Object:    obj,
		Inertia:   inertia,
		Submeshes: mesh.NewChunkSubmeshManager(),
	}
	entry.SyncModelOffset()

	if dynamic {
		body := &physics.DynamicRigidBody{
			Transform: transform,
			Inertial:  inertia.Properties(),
		}
		entry.HasBody = true
		entry.Body = w.Bodies.Insert(body)
	}

	id := w.Objects.Insert(entry)
	var e ecs.Entity
	if dynamic {
		e = w.objBodies.NewEntity(&ObjectRef{ID: id}, &BodyRef{ID: entry.Body})
	} else {
		e = w.objects.NewEntity(&ObjectRef{ID: id})
	}
	w.entities[id] = e
	log.Printf("[Sim] Objeto %d adotado (dinâmico=%v, chunks=%d)", id, dynamic, obj.ChunkCount())
	return id
}

// AttachDragMap liga um mapa de arrasto ao objeto dinâmico dado.
func (w *World) AttachDragMap(id interaction.VoxelObjectID, m *physics.DragLoadMap, density float64) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("objeto %d desconhecido", id)
	}
	w.drags.Add(e, &DragRef{Map: m, Density: density})
	return nil
}

// SpawnAbsorber cria uma entidade absorvedora apontada para o objeto alvo.
func (w *World) SpawnAbsorber(target interaction.VoxelObjectID, a interaction.Absorber) ecs.Entity {
	return w.absorbers.NewEntity(&AbsorberRef{Target: target, Absorber: a})
}

// RemoveObject descarta o objeto, seu corpo, suas âncoras e sua entidade.
func (w *World) RemoveObject(id interaction.VoxelObjectID) {
	entry, ok := w.Objects.Get(id)
	if !ok {
		return
	}
	if entry.HasBody {
		w.Anchors.ForEachOnBody(entry.Body, func(aid physics.AnchorID, _ physics.Anchor) {
			w.Anchors.Remove(aid)
		})
		w.Bodies.Remove(entry.Body)
	}
	w.Objects.Remove(id)
	if e, ok := w.entities[id]; ok {
		w.ecs.RemoveEntity(e)
		delete(w.entities, id)
	}
}

// ObjectCount retorna o número de objetos vivos.
func (w *World) ObjectCount() int { return w.Objects.Count() }

// Entity devolve a entidade ECS do objeto, se existir.
func (w *World) Entity(id interaction.VoxelObjectID) (ecs.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}
