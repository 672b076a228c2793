package sim

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"VoxelForge/shared/interaction"
	"VoxelForge/shared/physics"
)

// Step avança a simulação em um tick: absorção (com splits e adoção dos
// destacados), gravidade, arrasto, integração dos corpos e resync de meshes.
func (w *World) Step(dt float64) {
	w.Tick++
	w.stepAbsorbers(float32(dt))
	w.stepGravity()
	w.stepDrag()
	w.Bodies.Step(dt)
	w.Objects.ResyncMeshes()
}

type absorberWork struct {
	entity ecs.Entity
	ref    AbsorberRef
}

// stepAbsorbers aplica cada absorvedor ao seu alvo e dirige o pipeline de
// consequências. Mutações estruturais acontecem fora da iteração de query.
func (w *World) stepAbsorbers(dt float32) {
	var work []absorberWork
	q := w.absorberFilter.Query()
	for q.Next() {
		work = append(work, absorberWork{entity: q.Entity(), ref: *q.Get()})
	}

	for _, item := range work {
		if _, ok := w.Objects.Get(item.ref.Target); !ok {
			// Alvo sumiu (absorvido por completo ou removido): o
			// absorvedor morre junto.
			w.ecs.RemoveEntity(item.entity)
			continue
		}
		w.AbsorbOnce(item.ref.Target, item.ref.Absorber, dt)
		if _, ok := w.Objects.Get(item.ref.Target); !ok {
			w.ecs.RemoveEntity(item.entity)
		}
	}
}

// AbsorbOnce aplica um passo de absorção avulso ao alvo e dirige as
// consequências (splits, adoção dos destacados, remoção do alvo esvaziado).
// Retorna quantos voxels foram removidos.
func (w *World) AbsorbOnce(target interaction.VoxelObjectID, a interaction.Absorber, dt float32) int {
	entry, ok := w.Objects.Get(target)
	if !ok {
		return 0
	}
	removed := interaction.ApplyAbsorption(entry.Object, entry.Inertia, &a, dt, w.Tally)
	if removed == 0 {
		return 0
	}

	created := interaction.HandleVoxelObjectAfterRemovingVoxels(w.Objects, w.Bodies, w.Anchors, target)
	for _, cid := range created {
		w.adoptCreated(cid)
	}
	if _, ok := w.Objects.Get(target); !ok {
		log.Printf("[Sim] Objeto %d completamente absorvido (tick %d)", target, w.Tick)
		if e, ok := w.entities[target]; ok {
			w.ecs.RemoveEntity(e)
			delete(w.entities, target)
		}
	}
	return removed
}

// adoptCreated registra no ECS um objeto destacado pelo pipeline de splits.
func (w *World) adoptCreated(id interaction.VoxelObjectID) {
	entry, ok := w.Objects.Get(id)
	if !ok {
		return
	}
	var e ecs.Entity
	if entry.HasBody {
		e = w.objBodies.NewEntity(&ObjectRef{ID: id}, &BodyRef{ID: entry.Body})
	} else {
		e = w.objects.NewEntity(&ObjectRef{ID: id})
	}
	w.entities[id] = e
	log.Printf("[Sim] Componente destacado adotado como objeto %d (tick %d)", id, w.Tick)
}

// stepGravity acumula o peso em todos os corpos dinâmicos.
func (w *World) stepGravity() {
	if w.Gravity == (mgl64.Vec3{}) {
		return
	}
	w.Bodies.ForEach(func(_ physics.RigidBodyID, b *physics.DynamicRigidBody) {
		b.Force = b.Force.Add(w.Gravity.Mul(b.Mass()))
	})
}

// stepDrag consulta o mapa de arrasto de cada corpo com DragRef e acumula a
// força e o torque de pressão, escalados pela pressão dinâmica e pela
// escala do transform.
func (w *World) stepDrag() {
	q := w.dragFilter.Query()
	for q.Next() {
		bodyRef, dragRef := q.Get()
		body, ok := w.Bodies.Get(bodyRef.ID)
		if !ok || dragRef.Map == nil {
			continue
		}
		v := body.LinearVelocity()
		speed := v.Len()
		if speed < 1e-6 {
			continue
		}

		// Direção do movimento no frame local do objeto.
		dirWorld := v.Mul(1 / speed)
		dirLocal := body.Transform.Rotation.Inverse().Rotate(mgl32.Vec3{
			float32(dirWorld.X()), float32(dirWorld.Y()), float32(dirWorld.Z()),
		})
		f, tq := dragRef.Map.Lookup(dirLocal)

		// Pressão dinâmica; área escala com s², braço de torque com s.
		s := float64(body.Transform.Scale)
		pressure := 0.5 * dragRef.Density * speed * speed * s * s
		fw := body.Transform.Rotation.Rotate(f)
		tw := body.Transform.Rotation.Rotate(tq)
		body.Force = body.Force.Add(mgl64.Vec3{
			float64(fw.X()), float64(fw.Y()), float64(fw.Z()),
		}.Mul(pressure))
		body.Torque = body.Torque.Add(mgl64.Vec3{
			float64(tw.X()), float64(tw.Y()), float64(tw.Z()),
		}.Mul(pressure * s))
	}
}
