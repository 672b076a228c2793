package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/cliente/internal/meshing"
)

// meshKey identifica um chunk de um objeto na fila de trabalho pendente.
type meshKey struct {
	Object uint32
	Chunk  int
}

// pumpMeshing move o pipeline de malhas: coleta os chunks invalidados dos
// objetos replicados, despacha a extração para o pool e emenda os fragmentos
// prontos, subindo-os para a GPU.
func (a *App) pumpMeshing() {
	// Coleta sob lock de escrita: drena listas de invalidação e remove
	// fragmentos de chunks esvaziados.
	a.scene.Mu.Lock()
	for id, obj := range a.scene.Objects {
		work, cleared := obj.Submeshes.CollectWork(obj.Object)
		for _, idx := range cleared {
			a.renderer.UploadFragment(id, idx, nil)
		}
		for _, w := range work {
			a.pendingMesh.Enqueue(
				meshKey{Object: id, Chunk: w.ChunkIndex},
				meshing.Request{ObjectID: id, Work: w})
		}
	}
	a.scene.Mu.Unlock()

	// Despacha o pendente até a fila do pool encher; o resto espera o
	// próximo frame sem perder a época mais recente de cada chunk.
	for {
		key, req, ok := a.pendingMesh.Dequeue()
		if !ok {
			break
		}
		if !a.mesher.Enqueue(req) {
			a.pendingMesh.Enqueue(key, req)
			break
		}
	}

	// Emenda até um orçamento de resultados por frame para não travar o
	// loop de render em rajadas grandes.
	const maxApplyPerFrame = 32
	for i := 0; i < maxApplyPerFrame; i++ {
		select {
		case res := <-a.mesher.Results():
			a.applyMeshResult(res)
		default:
			return
		}
	}
}

func (a *App) applyMeshResult(res meshing.Result) {
	a.scene.Mu.Lock()
	obj, ok := a.scene.Objects[res.ObjectID]
	applied := false
	if ok && res.Frag != nil {
		applied = obj.Submeshes.ApplyWork(obj.Object, res.Work, res.Frag)
	}
	a.scene.Mu.Unlock()

	if !ok {
		a.renderer.RemoveObject(res.ObjectID)
		return
	}
	if applied {
		a.renderer.UploadFragment(res.ObjectID, res.Work.ChunkIndex, res.Frag)
	}
}

// updateFocus escolhe o objeto mais próximo do alvo da câmera e descarta
// modelos GPU de objetos que sumiram da réplica.
func (a *App) updateFocus() {
	target := mgl32.Vec3{a.Cam.CurrentLookAt.X, a.Cam.CurrentLookAt.Y, a.Cam.CurrentLookAt.Z}

	a.scene.Mu.RLock()
	best := float32(math.MaxFloat32)
	a.hasFocus = false
	for id, obj := range a.scene.Objects {
		d := obj.Transform.Translation.Sub(target).Len()
		if d < best {
			best = d
			a.focusedObject = id
			a.hasFocus = true
		}
	}
	var stale []uint32
	for id := range a.renderer.Objects {
		if _, ok := a.scene.Objects[id]; !ok {
			stale = append(stale, id)
		}
	}
	a.scene.Mu.RUnlock()

	for _, id := range stale {
		a.renderer.RemoveObject(id)
	}
}

// focusedObjectInfo devolve o centro de massa local e a posição em mundo do
// objeto focado.
func (a *App) focusedObjectInfo() (center mgl32.Vec3, world rl.Vector3, ok bool) {
	a.scene.Mu.RLock()
	defer a.scene.Mu.RUnlock()
	obj, found := a.scene.Objects[a.focusedObject]
	if !found {
		return mgl32.Vec3{}, rl.Vector3{}, false
	}
	t := obj.Transform.Translation
	return obj.Center, rl.Vector3{X: t.X(), Y: t.Y(), Z: t.Z()}, true
}
