// Package scene mantém a réplica local do mundo no cliente: os objetos de
// voxels reconstruídos dos snapshots do servidor, seus meshes por chunk e as
// poses mais recentes. A thread de rede escreve sob o lock; os workers de
// meshing leem sob RLock.
package scene

import (
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// Object é um objeto replicado: a cópia local dos voxels, o gerenciador de
// fragmentos e a pose anunciada pelo servidor.
type Object struct {
	ID        uint32
	Object    *voxel.ChunkedVoxelObject
	Submeshes *mesh.ChunkSubmeshManager

	Transform       util.Similarity
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3

	// Center é o centro de massa local, a âncora da pose do corpo. É
	// recomputado quando os voxels mudam.
	Center mgl32.Vec3

	// MTime é a época mais alta já aplicada, para descartar deltas velhos.
	MTime int64
}

// Scene guarda os objetos replicados. Mu protege o mapa e o conteúdo dos
// objetos; o loop de render e os workers tomam RLock, a rede toma Lock.
type Scene struct {
	Mu      sync.RWMutex
	Objects map[uint32]*Object

	registry *voxel.TypeRegistry
}

func New(registry *voxel.TypeRegistry) *Scene {
	return &Scene{
		Objects:  make(map[uint32]*Object),
		registry: registry,
	}
}

// Spawn insere (ou substitui) um objeto replicado a partir do snapshot.
func (s *Scene) Spawn(id uint32, o *voxel.ChunkedVoxelObject, tr util.Similarity) *Object {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	obj := &Object{
		ID:        id,
		Object:    o,
		Submeshes: mesh.NewChunkSubmeshManager(),
		Transform: tr,
	}
	obj.recomputeCenter(s.registry)
	o.InvalidateAllMeshChunks()
	s.Objects[id] = obj
	log.Printf("[Scene] Objeto %d replicado (%d chunks)", id, o.ChunkCount())
	return obj
}

// Despawn descarta a réplica do objeto.
func (s *Scene) Despawn(id uint32) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	delete(s.Objects, id)
}

// ApplyChunk aplica um delta de chunk vindo do servidor. Deltas com época
// menor que a já aplicada são descartados.
func (s *Scene) ApplyChunk(id uint32, chunkCoord util.Coord, mtime int64, ch voxel.Chunk) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	obj, ok := s.Objects[id]
	if !ok {
		// Delta pode chegar antes do spawn numa reconexão; é inofensivo
		// porque o snapshot do spawn já carrega o estado do chunk.
		return nil
	}
	if mtime < obj.MTime {
		return nil
	}
	obj.MTime = mtime

	idx := obj.Object.ChunkLinearIndex(chunkCoord)
	if err := obj.Object.ApplyChunkSnapshot(idx, ch); err != nil {
		return err
	}
	obj.recomputeCenter(s.registry)
	return nil
}

// ApplyTransform atualiza a pose e as velocidades do objeto.
func (s *Scene) ApplyTransform(id uint32, tr util.Similarity, linVel, angVel mgl32.Vec3) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if obj, ok := s.Objects[id]; ok {
		obj.Transform = tr
		obj.LinearVelocity = linVel
		obj.AngularVelocity = angVel
	}
}

// Count retorna o número de objetos replicados.
func (s *Scene) Count() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return len(s.Objects)
}

// TriangleCount soma os triângulos de todos os objetos.
func (s *Scene) TriangleCount() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	total := 0
	for _, obj := range s.Objects {
		total += obj.Submeshes.TriangleCount()
	}
	return total
}

// recomputeCenter refaz o centro de massa local. A réplica não recebe as
// propriedades inerciais pela rede; recomputá-las do próprio grid mantém a
// âncora de render igual à do servidor.
func (o *Object) recomputeCenter(registry *voxel.TypeRegistry) {
	com := voxel.NewInertialPropertyManagerForObject(o.Object, registry).Properties().CenterOfMass()
	o.Center = mgl32.Vec3{float32(com.X()), float32(com.Y()), float32(com.Z())}
}

// ModelMatrix devolve a matriz local→mundo do objeto: a pose é ancorada no
// centro de massa, então o offset local é subtraído antes de escalar e girar.
func (o *Object) ModelMatrix() mgl32.Mat4 {
	t := o.Transform
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale)).
		Mul4(mgl32.Translate3D(-o.Center.X(), -o.Center.Y(), -o.Center.Z()))
}
