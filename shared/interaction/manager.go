package interaction

import (
	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/physics"
	"VoxelForge/shared/voxel"
)

// VoxelObjectID identifica um objeto de voxels no gerenciador. Renderers
// externos referenciam meshes pelo mesmo id.
type VoxelObjectID uint32

// VoxelObjectEntry agrega um objeto com seu contexto: contabilidade
// inercial, submeshes e o corpo rígido opcional.
type VoxelObjectEntry struct {
	Object    *voxel.ChunkedVoxelObject
	Inertia   *voxel.InertialPropertyManager
	Submeshes *mesh.ChunkSubmeshManager

	// HasBody indica se Body é válido; objetos estáticos não têm corpo.
	HasBody bool
	Body    physics.RigidBodyID

	// LocalCenterOfMass é o offset do transform de modelo: o centro de
	// massa em coordenadas locais do objeto, mantido após cada mutação.
	LocalCenterOfMass mgl32.Vec3
}

// SyncModelOffset realinha o offset de modelo com o centro de massa atual.
func (e *VoxelObjectEntry) SyncModelOffset() {
	com := e.Inertia.Properties().CenterOfMass()
	e.LocalCenterOfMass = mgl32.Vec3{float32(com.X()), float32(com.Y()), float32(com.Z())}
}

// VoxelObjectManager registra objetos por id monotônico. Não trava
// internamente — a sincronização externa é exigida pelo modelo de tick.
type VoxelObjectManager struct {
	entries map[VoxelObjectID]*VoxelObjectEntry
	nextID  VoxelObjectID
}

// NewVoxelObjectManager cria um gerenciador vazio.
func NewVoxelObjectManager() *VoxelObjectManager {
	return &VoxelObjectManager{entries: make(map[VoxelObjectID]*VoxelObjectEntry)}
}

// Insert registra a entrada e devolve seu id monotônico.
func (m *VoxelObjectManager) Insert(e *VoxelObjectEntry) VoxelObjectID {
	id := m.nextID
	m.nextID++
	m.entries[id] = e
	return id
}

// Get devolve a entrada por id; ids removidos resolvem como ausência.
func (m *VoxelObjectManager) Get(id VoxelObjectID) (*VoxelObjectEntry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// Remove descarta a entrada; o chamador remove o corpo rígido associado.
func (m *VoxelObjectManager) Remove(id VoxelObjectID) {
	delete(m.entries, id)
}

// Count retorna o número de objetos registrados.
func (m *VoxelObjectManager) Count() int { return len(m.entries) }

// ForEach visita todas as entradas em ordem não especificada.
func (m *VoxelObjectManager) ForEach(f func(id VoxelObjectID, e *VoxelObjectEntry)) {
	for id, e := range m.entries {
		f(id, e)
	}
}

// ResyncMeshes refaz os fragmentos de todos os objetos com ao menos um
// chunk invalidado. Operação em lote, chamada uma vez por tick depois das
// mutações.
func (m *VoxelObjectManager) ResyncMeshes() {
	for _, e := range m.entries {
		if e.Object.HasInvalidatedMeshChunks() {
			e.Submeshes.SyncWithObject(e.Object)
		}
	}
}
