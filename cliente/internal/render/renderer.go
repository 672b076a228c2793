package render

/*
#include <stdlib.h>
*/
import "C"

import (
	"log"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/cliente/internal/assets"
	"VoxelForge/cliente/internal/scene"
	"VoxelForge/shared/mesh"
)

// ObjectModel agrupa os modelos GPU de um objeto replicado, um por chunk com
// geometria. O transform é aplicado no draw, então mover o objeto não exige
// reenvio de malha.
type ObjectModel struct {
	Chunks map[int]rl.Model
}

// Renderer mantém os modelos GPU e o shader dos objetos. Todos os métodos
// rodam na thread principal (exigência do OpenGL); a thread de rede nunca
// toca aqui.
type Renderer struct {
	Objects map[uint32]*ObjectModel

	ObjectShader rl.Shader
	camPosLoc    int32

	AssetMgr *assets.Manager

	// Fila de modelos para descarga incremental, evitando stutter quando um
	// objeto grande some.
	purgeQueue []rl.Model
}

// NewRenderer cria o renderizador e compila o shader, se a janela existir.
func NewRenderer(mgr *assets.Manager) *Renderer {
	r := &Renderer{
		Objects:  make(map[uint32]*ObjectModel),
		AssetMgr: mgr,
	}

	if rl.IsWindowReady() {
		r.ObjectShader = rl.LoadShaderFromMemory(objectVertexShader, objectFragmentShader)
		locs := unsafe.Slice(r.ObjectShader.Locs, 32)
		locs[12] = rl.GetShaderLocation(r.ObjectShader, "colDiffuse")
		r.camPosLoc = rl.GetShaderLocation(r.ObjectShader, "camPos")
		log.Printf("[Renderer] Shader de objetos compilado (id %d)", r.ObjectShader.ID)
	}
	return r
}

// UploadFragment envia o fragmento de um chunk para a GPU, substituindo o
// modelo anterior daquele chunk. Fragmento nil ou vazio apenas remove.
func (r *Renderer) UploadFragment(objectID uint32, chunkIndex int, frag *mesh.Fragment) {
	if !rl.IsWindowReady() {
		return
	}

	om, ok := r.Objects[objectID]
	if !ok {
		om = &ObjectModel{Chunks: make(map[int]rl.Model)}
		r.Objects[objectID] = om
	}
	if old, ok := om.Chunks[chunkIndex]; ok {
		r.purgeQueue = append(r.purgeQueue, old)
		delete(om.Chunks, chunkIndex)
	}
	if frag == nil || frag.IsEmpty() {
		return
	}

	m := r.fragmentToMesh(frag)
	rl.UploadMesh(&m, false)
	model := rl.LoadModelFromMesh(m)
	if model.MaterialCount > 0 && r.ObjectShader.ID != 0 {
		materials := unsafe.Slice(model.Materials, model.MaterialCount)
		materials[0].Shader = r.ObjectShader
	}
	om.Chunks[chunkIndex] = model
}

// RemoveObject agenda a descarga de todos os modelos do objeto.
func (r *Renderer) RemoveObject(objectID uint32) {
	om, ok := r.Objects[objectID]
	if !ok {
		return
	}
	for _, model := range om.Chunks {
		r.purgeQueue = append(r.purgeQueue, model)
	}
	delete(r.Objects, objectID)
}

// ProcessPurge descarrega alguns modelos por frame.
func (r *Renderer) ProcessPurge() {
	const perFrame = 8
	n := len(r.purgeQueue)
	if n > perFrame {
		n = perFrame
	}
	for i := 0; i < n; i++ {
		rl.UnloadModel(r.purgeQueue[i])
	}
	r.purgeQueue = r.purgeQueue[n:]
}

// Draw desenha todos os objetos replicados com suas poses atuais.
func (r *Renderer) Draw(camera rl.Camera3D, sc *scene.Scene) {
	if r.ObjectShader.ID != 0 {
		pos := camera.Position
		rl.SetShaderValue(r.ObjectShader, r.camPosLoc,
			[]float32{pos.X, pos.Y, pos.Z}, rl.ShaderUniformVec3)
	}

	sc.Mu.RLock()
	defer sc.Mu.RUnlock()

	for id, om := range r.Objects {
		obj, ok := sc.Objects[id]
		if !ok {
			continue
		}
		transform := toRlMatrix(obj.ModelMatrix())
		for _, model := range om.Chunks {
			model.Transform = transform
			rl.DrawModel(model, rl.Vector3{}, 1.0, rl.White)
		}
	}
}

// ModelCount retorna o total de modelos GPU residentes.
func (r *Renderer) ModelCount() int {
	total := 0
	for _, om := range r.Objects {
		total += len(om.Chunks)
	}
	return total
}

// Shutdown descarrega tudo que ainda está na GPU.
func (r *Renderer) Shutdown() {
	for id := range r.Objects {
		r.RemoveObject(id)
	}
	for _, model := range r.purgeQueue {
		rl.UnloadModel(model)
	}
	r.purgeQueue = nil
	if r.ObjectShader.ID != 0 {
		rl.UnloadShader(r.ObjectShader)
	}
}

// fragmentToMesh converte o fragmento em uma malha raylib, copiando os
// buffers para memória C (o unload é do raylib, que chama free).
func (r *Renderer) fragmentToMesh(frag *mesh.Fragment) rl.Mesh {
	var m rl.Mesh
	m.VertexCount = int32(frag.VertexCount())
	m.TriangleCount = int32(frag.TriangleCount())

	m.Vertices = (*float32)(copyToC(unsafe.Pointer(&frag.Positions[0]), len(frag.Positions)*4))
	m.Normals = (*float32)(copyToC(unsafe.Pointer(&frag.Normals[0]), len(frag.Normals)*4))
	m.Texcoords = (*float32)(copyToC(unsafe.Pointer(&frag.UVs[0]), len(frag.UVs)*4))

	colors := r.AssetMgr.VertexColors(frag.Materials)
	m.Colors = (*uint8)(copyToC(unsafe.Pointer(&colors[0]), len(colors)))

	// Fragmentos são limitados a um chunk, então índices de 16 bits bastam.
	indices := make([]uint16, len(frag.Indices))
	for i, idx := range frag.Indices {
		indices[i] = uint16(idx)
	}
	m.Indices = (*uint16)(copyToC(unsafe.Pointer(&indices[0]), len(indices)*2))
	return m
}

func copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	cSlice := unsafe.Slice((*byte)(ptr), size)
	goSlice := unsafe.Slice((*byte)(data), size)
	copy(cSlice, goSlice)
	return ptr
}

// toRlMatrix converte uma mgl32.Mat4 (column-major) para a matriz do raylib.
func toRlMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M4: m[4], M8: m[8], M12: m[12],
		M1: m[1], M5: m[5], M9: m[9], M13: m[13],
		M2: m[2], M6: m[6], M10: m[10], M14: m[14],
		M3: m[3], M7: m[7], M11: m[11], M15: m[15],
	}
}
