// Package meshing roda a extração de superfície dos objetos replicados num
// pool de workers, fora da thread de render. A coleta de trabalho e a emenda
// dos fragmentos ficam na thread de render; só o MeshChunk (a parte cara)
// roda aqui.
package meshing

import (
	"log"
	"sync"

	"VoxelForge/cliente/internal/scene"
	"VoxelForge/shared/mesh"
)

// Request pede a extração de um chunk de um objeto replicado.
type Request struct {
	ObjectID uint32
	Work     mesh.MeshWork
}

// Result carrega o fragmento extraído, pronto para a emenda na thread de
// render. Frag nil indica que o objeto sumiu entre o pedido e a extração.
type Result struct {
	ObjectID uint32
	Work     mesh.MeshWork
	Frag     *mesh.Fragment
}

// ChunkMesher é o pool de workers de extração.
type ChunkMesher struct {
	scene    *scene.Scene
	requests chan Request
	results  chan Result

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewChunkMesher inicia o pool com o número de workers dado.
func NewChunkMesher(workers int, sc *scene.Scene) *ChunkMesher {
	if workers < 1 {
		workers = 1
	}
	m := &ChunkMesher{
		scene:    sc,
		requests: make(chan Request, 1024),
		results:  make(chan Result, 1024),
		done:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	log.Printf("[Meshing] Pool iniciado com %d workers", workers)
	return m
}

// Enqueue envia um pedido; descarta se a fila estiver cheia (o chunk segue
// invalidado e será re-coletado no próximo frame).
func (m *ChunkMesher) Enqueue(req Request) bool {
	select {
	case m.requests <- req:
		return true
	default:
		return false
	}
}

// Results é o canal de fragmentos prontos.
func (m *ChunkMesher) Results() <-chan Result { return m.results }

// Stop encerra os workers e aguarda a drenagem.
func (m *ChunkMesher) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

func (m *ChunkMesher) worker(id int) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Meshing] PANIC no worker %d: %v", id, r)
		}
	}()

	for {
		select {
		case <-m.done:
			return
		case req := <-m.requests:
			res := Result{ObjectID: req.ObjectID, Work: req.Work}

			m.scene.Mu.RLock()
			if obj, ok := m.scene.Objects[req.ObjectID]; ok {
				res.Frag = mesh.MeshChunk(obj.Object, req.Work.ChunkCoord)
			}
			m.scene.Mu.RUnlock()

			select {
			case m.results <- res:
			case <-m.done:
				return
			}
		}
	}
}
