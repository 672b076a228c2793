package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"VoxelForge/servidor/internal/sim"
	"VoxelForge/shared/config"
	"VoxelForge/shared/interaction"
	"VoxelForge/shared/proto/vfnet"
	"VoxelForge/shared/storage"
	"VoxelForge/shared/voxel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub gerencia as conexões WebSocket ativas
type Hub struct {
	clients    map[*websocket.Conn]*sync.Mutex
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*sync.Mutex),
		broadcast:  make(chan []byte, 4096), // Bufferizado para evitar deadlocks e bloqueios
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Hub] Recuperado de pânico fatal: %v", r)
		}
	}()

	for {
		select {
		case client, ok := <-h.register:
			if !ok {
				return
			}
			h.mu.Lock()
			h.clients[client] = &sync.Mutex{}
			h.mu.Unlock()
			log.Printf("Cliente registrado: %s", client.RemoteAddr())
		case client, ok := <-h.unregister:
			if !ok {
				return
			}
			h.mu.Lock()
			if lock, ok := h.clients[client]; ok {
				lock.Lock()
				delete(h.clients, client)
				client.Close()
				lock.Unlock()
				log.Printf("Cliente desregistrado: %s", client.RemoteAddr())
			}
			h.mu.Unlock()
		case message, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.mu.Lock()
			// Lista de alvos para iterar fora do lock do hub
			type clientEntry struct {
				conn *websocket.Conn
				lock *sync.Mutex
			}
			var targets []clientEntry
			for c, l := range h.clients {
				targets = append(targets, clientEntry{c, l})
			}
			h.mu.Unlock()

			for _, target := range targets {
				target.lock.Lock()
				err := target.conn.WriteMessage(websocket.BinaryMessage, message)
				if err != nil {
					log.Printf("Erro ao enviar para cliente %s: %v", target.conn.RemoteAddr(), err)
					target.conn.Close()
					h.mu.Lock()
					delete(h.clients, target.conn)
					h.mu.Unlock()
				}
				target.lock.Unlock()
			}
		}
	}
}

// WriteSafe garante que apenas uma goroutine escreva no WebSocket por vez
func (h *Hub) WriteSafe(conn *websocket.Conn, messageType int, data []byte) error {
	h.mu.Lock()
	lock, ok := h.clients[conn]
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("cliente não encontrado no hub")
	}

	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(messageType, data)
}

// safeSend envia para o canal de broadcast protegendo contra pânicos de canal fechado
func (h *Hub) safeSend(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Hub] Aviso: Falha ao enviar broadcast (canal fechado?): %v", r)
		}
	}()
	h.broadcast <- data
}

// Broadcast embrulha e difunde uma mensagem para todos os clientes.
func (h *Hub) Broadcast(t vfnet.MessageType, payload []byte) {
	h.safeSend(vfnet.WrapMessage(t, payload))
}

// Send embrulha e envia uma mensagem para um único cliente.
func (h *Hub) Send(conn *websocket.Conn, t vfnet.MessageType, payload []byte) {
	if err := h.WriteSafe(conn, websocket.BinaryMessage, vfnet.WrapMessage(t, payload)); err != nil {
		log.Printf("Erro ao enviar mensagem: %v", err)
	}
}

// Server amarra o mundo de simulação, o hub e a persistência. O mundo só é
// tocado pela goroutine do tick; handlers enfileiram comandos.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	world    *sim.World
	store    *storage.ObjectStore
	commands chan func(w *sim.World)

	// announced rastreia os objetos já anunciados aos clientes, para
	// emitir spawns e despawns incrementais.
	announced map[interaction.VoxelObjectID]struct{}
}

func newServer(cfg *config.Config, hub *Hub, world *sim.World, store *storage.ObjectStore) *Server {
	return &Server{
		cfg:       cfg,
		hub:       hub,
		world:     world,
		store:     store,
		commands:  make(chan func(w *sim.World), 256),
		announced: make(map[interaction.VoxelObjectID]struct{}),
	}
}

// enqueue agenda trabalho para a goroutine do tick; descarta se a fila
// encher para não travar handlers de rede.
func (s *Server) enqueue(f func(w *sim.World)) {
	select {
	case s.commands <- f:
	default:
		log.Println("[Server] Fila de comandos cheia; comando descartado")
	}
}

func (s *Server) tickLoop() {
	dt := 1.0 / float64(s.cfg.TickRate)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	autosaveEvery := 0
	if s.cfg.AutosaveSeconds > 0 {
		autosaveEvery = s.cfg.AutosaveSeconds * s.cfg.TickRate
	}

	for range ticker.C {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Tick] Recuperado de pânico: %v", r)
				}
			}()

			// Comandos enfileirados primeiro: spawns e absorções pedidos
			// pela rede entram antes do passo.
			for {
				select {
				case cmd := <-s.commands:
					cmd(s.world)
					continue
				default:
				}
				break
			}

			s.world.Step(dt)
			s.broadcastSpawnsAndDespawns()
			s.broadcastTransforms()
			s.broadcastChunkDeltas()

			if s.cfg.StatusInterval > 0 && s.world.Tick%uint64(s.cfg.StatusInterval) == 0 {
				s.broadcastWorldStatus()
			}
			if autosaveEvery > 0 && s.world.Tick%uint64(autosaveEvery) == 0 {
				s.saveAll()
			}
		}()
	}
}

// spawnMessageFor monta o anúncio de spawn com o snapshot GOB e a pose.
func (s *Server) spawnMessageFor(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) (*vfnet.ObjectSpawnMessage, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry.Object.Snapshot()); err != nil {
		return nil, err
	}
	msg := &vfnet.ObjectSpawnMessage{
		ObjectID: uint32(id),
		Snapshot: buf.Bytes(),
		Rotation: [4]float32{1, 0, 0, 0},
		Scale:    1,
	}
	if entry.HasBody {
		if body, ok := s.world.Bodies.Get(entry.Body); ok {
			t := body.Transform
			msg.Position = [3]float32{t.Translation.X(), t.Translation.Y(), t.Translation.Z()}
			msg.Rotation = [4]float32{t.Rotation.W, t.Rotation.V.X(), t.Rotation.V.Y(), t.Rotation.V.Z()}
			msg.Scale = t.Scale
		}
	}
	return msg, nil
}

func (s *Server) broadcastSpawnsAndDespawns() {
	alive := make(map[interaction.VoxelObjectID]struct{}, s.world.ObjectCount())
	s.world.Objects.ForEach(func(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) {
		alive[id] = struct{}{}
		if _, known := s.announced[id]; known {
			return
		}
		msg, err := s.spawnMessageFor(id, entry)
		if err != nil {
			log.Printf("[Server] Erro ao serializar spawn do objeto %d: %v", id, err)
			return
		}
		s.hub.Broadcast(vfnet.TypeObjectSpawn, msg.Marshal())
		s.announced[id] = struct{}{}
	})
	for id := range s.announced {
		if _, ok := alive[id]; !ok {
			msg := vfnet.ObjectDespawnMessage{ObjectID: uint32(id)}
			s.hub.Broadcast(vfnet.TypeObjectDespawn, msg.Marshal())
			delete(s.announced, id)
		}
	}
}

func (s *Server) broadcastTransforms() {
	s.world.Objects.ForEach(func(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) {
		if !entry.HasBody {
			return
		}
		body, ok := s.world.Bodies.Get(entry.Body)
		if !ok {
			return
		}
		t := body.Transform
		v := body.LinearVelocity()
		w := body.AngularVelocity()
		msg := vfnet.ObjectTransformMessage{
			ObjectID:        uint32(id),
			Position:        [3]float32{t.Translation.X(), t.Translation.Y(), t.Translation.Z()},
			Rotation:        [4]float32{t.Rotation.W, t.Rotation.V.X(), t.Rotation.V.Y(), t.Rotation.V.Z()},
			Scale:           t.Scale,
			LinearVelocity:  [3]float32{float32(v.X()), float32(v.Y()), float32(v.Z())},
			AngularVelocity: [3]float32{float32(w.X()), float32(w.Y()), float32(w.Z())},
		}
		s.hub.Broadcast(vfnet.TypeObjectTransform, msg.Marshal())
	})
}

// broadcastChunkDeltas reenvia os chunks emendados neste tick. As chaves dos
// intervalos atualizados do submesh coincidem com os chunks mutados.
func (s *Server) broadcastChunkDeltas() {
	s.world.Objects.ForEach(func(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) {
		for chunkIdx := range entry.Submeshes.TakeUpdatedRanges() {
			ch := entry.Object.ChunkAt(chunkIdx)
			if ch == nil {
				continue
			}
			// Cópia sem os campos deriváveis, como no snapshot.
			chunk := *ch
			chunk.RegionLabels = nil
			chunk.Connections = nil
			if chunk.Voxels != nil {
				chunk.Voxels = append([]voxel.Voxel(nil), chunk.Voxels...)
			}

			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(chunk); err != nil {
				log.Printf("[Server] Erro ao codificar chunk %d do objeto %d: %v", chunkIdx, id, err)
				continue
			}
			cc := entry.Object.ChunkCoordOf(chunkIdx)
			msg := vfnet.ChunkDataMessage{
				ObjectID: uint32(id),
				ChunkX:   int32(cc.X),
				ChunkY:   int32(cc.Y),
				ChunkZ:   int32(cc.Z),
				MTime:    int64(chunk.Epoch),
				Data:     buf.Bytes(),
			}
			s.hub.Broadcast(vfnet.TypeChunkData, msg.Marshal())
		}
	})
}

func (s *Server) broadcastWorldStatus() {
	msg := vfnet.WorldStatusMessage{
		Tick:        s.world.Tick,
		ObjectCount: uint32(s.world.ObjectCount()),
	}
	for t, tally := range s.world.Tally {
		msg.Absorbed = append(msg.Absorbed, vfnet.AbsorbedTypeStatus{
			VoxelType: uint32(t),
			Count:     uint64(tally.Count),
			Volume:    tally.Volume,
		})
	}
	s.hub.Broadcast(vfnet.TypeWorldStatus, msg.Marshal())
}

// saveAll persiste todos os objetos vivos. Roda na goroutine do tick.
func (s *Server) saveAll() {
	count := 0
	s.world.Objects.ForEach(func(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) {
		name := fmt.Sprintf("objeto_%d", id)
		if err := s.store.SaveObject(name, entry.Object, int64(s.world.Tick)); err == nil {
			count++
		}
	})
	if count > 0 {
		log.Printf("[Persistence] Autosave: %d objetos persistidos (tick %d)", count, s.world.Tick)
	}
}

// serveWs maneja requisições websocket do peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Erro no upgrade do WebSocket: %v", err)
		return
	}
	s.hub.register <- conn

	// Estado inicial: todos os objetos vivos, lidos na goroutine do tick.
	s.enqueue(func(world *sim.World) {
		world.Objects.ForEach(func(id interaction.VoxelObjectID, entry *interaction.VoxelObjectEntry) {
			msg, err := s.spawnMessageFor(id, entry)
			if err != nil {
				log.Printf("[Server] Erro ao serializar spawn inicial %d: %v", id, err)
				return
			}
			s.hub.Send(conn, vfnet.TypeObjectSpawn, msg.Marshal())
		})
	})

	go func() {
		defer func() {
			s.hub.unregister <- conn
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Erro ao ler mensagem: %v", err)
				break
			}

			var envelope vfnet.Envelope
			if err := envelope.Unmarshal(message); err != nil {
				log.Printf("Erro ao desempacotar envelope: %v", err)
				continue
			}
			s.handleClientMessage(&envelope)
		}
	}()
}

func (s *Server) handleClientMessage(env *vfnet.Envelope) {
	switch env.Type {
	case vfnet.TypeSpawnRequest:
		var req vfnet.SpawnRequestMessage
		if err := req.Unmarshal(env.Payload); err != nil {
			log.Printf("Erro ao ler SpawnRequest: %v", err)
			return
		}
		log.Printf("[Network] Spawn pedido: receita %q, seed %d", req.Recipe, req.Seed)
		s.enqueue(func(world *sim.World) {
			if world.ObjectCount() >= s.cfg.MaxVoxelObjects {
				log.Printf("[Server] Limite de objetos atingido (%d); spawn ignorado", s.cfg.MaxVoxelObjects)
				return
			}
			if err := spawnFromRecipe(world, s.store, s.cfg, req.Seed, req.Position); err != nil {
				log.Printf("[Server] Spawn falhou: %v", err)
			}
		})
	case vfnet.TypeAbsorbRequest:
		var req vfnet.AbsorbRequestMessage
		if err := req.Unmarshal(env.Payload); err != nil {
			log.Printf("Erro ao ler AbsorbRequest: %v", err)
			return
		}
		s.enqueue(func(world *sim.World) {
			rate := req.Rate
			if rate <= 0 {
				rate = s.cfg.AbsorptionRate
			}
			world.AbsorbOnce(interaction.VoxelObjectID(req.ObjectID), interaction.Absorber{
				Shape:  interaction.AbsorberSphere,
				Center: [3]float32{req.Center[0], req.Center[1], req.Center[2]},
				Radius: req.Radius,
				Rate:   rate,
			}, float32(1.0/float64(s.cfg.TickRate)))
		})
	}
}

func main() {
	// Garante que o working directory é o mesmo diretório do executável,
	// para que caminhos relativos (saves/, tmp/) funcionem corretamente.
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		os.Chdir(exeDir)
	}

	log.SetFlags(log.Ltime | log.Lshortfile)

	// Log em arquivo para depuração de crash
	if err := os.MkdirAll("tmp", 0755); err == nil {
		logFile, err := os.OpenFile("tmp/server.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			mw := io.MultiWriter(os.Stdout, logFile)
			log.SetOutput(mw)
		}
	}
	log.Println("╔══════════════════════════════════════╗")
	log.Println("║      VoxelForge SERVER v0.1.0        ║")
	log.Println("╚══════════════════════════════════════╝")

	cfg := config.Load()

	hub := newHub()
	go hub.run()

	store := &storage.ObjectStore{}
	log.Printf("Inicializando banco de dados para o mundo: %s", cfg.WorldName)
	if err := store.OpenInitialize(cfg.WorldName); err != nil {
		log.Printf("Erro ao abrir SQLite: %v", err)
	}

	world := sim.NewWorld(worldTypeRegistry())
	if err := spawnFromRecipe(world, store, cfg, cfg.WorldSeed, [3]float32{}); err != nil {
		log.Fatalf("Erro fatal ao gerar o objeto inicial: %v", err)
	}
	log.Printf("[Startup] Mundo %q pronto: %d objeto(s), seed %d", cfg.WorldName, world.ObjectCount(), cfg.WorldSeed)

	server := newServer(cfg, hub, world, store)
	go server.tickLoop()

	http.HandleFunc("/ws", server.serveWs)

	addr := cfg.ListenAddr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("╔══════════════════════════════════════════════════════════════╗")
		log.Printf("║ ERRO CRÍTICO: Não foi possível abrir o endereço %s.          ║", addr)
		log.Printf("║ Provavelmente há outra instância do servidor rodando.        ║")
		log.Printf("╚══════════════════════════════════════════════════════════════╝")
		log.Fatalf("Erro ao iniciar servidor: %v", err)
	}
	ln.Close() // Fecha para o ListenAndServe reabrir

	log.Printf("Servidor VoxelForge iniciado em %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Erro fatal no servidor HTTP: %v", err)
	}
}
