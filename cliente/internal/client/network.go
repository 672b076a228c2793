package client

import (
	"bytes"
	"encoding/gob"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"VoxelForge/cliente/internal/scene"
	"VoxelForge/shared/proto/vfnet"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// NetworkClient lida com a comunicação com o servidor VoxelForge: recebe
// snapshots, deltas de chunk e poses, e aplica tudo na réplica local.
type NetworkClient struct {
	conn      *websocket.Conn
	url       string
	scene     *scene.Scene
	connected bool
	mu        sync.RWMutex

	// Callbacks para o App
	OnStatus      func(msg string, connected bool)
	OnWorldStatus func(status *vfnet.WorldStatusMessage)
}

func NewNetworkClient(url string, sc *scene.Scene) *NetworkClient {
	return &NetworkClient{
		url:   url,
		scene: sc,
	}
}

func (c *NetworkClient) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	var err error
	maxRetries := 10
	for i := 0; i < maxRetries; i++ {
		log.Printf("[Network] Tentativa de conexão %d/%d em %s...", i+1, maxRetries, c.url)
		c.conn, _, err = dialer.Dial(c.url, nil)
		if err == nil {
			break
		}
		log.Printf("[Network] Servidor ainda não está pronto: %v. Aguardando...", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Printf("[Network] ERRO CRÍTICO após %d tentativas: %v", maxRetries, err)
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

func (c *NetworkClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RequestSpawn pede ao servidor um novo objeto da receita padrão.
func (c *NetworkClient) RequestSpawn(seed uint32, pos mgl32.Vec3) {
	msg := vfnet.SpawnRequestMessage{
		Seed:     seed,
		Recipe:   "asteroide",
		Position: [3]float32{pos.X(), pos.Y(), pos.Z()},
	}
	c.Send(vfnet.TypeSpawnRequest, msg.Marshal())
}

// RequestAbsorb pede um passo de absorção esférica no objeto dado.
func (c *NetworkClient) RequestAbsorb(objectID uint32, center mgl32.Vec3, radius float32) {
	msg := vfnet.AbsorbRequestMessage{
		ObjectID: objectID,
		Center:   [3]float32{center.X(), center.Y(), center.Z()},
		Radius:   radius,
	}
	c.Send(vfnet.TypeAbsorbRequest, msg.Marshal())
}

func (c *NetworkClient) Send(msgType vfnet.MessageType, payload []byte) {
	if !c.IsConnected() {
		return
	}

	data := vfnet.WrapMessage(msgType, payload)

	c.mu.Lock()
	err := c.conn.WriteMessage(websocket.BinaryMessage, data)
	c.mu.Unlock()

	if err != nil {
		log.Printf("[Network] Erro ao enviar mensagem: %v", err)
		c.connected = false
	}
}

func (c *NetworkClient) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		if c.conn != nil {
			c.conn.Close()
		}
		if c.OnStatus != nil {
			c.OnStatus("Desconectado do servidor", false)
		}
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("[Network] Conexão perdida: %v", err)
			break
		}

		var env vfnet.Envelope
		if err := env.Unmarshal(message); err != nil {
			log.Printf("[Network] Erro ao desempacotar envelope: %v", err)
			continue
		}

		c.handleMessage(&env)
	}
}

func (c *NetworkClient) handleMessage(env *vfnet.Envelope) {
	switch env.Type {
	case vfnet.TypeObjectSpawn:
		var msg vfnet.ObjectSpawnMessage
		if err := msg.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] Spawn malformado: %v", err)
			return
		}
		c.processSpawn(&msg)
	case vfnet.TypeObjectDespawn:
		var msg vfnet.ObjectDespawnMessage
		if err := msg.Unmarshal(env.Payload); err == nil {
			c.scene.Despawn(msg.ObjectID)
			log.Printf("[Network] Objeto %d removido pelo servidor", msg.ObjectID)
		}
	case vfnet.TypeChunkData:
		var msg vfnet.ChunkDataMessage
		if err := msg.Unmarshal(env.Payload); err == nil {
			c.processChunk(&msg)
		}
	case vfnet.TypeObjectTransform:
		var msg vfnet.ObjectTransformMessage
		if err := msg.Unmarshal(env.Payload); err == nil {
			c.scene.ApplyTransform(msg.ObjectID, util.Similarity{
				Translation: mgl32.Vec3{msg.Position[0], msg.Position[1], msg.Position[2]},
				Rotation: mgl32.Quat{
					W: msg.Rotation[0],
					V: mgl32.Vec3{msg.Rotation[1], msg.Rotation[2], msg.Rotation[3]},
				},
				Scale: msg.Scale,
			},
				mgl32.Vec3{msg.LinearVelocity[0], msg.LinearVelocity[1], msg.LinearVelocity[2]},
				mgl32.Vec3{msg.AngularVelocity[0], msg.AngularVelocity[1], msg.AngularVelocity[2]})
		}
	case vfnet.TypeWorldStatus:
		var msg vfnet.WorldStatusMessage
		if err := msg.Unmarshal(env.Payload); err == nil {
			if c.OnWorldStatus != nil {
				c.OnWorldStatus(&msg)
			}
		}
	}
}

func (c *NetworkClient) processSpawn(msg *vfnet.ObjectSpawnMessage) {
	var snap voxel.ObjectSnapshot
	if err := gob.NewDecoder(bytes.NewReader(msg.Snapshot)).Decode(&snap); err != nil {
		log.Printf("[Network] Erro ao decodificar snapshot do objeto %d: %v", msg.ObjectID, err)
		return
	}
	o, err := voxel.FromSnapshot(snap)
	if err != nil {
		log.Printf("[Network] Snapshot inválido do objeto %d: %v", msg.ObjectID, err)
		return
	}

	tr := util.Similarity{
		Translation: mgl32.Vec3{msg.Position[0], msg.Position[1], msg.Position[2]},
		Rotation: mgl32.Quat{
			W: msg.Rotation[0],
			V: mgl32.Vec3{msg.Rotation[1], msg.Rotation[2], msg.Rotation[3]},
		},
		Scale: msg.Scale,
	}
	c.scene.Spawn(msg.ObjectID, o, tr)
}

func (c *NetworkClient) processChunk(msg *vfnet.ChunkDataMessage) {
	var chunk voxel.Chunk
	if err := gob.NewDecoder(bytes.NewReader(msg.Data)).Decode(&chunk); err != nil {
		log.Printf("[Network] Erro ao decodificar chunk do objeto %d: %v", msg.ObjectID, err)
		return
	}
	cc := util.NewCoord(int(msg.ChunkX), int(msg.ChunkY), int(msg.ChunkZ))
	if err := c.scene.ApplyChunk(msg.ObjectID, cc, msg.MTime, chunk); err != nil {
		log.Printf("[Network] Delta de chunk %v do objeto %d rejeitado: %v", cc, msg.ObjectID, err)
	}
}
