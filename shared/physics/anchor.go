package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AnchorID identifica uma âncora com um id denso monotônico.
type AnchorID uint32

// Anchor prende um ponto no frame do corpo a um corpo rígido. O gerenciador
// não conhece semântica de voxels; a reancoragem após splits é feita pelo
// driver de interação.
type Anchor struct {
	Body  RigidBodyID
	Point mgl32.Vec3
}

// AnchorManager mantém as âncoras em dois mapas: id → âncora e corpo →
// lista de ids. Invariantes: os mapas concordam e o mapa reverso nunca
// guarda listas vazias.
type AnchorManager struct {
	anchors map[AnchorID]Anchor
	byBody  map[RigidBodyID][]AnchorID
	nextID  AnchorID
}

// NewAnchorManager cria um gerenciador vazio.
func NewAnchorManager() *AnchorManager {
	return &AnchorManager{
		anchors: make(map[AnchorID]Anchor),
		byBody:  make(map[RigidBodyID][]AnchorID),
	}
}

// Insert registra a âncora e devolve seu id.
func (m *AnchorManager) Insert(a Anchor) AnchorID {
	id := m.nextID
	m.nextID++
	m.anchors[id] = a
	m.byBody[a.Body] = append(m.byBody[a.Body], id)
	return id
}

// Get devolve a âncora por id.
func (m *AnchorManager) Get(id AnchorID) (Anchor, bool) {
	a, ok := m.anchors[id]
	return a, ok
}

// Remove apaga a âncora dos dois mapas; remoções repetidas são inofensivas.
func (m *AnchorManager) Remove(id AnchorID) {
	a, ok := m.anchors[id]
	if !ok {
		return
	}
	delete(m.anchors, id)
	m.detachFromBody(a.Body, id)
}

func (m *AnchorManager) detachFromBody(body RigidBodyID, id AnchorID) {
	ids := m.byBody[body]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byBody, body)
	} else {
		m.byBody[body] = ids
	}
}

// Replace substitui a âncora sob o mesmo id, movendo-a entre as listas por
// corpo quando o corpo muda. Substituir um id ausente é um no-op.
func (m *AnchorManager) Replace(id AnchorID, a Anchor) {
	old, ok := m.anchors[id]
	if !ok {
		return
	}
	if old.Body != a.Body {
		m.detachFromBody(old.Body, id)
		m.byBody[a.Body] = append(m.byBody[a.Body], id)
	}
	m.anchors[id] = a
}

// ForEachOnBody visita as âncoras do corpo dado. A função pode remover ou
// substituir a âncora visitada.
func (m *AnchorManager) ForEachOnBody(body RigidBodyID, f func(id AnchorID, a Anchor)) {
	ids := m.byBody[body]
	snapshot := make([]AnchorID, len(ids))
	copy(snapshot, ids)
	for _, id := range snapshot {
		if a, ok := m.anchors[id]; ok && a.Body == body {
			f(id, a)
		}
	}
}

// Count retorna o número de âncoras registradas.
func (m *AnchorManager) Count() int { return len(m.anchors) }

// BodyCount retorna quantos corpos têm ao menos uma âncora.
func (m *AnchorManager) BodyCount() int { return len(m.byBody) }
