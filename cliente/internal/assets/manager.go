// Package assets resolve os tipos de voxel para cores de vértice. O cliente
// não usa texturas; a aparência vem do registro de tipos, com uma leve
// variação por tipo para leitura visual.
package assets

import (
	"fmt"

	"VoxelForge/shared/voxel"
)

// Manager mantém a paleta RGBA derivada do registro de tipos.
type Manager struct {
	registry *voxel.TypeRegistry
	palette  [][4]uint8
}

// NewManager pré-computa a paleta do registro dado.
func NewManager(registry *voxel.TypeRegistry) *Manager {
	m := &Manager{
		registry: registry,
		palette:  make([][4]uint8, registry.Count()),
	}
	for i := 0; i < registry.Count(); i++ {
		c := registry.Color(voxel.VoxelType(i))
		m.palette[i] = [4]uint8{
			floatToByte(c.X()),
			floatToByte(c.Y()),
			floatToByte(c.Z()),
			255,
		}
	}
	return m
}

func floatToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Color devolve a cor RGBA do tipo; tipos fora do registro caem num magenta
// de depuração em vez de estourar.
func (m *Manager) Color(t uint8) [4]uint8 {
	if int(t) < len(m.palette) {
		return m.palette[t]
	}
	return [4]uint8{255, 0, 255, 255}
}

// VertexColors expande os índices de material por vértice num buffer RGBA
// intercalado, pronto para upload.
func (m *Manager) VertexColors(materials []uint8) []uint8 {
	out := make([]uint8, 0, len(materials)*4)
	for _, t := range materials {
		c := m.Color(t)
		out = append(out, c[0], c[1], c[2], c[3])
	}
	return out
}

// Describe devolve um rótulo curto do tipo para o HUD de depuração.
func (m *Manager) Describe(t uint8) string {
	if int(t) < m.registry.Count() {
		return m.registry.Spec(voxel.VoxelType(t)).Name
	}
	return fmt.Sprintf("tipo-%d", t)
}
