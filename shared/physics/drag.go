package physics

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/util"
)

// DragLoadMap é a grade equiretangular (φ, θ) de coeficientes de força e
// torque de arrasto por direção unitária de movimento, no frame do corpo.
// A resolução em φ é o dobro da resolução em θ.
type DragLoadMap struct {
	ThetaResolution uint32
	Forces          []mgl32.Vec3
	Torques         []mgl32.Vec3
}

// PhiResolution retorna a resolução do eixo φ da grade.
func (m *DragLoadMap) PhiResolution() uint32 { return 2 * m.ThetaResolution }

// direction devolve a direção unitária do centro da célula (ti, pi).
func direction(ti, pi int, thetaRes uint32) mgl32.Vec3 {
	theta := (float64(ti) + 0.5) / float64(thetaRes) * math.Pi
	phi := (float64(pi) + 0.5) / float64(2*thetaRes) * 2 * math.Pi
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return mgl32.Vec3{float32(st * cp), float32(st * sp), float32(ct)}
}

// cellOf inverte direction para a célula mais próxima.
func (m *DragLoadMap) cellOf(dir mgl32.Vec3) int {
	d := dir.Normalize()
	theta := math.Acos(util.Clamp(float64(d.Z()), -1, 1))
	phi := math.Atan2(float64(d.Y()), float64(d.X()))
	if phi < 0 {
		phi += 2 * math.Pi
	}
	ti := util.Clamp(int(theta/math.Pi*float64(m.ThetaResolution)), 0, int(m.ThetaResolution)-1)
	pi := util.Clamp(int(phi/(2*math.Pi)*float64(m.PhiResolution())), 0, int(m.PhiResolution())-1)
	return ti*int(m.PhiResolution()) + pi
}

// Lookup devolve os coeficientes de força e torque para a direção de
// movimento dada no frame do corpo.
func (m *DragLoadMap) Lookup(dir mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	cell := m.cellOf(dir)
	return m.Forces[cell], m.Torques[cell]
}

// ComputeDragLoadMap soma, para cada direção da grade, as contribuições dos
// triângulos voltados contra o movimento: F = −área·cosθ·n e τ = (c−com)×F.
// Com suavidade positiva, as células são em seguida misturadas por um kernel
// esférico gaussiano de largura angular proporcional à suavidade; suavidade
// zero mantém a amostra mais próxima.
func ComputeDragLoadMap(gm *mesh.Mesh, com mgl32.Vec3, thetaRes uint32, smoothness float32) *DragLoadMap {
	n := int(thetaRes) * int(2*thetaRes)
	m := &DragLoadMap{
		ThetaResolution: thetaRes,
		Forces:          make([]mgl32.Vec3, n),
		Torques:         make([]mgl32.Vec3, n),
	}

	// Pré-calcula área, normal e centroide por triângulo.
	triCount := len(gm.Indices) / 3
	areas := make([]float32, triCount)
	normals := make([]mgl32.Vec3, triCount)
	centroids := make([]mgl32.Vec3, triCount)
	for t := 0; t < triCount; t++ {
		a := vertexPosition(gm, gm.Indices[t*3])
		b := vertexPosition(gm, gm.Indices[t*3+1])
		c := vertexPosition(gm, gm.Indices[t*3+2])
		cross := b.Sub(a).Cross(c.Sub(a))
		area2 := cross.Len()
		if area2 == 0 {
			continue
		}
		areas[t] = area2 * 0.5
		normals[t] = cross.Mul(1 / area2)
		centroids[t] = a.Add(b).Add(c).Mul(1.0 / 3.0)
	}

	for ti := 0; ti < int(thetaRes); ti++ {
		for pi := 0; pi < int(2*thetaRes); pi++ {
			dir := direction(ti, pi, thetaRes)
			var force, torque mgl32.Vec3
			for t := 0; t < triCount; t++ {
				if areas[t] == 0 {
					continue
				}
				// cosθ > 0 nas faces dianteiras em relação ao movimento.
				cos := normals[t].Dot(dir)
				if cos <= 0 {
					continue
				}
				f := normals[t].Mul(-areas[t] * cos)
				force = force.Add(f)
				torque = torque.Add(centroids[t].Sub(com).Cross(f))
			}
			cell := ti*int(2*thetaRes) + pi
			m.Forces[cell] = force
			m.Torques[cell] = torque
		}
	}

	if smoothness > 0 {
		m.smooth(smoothness)
	}
	return m
}

func vertexPosition(gm *mesh.Mesh, idx uint32) mgl32.Vec3 {
	return mgl32.Vec3{gm.Positions[idx*3], gm.Positions[idx*3+1], gm.Positions[idx*3+2]}
}

// smooth mistura as células com pesos gaussianos no ângulo entre direções.
func (m *DragLoadMap) smooth(smoothness float32) {
	n := len(m.Forces)
	dirs := make([]mgl32.Vec3, n)
	for ti := 0; ti < int(m.ThetaResolution); ti++ {
		for pi := 0; pi < int(m.PhiResolution()); pi++ {
			dirs[ti*int(m.PhiResolution())+pi] = direction(ti, pi, m.ThetaResolution)
		}
	}

	forces := make([]mgl32.Vec3, n)
	torques := make([]mgl32.Vec3, n)
	sigma := float64(smoothness)
	for i := 0; i < n; i++ {
		var fsum, tsum mgl32.Vec3
		wsum := 0.0
		for j := 0; j < n; j++ {
			angle := math.Acos(util.Clamp(float64(dirs[i].Dot(dirs[j])), -1, 1))
			w := math.Exp(-(angle * angle) / (2 * sigma * sigma))
			if w < 1e-6 {
				continue
			}
			fsum = fsum.Add(m.Forces[j].Mul(float32(w)))
			tsum = tsum.Add(m.Torques[j].Mul(float32(w)))
			wsum += w
		}
		forces[i] = fsum.Mul(float32(1 / wsum))
		torques[i] = tsum.Mul(float32(1 / wsum))
	}
	m.Forces, m.Torques = forces, torques
}

// EncodeBinary serializa o mapa na forma compacta: u32 little-endian com a
// resolução em θ, seguido dos arrays f32 de coeficientes de força e torque.
func (m *DragLoadMap) EncodeBinary() []byte {
	n := len(m.Forces)
	out := make([]byte, 4+n*2*3*4)
	binary.LittleEndian.PutUint32(out, m.ThetaResolution)
	off := 4
	for _, v := range m.Forces {
		for i := 0; i < 3; i++ {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v[i]))
			off += 4
		}
	}
	for _, v := range m.Torques {
		for i := 0; i < 3; i++ {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v[i]))
			off += 4
		}
	}
	return out
}

// DecodeDragLoadMap inverte EncodeBinary.
func DecodeDragLoadMap(data []byte) (*DragLoadMap, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("mapa de arrasto truncado: %d bytes", len(data))
	}
	thetaRes := binary.LittleEndian.Uint32(data)
	if thetaRes == 0 {
		return nil, fmt.Errorf("resolução em θ nula")
	}
	n := int(thetaRes) * int(2*thetaRes)
	want := 4 + n*2*3*4
	if len(data) != want {
		return nil, fmt.Errorf("mapa de arrasto com %d bytes, esperados %d", len(data), want)
	}
	m := &DragLoadMap{
		ThetaResolution: thetaRes,
		Forces:          make([]mgl32.Vec3, n),
		Torques:         make([]mgl32.Vec3, n),
	}
	off := 4
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			m.Forces[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			m.Torques[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
	}
	return m, nil
}
