// Package interaction dirige o acoplamento entre absorvedores, objetos de
// voxels e física: absorção com falloff, o pipeline de consequências de
// remoção (split, ajuste de corpos rígidos, reancoragem) e o gerenciador de
// objetos de voxels.
package interaction

import (
	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// AbsorberShape distingue as formas de absorvedor.
type AbsorberShape uint8

const (
	AbsorberSphere AbsorberShape = iota
	AbsorberCapsule
)

// Absorber é uma forma que come voxels: a taxa cai com a distância com
// sinal à superfície da forma e zera além do raio de influência (a forma
// acolchoada por dois voxels). Coordenadas no frame local do objeto alvo.
type Absorber struct {
	Shape AbsorberShape

	// Esfera: centro e raio. Cápsula: segmento Start–End e raio.
	Center     mgl32.Vec3
	Start, End mgl32.Vec3
	Radius     float32

	// Rate é a taxa de absorção na superfície da forma, em unidades de
	// distância de voxel por segundo.
	Rate float32
}

// SignedDistance avalia a distância com sinal do ponto à superfície.
func (a *Absorber) SignedDistance(p mgl32.Vec3) float32 {
	switch a.Shape {
	case AbsorberCapsule:
		ab := a.End.Sub(a.Start)
		t := float32(0)
		if lenSq := ab.Dot(ab); lenSq > 0 {
			t = util.Clamp(p.Sub(a.Start).Dot(ab)/lenSq, 0, 1)
		}
		return p.Sub(a.Start.Add(ab.Mul(t))).Len() - a.Radius
	default:
		return p.Sub(a.Center).Len() - a.Radius
	}
}

// boundingSphere devolve uma esfera conservadora ao redor da forma.
func (a *Absorber) boundingSphere() util.Sphere {
	if a.Shape == AbsorberCapsule {
		mid := a.Start.Add(a.End).Mul(0.5)
		return util.Sphere{Center: mid, Radius: a.End.Sub(mid).Len() + a.Radius}
	}
	return util.Sphere{Center: a.Center, Radius: a.Radius}
}

// TypeTally acumula as remoções de um tipo de voxel.
type TypeTally struct {
	Count  int
	Volume float64
}

// AbsorptionTally conta os voxels removidos por tipo, para o fluxo de
// status do servidor.
type AbsorptionTally map[voxel.VoxelType]TypeTally

// Add registra a remoção de um voxel do tipo dado.
func (t AbsorptionTally) Add(vt voxel.VoxelType, volume float64) {
	entry := t[vt]
	entry.Count++
	entry.Volume += volume
	t[vt] = entry
}

// ApplyAbsorption aumenta as distâncias com sinal dos voxels ao alcance do
// absorvedor por rate·dt com falloff linear até o raio de influência.
// Voxels esvaziados são subtraídos do agregado inercial (quando fornecido)
// e alimentam a contagem por tipo. Retorna quantos voxels foram removidos.
func ApplyAbsorption(o *voxel.ChunkedVoxelObject, inertia *voxel.InertialPropertyManager, a *Absorber, dt float32, tally AbsorptionTally) int {
	h := o.VoxelExtent()
	influence := 2 * h
	bound := a.boundingSphere()
	bound.Radius += influence
	region := o.VoxelRangeAroundSphere(bound)
	if region.IsEmpty() {
		return 0
	}

	volume := float64(h) * float64(h) * float64(h)
	removed := 0
	o.IncreaseSignedDistancesWithFunc(region, func(c util.Coord, center mgl32.Vec3) float32 {
		sd := a.SignedDistance(center)
		falloff := util.Clamp(1-sd/influence, 0, 1)
		if falloff == 0 {
			return 0
		}
		// Delta em unidades de voxel: as distâncias dos voxels são
		// quantizadas nessa escala.
		return a.Rate * dt * falloff
	}, func(c util.Coord, vt voxel.VoxelType) {
		removed++
		if inertia != nil {
			inertia.RemoveVoxel(c, vt)
		}
		if tally != nil {
			tally.Add(vt, volume)
		}
	})
	return removed
}
