package voxel

import (
	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/util"
)

// InertialProperties agrega massa, primeiro momento e segundo momento de um
// conjunto de voxels, relativo à origem do grid do objeto. Os termos se
// acumulam em float64 (política numérica: precisão máxima disponível nos
// segundos momentos); o centro de massa só é dividido sob demanda.
type InertialProperties struct {
	Mass float64

	// Moments são os primeiros momentos Σ m·x, Σ m·y, Σ m·z.
	Moments mgl64.Vec3

	// MomentsOfInertia são Ixx, Iyy, Izz relativos à origem do grid.
	MomentsOfInertia mgl64.Vec3

	// ProductsOfInertia são Pxy, Pyz, Pzx relativos à origem do grid.
	ProductsOfInertia mgl64.Vec3
}

// Add acumula outro agregado.
func (p *InertialProperties) Add(other InertialProperties) {
	p.Mass += other.Mass
	p.Moments = p.Moments.Add(other.Moments)
	p.MomentsOfInertia = p.MomentsOfInertia.Add(other.MomentsOfInertia)
	p.ProductsOfInertia = p.ProductsOfInertia.Add(other.ProductsOfInertia)
}

// Sub subtrai outro agregado.
func (p *InertialProperties) Sub(other InertialProperties) {
	p.Mass -= other.Mass
	p.Moments = p.Moments.Sub(other.Moments)
	p.MomentsOfInertia = p.MomentsOfInertia.Sub(other.MomentsOfInertia)
	p.ProductsOfInertia = p.ProductsOfInertia.Sub(other.ProductsOfInertia)
}

// CenterOfMass deriva o centro de massa. Agregados sem massa retornam a origem.
func (p InertialProperties) CenterOfMass() mgl64.Vec3 {
	if p.Mass == 0 {
		return mgl64.Vec3{}
	}
	return p.Moments.Mul(1 / p.Mass)
}

// InertiaTensorAboutOrigin monta o tensor de inércia relativo à origem do grid.
func (p InertialProperties) InertiaTensorAboutOrigin() mgl64.Mat3 {
	ixx, iyy, izz := p.MomentsOfInertia.X(), p.MomentsOfInertia.Y(), p.MomentsOfInertia.Z()
	pxy, pyz, pzx := p.ProductsOfInertia.X(), p.ProductsOfInertia.Y(), p.ProductsOfInertia.Z()
	return mgl64.Mat3{
		ixx, -pxy, -pzx,
		-pxy, iyy, -pyz,
		-pzx, -pyz, izz,
	}
}

// InertiaTensorAboutCenterOfMass aplica o teorema dos eixos paralelos para
// obter o tensor relativo ao centro de massa.
func (p InertialProperties) InertiaTensorAboutCenterOfMass() mgl64.Mat3 {
	com := p.CenterOfMass()
	m := p.Mass
	x, y, z := com.X(), com.Y(), com.Z()
	ixx := p.MomentsOfInertia.X() - m*(y*y+z*z)
	iyy := p.MomentsOfInertia.Y() - m*(z*z+x*x)
	izz := p.MomentsOfInertia.Z() - m*(x*x+y*y)
	pxy := p.ProductsOfInertia.X() - m*x*y
	pyz := p.ProductsOfInertia.Y() - m*y*z
	pzx := p.ProductsOfInertia.Z() - m*z*x
	return mgl64.Mat3{
		ixx, -pxy, -pzx,
		-pxy, iyy, -pyz,
		-pzx, -pyz, izz,
	}
}

// OffsetReferencePointBy muda o ponto de referência do agregado: todas as
// posições passam a ser lidas como deslocadas por d (unidades de mundo).
// Usado para reancorar o agregado de um objeto destacado na origem do grid
// dele. Os momentos antigos entram nas correções, então a ordem importa.
func (p *InertialProperties) OffsetReferencePointBy(d mgl64.Vec3) {
	m := p.Mass
	mx, my, mz := p.Moments.X(), p.Moments.Y(), p.Moments.Z()
	dx, dy, dz := d.X(), d.Y(), d.Z()

	p.MomentsOfInertia = mgl64.Vec3{
		p.MomentsOfInertia.X() + 2*(dy*my+dz*mz) + m*(dy*dy+dz*dz),
		p.MomentsOfInertia.Y() + 2*(dz*mz+dx*mx) + m*(dz*dz+dx*dx),
		p.MomentsOfInertia.Z() + 2*(dx*mx+dy*my) + m*(dx*dx+dy*dy),
	}
	p.ProductsOfInertia = mgl64.Vec3{
		p.ProductsOfInertia.X() + dx*my + dy*mx + m*dx*dy,
		p.ProductsOfInertia.Y() + dy*mz + dz*my + m*dy*dz,
		p.ProductsOfInertia.Z() + dz*mx + dx*mz + m*dz*dx,
	}
	p.Moments = mgl64.Vec3{mx + m*dx, my + m*dy, mz + m*dz}
}

// boxContribution calcula a contribuição inercial de um cubo homogêneo de
// lado size com canto inferior em lower e densidade rho (integrais fechadas
// do cubo, relativas à origem do grid).
func boxContribution(lower mgl64.Vec3, size, rho float64) InertialProperties {
	x0, y0, z0 := lower.X(), lower.Y(), lower.Z()
	x1, y1, z1 := x0+size, y0+size, z0+size

	dx2 := x1*x1 - x0*x0
	dy2 := y1*y1 - y0*y0
	dz2 := z1*z1 - z0*z0
	dx3 := x1*x1*x1 - x0*x0*x0
	dy3 := y1*y1*y1 - y0*y0*y0
	dz3 := z1*z1*z1 - z0*z0*z0

	s2 := size * size
	return InertialProperties{
		Mass:    rho * size * s2,
		Moments: mgl64.Vec3{0.5 * rho * s2 * dx2, 0.5 * rho * s2 * dy2, 0.5 * rho * s2 * dz2},
		MomentsOfInertia: mgl64.Vec3{
			rho * s2 * (dy3 + dz3) / 3,
			rho * s2 * (dz3 + dx3) / 3,
			rho * s2 * (dx3 + dy3) / 3,
		},
		ProductsOfInertia: mgl64.Vec3{
			0.25 * rho * size * dx2 * dy2,
			0.25 * rho * size * dy2 * dz2,
			0.25 * rho * size * dz2 * dx2,
		},
	}
}

// InertialPropertyManager mantém o agregado inercial de um objeto, com
// contribuições indexadas por (coordenada de voxel, tipo).
type InertialPropertyManager struct {
	registry    *TypeRegistry
	voxelExtent float64
	props       InertialProperties
}

// NewInertialPropertyManager cria um contador vazio.
func NewInertialPropertyManager(registry *TypeRegistry, voxelExtent float32) *InertialPropertyManager {
	return &InertialPropertyManager{registry: registry, voxelExtent: float64(voxelExtent)}
}

// NewInertialPropertyManagerForObject soma as contribuições de todos os
// voxels não-vazios do objeto, com forma fechada para chunks uniformes.
func NewInertialPropertyManagerForObject(o *ChunkedVoxelObject, registry *TypeRegistry) *InertialPropertyManager {
	m := NewInertialPropertyManager(registry, o.VoxelExtent())
	chunkExtent := m.voxelExtent * ChunkSize
	for i := 0; i < o.ChunkCount(); i++ {
		ch := o.ChunkAt(i)
		switch ch.State {
		case ChunkEmpty:
		case ChunkUniform:
			if ch.UniformVoxel.IsEmpty() {
				continue
			}
			cc := o.ChunkCoordOf(i)
			lower := mgl64.Vec3{
				float64(cc.X) * chunkExtent,
				float64(cc.Y) * chunkExtent,
				float64(cc.Z) * chunkExtent,
			}
			rho := float64(registry.MassDensity(ch.UniformVoxel.Type))
			m.props.Add(boxContribution(lower, chunkExtent, rho))
		default:
			base := o.ChunkCoordOf(i).Scale(ChunkSize)
			for idx := 0; idx < ChunkVoxelCount; idx++ {
				v := ch.Voxels[idx]
				if v.IsEmpty() {
					continue
				}
				m.props.Add(m.voxelContribution(base.Add(chunkLocalCoord(idx)), v.Type))
			}
		}
	}
	return m
}

// voxelContribution calcula a contribuição de um voxel do tipo dado.
func (m *InertialPropertyManager) voxelContribution(c util.Coord, t VoxelType) InertialProperties {
	lower := mgl64.Vec3{
		float64(c.X) * m.voxelExtent,
		float64(c.Y) * m.voxelExtent,
		float64(c.Z) * m.voxelExtent,
	}
	return boxContribution(lower, m.voxelExtent, float64(m.registry.MassDensity(t)))
}

// Properties retorna o agregado corrente (cópia).
func (m *InertialPropertyManager) Properties() InertialProperties {
	return m.props
}

// PropertiesRef dá acesso mutável ao agregado (para reancoragem após split).
func (m *InertialPropertyManager) PropertiesRef() *InertialProperties {
	return &m.props
}

// Registry retorna o registro de tipos usado pelo contador.
func (m *InertialPropertyManager) Registry() *TypeRegistry {
	return m.registry
}

// AddVoxel acumula a contribuição de um voxel recém-adicionado.
func (m *InertialPropertyManager) AddVoxel(c util.Coord, t VoxelType) {
	m.props.Add(m.voxelContribution(c, t))
}

// RemoveVoxel subtrai a contribuição de um voxel removido.
func (m *InertialPropertyManager) RemoveVoxel(c util.Coord, t VoxelType) {
	m.props.Sub(m.voxelContribution(c, t))
}

// inertiaTransferrer move contribuições da fonte para o destino; implementa
// PropertyTransferrer para a divisão de objetos.
type inertiaTransferrer struct {
	source, sink *InertialPropertyManager
}

// TransferrerTo cria o transferidor de propriedades deste contador para outro.
// As coordenadas recebidas estão no frame do objeto fonte; o reanchoramento
// do destino (OffsetReferencePointBy) é responsabilidade de quem divide.
func (m *InertialPropertyManager) TransferrerTo(sink *InertialPropertyManager) PropertyTransferrer {
	return &inertiaTransferrer{source: m, sink: sink}
}

func (t *inertiaTransferrer) TransferVoxel(c util.Coord, vt VoxelType) {
	contrib := t.source.voxelContribution(c, vt)
	t.source.props.Sub(contrib)
	t.sink.props.Add(contrib)
}

func (t *inertiaTransferrer) TransferUniformChunk(lower util.Coord, vt VoxelType) {
	chunkExtent := t.source.voxelExtent * ChunkSize
	lowerPos := mgl64.Vec3{
		float64(lower.X) * t.source.voxelExtent,
		float64(lower.Y) * t.source.voxelExtent,
		float64(lower.Z) * t.source.voxelExtent,
	}
	contrib := boxContribution(lowerPos, chunkExtent, float64(t.source.registry.MassDensity(vt)))
	t.source.props.Sub(contrib)
	t.sink.props.Add(contrib)
}
