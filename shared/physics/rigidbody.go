// Package physics mantém os corpos rígidos dinâmicos dos objetos de voxels,
// as âncoras presas a eles e os mapas de carga de arrasto pré-computados.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// RigidBodyID identifica um corpo rígido no gerenciador.
type RigidBodyID uint32

// DynamicRigidBody carrega o estado dinâmico de um objeto: a similaridade
// local→mundo do ponto de referência (o centro de massa), os momentos
// linear e angular em frame de mundo e o agregado inercial.
type DynamicRigidBody struct {
	Transform       util.Similarity
	LinearMomentum  mgl64.Vec3
	AngularMomentum mgl64.Vec3
	Inertial        voxel.InertialProperties

	// Acumuladores zerados a cada passo.
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// Mass retorna a massa do agregado.
func (b *DynamicRigidBody) Mass() float64 { return b.Inertial.Mass }

// LinearVelocity deriva a velocidade do momento linear.
func (b *DynamicRigidBody) LinearVelocity() mgl64.Vec3 {
	if b.Inertial.Mass == 0 {
		return mgl64.Vec3{}
	}
	return b.LinearMomentum.Mul(1 / b.Inertial.Mass)
}

// SetLinearVelocity ressincroniza o momento linear com a velocidade dada.
func (b *DynamicRigidBody) SetLinearVelocity(v mgl64.Vec3) {
	b.LinearMomentum = v.Mul(b.Inertial.Mass)
}

// worldInertiaTensor leva o tensor no centro de massa para o frame de mundo.
func (b *DynamicRigidBody) worldInertiaTensor() mgl64.Mat3 {
	r := quatToMat3(b.Transform.Rotation)
	return r.Mul3(b.Inertial.InertiaTensorAboutCenterOfMass()).Mul3(r.Transpose())
}

// AngularVelocity deriva ω = I⁻¹L no frame de mundo.
func (b *DynamicRigidBody) AngularVelocity() mgl64.Vec3 {
	i := b.worldInertiaTensor()
	if i.Det() == 0 {
		return mgl64.Vec3{}
	}
	return i.Inv().Mul3x1(b.AngularMomentum)
}

// SetAngularVelocity ressincroniza o momento angular com ω em mundo.
func (b *DynamicRigidBody) SetAngularVelocity(w mgl64.Vec3) {
	b.AngularMomentum = b.worldInertiaTensor().Mul3x1(w)
}

// quatToMat3 converte a orientação f32 para a matriz de rotação f64 usada
// na contabilidade inercial.
func quatToMat3(q mgl32.Quat) mgl64.Mat3 {
	m := q.Mat4()
	return mgl64.Mat3{
		float64(m[0]), float64(m[1]), float64(m[2]),
		float64(m[4]), float64(m[5]), float64(m[6]),
		float64(m[8]), float64(m[9]), float64(m[10]),
	}
}

// RigidBodyManager registra corpos por id denso monotônico. Não trava
// internamente; a sincronização é responsabilidade do chamador, como no
// gerenciador de objetos de voxels.
type RigidBodyManager struct {
	bodies map[RigidBodyID]*DynamicRigidBody
	nextID RigidBodyID
}

// NewRigidBodyManager cria um gerenciador vazio.
func NewRigidBodyManager() *RigidBodyManager {
	return &RigidBodyManager{bodies: make(map[RigidBodyID]*DynamicRigidBody)}
}

// Insert registra o corpo e devolve seu id monotônico.
func (m *RigidBodyManager) Insert(b *DynamicRigidBody) RigidBodyID {
	id := m.nextID
	m.nextID++
	m.bodies[id] = b
	return id
}

// Get devolve o corpo por id, ou ausência para ids removidos.
func (m *RigidBodyManager) Get(id RigidBodyID) (*DynamicRigidBody, bool) {
	b, ok := m.bodies[id]
	return b, ok
}

// Remove descarta o corpo; remoções repetidas são inofensivas.
func (m *RigidBodyManager) Remove(id RigidBodyID) {
	delete(m.bodies, id)
}

// Count retorna o número de corpos registrados.
func (m *RigidBodyManager) Count() int { return len(m.bodies) }

// ForEach visita todos os corpos em ordem não especificada.
func (m *RigidBodyManager) ForEach(f func(id RigidBodyID, b *DynamicRigidBody)) {
	for id, b := range m.bodies {
		f(id, b)
	}
}

// ApplyForceAtPoint acumula força no ponto de mundo dado, gerando o torque
// correspondente em torno do centro de massa.
func (b *DynamicRigidBody) ApplyForceAtPoint(force mgl64.Vec3, point mgl64.Vec3) {
	b.Force = b.Force.Add(force)
	com := mgl64.Vec3{
		float64(b.Transform.Translation.X()),
		float64(b.Transform.Translation.Y()),
		float64(b.Transform.Translation.Z()),
	}
	b.Torque = b.Torque.Add(point.Sub(com).Cross(force))
}

// Step integra todos os corpos: aplica forças acumuladas nos momentos,
// avança posição e orientação em semi-implícito e zera os acumuladores.
func (m *RigidBodyManager) Step(dt float64) {
	for _, b := range m.bodies {
		if b.Inertial.Mass == 0 {
			b.Force, b.Torque = mgl64.Vec3{}, mgl64.Vec3{}
			continue
		}
		b.LinearMomentum = b.LinearMomentum.Add(b.Force.Mul(dt))
		b.AngularMomentum = b.AngularMomentum.Add(b.Torque.Mul(dt))
		b.Force, b.Torque = mgl64.Vec3{}, mgl64.Vec3{}

		v := b.LinearVelocity()
		b.Transform.Translation = b.Transform.Translation.Add(mgl32.Vec3{
			float32(v.X() * dt), float32(v.Y() * dt), float32(v.Z() * dt),
		})

		w := b.AngularVelocity()
		wq := mgl32.Quat{W: 0, V: mgl32.Vec3{float32(w.X()), float32(w.Y()), float32(w.Z())}}
		dq := wq.Mul(b.Transform.Rotation)
		b.Transform.Rotation = mgl32.Quat{
			W: b.Transform.Rotation.W + 0.5*float32(dt)*dq.W,
			V: b.Transform.Rotation.V.Add(dq.V.Mul(0.5 * float32(dt))),
		}.Normalize()
	}
}
