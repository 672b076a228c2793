// Package collision gera manifolds de contato entre esferas, planos e
// objetos de voxels. Os voxels são aproximados por esferas de meio voxel de
// raio e os pares são filtrados pela compatibilidade de colocação de
// superfície para evitar contatos interiores duplicados.
package collision

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// CollidableKind identifica a variante de um colidível.
type CollidableKind uint8

const (
	KindSphere CollidableKind = iota
	KindPlane
	KindVoxelObject
)

// Collidable é a união etiquetada dos corpos que o colisor entende. Esferas
// e planos vivem em coordenadas de mundo; objetos de voxels carregam a
// similaridade local→mundo.
type Collidable struct {
	Kind CollidableKind
	ID   uint64

	Sphere    util.Sphere
	Plane     util.Plane
	Object    *voxel.ChunkedVoxelObject
	Transform util.Similarity
}

// NewSphereCollidable cria um colidível esférico em coordenadas de mundo.
func NewSphereCollidable(id uint64, s util.Sphere) Collidable {
	return Collidable{Kind: KindSphere, ID: id, Sphere: s}
}

// NewPlaneCollidable cria um colidível plano; o semiespaço negativo é sólido.
func NewPlaneCollidable(id uint64, p util.Plane) Collidable {
	return Collidable{Kind: KindPlane, ID: id, Plane: p}
}

// NewVoxelObjectCollidable cria um colidível de objeto de voxels com a
// similaridade local→mundo dada.
func NewVoxelObjectCollidable(id uint64, o *voxel.ChunkedVoxelObject, transform util.Similarity) Collidable {
	return Collidable{Kind: KindVoxelObject, ID: id, Object: o, Transform: transform}
}

// Contact é um ponto do manifold: a normal aponta de A para B e a
// penetração é não-negativa (zero em contatos tangentes).
type Contact struct {
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	Penetration float32
	ID          uint64
}

// contactFallbackNormal é usada quando os centros coincidem.
var contactFallbackNormal = mgl32.Vec3{0, 0, 1}

// placementCompatible aplica o filtro de colocação: cantos pareiam com
// cantos, arestas e faces; arestas com cantos e arestas; faces só com
// cantos. Voxels interiores nunca geram contato.
func placementCompatible(a, b voxel.SurfacePlacement) bool {
	switch a {
	case voxel.PlacementCorner:
		return b != voxel.PlacementInterior
	case voxel.PlacementEdge:
		return b == voxel.PlacementCorner || b == voxel.PlacementEdge
	case voxel.PlacementFace:
		return b == voxel.PlacementCorner
	default:
		return false
	}
}

// contactID deriva um id estável de 64 bits dos ids dos colidíveis e das
// triplas de voxel envolvidas, para correlação de contatos entre frames.
func contactID(idA, idB uint64, voxels ...util.Coord) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], idA)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], idB)
	h.Write(buf[:])
	var cbuf [4]byte
	for _, c := range voxels {
		binary.LittleEndian.PutUint32(cbuf[:], uint32(int32(c.X)))
		h.Write(cbuf[:])
		binary.LittleEndian.PutUint32(cbuf[:], uint32(int32(c.Y)))
		h.Write(cbuf[:])
		binary.LittleEndian.PutUint32(cbuf[:], uint32(int32(c.Z)))
		h.Write(cbuf[:])
	}
	return h.Sum64()
}

func kindRank(k CollidableKind) int { return int(k) }

// Collide despacha o par para a rotina especializada e anexa os contatos a
// out. A ordem dos argumentos é normalizada (esfera < plano < objeto; ids
// crescentes em pares do mesmo tipo) e as normais são viradas de volta
// quando a normalização troca os lados.
func Collide(a, b *Collidable, out []Contact) []Contact {
	flipped := false
	if kindRank(a.Kind) > kindRank(b.Kind) || (a.Kind == b.Kind && a.ID > b.ID) {
		a, b = b, a
		flipped = true
	}

	start := len(out)
	switch {
	case a.Kind == KindSphere && b.Kind == KindSphere:
		out = collideSphereSphere(a, b, out)
	case a.Kind == KindSphere && b.Kind == KindPlane:
		out = collideSpherePlane(a, b, out)
	case a.Kind == KindSphere && b.Kind == KindVoxelObject:
		out = collideSphereVoxelObject(a, b, out)
	case a.Kind == KindPlane && b.Kind == KindPlane:
		// Plano contra plano não gera contatos.
	case a.Kind == KindPlane && b.Kind == KindVoxelObject:
		out = collidePlaneVoxelObject(a, b, out)
	default:
		out = collideVoxelObjects(a, b, out)
	}

	if flipped {
		for i := start; i < len(out); i++ {
			out[i].Normal = out[i].Normal.Mul(-1)
		}
	}
	return out
}

func collideSphereSphere(a, b *Collidable, out []Contact) []Contact {
	d := b.Sphere.Center.Sub(a.Sphere.Center)
	dist := d.Len()
	combined := a.Sphere.Radius + b.Sphere.Radius
	if dist > combined {
		return out
	}
	n := contactFallbackNormal
	if dist > 0 {
		n = d.Mul(1 / dist)
	}
	return append(out, Contact{
		Position:    b.Sphere.Center.Sub(n.Mul(b.Sphere.Radius)),
		Normal:      n,
		Penetration: combined - dist,
		ID:          contactID(a.ID, b.ID),
	})
}

func collideSpherePlane(a, b *Collidable, out []Contact) []Contact {
	sd := b.Plane.SignedDistance(a.Sphere.Center)
	if sd > a.Sphere.Radius {
		return out
	}
	// O semiespaço negativo do plano é sólido: a normal de A para B aponta
	// contra a normal do plano.
	n := b.Plane.Normal.Mul(-1)
	return append(out, Contact{
		Position:    a.Sphere.Center.Add(n.Mul(a.Sphere.Radius)),
		Normal:      n,
		Penetration: a.Sphere.Radius - sd,
		ID:          contactID(a.ID, b.ID),
	})
}

// localSphere transporta uma esfera de mundo para o frame local do objeto.
func localSphere(s util.Sphere, t util.Similarity) util.Sphere {
	inv := t.Inverse()
	return util.Sphere{
		Center: inv.Apply(s.Center),
		Radius: s.Radius * inv.Scale,
	}
}

func collideSphereVoxelObject(a, b *Collidable, out []Contact) []Contact {
	ls := localSphere(a.Sphere, b.Transform)
	h := b.Object.VoxelExtent()
	voxelRadius := 0.5 * h
	probe := util.Sphere{Center: ls.Center, Radius: ls.Radius + voxelRadius}

	b.Object.ForEachSurfaceVoxelMaybeIntersectingSphere(probe, func(c util.Coord, v voxel.Voxel) {
		center := b.Object.VoxelCenterPosition(c)
		d := center.Sub(ls.Center)
		dist := d.Len()
		combined := ls.Radius + voxelRadius
		if dist > combined {
			return
		}
		n := contactFallbackNormal
		if dist > 0 {
			n = d.Mul(1 / dist)
		}
		worldN := b.Transform.ApplyToDirection(n)
		out = append(out, Contact{
			Position:    b.Transform.Apply(center.Sub(n.Mul(voxelRadius))),
			Normal:      worldN,
			Penetration: (combined - dist) * b.Transform.Scale,
			ID:          contactID(a.ID, b.ID, c),
		})
	})
	return out
}

// localPlane transporta um plano de mundo para o frame local do objeto.
func localPlane(p util.Plane, t util.Similarity) util.Plane {
	inv := t.Inverse()
	n := inv.Rotation.Rotate(p.Normal)
	// Um ponto do plano em mundo, levado ao frame local.
	onPlane := inv.Apply(p.Normal.Mul(p.Displacement))
	return util.Plane{Normal: n, Displacement: n.Dot(onPlane)}
}

func collidePlaneVoxelObject(a, b *Collidable, out []Contact) []Contact {
	lp := localPlane(a.Plane, b.Transform)
	h := b.Object.VoxelExtent()
	voxelRadius := 0.5 * h
	probe := util.Plane{Normal: lp.Normal, Displacement: lp.Displacement + voxelRadius}

	b.Object.ForEachSurfaceVoxelMaybeIntersectingNegativeHalfspaceOfPlane(probe, func(c util.Coord, v voxel.Voxel) {
		center := b.Object.VoxelCenterPosition(c)
		sd := lp.SignedDistance(center)
		if sd > voxelRadius {
			return
		}
		// O sólido fica no semiespaço negativo; empurra o voxel ao longo
		// da normal do plano.
		n := b.Transform.ApplyToDirection(lp.Normal)
		out = append(out, Contact{
			Position:    b.Transform.Apply(center.Sub(lp.Normal.Mul(voxelRadius))),
			Normal:      n,
			Penetration: (voxelRadius - sd) * b.Transform.Scale,
			ID:          contactID(a.ID, b.ID, c),
		})
	})
	return out
}

func collideVoxelObjects(a, b *Collidable, out []Contact) []Contact {
	aToB := b.Transform.Inverse().Mul(a.Transform)
	rangeA, rangeB, ok := a.Object.DetermineVoxelRangesEncompassingIntersection(b.Object, aToB)
	if !ok {
		return out
	}

	hA := a.Object.VoxelExtent()
	hB := b.Object.VoxelExtent()
	radiusA := 0.5 * hA * aToB.Scale // raio do voxel de A no frame de B
	radiusB := 0.5 * hB
	combined := radiusA + radiusB

	a.Object.ForEachSurfaceVoxelInRange(rangeA, func(ca util.Coord, va voxel.Voxel) {
		pa := va.Flags.Placement()
		centerInB := aToB.Apply(a.Object.VoxelCenterPosition(ca))

		// Vizinhança conservadora de B ao redor do centro transformado.
		lower := util.Coord{
			X: int(math.Floor(float64((centerInB.X() - combined) / hB))),
			Y: int(math.Floor(float64((centerInB.Y() - combined) / hB))),
			Z: int(math.Floor(float64((centerInB.Z() - combined) / hB))),
		}
		upper := util.Coord{
			X: int(math.Floor(float64((centerInB.X()+combined)/hB))) + 1,
			Y: int(math.Floor(float64((centerInB.Y()+combined)/hB))) + 1,
			Z: int(math.Floor(float64((centerInB.Z()+combined)/hB))) + 1,
		}
		neighborhood := util.VoxelRange{Lower: lower, Upper: upper}.Intersect(rangeB)
		if neighborhood.IsEmpty() {
			return
		}

		b.Object.ForEachSurfaceVoxelInRange(neighborhood, func(cb util.Coord, vb voxel.Voxel) {
			if !placementCompatible(pa, vb.Flags.Placement()) {
				return
			}
			centerB := b.Object.VoxelCenterPosition(cb)
			d := centerB.Sub(centerInB)
			dist := d.Len()
			if dist > combined {
				return
			}
			n := contactFallbackNormal
			if dist > 0 {
				n = d.Mul(1 / dist)
			}
			out = append(out, Contact{
				Position:    b.Transform.Apply(centerB.Sub(n.Mul(radiusB))),
				Normal:      b.Transform.ApplyToDirection(n),
				Penetration: (combined - dist) * b.Transform.Scale,
				ID:          contactID(a.ID, b.ID, ca, cb),
			})
		})
	})
	return out
}
