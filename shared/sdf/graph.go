package sdf

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// NodeKind identifica a variante de um nó do grafo de SDF. O sistema de nós
// usa variantes etiquetadas com aridade fixa por tipo, não despacho dinâmico.
type NodeKind uint8

const (
	// Geradores (folhas).
	NodeBox NodeKind = iota
	NodeSphere
	NodeCapsule
	NodeGradientNoise

	// Modificadores unários.
	NodeTranslation
	NodeRotation
	NodeScaling
	NodeMultifractalNoise
	NodeMultiscaleSphere

	// Operadores binários.
	NodeUnion
	NodeSubtraction
	NodeIntersection
)

// Arity é a aridade de portas de um tipo de nó.
type Arity uint8

const (
	ArityLeaf Arity = iota
	ArityUnary
	ArityBinary
)

// KindArity retorna a aridade fixa do tipo de nó.
func KindArity(k NodeKind) Arity {
	switch k {
	case NodeBox, NodeSphere, NodeCapsule, NodeGradientNoise:
		return ArityLeaf
	case NodeTranslation, NodeRotation, NodeScaling, NodeMultifractalNoise, NodeMultiscaleSphere:
		return ArityUnary
	default:
		return ArityBinary
	}
}

// KindName retorna o nome legível do tipo de nó.
func KindName(k NodeKind) string {
	names := [...]string{
		"Box", "Sphere", "Capsule", "GradientNoise",
		"Translation", "Rotation", "Scaling", "MultifractalNoise", "MultiscaleSphere",
		"Union", "Subtraction", "Intersection",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Node é uma variante etiquetada; os campos usados dependem do Kind.
type Node struct {
	Kind NodeKind

	// Child e Child2 são índices no grafo (-1 quando ausentes).
	Child, Child2 int

	// Geradores.
	Extents   mgl32.Vec3 // Box (meias-extensões ×2), GradientNoise (domínio)
	Radius    float32    // Sphere, Capsule
	Length    float32    // Capsule (comprimento do segmento, eixo Y)
	Frequency float32    // GradientNoise, MultifractalNoise
	Threshold float32    // GradientNoise
	Seed      uint64     // GradientNoise, MultifractalNoise, MultiscaleSphere

	// Modificadores.
	Offset      mgl32.Vec3 // Translation
	Rotation    mgl32.Quat // Rotation (eixo-ângulo já convertido)
	Scale       float32    // Scaling
	Octaves     int        // MultifractalNoise, MultiscaleSphere
	Lacunarity  float32    // MultifractalNoise
	Persistence float32    // MultifractalNoise, MultiscaleSphere
	Amplitude   float32    // MultifractalNoise
	MaxScale    float32    // MultiscaleSphere
	Inflation   float32    // MultiscaleSphere

	// Operadores binários e MultiscaleSphere.
	Smoothness float32
}

// SDFGraph é o grafo atômico achatado: uma lista de nós e o índice da raiz.
// A raiz carrega a extensão de voxel com o piso imposto na validação.
type SDFGraph struct {
	Nodes       []Node
	Root        int
	VoxelExtent float32
}

// NewGraph cria um grafo vazio com a extensão de voxel dada.
func NewGraph(voxelExtent float32) *SDFGraph {
	return &SDFGraph{Root: -1, VoxelExtent: voxelExtent}
}

// AddNode anexa um nó e retorna seu índice; o último nó vira a raiz.
func (g *SDFGraph) AddNode(n Node) int {
	if KindArity(n.Kind) == ArityLeaf {
		n.Child, n.Child2 = -1, -1
	} else if KindArity(n.Kind) == ArityUnary {
		n.Child2 = -1
	}
	g.Nodes = append(g.Nodes, n)
	g.Root = len(g.Nodes) - 1
	return g.Root
}

// Validate verifica extensão de voxel, raiz, índices de filho e aridade.
func (g *SDFGraph) Validate() error {
	if g.VoxelExtent < voxel.MinVoxelExtent {
		return fmt.Errorf("extensão de voxel %g abaixo do piso %g", g.VoxelExtent, voxel.MinVoxelExtent)
	}
	if g.Root < 0 || g.Root >= len(g.Nodes) {
		return fmt.Errorf("raiz do grafo inválida: %d", g.Root)
	}
	for i, n := range g.Nodes {
		arity := KindArity(n.Kind)
		if arity != ArityLeaf {
			if n.Child < 0 || n.Child >= len(g.Nodes) {
				return fmt.Errorf("nó %d (%s) sem filho válido", i, KindName(n.Kind))
			}
		}
		if arity == ArityBinary {
			if n.Child2 < 0 || n.Child2 >= len(g.Nodes) {
				return fmt.Errorf("nó %d (%s) sem segundo filho válido", i, KindName(n.Kind))
			}
		}
	}
	return nil
}

// ---------- Operadores com blending suave ----------

// SmoothUnion é o mínimo suave polinomial; suavidade zero cai no min exato.
func SmoothUnion(d1, d2, smoothness float32) float32 {
	if smoothness <= 0 {
		return util.Min(d1, d2)
	}
	h := util.Clamp(0.5+0.5*(d2-d1)/smoothness, 0, 1)
	return util.Lerp(d2, d1, h) - smoothness*h*(1-h)
}

// SmoothSubtraction remove d2 de d1 (identidade -união(-d1, d2)).
func SmoothSubtraction(d1, d2, smoothness float32) float32 {
	return -SmoothUnion(-d1, d2, smoothness)
}

// SmoothIntersection interseta d1 e d2 (identidade -união(-d1, -d2)).
func SmoothIntersection(d1, d2, smoothness float32) float32 {
	return -SmoothUnion(-d1, -d2, smoothness)
}

// ---------- Avaliação ----------

// Distance avalia o campo na raiz. Implementa voxel.SignedDistanceField.
func (g *SDFGraph) Distance(p mgl32.Vec3) float32 {
	return g.evaluate(g.Root, p)
}

func (g *SDFGraph) evaluate(idx int, p mgl32.Vec3) float32 {
	n := &g.Nodes[idx]
	switch n.Kind {
	case NodeBox:
		return boxDistance(p, n.Extents.Mul(0.5))
	case NodeSphere:
		return p.Len() - n.Radius
	case NodeCapsule:
		// Segmento ao longo de Y, centrado na origem.
		half := n.Length * 0.5
		q := mgl32.Vec3{p.X(), p.Y() - util.Clamp(p.Y(), -half, half), p.Z()}
		return q.Len() - n.Radius
	case NodeGradientNoise:
		box := boxDistance(p, n.Extents.Mul(0.5))
		noise := GradientNoise(p.Mul(n.Frequency), n.Seed)
		return util.Max(box, n.Threshold-noise)
	case NodeTranslation:
		return g.evaluate(n.Child, p.Sub(n.Offset))
	case NodeRotation:
		return g.evaluate(n.Child, n.Rotation.Inverse().Rotate(p))
	case NodeScaling:
		return g.evaluate(n.Child, p.Mul(1/n.Scale)) * n.Scale
	case NodeMultifractalNoise:
		return g.evaluateMultifractal(n, p)
	case NodeMultiscaleSphere:
		return g.evaluateMultiscaleSphere(n, p)
	case NodeUnion:
		return SmoothUnion(g.evaluate(n.Child, p), g.evaluate(n.Child2, p), n.Smoothness)
	case NodeSubtraction:
		return SmoothSubtraction(g.evaluate(n.Child, p), g.evaluate(n.Child2, p), n.Smoothness)
	default: // NodeIntersection
		return SmoothIntersection(g.evaluate(n.Child, p), g.evaluate(n.Child2, p), n.Smoothness)
	}
}

func boxDistance(p, halfExtents mgl32.Vec3) float32 {
	q := mgl32.Vec3{
		util.Abs(p.X()) - halfExtents.X(),
		util.Abs(p.Y()) - halfExtents.Y(),
		util.Abs(p.Z()) - halfExtents.Z(),
	}
	outside := mgl32.Vec3{util.Max(q.X(), 0), util.Max(q.Y(), 0), util.Max(q.Z(), 0)}.Len()
	inside := util.Min(util.Max(q.X(), util.Max(q.Y(), q.Z())), 0)
	return outside + inside
}

// evaluateMultifractal soma octavas de ruído de gradiente sobre o campo do
// filho, com a amplitude normalizada pela série geométrica da persistência.
func (g *SDFGraph) evaluateMultifractal(n *Node, p mgl32.Vec3) float32 {
	d := g.evaluate(n.Child, p)
	if n.Octaves <= 0 {
		return d
	}
	norm := float32(1) / float32(n.Octaves)
	if n.Persistence != 1 {
		norm = (1 - n.Persistence) / (1 - float32(math.Pow(float64(n.Persistence), float64(n.Octaves))))
	}
	freq := n.Frequency
	amp := n.Amplitude * norm
	for i := 0; i < n.Octaves; i++ {
		d += GradientNoise(p.Mul(freq), n.Seed+uint64(i)) * amp
		freq *= n.Lacunarity
		amp *= n.Persistence
	}
	return d
}

// goldenRotation é a rotação fixa aplicada entre octavas do MultiscaleSphere
// para decorrelacionar os grids (ângulo áureo em torno de um eixo oblíquo).
var goldenRotation = mgl32.QuatRotate(
	2.39996323, // ~137.5° em radianos
	mgl32.Vec3{1, 1, 1}.Normalize(),
)

// evaluateMultiscaleSphere esculpe o campo do filho com grades de esferas de
// raio pseudoaleatório em escalas decrescentes: cada octava é intersetada
// suavemente com o campo inflado e então unida suavemente de volta.
func (g *SDFGraph) evaluateMultiscaleSphere(n *Node, p mgl32.Vec3) float32 {
	d := g.evaluate(n.Child, p)
	scale := n.MaxScale
	q := p
	for i := 0; i < n.Octaves; i++ {
		cellSize := 2 * scale
		cx := int32(math.Floor(float64(q.X() / cellSize)))
		cy := int32(math.Floor(float64(q.Y() / cellSize)))
		cz := int32(math.Floor(float64(q.Z() / cellSize)))

		spheres := float32(math.Inf(1))
		for corner := 0; corner < 8; corner++ {
			ox, oy, oz := int32(corner&1), int32(corner>>1&1), int32(corner>>2&1)
			h := hashCell(n.Seed+uint64(i), cx+ox, cy+oy, cz+oz)
			center := mgl32.Vec3{
				float32(cx+ox) * cellSize,
				float32(cy+oy) * cellSize,
				float32(cz+oz) * cellSize,
			}
			radius := scale * (0.5 + 0.5*hashUnitFloat(h))
			spheres = util.Min(spheres, q.Sub(center).Len()-radius)
		}

		carved := SmoothIntersection(spheres, d-n.Inflation*scale, n.Smoothness*scale)
		d = SmoothUnion(d, carved, n.Smoothness*scale)

		q = goldenRotation.Rotate(q)
		scale *= n.Persistence
	}
	return d
}

// ---------- Extensões de domínio ----------

// DomainExtents retorna extensões conservadoras do domínio do campo da raiz.
// Implementa voxel.SignedDistanceField.
func (g *SDFGraph) DomainExtents() mgl32.Vec3 {
	return g.nodeExtents(g.Root)
}

func (g *SDFGraph) nodeExtents(idx int) mgl32.Vec3 {
	n := &g.Nodes[idx]
	switch n.Kind {
	case NodeBox, NodeGradientNoise:
		return n.Extents
	case NodeSphere:
		d := 2 * n.Radius
		return mgl32.Vec3{d, d, d}
	case NodeCapsule:
		d := 2 * n.Radius
		return mgl32.Vec3{d, n.Length + d, d}
	case NodeTranslation:
		e := g.nodeExtents(n.Child)
		return mgl32.Vec3{
			e.X() + 2*util.Abs(n.Offset.X()),
			e.Y() + 2*util.Abs(n.Offset.Y()),
			e.Z() + 2*util.Abs(n.Offset.Z()),
		}
	case NodeRotation:
		// Limite conservador: cubo envolvendo a diagonal do filho.
		d := g.nodeExtents(n.Child).Len()
		return mgl32.Vec3{d, d, d}
	case NodeScaling:
		return g.nodeExtents(n.Child).Mul(n.Scale)
	case NodeMultifractalNoise:
		pad := 2 * n.Amplitude
		e := g.nodeExtents(n.Child)
		return mgl32.Vec3{e.X() + pad, e.Y() + pad, e.Z() + pad}
	case NodeMultiscaleSphere:
		pad := 2 * (n.Inflation + n.Smoothness) * n.MaxScale
		e := g.nodeExtents(n.Child)
		return mgl32.Vec3{e.X() + pad, e.Y() + pad, e.Z() + pad}
	default:
		a := g.nodeExtents(n.Child)
		b := g.nodeExtents(n.Child2)
		pad := n.Smoothness * 0.5
		return mgl32.Vec3{
			util.Max(a.X(), b.X()) + pad,
			util.Max(a.Y(), b.Y()) + pad,
			util.Max(a.Z(), b.Z()) + pad,
		}
	}
}

// ---------- Campos de tipo ----------

// GradientNoiseTypeField atribui tipos de voxel por um campo de ruído,
// particionando [-1, 1] uniformemente entre os tipos dados.
type GradientNoiseTypeField struct {
	Types     []voxel.VoxelType
	Frequency float32
	Seed      uint64
}

// TypeAt implementa voxel.VoxelTypeField.
func (f GradientNoiseTypeField) TypeAt(_ util.Coord, p mgl32.Vec3) voxel.VoxelType {
	if len(f.Types) == 0 {
		return 0
	}
	n := GradientNoise(p.Mul(f.Frequency), f.Seed)
	idx := int((n*0.5 + 0.5) * float32(len(f.Types)))
	return f.Types[util.Clamp(idx, 0, len(f.Types)-1)]
}
