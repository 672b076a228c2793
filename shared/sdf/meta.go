package sdf

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
)

// ParamKind distingue as especificações de parâmetro do grafo meta.
type ParamKind uint8

const (
	// ParamConstant: valor fixo.
	ParamConstant ParamKind = iota
	// ParamUniform: uniforme em [Min, Max].
	ParamUniform
	// ParamPowerLaw: densidade proporcional a x^Exponent em [Min, Max].
	ParamPowerLaw
	// ParamUniformCosAngle: ângulo cujo cosseno é uniforme entre os
	// cossenos de Min e Max (ângulos em radianos).
	ParamUniformCosAngle
	// ParamProjectedCosAngle: ângulo com cosseno distribuído pela projeção
	// de área (proporcional ao próprio cosseno) entre Min e Max.
	ParamProjectedCosAngle
	// ParamReference: Offset + Scale * valor do parâmetro Ref.
	ParamReference
)

// ParamSpec é um parâmetro do grafo meta: constante, amostrado de uma
// distribuição sobre a semente, ou referência linear a outro parâmetro.
type ParamSpec struct {
	Kind     ParamKind
	Value    float32 // ParamConstant
	Min, Max float32 // distribuições
	Exponent float32 // ParamPowerLaw
	Ref      int     // ParamReference
	Offset   float32 // ParamReference
	Scale    float32 // ParamReference
}

// Constant é o atalho para um parâmetro fixo.
func Constant(v float32) ParamSpec {
	return ParamSpec{Kind: ParamConstant, Value: v}
}

// MetaNode espelha um nó atômico, mas com os campos escalares trocados por
// índices na tabela de parâmetros do grafo meta. Params segue a ordem fixa
// de slots do tipo (ver KindParamCount). Contagens de octavas e sementes
// permanecem literais.
type MetaNode struct {
	Kind          NodeKind
	Child, Child2 int
	Params        []int
	Octaves       int
	Seed          uint64
}

// KindParamCount retorna o número de slots de parâmetro do tipo de nó, na
// ordem consumida pelo rebaixamento:
//
//	Box: extensões x, y, z
//	Sphere: raio
//	Capsule: raio, comprimento
//	GradientNoise: extensões x, y, z, frequência, limiar
//	Translation: deslocamento x, y, z
//	Rotation: eixo x, y, z, ângulo
//	Scaling: fator
//	MultifractalNoise: frequência, lacunaridade, persistência, amplitude
//	MultiscaleSphere: escala máxima, persistência, inflação, suavidade
//	Union/Subtraction/Intersection: suavidade
func KindParamCount(k NodeKind) int {
	switch k {
	case NodeBox, NodeTranslation:
		return 3
	case NodeSphere, NodeScaling:
		return 1
	case NodeCapsule:
		return 2
	case NodeGradientNoise:
		return 5
	case NodeRotation:
		return 4
	case NodeMultifractalNoise, NodeMultiscaleSphere:
		return 4
	default:
		return 1
	}
}

// MetaGraph é o grafo editável: nós com parâmetros probabilísticos e uma
// tabela plana de especificações de parâmetro endereçadas por índice.
type MetaGraph struct {
	Params      []ParamSpec
	Nodes       []MetaNode
	Root        int
	VoxelExtent float32
}

// AddParam anexa uma especificação e retorna seu índice.
func (m *MetaGraph) AddParam(p ParamSpec) int {
	m.Params = append(m.Params, p)
	return len(m.Params) - 1
}

// AddNode anexa um nó meta e retorna seu índice; o último nó vira a raiz.
func (m *MetaGraph) AddNode(n MetaNode) int {
	m.Nodes = append(m.Nodes, n)
	m.Root = len(m.Nodes) - 1
	return m.Root
}

// Estados da avaliação topológica de parâmetros.
const (
	paramUnvisited uint8 = iota
	paramInProgress
	paramDone
)

// paramScratch agrupa os buffers transitórios da avaliação de parâmetros,
// reaproveitados entre rebaixamentos via pool.
type paramScratch struct {
	values []float32
	states []uint8
}

var paramScratchPool = sync.Pool{
	New: func() any { return new(paramScratch) },
}

// Lower rebaixa o grafo meta para um grafo atômico, amostrando os parâmetros
// probabilísticos com a semente dada e resolvendo referências em ordem
// topológica. Ciclos, índices fora do intervalo e filhos ausentes são erros
// de compilação: nenhum grafo atômico é produzido.
func (m *MetaGraph) Lower(seed uint64) (*SDFGraph, error) {
	rng := rand.New(rand.NewSource(int64(seed)))

	scratch := paramScratchPool.Get().(*paramScratch)
	defer paramScratchPool.Put(scratch)
	if cap(scratch.values) < len(m.Params) {
		scratch.values = make([]float32, len(m.Params))
		scratch.states = make([]uint8, len(m.Params))
	}
	values := scratch.values[:len(m.Params)]
	states := scratch.states[:len(m.Params)]
	for i := range states {
		states[i] = paramUnvisited
	}

	// As distribuições são amostradas em ordem de índice para que o mesmo
	// grafo com a mesma semente produza sempre os mesmos valores,
	// independentemente da ordem das referências.
	for i := range m.Params {
		if err := m.evaluateParam(i, rng, values, states); err != nil {
			return nil, err
		}
	}

	g := NewGraph(m.VoxelExtent)
	g.Nodes = make([]Node, 0, len(m.Nodes))
	for i := range m.Nodes {
		n, err := m.lowerNode(i, values)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	g.Root = m.Root
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (m *MetaGraph) evaluateParam(idx int, rng *rand.Rand, values []float32, states []uint8) error {
	if idx < 0 || idx >= len(m.Params) {
		return fmt.Errorf("referência a parâmetro fora do intervalo: %d", idx)
	}
	switch states[idx] {
	case paramDone:
		return nil
	case paramInProgress:
		return fmt.Errorf("ciclo de parâmetros envolvendo o índice %d", idx)
	}
	states[idx] = paramInProgress

	p := m.Params[idx]
	switch p.Kind {
	case ParamConstant:
		values[idx] = p.Value
	case ParamUniform:
		values[idx] = p.Min + rng.Float32()*(p.Max-p.Min)
	case ParamPowerLaw:
		values[idx] = samplePowerLaw(rng.Float64(), float64(p.Min), float64(p.Max), float64(p.Exponent))
	case ParamUniformCosAngle:
		c := util.Lerp(math.Cos(float64(p.Min)), math.Cos(float64(p.Max)), rng.Float64())
		values[idx] = float32(math.Acos(util.Clamp(c, -1, 1)))
	case ParamProjectedCosAngle:
		c0, c1 := math.Cos(float64(p.Min)), math.Cos(float64(p.Max))
		c := math.Sqrt(util.Lerp(c0*c0, c1*c1, rng.Float64()))
		values[idx] = float32(math.Acos(util.Clamp(c, -1, 1)))
	case ParamReference:
		if err := m.evaluateParam(p.Ref, rng, values, states); err != nil {
			return err
		}
		values[idx] = p.Offset + p.Scale*values[p.Ref]
	default:
		return fmt.Errorf("tipo de parâmetro desconhecido %d no índice %d", p.Kind, idx)
	}
	states[idx] = paramDone
	return nil
}

// samplePowerLaw inverte a CDF da densidade x^e em [min, max].
func samplePowerLaw(r, min, max, e float64) float32 {
	if min <= 0 {
		min = 1e-9
	}
	if e == -1 {
		return float32(min * math.Exp(r*math.Log(max/min)))
	}
	a := math.Pow(min, e+1)
	b := math.Pow(max, e+1)
	return float32(math.Pow(a+r*(b-a), 1/(e+1)))
}

func (m *MetaGraph) lowerNode(idx int, values []float32) (Node, error) {
	mn := &m.Nodes[idx]
	want := KindParamCount(mn.Kind)
	if len(mn.Params) != want {
		return Node{}, fmt.Errorf("nó %d (%s): %d parâmetros, esperados %d",
			idx, KindName(mn.Kind), len(mn.Params), want)
	}
	v := make([]float32, want)
	for i, pi := range mn.Params {
		if pi < 0 || pi >= len(values) {
			return Node{}, fmt.Errorf("nó %d (%s): índice de parâmetro fora do intervalo: %d",
				idx, KindName(mn.Kind), pi)
		}
		v[i] = values[pi]
	}

	arity := KindArity(mn.Kind)
	if arity != ArityLeaf && (mn.Child < 0 || mn.Child >= len(m.Nodes)) {
		return Node{}, fmt.Errorf("nó %d (%s): filho ausente", idx, KindName(mn.Kind))
	}
	if arity == ArityBinary && (mn.Child2 < 0 || mn.Child2 >= len(m.Nodes)) {
		return Node{}, fmt.Errorf("nó %d (%s): segundo filho ausente", idx, KindName(mn.Kind))
	}

	n := Node{Kind: mn.Kind, Child: mn.Child, Child2: mn.Child2, Octaves: mn.Octaves, Seed: mn.Seed}
	switch mn.Kind {
	case NodeBox:
		n.Extents = mgl32.Vec3{v[0], v[1], v[2]}
	case NodeSphere:
		n.Radius = v[0]
	case NodeCapsule:
		n.Radius, n.Length = v[0], v[1]
	case NodeGradientNoise:
		n.Extents = mgl32.Vec3{v[0], v[1], v[2]}
		n.Frequency, n.Threshold = v[3], v[4]
	case NodeTranslation:
		n.Offset = mgl32.Vec3{v[0], v[1], v[2]}
	case NodeRotation:
		axis := mgl32.Vec3{v[0], v[1], v[2]}
		if axis.Len() == 0 {
			return Node{}, fmt.Errorf("nó %d (Rotation): eixo nulo", idx)
		}
		n.Rotation = mgl32.QuatRotate(v[3], axis.Normalize())
	case NodeScaling:
		if v[0] <= 0 {
			return Node{}, fmt.Errorf("nó %d (Scaling): fator %g não-positivo", idx, v[0])
		}
		n.Scale = v[0]
	case NodeMultifractalNoise:
		n.Frequency, n.Lacunarity, n.Persistence, n.Amplitude = v[0], v[1], v[2], v[3]
	case NodeMultiscaleSphere:
		n.MaxScale, n.Persistence, n.Inflation, n.Smoothness = v[0], v[1], v[2], v[3]
	default:
		n.Smoothness = v[0]
	}
	return n, nil
}
