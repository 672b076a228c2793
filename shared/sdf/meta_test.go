package sdf

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRebaixamentoDeGrafoMetaConstante(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.1}
	r := m.AddParam(Constant(2.5))
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{r}})

	g, err := m.Lower(1)
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes[g.Root].Radius != 2.5 {
		t.Errorf("raio rebaixado = %g, want 2.5", g.Nodes[g.Root].Radius)
	}
}

func TestCicloDeParametrosFalhaSemGrafo(t *testing.T) {
	// Parâmetro 1 referencia o 0, que referencia o 1: erro de compilação.
	m := &MetaGraph{VoxelExtent: 0.1}
	m.AddParam(ParamSpec{Kind: ParamReference, Ref: 1, Scale: 1})
	m.AddParam(ParamSpec{Kind: ParamReference, Ref: 0, Scale: 1})
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{0}})

	g, err := m.Lower(1)
	if err == nil {
		t.Fatal("ciclo de parâmetros deveria falhar na compilação")
	}
	if g != nil {
		t.Error("nenhum grafo atômico deveria ser produzido")
	}
	if !strings.Contains(err.Error(), "ciclo") {
		t.Errorf("erro deveria mencionar o ciclo: %v", err)
	}
}

func TestReferenciaForaDoIntervaloFalha(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.1}
	m.AddParam(ParamSpec{Kind: ParamReference, Ref: 9, Scale: 1})
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{0}})

	if _, err := m.Lower(1); err == nil {
		t.Fatal("referência fora do intervalo deveria falhar")
	}
}

func TestIndiceDeParametroDoNoForaDoIntervaloFalha(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.1}
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{3}})

	if _, err := m.Lower(1); err == nil {
		t.Fatal("índice de parâmetro inexistente deveria falhar")
	}
}

func TestFilhoAusenteFalha(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.1}
	s := m.AddParam(Constant(0.2))
	m.AddNode(MetaNode{Kind: NodeUnion, Child: -1, Child2: -1, Params: []int{s}})

	if _, err := m.Lower(1); err == nil {
		t.Fatal("operador binário sem filhos deveria falhar")
	}
}

func TestReferenciaAplicaOffsetEScale(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.1}
	base := m.AddParam(Constant(3))
	ref := m.AddParam(ParamSpec{Kind: ParamReference, Ref: base, Offset: 1, Scale: 2})
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{ref}})

	g, err := m.Lower(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Nodes[g.Root].Radius; got != 7 {
		t.Errorf("referência 1 + 2*3: raio = %g, want 7", got)
	}
}

func TestReferenciaEncadeadaAvaliaEmOrdemTopologica(t *testing.T) {
	// A referência aponta para um parâmetro declarado DEPOIS dela; a
	// avaliação topológica resolve mesmo assim.
	m := &MetaGraph{VoxelExtent: 0.1}
	m.AddParam(ParamSpec{Kind: ParamReference, Ref: 1, Offset: 0.5, Scale: 1})
	m.AddParam(Constant(1.5))
	m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{0}})

	g, err := m.Lower(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Nodes[g.Root].Radius; got != 2 {
		t.Errorf("raio = %g, want 2", got)
	}
}

func TestAmostragemDeterministicaPorSemente(t *testing.T) {
	build := func() *MetaGraph {
		m := &MetaGraph{VoxelExtent: 0.1}
		r := m.AddParam(ParamSpec{Kind: ParamUniform, Min: 1, Max: 4})
		m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{r}})
		return m
	}
	a, err := build().Lower(99)
	if err != nil {
		t.Fatal(err)
	}
	b, err := build().Lower(99)
	if err != nil {
		t.Fatal(err)
	}
	if a.Nodes[a.Root].Radius != b.Nodes[b.Root].Radius {
		t.Error("a mesma semente deveria produzir o mesmo grafo atômico")
	}
	c, err := build().Lower(100)
	if err != nil {
		t.Fatal(err)
	}
	if c.Nodes[c.Root].Radius == a.Nodes[a.Root].Radius {
		t.Error("sementes distintas deveriam amostrar valores distintos")
	}
}

func TestDistribuicoesRespeitamOsLimites(t *testing.T) {
	cases := []struct {
		name   string
		spec   ParamSpec
		lo, hi float32
	}{
		{"uniforme", ParamSpec{Kind: ParamUniform, Min: 2, Max: 5}, 2, 5},
		{"lei de potência", ParamSpec{Kind: ParamPowerLaw, Min: 1, Max: 8, Exponent: -2}, 1, 8},
		{"lei de potência expoente -1", ParamSpec{Kind: ParamPowerLaw, Min: 0.5, Max: 2, Exponent: -1}, 0.5, 2},
		{"cos-ângulo uniforme", ParamSpec{Kind: ParamUniformCosAngle, Min: 0.2, Max: 1.2}, 0.2, 1.2},
		{"cos-ângulo projetado", ParamSpec{Kind: ParamProjectedCosAngle, Min: 0.2, Max: 1.2}, 0.2, 1.2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for seed := uint64(0); seed < 32; seed++ {
				m := &MetaGraph{VoxelExtent: 0.1}
				r := m.AddParam(c.spec)
				m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{r}})
				g, err := m.Lower(seed)
				if err != nil {
					t.Fatal(err)
				}
				got := g.Nodes[g.Root].Radius
				if float64(got) < float64(c.lo)-1e-5 || float64(got) > float64(c.hi)+1e-5 {
					t.Fatalf("semente %d: valor %g fora de [%g, %g]", seed, got, c.lo, c.hi)
				}
			}
		})
	}
}

func TestRebaixamentoDeGrafoComposto(t *testing.T) {
	m := &MetaGraph{VoxelExtent: 0.05}
	radius := m.AddParam(Constant(2))
	smooth := m.AddParam(Constant(0.3))
	bx := m.AddParam(Constant(3))
	by := m.AddParam(Constant(1))
	bz := m.AddParam(Constant(1))

	sphere := m.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{radius}})
	box := m.AddNode(MetaNode{Kind: NodeBox, Child: -1, Child2: -1, Params: []int{bx, by, bz}})
	m.AddNode(MetaNode{Kind: NodeUnion, Child: sphere, Child2: box, Params: []int{smooth}})

	g, err := m.Lower(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	// O centro pertence às duas primitivas.
	if d := g.Distance(mgl32.Vec3{0, 0, 0}); d >= 0 {
		t.Errorf("centro deveria ser interno: %g", d)
	}
	if math.IsNaN(float64(g.Distance(mgl32.Vec3{10, 10, 10}))) {
		t.Error("avaliação produziu NaN")
	}
}
