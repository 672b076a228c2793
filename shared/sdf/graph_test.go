package sdf

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

func sphereGraph(radius float32) *SDFGraph {
	g := NewGraph(0.1)
	g.AddNode(Node{Kind: NodeSphere, Radius: radius})
	return g
}

func TestDistanciaDaEsfera(t *testing.T) {
	g := sphereGraph(2)
	cases := []struct {
		p    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{0, 0, 0}, -2},
		{mgl32.Vec3{2, 0, 0}, 0},
		{mgl32.Vec3{0, 5, 0}, 3},
		{mgl32.Vec3{0, 0, -1}, -1},
	}
	for _, c := range cases {
		if got := g.Distance(c.p); math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("Distance(%v) = %g, want %g", c.p, got, c.want)
		}
	}
}

func TestDistanciaDaCaixa(t *testing.T) {
	g := NewGraph(0.1)
	g.AddNode(Node{Kind: NodeBox, Extents: mgl32.Vec3{4, 2, 6}})
	cases := []struct {
		p    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{0, 0, 0}, -1},        // face Y mais próxima
		{mgl32.Vec3{2, 0, 0}, 0},         // sobre a face X
		{mgl32.Vec3{3, 0, 0}, 1},         // fora, perpendicular
		{mgl32.Vec3{3, 2, 0}, float32(math.Sqrt2)}, // fora, na aresta
	}
	for _, c := range cases {
		if got := g.Distance(c.p); math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("Distance(%v) = %g, want %g", c.p, got, c.want)
		}
	}
}

func TestDistanciaDaCapsula(t *testing.T) {
	g := NewGraph(0.1)
	g.AddNode(Node{Kind: NodeCapsule, Radius: 1, Length: 4})
	cases := []struct {
		p    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{0, 0, 0}, -1},
		{mgl32.Vec3{0, 2, 0}, -1}, // extremidade do segmento
		{mgl32.Vec3{0, 4, 0}, 1},  // acima da calota
		{mgl32.Vec3{2, 0, 0}, 1},  // lateral
	}
	for _, c := range cases {
		if got := g.Distance(c.p); math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("Distance(%v) = %g, want %g", c.p, got, c.want)
		}
	}
}

func TestOperadoresComSuavidadeZeroSaoExatos(t *testing.T) {
	d1, d2 := float32(-0.5), float32(0.3)
	if got := SmoothUnion(d1, d2, 0); got != -0.5 {
		t.Errorf("união: %g, want -0.5", got)
	}
	if got := SmoothIntersection(d1, d2, 0); got != 0.3 {
		t.Errorf("interseção: %g, want 0.3", got)
	}
	if got := SmoothSubtraction(d1, d2, 0); got != -0.3 {
		t.Errorf("subtração: %g, want max(d1, -d2) = -0.3", got)
	}
}

func TestIdentidadesDosOperadoresSuaves(t *testing.T) {
	// Subtração e interseção são derivadas da união por negação; as
	// identidades valem ponto a ponto para qualquer suavidade.
	for _, s := range []float32{0, 0.1, 0.5, 2} {
		for _, pair := range [][2]float32{{-1, 0.5}, {0.2, 0.3}, {-2, -1.5}, {1, -1}} {
			d1, d2 := pair[0], pair[1]
			wantSub := -SmoothUnion(-d1, d2, s)
			if got := SmoothSubtraction(d1, d2, s); got != wantSub {
				t.Errorf("s=%g d=(%g,%g): subtração %g != %g", s, d1, d2, got, wantSub)
			}
			wantInt := -SmoothUnion(-d1, -d2, s)
			if got := SmoothIntersection(d1, d2, s); got != wantInt {
				t.Errorf("s=%g d=(%g,%g): interseção %g != %g", s, d1, d2, got, wantInt)
			}
		}
	}
}

func TestUniaoSuaveInterpolaEArredonda(t *testing.T) {
	// Longe da costura a união suave coincide com o min; perto dela o
	// resultado é no máximo o min (o blending só adiciona material).
	s := float32(0.5)
	far := SmoothUnion(-3, 1, s)
	if math.Abs(float64(far-(-3))) > 1e-6 {
		t.Errorf("longe da costura: %g, want -3", far)
	}
	near := SmoothUnion(0.1, 0.1, s)
	if near > 0.1 {
		t.Errorf("perto da costura o blending deveria reduzir a distância: %g > 0.1", near)
	}
}

func TestModificadoresDeTransformacao(t *testing.T) {
	g := NewGraph(0.1)
	sphere := g.AddNode(Node{Kind: NodeSphere, Radius: 1})
	g.AddNode(Node{Kind: NodeTranslation, Child: sphere, Offset: mgl32.Vec3{3, 0, 0}})
	if got := g.Distance(mgl32.Vec3{3, 0, 0}); math.Abs(float64(got+1)) > 1e-6 {
		t.Errorf("centro transladado: %g, want -1", got)
	}
	if got := g.Distance(mgl32.Vec3{0, 0, 0}); math.Abs(float64(got-2)) > 1e-6 {
		t.Errorf("origem após translação: %g, want 2", got)
	}

	g2 := NewGraph(0.1)
	box := g2.AddNode(Node{Kind: NodeBox, Extents: mgl32.Vec3{4, 2, 2}})
	g2.AddNode(Node{
		Kind:     NodeRotation,
		Child:    box,
		Rotation: mgl32.QuatRotate(float32(math.Pi/2), mgl32.Vec3{0, 0, 1}),
	})
	// Após girar 90° em Z, o lado longo aponta para Y.
	if got := g2.Distance(mgl32.Vec3{0, 1.5, 0}); got >= 0 {
		t.Errorf("ponto interno após rotação: %g, want < 0", got)
	}
	if got := g2.Distance(mgl32.Vec3{1.5, 0, 0}); got <= 0 {
		t.Errorf("ponto externo após rotação: %g, want > 0", got)
	}

	g3 := NewGraph(0.1)
	s3 := g3.AddNode(Node{Kind: NodeSphere, Radius: 1})
	g3.AddNode(Node{Kind: NodeScaling, Child: s3, Scale: 3})
	if got := g3.Distance(mgl32.Vec3{6, 0, 0}); math.Abs(float64(got-3)) > 1e-6 {
		t.Errorf("escala preserva distâncias métricas: %g, want 3", got)
	}
}

func TestExtensoesDeDominioSaoConservadoras(t *testing.T) {
	g := NewGraph(0.1)
	sphere := g.AddNode(Node{Kind: NodeSphere, Radius: 2})
	g.AddNode(Node{Kind: NodeTranslation, Child: sphere, Offset: mgl32.Vec3{1, 0, 0}})

	e := g.DomainExtents()
	// Todo ponto da superfície do domínio declarado deve estar fora ou na
	// borda do sólido.
	half := e.Mul(0.5)
	corners := []mgl32.Vec3{
		{half.X(), half.Y(), half.Z()}, {-half.X(), -half.Y(), -half.Z()},
		{half.X(), 0, 0}, {-half.X(), 0, 0},
	}
	for _, p := range corners {
		if g.Distance(p) < 0 {
			t.Errorf("ponto %v do limite do domínio está dentro do sólido", p)
		}
	}
}

func TestValidacaoDoGrafo(t *testing.T) {
	cases := []struct {
		name  string
		build func() *SDFGraph
	}{
		{"extensão de voxel abaixo do piso", func() *SDFGraph {
			g := NewGraph(1e-6)
			g.AddNode(Node{Kind: NodeSphere, Radius: 1})
			return g
		}},
		{"grafo vazio", func() *SDFGraph { return NewGraph(0.1) }},
		{"unário sem filho", func() *SDFGraph {
			g := NewGraph(0.1)
			g.AddNode(Node{Kind: NodeTranslation, Child: -1})
			return g
		}},
		{"binário sem segundo filho", func() *SDFGraph {
			g := NewGraph(0.1)
			a := g.AddNode(Node{Kind: NodeSphere, Radius: 1})
			g.AddNode(Node{Kind: NodeUnion, Child: a, Child2: 7})
			return g
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.build().Validate(); err == nil {
				t.Error("Validate deveria falhar")
			}
		})
	}

	g := NewGraph(0.1)
	a := g.AddNode(Node{Kind: NodeSphere, Radius: 1})
	b := g.AddNode(Node{Kind: NodeBox, Extents: mgl32.Vec3{1, 1, 1}})
	g.AddNode(Node{Kind: NodeUnion, Child: a, Child2: b, Smoothness: 0.1})
	if err := g.Validate(); err != nil {
		t.Errorf("grafo válido rejeitado: %v", err)
	}
}

func TestRuidoDeGradienteDeterministicoELimitado(t *testing.T) {
	points := []mgl32.Vec3{
		{0.3, 0.7, 1.2}, {-4.5, 2.1, 0}, {100.5, -3.25, 7.75}, {0.01, 0.01, 0.01},
	}
	for _, p := range points {
		a := GradientNoise(p, 42)
		b := GradientNoise(p, 42)
		if a != b {
			t.Errorf("ruído não determinístico em %v: %g != %g", p, a, b)
		}
		if a < -1.8 || a > 1.8 {
			t.Errorf("ruído fora do intervalo esperado em %v: %g", p, a)
		}
		if c := GradientNoise(p, 43); c == a {
			t.Errorf("sementes distintas produziram o mesmo valor em %v", p)
		}
	}
}

func TestMultifractalSemOctavasEhIdentidade(t *testing.T) {
	g := NewGraph(0.1)
	sphere := g.AddNode(Node{Kind: NodeSphere, Radius: 2})
	g.AddNode(Node{Kind: NodeMultifractalNoise, Child: sphere, Octaves: 0, Amplitude: 1})

	p := mgl32.Vec3{0.5, 1, -0.25}
	if got, want := g.Distance(p), p.Len()-2; math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("octavas=0 deveria ser identidade: %g != %g", got, want)
	}
}

func TestMultifractalPerturbacaoLimitadaPelaAmplitude(t *testing.T) {
	amplitude := float32(0.25)
	g := NewGraph(0.1)
	sphere := g.AddNode(Node{Kind: NodeSphere, Radius: 2})
	g.AddNode(Node{
		Kind: NodeMultifractalNoise, Child: sphere,
		Octaves: 4, Frequency: 1.5, Lacunarity: 2, Persistence: 0.5,
		Amplitude: amplitude, Seed: 7,
	})

	// A normalização garante que a soma das amplitudes das octavas é
	// exatamente a amplitude nominal; com ruído em ~[-1, 1] a perturbação
	// fica limitada por um pequeno múltiplo dela.
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1.3, 0.2, -0.7}, {-2, 1, 1}} {
		base := p.Len() - 2
		got := g.Distance(p)
		if math.Abs(float64(got-base)) > float64(2*amplitude) {
			t.Errorf("perturbação em %v excede o limite: |%g - %g| > %g", p, got, base, 2*amplitude)
		}
	}
}

func TestMultiscaleSphereMantemDeterminismo(t *testing.T) {
	build := func() *SDFGraph {
		g := NewGraph(0.1)
		sphere := g.AddNode(Node{Kind: NodeSphere, Radius: 3})
		g.AddNode(Node{
			Kind: NodeMultiscaleSphere, Child: sphere,
			Octaves: 3, MaxScale: 1, Persistence: 0.5,
			Inflation: 0.2, Smoothness: 0.3, Seed: 11,
		})
		return g
	}
	a, b := build(), build()
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {2.5, 0.5, -1}, {-3, 3, 0.25}} {
		if da, db := a.Distance(p), b.Distance(p); da != db {
			t.Errorf("avaliação não determinística em %v: %g != %g", p, da, db)
		}
	}
}

func TestCampoDeTipoPorRuido(t *testing.T) {
	f := GradientNoiseTypeField{Types: []voxel.VoxelType{0, 1, 2}, Frequency: 0.8, Seed: 5}
	seen := map[voxel.VoxelType]bool{}
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			p := mgl32.Vec3{float32(x) * 0.9, float32(y) * 1.1, 0.3}
			vt := f.TypeAt(util.Coord{}, p)
			if vt > 2 {
				t.Fatalf("tipo fora da paleta: %d", vt)
			}
			seen[vt] = true
		}
	}
	if len(seen) < 2 {
		t.Error("o campo de ruído deveria produzir mais de um tipo na amostra")
	}
}
