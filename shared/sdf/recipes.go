package sdf

import "fmt"

// AsteroidMetaGraph monta a receita padrão de asteroide: uma esfera de raio
// em lei de potência, esculpida por esferas multi-escala e perturbada por
// ruído multifractal. O rebaixamento com uma semente fixa é determinístico,
// então servidor e builder produzem o mesmo campo.
func AsteroidMetaGraph(voxelExtent float32) *MetaGraph {
	g := &MetaGraph{VoxelExtent: voxelExtent}

	radius := g.AddParam(ParamSpec{Kind: ParamPowerLaw, Min: 1.2, Max: 2.5, Exponent: -2})
	sphere := g.AddNode(MetaNode{Kind: NodeSphere, Child: -1, Child2: -1, Params: []int{radius}})

	// A escala das cavidades acompanha o raio sorteado.
	maxScale := g.AddParam(ParamSpec{Kind: ParamReference, Ref: radius, Scale: 0.35})
	carvePersist := g.AddParam(Constant(0.55))
	inflation := g.AddParam(ParamSpec{Kind: ParamUniform, Min: 0.15, Max: 0.4})
	carveSmooth := g.AddParam(Constant(0.3))
	carved := g.AddNode(MetaNode{
		Kind:    NodeMultiscaleSphere,
		Child:   sphere,
		Child2:  -1,
		Params:  []int{maxScale, carvePersist, inflation, carveSmooth},
		Octaves: 3,
		Seed:    11,
	})

	freq := g.AddParam(ParamSpec{Kind: ParamUniform, Min: 1.5, Max: 3})
	lacunarity := g.AddParam(Constant(2.1))
	persistence := g.AddParam(Constant(0.5))
	amplitude := g.AddParam(ParamSpec{Kind: ParamReference, Ref: radius, Scale: 0.12})
	g.AddNode(MetaNode{
		Kind:    NodeMultifractalNoise,
		Child:   carved,
		Child2:  -1,
		Params:  []int{freq, lacunarity, persistence, amplitude},
		Octaves: 4,
		Seed:    7,
	})
	return g
}

// RecipeKey identifica uma instância concreta de receita para caches em
// disco (mapas de arrasto pré-computados). Mesmo nome, semente e resolução
// implicam o mesmo objeto gerado.
func RecipeKey(name string, seed uint32, voxelExtent float32) string {
	return fmt.Sprintf("%s:v1:seed=%d:h=%g", name, seed, voxelExtent)
}
