package sdf

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	sdfx "github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
)

// Verificação de interface em tempo de compilação.
var _ sdfx.SDF3 = (*SDF3Adapter)(nil)

// defaultMeshCells controla a resolução do marching cubes na exportação.
const defaultMeshCells = 200

// SDF3Adapter expõe um SDFGraph como sdf.SDF3 da biblioteca sdfx, para
// exportar receitas como malhas STL pelo pipeline de renderização dela.
type SDF3Adapter struct {
	Graph *SDFGraph
}

// Evaluate implementa sdf.SDF3.
func (a *SDF3Adapter) Evaluate(p v3.Vec) float64 {
	return float64(a.Graph.Distance(mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}))
}

// BoundingBox implementa sdf.SDF3 com as extensões conservadoras do grafo.
func (a *SDF3Adapter) BoundingBox() sdfx.Box3 {
	e := a.Graph.DomainExtents()
	half := v3.Vec{X: float64(e.X()) * 0.5, Y: float64(e.Y()) * 0.5, Z: float64(e.Z()) * 0.5}
	return sdfx.Box3{Min: half.Neg(), Max: half}
}

// ExportSTL tessela o grafo com marching cubes e grava a malha em path.
func ExportSTL(g *SDFGraph, path string) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("grafo inválido para exportação: %w", err)
	}
	render.ToSTL(&SDF3Adapter{Graph: g}, path, render.NewMarchingCubesUniform(defaultMeshCells))
	return nil
}
