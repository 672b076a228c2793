package voxel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/util"
)

// SignedDistanceField é o contrato do avaliador de SDF consumido pela
// geração: distâncias em unidades de mundo, campo centrado na origem.
type SignedDistanceField interface {
	// DomainExtents retorna as extensões totais do domínio do campo.
	DomainExtents() mgl32.Vec3
	// Distance avalia a distância com sinal no ponto dado.
	Distance(p mgl32.Vec3) float32
}

// VoxelTypeField atribui um tipo a cada voxel não-vazio gerado.
type VoxelTypeField interface {
	TypeAt(c util.Coord, p mgl32.Vec3) VoxelType
}

// UniformTypeField atribui o mesmo tipo a todos os voxels.
type UniformTypeField struct {
	Type VoxelType
}

// TypeAt implementa VoxelTypeField.
func (f UniformTypeField) TypeAt(util.Coord, mgl32.Vec3) VoxelType {
	return f.Type
}

// GenerateFromField produz um objeto de voxels amostrando o campo nos
// centros de voxel. O grid recebe uma borda de um voxel vazio em cada lado
// (formato = teto(extensões/extensão de voxel) + 2 por eixo) e o centro do
// campo coincide com o centro do grid deslocado de meio voxel, para que as
// amostras caiam em centros de voxel.
func GenerateFromField(field SignedDistanceField, types VoxelTypeField, registry *TypeRegistry, voxelExtent float32) (*ChunkedVoxelObject, error) {
	if field == nil || types == nil {
		return nil, fmt.Errorf("campo de distância ou de tipos ausente")
	}
	extents := field.DomainExtents()
	if extents.X() <= 0 || extents.Y() <= 0 || extents.Z() <= 0 {
		return nil, fmt.Errorf("extensões de domínio inválidas %v", extents)
	}

	gridShape := util.Coord{
		X: int(math.Ceil(float64(extents.X()/voxelExtent))) + 2,
		Y: int(math.Ceil(float64(extents.Y()/voxelExtent))) + 2,
		Z: int(math.Ceil(float64(extents.Z()/voxelExtent))) + 2,
	}
	chunkShape := util.Coord{
		X: (gridShape.X + ChunkSize - 1) / ChunkSize,
		Y: (gridShape.Y + ChunkSize - 1) / ChunkSize,
		Z: (gridShape.Z + ChunkSize - 1) / ChunkSize,
	}
	o, err := NewEmptyObject(voxelExtent, chunkShape)
	if err != nil {
		return nil, err
	}

	// Centro do grid deslocado de -0.5 por eixo: amostragem em centros.
	center := mgl32.Vec3{
		float32(gridShape.X)*0.5 - 0.5,
		float32(gridShape.Y)*0.5 - 0.5,
		float32(gridShape.Z)*0.5 - 0.5,
	}

	scope := o.BeginMutation()
	nonEmpty := 0
	var typeErr error
	util.VoxelRange{Upper: gridShape}.ForEach(func(c util.Coord) {
		if typeErr != nil {
			return
		}
		p := mgl32.Vec3{
			(float32(c.X) - center.X()) * voxelExtent,
			(float32(c.Y) - center.Y()) * voxelExtent,
			(float32(c.Z) - center.Z()) * voxelExtent,
		}
		d := field.Distance(p) / voxelExtent
		if d >= 0 {
			return
		}
		t := types.TypeAt(c, p)
		if !registry.Contains(t) {
			typeErr = fmt.Errorf("tipo de voxel desconhecido %d em %v", t, c)
			return
		}
		o.SetVoxel(c, NewVoxel(t, d))
		nonEmpty++
	})
	scope.Commit()

	if typeErr != nil {
		return nil, typeErr
	}
	if nonEmpty == 0 {
		return nil, fmt.Errorf("campo de distância não produziu nenhum voxel não-vazio")
	}
	return o, nil
}
