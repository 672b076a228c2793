package voxel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// VoxelTypeSpec descreve um tipo de voxel registrado: nome, densidade de
// massa (massa por unidade de volume do mundo) e cor de exibição.
type VoxelTypeSpec struct {
	Name        string
	MassDensity float32
	Color       mgl32.Vec3
}

// TypeRegistry mapeia tipos de voxel para suas propriedades físicas e de
// exibição. O registro é imutável após a construção; consultas são livres de
// sincronização.
type TypeRegistry struct {
	specs []VoxelTypeSpec
}

// NewTypeRegistry constrói um registro a partir dos specs dados, na ordem em
// que os tipos serão numerados. Falha em densidades não-positivas e em mais
// de 255 tipos (o valor 255 é o sentinela de tipo vazio).
func NewTypeRegistry(specs []VoxelTypeSpec) (*TypeRegistry, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("registro de tipos de voxel vazio")
	}
	if len(specs) >= int(EmptyVoxelType) {
		return nil, fmt.Errorf("número de tipos de voxel (%d) excede o máximo de %d", len(specs), EmptyVoxelType-1)
	}
	for i, s := range specs {
		if s.MassDensity <= 0 {
			return nil, fmt.Errorf("tipo de voxel %q (índice %d) com densidade inválida %g", s.Name, i, s.MassDensity)
		}
	}
	out := &TypeRegistry{specs: make([]VoxelTypeSpec, len(specs))}
	copy(out.specs, specs)
	return out, nil
}

// DefaultTypeRegistry retorna um registro mínimo com um único tipo de
// densidade unitária, suficiente para objetos de teste.
func DefaultTypeRegistry() *TypeRegistry {
	r, _ := NewTypeRegistry([]VoxelTypeSpec{
		{Name: "default", MassDensity: 1, Color: mgl32.Vec3{0.7, 0.7, 0.7}},
	})
	return r
}

// StandardTypeRegistry retorna o registro do mundo padrão, compartilhado por
// servidor, cliente e builder para que índices de material coincidam nas três
// pontas.
func StandardTypeRegistry() *TypeRegistry {
	r, err := NewTypeRegistry([]VoxelTypeSpec{
		{Name: "rocha", MassDensity: 2.6, Color: mgl32.Vec3{0.45, 0.40, 0.36}},
		{Name: "metal", MassDensity: 7.8, Color: mgl32.Vec3{0.62, 0.60, 0.58}},
		{Name: "gelo", MassDensity: 0.9, Color: mgl32.Vec3{0.75, 0.85, 0.95}},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Count retorna o número de tipos registrados.
func (r *TypeRegistry) Count() int {
	return len(r.specs)
}

// Contains verifica se o tipo existe no registro.
func (r *TypeRegistry) Contains(t VoxelType) bool {
	return int(t) < len(r.specs)
}

// Spec retorna o descritor do tipo. Tipos desconhecidos são erro de programação.
func (r *TypeRegistry) Spec(t VoxelType) VoxelTypeSpec {
	return r.specs[t]
}

// MassDensity retorna a densidade de massa do tipo.
func (r *TypeRegistry) MassDensity(t VoxelType) float32 {
	return r.specs[t].MassDensity
}

// Color retorna a cor de exibição do tipo.
func (r *TypeRegistry) Color(t VoxelType) mgl32.Vec3 {
	return r.specs[t].Color
}
