package main

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/servidor/internal/sim"
	"VoxelForge/shared/config"
	"VoxelForge/shared/sdf"
	"VoxelForge/shared/storage"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// recipeName é a única receita servida por enquanto.
const recipeName = "asteroide"

// densidade do meio ambiente usada pelo arrasto, em massa por volume.
const ambientDensity = 1.2

func worldTypeRegistry() *voxel.TypeRegistry {
	return voxel.StandardTypeRegistry()
}

// spawnFromRecipe rebaixa a receita padrão com a semente dada e adota o
// objeto resultante como corpo dinâmico na posição pedida. Se o store tiver
// um mapa de arrasto pré-computado para esta instância da receita, ele é
// ligado ao corpo.
func spawnFromRecipe(world *sim.World, store *storage.ObjectStore, cfg *config.Config, seed uint32, pos [3]float32) error {
	meta := sdf.AsteroidMetaGraph(cfg.VoxelExtent)
	graph, err := meta.Lower(uint64(seed))
	if err != nil {
		return fmt.Errorf("rebaixamento da receita: %w", err)
	}

	types := sdf.GradientNoiseTypeField{
		Types:     []voxel.VoxelType{0, 1, 2},
		Frequency: 0.9,
		Seed:      uint64(seed)*2654435761 + 1,
	}
	tr := util.Similarity{
		Translation: mgl32.Vec3{pos[0], pos[1], pos[2]},
		Rotation:    mgl32.QuatIdent(),
		Scale:       1,
	}
	id, err := world.SpawnGenerated(graph, types, cfg.VoxelExtent, tr, true)
	if err != nil {
		return err
	}

	if store != nil && store.DB != nil {
		key := sdf.RecipeKey(recipeName, seed, cfg.VoxelExtent)
		if dragMap, err := store.LoadDragMap(key); err == nil {
			if err := world.AttachDragMap(id, dragMap, ambientDensity); err == nil {
				log.Printf("[Sim] Mapa de arrasto %q ligado ao objeto %d", key, id)
			}
		}
	}
	return nil
}
