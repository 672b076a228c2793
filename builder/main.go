package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/shared/mesh"
	"VoxelForge/shared/physics"
	"VoxelForge/shared/sdf"
	"VoxelForge/shared/storage"
	"VoxelForge/shared/voxel"
)

// Cores para o terminal (ANSI)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

func main() {
	fmt.Println(ColorCyan + "╔══════════════════════════════════════╗" + ColorReset)
	fmt.Println(ColorCyan + "║      VoxelForge Asset Builder        ║" + ColorReset)
	fmt.Println(ColorCyan + "╚══════════════════════════════════════╝" + ColorReset)

	worldName := flag.String("world", "mundo", "Mundo cujo banco recebe o mapa de arrasto")
	seed := flag.Uint("seed", 1, "Semente da instância da receita")
	voxelExtent := flag.Float64("voxel", 0.25, "Aresta de voxel da geração")
	thetaCells := flag.Uint("theta", 16, "Resolução polar do mapa de arrasto")
	smoothness := flag.Float64("smooth", 0.15, "Sigma angular da suavização do mapa")
	stlPath := flag.String("stl", "", "Caminho opcional para exportar a receita em STL")
	flag.Parse()

	start := time.Now()

	// 1. Rebaixar a receita
	fmt.Println(ColorYellow + "\n[1/4] Rebaixando a receita..." + ColorReset)
	meta := sdf.AsteroidMetaGraph(float32(*voxelExtent))
	graph, err := meta.Lower(uint64(*seed))
	if err != nil {
		fatal(fmt.Errorf("rebaixamento da receita: %w", err))
	}
	fmt.Printf("  - Receita %q rebaixada com a semente %d.\n", "asteroide", *seed)

	if *stlPath != "" {
		fmt.Printf("  - Exportando STL para %s...\n", *stlPath)
		if err := sdf.ExportSTL(graph, *stlPath); err != nil {
			fatal(err)
		}
	}

	// 2. Gerar o objeto de voxels
	fmt.Println(ColorYellow + "\n[2/4] Gerando o objeto de voxels..." + ColorReset)
	types := sdf.GradientNoiseTypeField{
		Types:     []voxel.VoxelType{0, 1, 2},
		Frequency: 0.9,
		Seed:      uint64(*seed)*2654435761 + 1,
	}
	obj, err := voxel.GenerateFromField(graph, types, voxel.StandardTypeRegistry(), float32(*voxelExtent))
	if err != nil {
		fatal(fmt.Errorf("geração do objeto: %w", err))
	}
	shape := obj.VoxelGridShape()
	fmt.Printf("  - Grid %dx%dx%d gerado.\n", shape.X, shape.Y, shape.Z)

	// 3. Extrair a superfície e pré-computar o arrasto
	fmt.Println(ColorYellow + "\n[3/4] Pré-computando o mapa de arrasto..." + ColorReset)
	mgr := mesh.NewChunkSubmeshManager()
	mgr.SyncWithObject(obj)
	mgr.Compact()
	fmt.Printf("  - Superfície extraída: %d triângulos.\n", mgr.TriangleCount())

	com := voxel.NewInertialPropertyManagerForObject(obj, voxel.StandardTypeRegistry()).
		Properties().CenterOfMass()
	dragMap := physics.ComputeDragLoadMap(
		mgr.Mesh(),
		mgl32.Vec3{float32(com.X()), float32(com.Y()), float32(com.Z())},
		uint32(*thetaCells),
		float32(*smoothness),
	)
	fmt.Printf("  - Mapa %dx%d células computado.\n", dragMap.ThetaResolution, dragMap.PhiResolution())

	// 4. Persistir no banco do mundo
	fmt.Println(ColorYellow + "\n[4/4] Persistindo no banco do mundo..." + ColorReset)
	store := &storage.ObjectStore{}
	if err := store.OpenInitialize(*worldName); err != nil {
		fatal(fmt.Errorf("abrindo o banco do mundo %q: %w", *worldName, err))
	}
	defer store.Close()

	key := sdf.RecipeKey("asteroide", uint32(*seed), float32(*voxelExtent))
	if err := store.SaveDragMap(key, dragMap); err != nil {
		fatal(fmt.Errorf("salvando o mapa de arrasto: %w", err))
	}
	fmt.Printf("  - Mapa salvo com a chave %q.\n", key)

	fmt.Printf("\n"+ColorCyan+"Pré-computação finalizada em %v!"+ColorReset+"\n",
		time.Since(start).Round(time.Millisecond))
	fmt.Println(ColorGreen + "O servidor ligará o mapa automaticamente ao servir esta instância." + ColorReset)
}

func fatal(err error) {
	fmt.Printf("\n"+ColorRed+"[ERRO FATAL] %v"+ColorReset+"\n", err)
	os.Exit(1)
}
