package app

import (
	"log"
	"runtime"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"VoxelForge/cliente/internal/assets"
	"VoxelForge/cliente/internal/camera"
	"VoxelForge/cliente/internal/client"
	"VoxelForge/cliente/internal/meshing"
	"VoxelForge/cliente/internal/render"
	"VoxelForge/cliente/internal/scene"
	"VoxelForge/shared/config"
	"VoxelForge/shared/proto/vfnet"
	"VoxelForge/shared/util"
	"VoxelForge/shared/voxel"
)

// AppState representa os estados possíveis da aplicação.
type AppState int

const (
	StateConnecting AppState = iota // Conectando ao servidor
	StateViewing                    // Visualizando o mundo
	StatePaused                     // Pausado
)

// App é a aplicação principal do cliente VoxelForge.
type App struct {
	Config *config.Config
	State  AppState

	Cam *camera.CameraController

	frameCount int

	scene     *scene.Scene
	netClient *client.NetworkClient
	mesher    *meshing.ChunkMesher
	renderer  *render.Renderer

	// Trabalho de extração que não coube na fila do pool; um pedido mais
	// novo para o mesmo chunk substitui o pendente.
	pendingMesh *util.UniqueQueue[meshKey, meshing.Request]

	// Estado vindo da rede; escrito pelos callbacks, lido pelo frame.
	statusMu    sync.Mutex
	statusMsg   string
	worldStatus *vfnet.WorldStatusMessage

	// Objeto sob o cursor de interação (o mais próximo do alvo da câmera).
	focusedObject uint32
	hasFocus      bool

	spawnCounter uint32
}

// New cria uma nova instância da aplicação.
func New(cfg *config.Config) *App {
	return &App{
		Config:      cfg,
		State:       StateConnecting,
		statusMsg:   "Conectando ao servidor...",
		pendingMesh: util.NewUniqueQueue[meshKey, meshing.Request](),
	}
}

// Run inicia o loop principal da aplicação.
func (a *App) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] Erro fatal recuperado: %v", r)
			panic(r)
		}
	}()

	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(a.Config.WindowWidth, a.Config.WindowHeight, a.Config.WindowTitle)
	rl.SetTraceLogLevel(rl.LogWarning)

	if a.Config.Fullscreen {
		rl.ToggleFullscreen()
	}

	rl.SetTargetFPS(a.Config.TargetFPS)
	rl.SetExitKey(0)

	a.Cam = camera.New()
	a.Cam.SetTarget(rl.Vector3{})

	log.Println("[VoxelForge] Janela inicializada com sucesso")
	log.Printf("[VoxelForge] Resolução: %dx%d", a.Config.WindowWidth, a.Config.WindowHeight)

	a.scene = scene.New(voxel.StandardTypeRegistry())
	a.renderer = render.NewRenderer(assets.NewManager(voxel.StandardTypeRegistry()))

	workers := a.Config.MesherThreads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	a.mesher = meshing.NewChunkMesher(workers, a.scene)

	go a.connectServer()

	for !rl.WindowShouldClose() {
		a.update()
		a.draw()
	}

	a.shutdown()
	rl.CloseWindow()
}

// update atualiza a lógica a cada frame.
func (a *App) update() {
	a.frameCount++

	switch a.State {
	case StateConnecting, StateViewing:
		a.renderer.ProcessPurge()
		a.updateCamera()
		a.updateInput()
		a.pumpMeshing()
		a.updateFocus()
	case StatePaused:
		a.updateInput()
	}
}

// shutdown realiza a limpeza de recursos.
func (a *App) shutdown() {
	log.Println("[App] Finalizando aplicação...")

	a.mesher.Stop()
	a.renderer.Shutdown()

	if err := a.Config.Save(); err != nil {
		log.Printf("[VoxelForge] Erro ao salvar configurações: %v", err)
	}
}
