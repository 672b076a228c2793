package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config armazena as configurações do VoxelForge.
type Config struct {
	// Janela
	WindowWidth  int32  `json:"window_width"`
	WindowHeight int32  `json:"window_height"`
	WindowTitle  string `json:"window_title"`
	Fullscreen   bool   `json:"fullscreen"`
	TargetFPS    int32  `json:"target_fps"`

	// Servidor VoxelForge (usado pelo cliente)
	ServerURL string `json:"server_url"`

	// Servidor (bind e mundo)
	ListenAddr string `json:"listen_addr"`
	WorldName  string `json:"world_name"`
	WorldSeed  uint32 `json:"world_seed"`

	// Simulação
	TickRate        int     `json:"tick_rate"`         // passos de física por segundo
	AbsorptionRate  float32 `json:"absorption_rate"`   // voxels de distância por segundo
	VoxelExtent     float32 `json:"voxel_extent"`      // aresta de voxel dos objetos gerados
	DragSmoothness  float32 `json:"drag_smoothness"`   // sigma angular dos mapas de arrasto
	DragThetaCells  uint32  `json:"drag_theta_cells"`  // resolução polar dos mapas de arrasto
	AutosaveSeconds int     `json:"autosave_seconds"`  // 0 desliga o autosave
	StatusInterval  int     `json:"status_interval"`   // ticks entre WorldStatus
	MaxVoxelObjects int     `json:"max_voxel_objects"` // limite de objetos simulados

	// Renderização
	MesherThreads int     `json:"mesher_threads"`
	FOV           float32 `json:"fov"`
	DrawDistance  float32 `json:"draw_distance"`

	// Câmera
	CameraSpeed       float32 `json:"camera_speed"`
	CameraSensitivity float32 `json:"camera_sensitivity"`
	ZoomSpeed         float32 `json:"zoom_speed"`

	// Debug
	ShowDebugInfo bool `json:"show_debug_info"`
	WireframeMode bool `json:"wireframe_mode"`
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "VoxelForge",
		Fullscreen:   false,
		TargetFPS:    60,

		ServerURL: "ws://127.0.0.1:8080/ws",

		ListenAddr: ":8080",
		WorldName:  "mundo",
		WorldSeed:  1,

		TickRate:        30,
		AbsorptionRate:  4.0,
		VoxelExtent:     0.25,
		DragSmoothness:  0.15,
		DragThetaCells:  16,
		AutosaveSeconds: 60,
		StatusInterval:  30,
		MaxVoxelObjects: 256,

		MesherThreads: 4,
		FOV:           60.0,
		DrawDistance:  200.0,

		CameraSpeed:       10.0,
		CameraSensitivity: 0.3,
		ZoomSpeed:         5.0,

		ShowDebugInfo: true,
		WireframeMode: false,
	}
}

// configPath retorna o caminho do arquivo de configuração.
func configPath() string {
	execDir, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execDir), "config.json")
}

// Load carrega as configurações de um arquivo JSON.
// Se o arquivo não existir, retorna as configurações padrão.
func Load() *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig()
	}

	return cfg
}

// Save salva as configurações em um arquivo JSON.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0644)
}
