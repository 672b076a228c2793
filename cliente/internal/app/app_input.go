package app

import (
	"log"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"VoxelForge/cliente/internal/camera"
)

// updateCamera atualiza a câmera baseado no input.
func (a *App) updateCamera() {
	dt := rl.GetFrameTime()

	a.Cam.HandleInput(dt)
	a.Cam.Update(dt)

	// Alternar projeção com P
	if rl.IsKeyPressed(rl.KeyP) {
		if a.Cam.Mode == camera.ModePerspective {
			a.Cam.SetMode(camera.ModeOrthographic)
			log.Println("[Camera] Modo Ortográfico")
		} else {
			a.Cam.SetMode(camera.ModePerspective)
			log.Println("[Camera] Modo Perspectiva")
		}
	}
}

// updateInput processa entradas de teclado gerais.
func (a *App) updateInput() {
	// Toggle debug info
	if rl.IsKeyPressed(rl.KeyF3) {
		a.Config.ShowDebugInfo = !a.Config.ShowDebugInfo
	}

	// Toggle wireframe
	if rl.IsKeyPressed(rl.KeyF4) {
		a.Config.WireframeMode = !a.Config.WireframeMode
	}

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// N: pedir um novo objeto da receita no alvo da câmera
	if rl.IsKeyPressed(rl.KeyN) && a.netClient != nil && a.netClient.IsConnected() {
		a.spawnCounter++
		seed := a.Config.WorldSeed + a.spawnCounter
		target := a.Cam.CurrentLookAt
		a.netClient.RequestSpawn(seed, mgl32.Vec3{target.X, target.Y, target.Z})
		log.Printf("[App] Spawn pedido (seed %d) em (%.1f, %.1f, %.1f)",
			seed, target.X, target.Y, target.Z)
	}

	// X: absorver um naco do objeto focado
	if rl.IsKeyDown(rl.KeyX) && a.hasFocus && a.netClient != nil && a.netClient.IsConnected() {
		if center, _, ok := a.focusedObjectInfo(); ok {
			a.netClient.RequestAbsorb(a.focusedObject, center, 1.0)
		}
	}

	// ESC: Alternar Pausa
	if rl.IsKeyPressed(rl.KeyEscape) {
		if a.State == StateViewing {
			a.State = StatePaused
			log.Println("[App] Pausado")
		} else if a.State == StatePaused {
			a.State = StateViewing
			log.Println("[App] Retomando")
		}
	}
}
