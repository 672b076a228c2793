package app

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// draw renderiza a cena.
func (a *App) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(13, 13, 23, 255))

	a.drawScene()
	a.drawHUD()

	if a.State == StatePaused {
		a.drawPauseMenu()
	}

	rl.EndDrawing()
}

// drawScene renderiza o mundo 3D replicado.
func (a *App) drawScene() {
	rl.BeginMode3D(a.Cam.RLCamera)

	a.renderer.Draw(a.Cam.RLCamera, a.scene)

	// Marcador do objeto focado
	if a.hasFocus {
		if _, world, ok := a.focusedObjectInfo(); ok {
			rl.DrawSphereWires(world, 0.3, 8, 8, rl.NewColor(255, 200, 60, 160))
		}
	}

	rl.EndMode3D()
}

// drawHUD desenha a interface sobreposta.
func (a *App) drawHUD() {
	status, world := a.currentStatus()

	// Linha de status sempre visível
	statusColor := rl.Red
	if a.netClient != nil && a.netClient.IsConnected() {
		statusColor = rl.Green
	}
	rl.DrawText(status, 10, 10, 16, statusColor)

	if !a.Config.ShowDebugInfo {
		return
	}

	width := int32(340)
	height := int32(230)
	x := int32(rl.GetScreenWidth()) - width - 10
	y := int32(10)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 180))
	rl.DrawRectangleLines(x, y, width, height, rl.NewColor(50, 50, 50, 255))

	fps := rl.GetFPS()
	fpsColor := rl.Green
	if fps < 30 {
		fpsColor = rl.Red
	} else if fps < 50 {
		fpsColor = rl.Yellow
	}
	rl.DrawText(fmt.Sprintf("FPS: %d", fps), x+10, y+10, 20, fpsColor)

	rl.DrawLine(x+10, y+35, x+width-10, y+35, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("MUNDO", x+10, y+45, 12, rl.Gray)
	rl.DrawText(fmt.Sprintf("Objetos: %d | Modelos GPU: %d",
		a.scene.Count(), a.renderer.ModelCount()), x+10, y+60, 14, rl.White)
	rl.DrawText(fmt.Sprintf("Triângulos: %d", a.scene.TriangleCount()), x+10, y+78, 14, rl.LightGray)

	if world != nil {
		rl.DrawText(fmt.Sprintf("Tick do servidor: %d", world.Tick), x+10, y+96, 14, rl.LightGray)
		line := int32(114)
		for _, tally := range world.Absorbed {
			rl.DrawText(fmt.Sprintf("Absorvido tipo %d: %d voxels (%.3f m³)",
				tally.VoxelType, tally.Count, tally.Volume), x+10, y+line, 13, rl.Beige)
			line += 16
			if line > height-50 {
				break
			}
		}
	}

	rl.DrawLine(x+10, y+height-45, x+width-10, y+height-45, rl.NewColor(100, 100, 100, 100))
	rl.DrawText("CONTROLES", x+10, y+height-38, 12, rl.Gray)
	rl.DrawText("WASD: Mover | N: Spawn | X: Absorver", x+10, y+height-24, 14, rl.SkyBlue)
}

// drawPauseMenu escurece a tela e mostra as opções de pausa.
func (a *App) drawPauseMenu() {
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	rl.DrawRectangle(0, 0, w, h, rl.NewColor(0, 0, 0, 140))

	title := "PAUSADO"
	size := int32(40)
	tw := rl.MeasureText(title, size)
	rl.DrawText(title, (w-tw)/2, h/2-60, size, rl.White)

	hint := "ESC: voltar | F11: tela cheia"
	hw := rl.MeasureText(hint, 18)
	rl.DrawText(hint, (w-hw)/2, h/2, 18, rl.LightGray)
}
