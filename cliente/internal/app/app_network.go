package app

import (
	"log"

	"VoxelForge/cliente/internal/client"
	"VoxelForge/shared/proto/vfnet"
)

// connectServer conecta ao servidor VoxelForge e instala os callbacks de
// estado. Roda numa goroutine própria; tudo que toca o frame passa pelo
// statusMu.
func (a *App) connectServer() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] Erro em connectServer: %v", r)
		}
	}()

	a.netClient = client.NewNetworkClient(a.Config.ServerURL, a.scene)

	a.netClient.OnStatus = func(msg string, connected bool) {
		a.statusMu.Lock()
		a.statusMsg = msg
		a.statusMu.Unlock()
		if !connected {
			log.Printf("[App] Conexão encerrada: %s", msg)
		}
	}

	a.netClient.OnWorldStatus = func(status *vfnet.WorldStatusMessage) {
		a.statusMu.Lock()
		a.worldStatus = status
		a.statusMu.Unlock()
	}

	if err := a.netClient.Connect(); err != nil {
		a.statusMu.Lock()
		a.statusMsg = "Falha ao conectar: " + err.Error()
		a.statusMu.Unlock()
		return
	}

	a.statusMu.Lock()
	a.statusMsg = "Conectado a " + a.Config.ServerURL
	a.statusMu.Unlock()
	a.State = StateViewing
	log.Printf("[App] Conectado ao servidor %s", a.Config.ServerURL)
}

// currentStatus devolve uma cópia do estado de rede para o HUD.
func (a *App) currentStatus() (string, *vfnet.WorldStatusMessage) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	return a.statusMsg, a.worldStatus
}
