// Package storage persiste objetos de voxels e mapas de arrasto em SQLite
// via GORM. Os snapshots viajam em GOB; os mapas de arrasto usam o formato
// binário próprio do pacote physics.
package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"VoxelForge/shared/physics"
	"VoxelForge/shared/voxel"
)

// VoxelObjectModel representa o esquema do banco para um objeto de voxels.
type VoxelObjectModel struct {
	Name      string `gorm:"primaryKey"`
	Data      []byte // ObjectSnapshot serializado em GOB
	MTime     int64  // Versão/Timestamp
	UpdatedAt time.Time
}

// DragMapModel guarda um mapa de arrasto pré-computado, chaveado pelo hash
// da receita que gerou a malha.
type DragMapModel struct {
	RecipeHash string `gorm:"primaryKey"`
	Data       []byte // formato binário de physics.DragLoadMap
	UpdatedAt  time.Time
}

// WorldMetadata armazena informações globais do mundo no banco.
type WorldMetadata struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const CurrentFormatVersion = 1

// ObjectStore envelopa a conexão GORM do mundo.
type ObjectStore struct {
	DB *gorm.DB
}

// OpenInitialize abre (ou cria) o banco SQLite do mundo e roda migrações.
func (s *ObjectStore) OpenInitialize(worldName string) error {
	if err := os.MkdirAll("saves", 0755); err != nil {
		return err
	}

	dbPath := filepath.Join("saves", fmt.Sprintf("%s.vf", worldName))

	// Logger silencioso em produção
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("falha ao conectar no SQLite: %w", err)
	}

	if err := db.AutoMigrate(&VoxelObjectModel{}, &DragMapModel{}, &WorldMetadata{}); err != nil {
		return fmt.Errorf("falha na migração do banco: %w", err)
	}

	s.DB = db

	db.Save(&WorldMetadata{Key: "FormatVersion", Value: fmt.Sprint(CurrentFormatVersion)})
	db.Save(&WorldMetadata{Key: "WorldName", Value: worldName})

	log.Printf("[Persistence] Banco de dados SQLite aberto: %s", dbPath)
	return nil
}

// SaveObject serializa o snapshot do objeto e faz upsert pela chave dada.
func (s *ObjectStore) SaveObject(name string, o *voxel.ChunkedVoxelObject, mtime int64) error {
	if s.DB == nil {
		return fmt.Errorf("banco de dados não inicializado")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(o.Snapshot()); err != nil {
		log.Printf("[Persistence] ERRO Crítico GOB: %v", err)
		return err
	}

	model := VoxelObjectModel{
		Name:  name,
		Data:  buf.Bytes(),
		MTime: mtime,
	}
	if err := s.DB.Save(&model).Error; err != nil {
		log.Printf("[Persistence] ERRO ao salvar objeto %s: %v", name, err)
		return err
	}
	return nil
}

// LoadObject reconstrói um objeto persistido, com flags e regiões refeitos
// e todos os chunks ocupados marcados para remesh.
func (s *ObjectStore) LoadObject(name string) (*voxel.ChunkedVoxelObject, int64, error) {
	if s.DB == nil {
		return nil, 0, fmt.Errorf("banco de dados não inicializado")
	}

	var model VoxelObjectModel
	if err := s.DB.First(&model, "name = ?", name).Error; err != nil {
		return nil, 0, err
	}

	var snap voxel.ObjectSnapshot
	if err := gob.NewDecoder(bytes.NewReader(model.Data)).Decode(&snap); err != nil {
		return nil, 0, err
	}
	o, err := voxel.FromSnapshot(snap)
	if err != nil {
		return nil, 0, err
	}
	return o, model.MTime, nil
}

// ListObjectNames devolve as chaves dos objetos persistidos.
func (s *ObjectStore) ListObjectNames() ([]string, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("banco de dados não inicializado")
	}
	var names []string
	if err := s.DB.Model(&VoxelObjectModel{}).Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// DeleteObject remove o objeto persistido; chaves ausentes são inofensivas.
func (s *ObjectStore) DeleteObject(name string) error {
	if s.DB == nil {
		return fmt.Errorf("banco de dados não inicializado")
	}
	return s.DB.Delete(&VoxelObjectModel{}, "name = ?", name).Error
}

// SaveDragMap faz upsert do mapa de arrasto sob o hash da receita.
func (s *ObjectStore) SaveDragMap(recipeHash string, m *physics.DragLoadMap) error {
	if s.DB == nil {
		return fmt.Errorf("banco de dados não inicializado")
	}
	model := DragMapModel{
		RecipeHash: recipeHash,
		Data:       m.EncodeBinary(),
	}
	if err := s.DB.Save(&model).Error; err != nil {
		log.Printf("[Persistence] ERRO ao salvar mapa de arrasto %s: %v", recipeHash, err)
		return err
	}
	return nil
}

// LoadDragMap busca e decodifica o mapa de arrasto da receita.
func (s *ObjectStore) LoadDragMap(recipeHash string) (*physics.DragLoadMap, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("banco de dados não inicializado")
	}
	var model DragMapModel
	if err := s.DB.First(&model, "recipe_hash = ?", recipeHash).Error; err != nil {
		return nil, err
	}
	return physics.DecodeDragLoadMap(model.Data)
}

// SetMetadata grava (upsert) um par chave/valor global do mundo.
func (s *ObjectStore) SetMetadata(key, value string) error {
	if s.DB == nil {
		return fmt.Errorf("banco de dados não inicializado")
	}
	return s.DB.Save(&WorldMetadata{Key: key, Value: value}).Error
}

// GetMetadata lê um valor global; ausência resolve como string vazia.
func (s *ObjectStore) GetMetadata(key string) (string, error) {
	if s.DB == nil {
		return "", fmt.Errorf("banco de dados não inicializado")
	}
	var meta WorldMetadata
	err := s.DB.First(&meta, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.Value, nil
}

// Close encerra a conexão subjacente.
func (s *ObjectStore) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
