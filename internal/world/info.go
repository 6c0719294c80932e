package world

import (
	"fmt"
	"strconv"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/cespare/xxhash/v2"
)

// Info: диагностический снимок мира
type Info struct {
	Seed          int64              `json:"seed"`
	Config        config.WorldConfig `json:"config"`
	State         State              `json:"state"`
	ObjectCount   int                `json:"object_count"`
	HillCount     int                `json:"hill_count"`
	Interactables int                `json:"interactables"`
	CurrentSize   float64            `json:"current_size"`
	MaxSize       float64            `json:"max_size"`
	ChunkCount    int                `json:"chunk_count"`
	Chunks        []Chunk            `json:"chunks"`
	Fingerprint   string             `json:"fingerprint,omitempty"`
}

// WorldInfo возвращает снимок состояния мира
func (m *Manager) WorldInfo() Info {
	return Info{
		Seed:          m.cfg.Seed,
		Config:        m.cfg,
		State:         m.state,
		ObjectCount:   len(m.objects),
		HillCount:     m.hills.Len(),
		Interactables: m.registry.Len(),
		CurrentSize:   m.size,
		MaxSize:       m.cfg.Expansion.MaxTerrainSize,
		ChunkCount:    m.chunks.len(),
		Chunks:        m.chunks.list(),
		Fingerprint:   m.Fingerprint(),
	}
}

// Fingerprint: отпечаток входов генерации текущей поверхности.
// Равные отпечатки дают побайтно равные рельеф и текстуру. Пусто, если мира нет.
func (m *Manager) Fingerprint() string {
	if m.surface == nil {
		return ""
	}
	spec := m.surface.Spec

	h := xxhash.New()
	fmt.Fprintf(h, "%d|%s|%s|%g|%d|%g|%g|%d",
		m.cfg.Seed, m.noiseCfg.Hash, m.noiseCfg.Relief,
		spec.Size, spec.Subdivisions, spec.HeightVariation, spec.NoiseScale, spec.TextureDetail)
	return strconv.FormatUint(h.Sum64(), 16)
}
