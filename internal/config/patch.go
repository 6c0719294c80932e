package config

// WorldPatch частичное обновление WorldConfig для перегенерации мира.
// nil-поля оставляют текущее значение.
type WorldPatch struct {
	Seed                *int64   `yaml:"seed" json:"seed,omitempty"`
	TerrainSize         *float64 `yaml:"terrain_size" json:"terrain_size,omitempty"`
	TerrainSubdivisions *int     `yaml:"terrain_subdivisions" json:"terrain_subdivisions,omitempty"`
	HeightVariation     *float64 `yaml:"height_variation" json:"height_variation,omitempty"`
	NoiseScale          *float64 `yaml:"noise_scale" json:"noise_scale,omitempty"`
	TextureDetail       *int     `yaml:"texture_detail" json:"texture_detail,omitempty"`

	HillCount     *int `yaml:"hill_count" json:"hill_count,omitempty"`
	TreeCount     *int `yaml:"tree_count" json:"tree_count,omitempty"`
	TreasureCount *int `yaml:"treasure_count" json:"treasure_count,omitempty"`
	CrystalCount  *int `yaml:"crystal_count" json:"crystal_count,omitempty"`
	BushCount     *int `yaml:"bush_count" json:"bush_count,omitempty"`
	RockCount     *int `yaml:"rock_count" json:"rock_count,omitempty"`

	ObjectDensity *float64 `yaml:"object_density" json:"object_density,omitempty"`

	ExpansionEnabled *bool    `yaml:"expansion_enabled" json:"expansion_enabled,omitempty"`
	MaxTerrainSize   *float64 `yaml:"max_terrain_size" json:"max_terrain_size,omitempty"`
	TriggerDistance  *float64 `yaml:"trigger_distance" json:"trigger_distance,omitempty"`
	ChunkSize        *float64 `yaml:"chunk_size" json:"chunk_size,omitempty"`
	AsyncExpansion   *bool    `yaml:"async_expansion" json:"async_expansion,omitempty"`
}

// Apply возвращает копию конфигурации с применённым патчем. Результат не валидируется.
func (c WorldConfig) Apply(p WorldPatch) WorldConfig {
	out := c
	setInt64(&out.Seed, p.Seed)
	setFloat(&out.TerrainSize, p.TerrainSize)
	setInt(&out.TerrainSubdivisions, p.TerrainSubdivisions)
	setFloat(&out.HeightVariation, p.HeightVariation)
	setFloat(&out.NoiseScale, p.NoiseScale)
	setInt(&out.TextureDetail, p.TextureDetail)

	setInt(&out.HillCount, p.HillCount)
	setInt(&out.TreeCount, p.TreeCount)
	setInt(&out.TreasureCount, p.TreasureCount)
	setInt(&out.CrystalCount, p.CrystalCount)
	setInt(&out.BushCount, p.BushCount)
	setInt(&out.RockCount, p.RockCount)

	setFloat(&out.ObjectDensity, p.ObjectDensity)

	setBool(&out.Expansion.Enabled, p.ExpansionEnabled)
	setFloat(&out.Expansion.MaxTerrainSize, p.MaxTerrainSize)
	setFloat(&out.Expansion.TriggerDistance, p.TriggerDistance)
	setFloat(&out.Expansion.ChunkSize, p.ChunkSize)
	setBool(&out.Expansion.Async, p.AsyncExpansion)
	return out
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
