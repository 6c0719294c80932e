package physics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/physics"
	"github.com/annel0/adventure-world/internal/world"
)

func TestColliders_GeneratedWorld(t *testing.T) {
	cfg := config.DefaultWorld()
	cfg.Seed = 3
	cfg.TerrainSubdivisions = 16
	cfg.TextureDetail = 64

	h := engine.NewHeadless()
	colliders := physics.NewColliders(h, h)
	m, err := world.New(cfg, world.Options{Renderer: h, Physics: colliders})
	require.NoError(t, err)
	require.NoError(t, m.GenerateWorld(context.Background()))

	assert.Equal(t, h.Stats().Bodies, colliders.Len())

	probe := physics.NewBoxCollider(0.2, 0.2, 0.2)
	for _, obj := range m.Objects() {
		if len(obj.Bodies) == 0 {
			continue
		}
		rec, ok := h.Mesh(obj.Meshes[0])
		require.True(t, ok)
		feet := rec.Position
		feet.Y -= 0.1
		assert.NotEmpty(t, colliders.Overlaps(feet, probe), "%s %d должен блокировать", obj.Category, obj.Index)
	}

	m.Dispose()
	assert.Zero(t, colliders.Len(), "тела снимаются вместе с миром")
}
