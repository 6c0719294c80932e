package engine

import (
	"errors"
	"testing"

	"github.com/annel0/adventure-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadless_MeshLifecycle(t *testing.T) {
	h := NewHeadless()

	mesh, err := h.CreateMesh(MeshBox, MeshParams{Name: "chest", Width: 2, Height: 1.5, Depth: 1.5})
	require.NoError(t, err)
	assert.NotZero(t, mesh)

	require.NoError(t, h.SetPosition(mesh, vec.Vec3Float{X: 1, Y: 2, Z: 3}))
	require.NoError(t, h.SetScale(mesh, vec.Vec3Float{X: 2, Y: 2, Z: 2}))
	require.NoError(t, h.SetRotation(mesh, vec.Vec3Float{Y: 1}))

	mat, err := h.CreateMaterial(MaterialParams{Name: "wood"})
	require.NoError(t, err)
	require.NoError(t, h.SetMaterial(mesh, mat))

	rec, ok := h.Mesh(mesh)
	require.True(t, ok)
	assert.Equal(t, "chest", rec.Name)
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 2, Z: 3}, rec.Position)
	assert.Equal(t, mat, rec.Material)
	assert.Equal(t, vec.Vec3Float{X: 2, Y: 1.5, Z: 1.5}, rec.Extent)

	body, err := h.AttachRigidBody(mesh, ShapeBox, 0, 0.7, 0.1)
	require.NoError(t, err)
	assert.NotZero(t, body)
	assert.Equal(t, Stats{Meshes: 1, Materials: 1, Bodies: 1}, h.Stats())

	require.NoError(t, h.DisposeMesh(mesh))
	assert.Equal(t, 0, h.Stats().Bodies, "тела удаляются вместе с сеткой")
	assert.ErrorIs(t, h.DisposeMesh(mesh), ErrUnknownHandle)
	assert.ErrorIs(t, h.SetPosition(mesh, vec.Vec3Float{}), ErrUnknownHandle)
}

func TestHeadless_Texture(t *testing.T) {
	h := NewHeadless()

	tex, err := h.CreateTexture(2, 2, func(dst []byte) {
		for i := range dst {
			dst[i] = 7
		}
	})
	require.NoError(t, err)

	rec, ok := h.Texture(tex)
	require.True(t, ok)
	assert.Len(t, rec.Pixels, 16)
	assert.Equal(t, byte(7), rec.Pixels[15])

	_, err = h.CreateTexture(0, 2, nil)
	assert.Error(t, err)

	require.NoError(t, h.DisposeTexture(tex))
	assert.ErrorIs(t, h.DisposeTexture(tex), ErrUnknownHandle)
}

func TestHeadless_FailOn(t *testing.T) {
	h := NewHeadless()
	boom := errors.New("physics offline")

	mesh, err := h.CreateMesh(MeshSphere, MeshParams{Diameter: 1})
	require.NoError(t, err)

	h.FailOn("AttachRigidBody", boom)
	_, err = h.AttachRigidBody(mesh, ShapeSphere, 1, 0.5, 0.5)
	assert.ErrorIs(t, err, boom)

	h.FailOn("AttachRigidBody", nil)
	_, err = h.AttachRigidBody(mesh, ShapeSphere, 1, 0.5, 0.5)
	assert.NoError(t, err)
}

func TestMeshKind_String(t *testing.T) {
	assert.Equal(t, "ground", MeshGround.String())
	assert.Equal(t, "cylinder", MeshCylinder.String())
	assert.Equal(t, "unknown", MeshKind(99).String())
}

func TestMeshParams_Extent(t *testing.T) {
	assert.Equal(t, vec.Vec3Float{X: 3, Y: 3, Z: 3}, MeshParams{Diameter: 3}.Extent(MeshSphere))
	assert.Equal(t, vec.Vec3Float{X: 0.8, Y: 4, Z: 0.8},
		MeshParams{Height: 4, DiameterTop: 0.5, DiameterBottom: 0.8}.Extent(MeshCylinder))
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 6, Z: 1}, MeshParams{Height: 6, Diameter: 1}.Extent(MeshCylinder))

	ground := MeshParams{Positions: []vec.Vec3Float{{X: -5, Y: 1, Z: -5}, {X: 5, Y: -2, Z: 5}, {X: 0, Y: 3, Z: 0}}}
	assert.Equal(t, vec.Vec3Float{X: 10, Y: 5, Z: 10}, ground.Extent(MeshGround))
	assert.Equal(t, vec.Vec3Float{}, MeshParams{}.Extent(MeshGround))
}
