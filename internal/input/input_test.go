package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyEdges(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(glfw.KeyC, glfw.Press)
	assert.True(t, im.JustPressed(ActionToggleCulling))
	assert.True(t, im.IsActive(ActionToggleCulling))

	im.PostUpdate()
	assert.False(t, im.JustPressed(ActionToggleCulling), "edge lasts one frame")
	assert.True(t, im.IsActive(ActionToggleCulling))

	// repeats keep the key held without a new edge
	im.HandleKeyEvent(glfw.KeyC, glfw.Repeat)
	assert.False(t, im.JustPressed(ActionToggleCulling))

	im.HandleKeyEvent(glfw.KeyC, glfw.Release)
	assert.True(t, im.JustReleased(ActionToggleCulling))
	assert.False(t, im.IsActive(ActionToggleCulling))
}

func TestSeveralKeysOneAction(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyUp, glfw.Press)
	assert.True(t, im.IsActive(ActionMoveForward))
	assert.Equal(t, float32(1), im.Axis(ActionMoveForward, ActionMoveBackward))

	im.HandleKeyEvent(glfw.KeyS, glfw.Press)
	assert.Equal(t, float32(0), im.Axis(ActionMoveForward, ActionMoveBackward), "opposing keys cancel")
}

func TestMouseAndUnbind(t *testing.T) {
	im := NewInputManager()
	im.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Press)
	assert.True(t, im.JustPressed(ActionCaptureCursor))

	im.UnbindKey(glfw.KeyQ)
	im.HandleKeyEvent(glfw.KeyQ, glfw.Press)
	assert.False(t, im.IsActive(ActionQuit))

	im.BindKey(glfw.KeyQ, ActionCount)
	im.HandleKeyEvent(glfw.KeyQ, glfw.Press)
	assert.False(t, im.IsActive(ActionCount), "out of range actions are ignored")
}

func TestColorActionsCoverEveryDigit(t *testing.T) {
	im := NewInputManager()
	keys := []glfw.Key{glfw.Key1, glfw.Key2, glfw.Key3, glfw.Key4, glfw.Key5, glfw.Key6}
	for i, k := range keys {
		im.HandleKeyEvent(k, glfw.Press)
		assert.True(t, im.JustPressed(ColorActions[i]), "key %d", i+1)
	}
}
