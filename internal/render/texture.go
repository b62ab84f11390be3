package render

import (
	"image"
	"sync"
)

// Texture is a decoded image ready for binding.
type Texture struct {
	ID     string
	Width  int
	Height int
	Image  image.Image
}

// TextureRequester starts loading a texture in the background. Completed
// textures arrive through a TextureHandoff.
type TextureRequester interface {
	RequestTexture(id string)
}

// TextureHandoff passes textures from loader goroutines to the render
// goroutine. Publish never blocks on the render goroutine.
type TextureHandoff struct {
	mu    sync.Mutex
	ready []*Texture
}

func (h *TextureHandoff) Publish(t *Texture) {
	h.mu.Lock()
	h.ready = append(h.ready, t)
	h.mu.Unlock()
}

// Drain returns and clears every texture published since the last call.
func (h *TextureHandoff) Drain() []*Texture {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.ready
	h.ready = nil
	return out
}
