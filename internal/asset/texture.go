package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"sync"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/coreman2200/nightdrive/internal/scene"
)

var errNoFS = errors.New("no asset filesystem")

// Textures hands out texture handles immediately and fills in their pixels
// once decoding finishes.
type Textures struct {
	fsys   fs.FS
	disp   Dispatcher
	ledger *scene.Ledger
	log    zerolog.Logger
	// OnError, if set, is called on the loop for every failed load.
	OnError func(path string, err error)

	wg    sync.WaitGroup
	mu    sync.Mutex
	cache map[string]*scene.Texture
}

func NewTextures(fsys fs.FS, disp Dispatcher, ledger *scene.Ledger, log zerolog.Logger) *Textures {
	return &Textures{
		fsys:   fsys,
		disp:   disp,
		ledger: ledger,
		log:    log,
		cache:  map[string]*scene.Texture{},
	}
}

func cacheKey(path string, rx, ry float64) string {
	return fmt.Sprintf("%s_%g_%g", path, rx, ry)
}

// Load returns a texture for path with the given repeat. With useCache the
// texture is shared with every other cached load of the same key and only
// ClearCache releases it; otherwise the caller's material owns it.
func (t *Textures) Load(path string, rx, ry float64, useCache bool) *scene.Texture {
	key := cacheKey(path, rx, ry)
	if useCache {
		t.mu.Lock()
		if tex, ok := t.cache[key]; ok && !tex.Released() {
			t.mu.Unlock()
			return tex
		}
		t.mu.Unlock()
	}

	tex := scene.NewTexture(t.ledger, path, rx, ry)
	if useCache {
		tex.Shared = true
		t.mu.Lock()
		t.cache[key] = tex
		t.mu.Unlock()
	}

	Go(t.disp, &t.wg, func() (image.Image, error) {
		return t.decode(path)
	}).Then(func(img image.Image) {
		if !tex.SetImage(img) {
			t.log.Debug().Str("path", path).Msg("texture released before pixels arrived")
		}
	}, func(err error) {
		t.log.Warn().Err(err).Str("path", path).Msg("texture load failed")
		if t.OnError != nil {
			t.OnError(path, err)
		}
	})
	return tex
}

func (t *Textures) decode(path string) (image.Image, error) {
	if t.fsys == nil {
		return nil, fmt.Errorf("%s: %w", path, errNoFS)
	}
	f, err := t.fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Cached is the number of live cached textures.
func (t *Textures) Cached() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache)
}

// ClearCache releases every cached texture.
func (t *Textures) ClearCache() {
	t.mu.Lock()
	cache := t.cache
	t.cache = map[string]*scene.Texture{}
	t.mu.Unlock()
	for _, tex := range cache {
		tex.Release()
	}
}

// Wait blocks until every decode started so far has finished. Results are
// still delivered through the dispatcher.
func (t *Textures) Wait() { t.wg.Wait() }
