package terrain

import (
	"context"
	"image"
	"math"
	"runtime"

	"github.com/annel0/adventure-world/internal/noise"
	"golang.org/x/sync/errgroup"
)

// rgb: цвет в линейных компонентах [0, 1]
type rgb struct {
	R, G, B float64
}

var baseGrass = rgb{R: 0.2, G: 0.6, B: 0.2}

// textureLayer: один шумовой слой травяного покрова
type textureLayer struct {
	name      string
	tint      rgb
	scale     float64 // частота шума в пространстве пикселей
	offset    float64 // сдвиг, чтобы слои не коррелировали
	octaves   int
	threshold float64 // шум ниже порога слой не проявляет
	maxAlpha  float64
}

// Слои в порядке наложения; качество определяет, сколько из них используется
var grassLayers = []textureLayer{
	{name: "highlights", tint: rgb{0.35, 0.78, 0.3}, scale: 0.05, offset: 0, octaves: 4, threshold: 0.45, maxAlpha: 0.6},
	{name: "dirt", tint: rgb{0.45, 0.33, 0.18}, scale: 0.02, offset: 1000, octaves: 3, threshold: 0.55, maxAlpha: 0.7},
	{name: "moss", tint: rgb{0.12, 0.42, 0.12}, scale: 0.12, offset: 2000, octaves: 3, threshold: 0.5, maxAlpha: 0.45},
	{name: "blades", tint: rgb{0.06, 0.28, 0.06}, scale: 0.8, offset: 3000, octaves: 2, threshold: 0.6, maxAlpha: 0.8},
}

// LayerCount возвращает число слоёв для заданного разрешения текстуры
func LayerCount(detail int) int {
	switch {
	case detail <= 256:
		return 2
	case detail <= 512:
		return 3
	default:
		return 4
	}
}

// Texture: квадратный RGBA-растр травяного покрова
type Texture struct {
	Detail int
	Layers []string
	Image  *image.RGBA
}

// WritePixels копирует RGBA-байты растра в dst
func (t *Texture) WritePixels(dst []byte) {
	copy(dst, t.Image.Pix)
}

// BuildTexture синтезирует текстуру со стороной detail.
// Шум берётся в пиксельном пространстве без принудительной периодичности.
func BuildTexture(ctx context.Context, detail int, n *noise.Noise) (*Texture, error) {
	layers := grassLayers[:LayerCount(detail)]
	img := image.NewRGBA(image.Rect(0, 0, detail, detail))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for y := 0; y < detail; y++ {
		y := y
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := img.Pix[y*img.Stride : y*img.Stride+detail*4]
			for x := 0; x < detail; x++ {
				c := shadePixel(n, layers, float64(x), float64(y))
				row[x*4+0] = toByte(c.R)
				row[x*4+1] = toByte(c.G)
				row[x*4+2] = toByte(c.B)
				row[x*4+3] = 255
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.name
	}
	return &Texture{Detail: detail, Layers: names, Image: img}, nil
}

// shadePixel накладывает слои поверх базового цвета альфа-смешиванием
func shadePixel(n *noise.Noise, layers []textureLayer, x, y float64) rgb {
	c := baseGrass
	for _, l := range layers {
		v := n.Perlin(x*l.scale+l.offset, y*l.scale+l.offset, l.octaves, 0.5)
		a := layerAlpha(v, l.threshold) * l.maxAlpha
		if a <= 0 {
			continue
		}
		c.R = c.R*(1-a) + l.tint.R*a
		c.G = c.G*(1-a) + l.tint.G*a
		c.B = c.B*(1-a) + l.tint.B*a
	}
	return c
}

func layerAlpha(v, threshold float64) float64 {
	if v <= threshold {
		return 0
	}
	return math.Min(1, (v-threshold)/(1-threshold))
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
