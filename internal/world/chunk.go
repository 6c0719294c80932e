package world

import (
	"math"
	"sort"
)

// Chunk: учётная запись о сгенерированной области.
// Step: номер шага роста мира (0 для исходной генерации), он же ключ записи.
type Chunk struct {
	Step                 int     `json:"step"`
	OriginX              int     `json:"origin_x"`
	OriginZ              int     `json:"origin_z"`
	Size                 float64 `json:"size"`
	GeneratedObjectCount int     `json:"generated_object_count"`
}

// Key возвращает ключ чанка
func (c Chunk) Key() int {
	return c.Step
}

// chunkFor описывает область мира со стороной size, центрированную в нуле.
// Origin округляется вниз и может совпадать у соседних шагов при малом chunk_size,
// поэтому ключом служит номер шага.
func chunkFor(step int, size float64) Chunk {
	origin := int(math.Floor(-size / 2))
	return Chunk{Step: step, OriginX: origin, OriginZ: origin, Size: size}
}

// chunkSet: монотонно растущее множество чанков
type chunkSet struct {
	chunks map[int]Chunk
}

func newChunkSet() *chunkSet {
	return &chunkSet{chunks: make(map[int]Chunk)}
}

func (cs *chunkSet) has(step int) bool {
	_, ok := cs.chunks[step]
	return ok
}

// add записывает чанк; существующий ключ не перезаписывается
func (cs *chunkSet) add(c Chunk) bool {
	if cs.has(c.Key()) {
		return false
	}
	cs.chunks[c.Key()] = c
	return true
}

func (cs *chunkSet) len() int {
	return len(cs.chunks)
}

// nextStep: номер следующего шага роста
func (cs *chunkSet) nextStep() int {
	return len(cs.chunks)
}

func (cs *chunkSet) clear() {
	cs.chunks = make(map[int]Chunk)
}

// list возвращает чанки в порядке роста мира
func (cs *chunkSet) list() []Chunk {
	out := make([]Chunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}
