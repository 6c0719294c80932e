package placement

import "fmt"

// Category: категория объекта мира
type Category uint8

const (
	Hill Category = iota
	Tree
	Treasure
	Crystal
	Bush
	Rock
)

// String возвращает имя категории
func (c Category) String() string {
	switch c {
	case Hill:
		return "hill"
	case Tree:
		return "tree"
	case Treasure:
		return "treasure"
	case Crystal:
		return "crystal"
	case Bush:
		return "bush"
	case Rock:
		return "rock"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// MarshalText позволяет использовать категорию в JSON и YAML
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Interactable сообщает, порождает ли категория интерактивный объект
func (c Category) Interactable() bool {
	return c == Treasure || c == Crystal
}

// Rule: правила разброса одной категории
type Rule struct {
	Category  Category
	OffsetX   float64 // смещение шума по x
	OffsetZ   float64 // смещение шума по z
	Span      float64 // доля стороны мира, доступная для размещения
	Exclusion float64 // минимальное расстояние до центра холма, 0: без проверки
}

// Порядок проходов разброса
var scatterRules = []Rule{
	{Category: Tree, OffsetX: 100, OffsetZ: 200, Span: 0.85, Exclusion: 8},
	{Category: Treasure, OffsetX: 300, OffsetZ: 400, Span: 0.7},
	{Category: Crystal, OffsetX: 500, OffsetZ: 600, Span: 0.8, Exclusion: 6},
	{Category: Bush, OffsetX: 700, OffsetZ: 800, Span: 0.9, Exclusion: 4},
	{Category: Rock, OffsetX: 900, OffsetZ: 1000, Span: 0.95},
}

// ScatterCategories возвращает категории, размещаемые разбросом, в порядке проходов
func ScatterCategories() []Category {
	out := make([]Category, len(scatterRules))
	for i, r := range scatterRules {
		out[i] = r.Category
	}
	return out
}

// RuleFor возвращает правило для категории разброса
func RuleFor(c Category) (Rule, bool) {
	for _, r := range scatterRules {
		if r.Category == c {
			return r, true
		}
	}
	return Rule{}, false
}

// MaxExclusion возвращает наибольший радиус исключения среди категорий
func MaxExclusion() float64 {
	largest := 0.0
	for _, r := range scatterRules {
		if r.Exclusion > largest {
			largest = r.Exclusion
		}
	}
	return largest
}
