package funnel

// Resolve превращает значение числового шага в число для сохранения.
// Порядок: точное совпадение с таблицей пресетов, затем разбор как
// число (запятая допустима), при полном провале — ноль. Расхождение
// отображаемого значения с таблицей никогда не блокирует сохранение.
func Resolve(raw string, presets map[string]float64) float64 {
	if v, ok := presets[raw]; ok {
		return v
	}
	if n, ok := parseNumber(raw); ok {
		return n
	}
	return 0
}

// ResolveWeight — вес в килограммах
func ResolveWeight(raw string) float64 { return Resolve(raw, WeightPresets) }

// ResolveVolume — объём в кубометрах
func ResolveVolume(raw string) float64 { return Resolve(raw, VolumePresets) }

// ResolveValue — стоимость по инвойсу в долларах
func ResolveValue(raw string) float64 { return Resolve(raw, ValuePresets) }
