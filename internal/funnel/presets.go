package funnel

import (
	"fmt"
	"strings"
)

// Choice — один вариант выбора на шаге: подпись кнопки и callback-токен
type Choice struct {
	Label string
	Token string
}

// TokenOther помечает вариант «другое»: шаг не продвигается,
// а переключается в режим ручного ввода
const TokenOther = "other"

// TokenManual — кнопка «ввести вручную» на числовых шагах
const TokenManual = "manual"

var Services = []Choice{
	{"🚚 Доставка груза", "delivery"},
	{"🛃 Таможенное оформление", "customs"},
	{"❓ Задать вопрос", "question"},
}

var Countries = []Choice{
	{"🇨🇳 Китай", "china"},
	{"🇹🇷 Турция", "turkey"},
	{"🇦🇪 ОАЭ", "uae"},
	{"🇮🇱 Израиль", "israel"},
	{"🌍 Другая", TokenOther},
}

var CargoTypes = []Choice{
	{"📦 Генеральный", "general"},
	{"⚠️ Опасный", "dangerous"},
	{"📐 Негабаритный", "oversized"},
	{"🔄 Сборный", "consolidated"},
	{"📋 Другой", TokenOther},
}

var CustomsCargoTypes = []Choice{
	{"📱 Электроника", "electronics"},
	{"👕 Одежда и текстиль", "textile"},
	{"⚙️ Оборудование", "equipment"},
	{"🍎 Продукты питания", "food"},
	{"📋 Другой товар", TokenOther},
}

var UrgencyOptions = []Choice{
	{"🕐 Стандарт (15–25 дн)", "standard"},
	{"⚡ Экспресс (7–12 дн)", "express"},
	{"🚀 Срочная (3–5 дн)", "urgent"},
}

var CustomsUrgencyOptions = []Choice{
	{"🕐 Стандарт (до 5 дн)", "standard"},
	{"⚡ Срочно (1–2 дня)", "urgent"},
}

var IncotermsOptions = []Choice{
	{"EXW", "exw"},
	{"FOB", "fob"},
	{"CIF", "cif"},
	{"DDP", "ddp"},
	{"❓ Не знаю", "unknown"},
}

var WeightBuckets = []Choice{
	{"до 100 кг", "w_100"},
	{"100–500 кг", "w_100_500"},
	{"500–1000 кг", "w_500_1000"},
	{"более 1000 кг", "w_1000"},
}

var VolumeBuckets = []Choice{
	{"до 1 м³", "v_1"},
	{"1–5 м³", "v_1_5"},
	{"5–20 м³", "v_5_20"},
	{"более 20 м³", "v_20"},
}

var ValueBuckets = []Choice{
	{"до $1000", "val_1000"},
	{"$1000–10 000", "val_1000_10000"},
	{"$10 000–50 000", "val_10000_50000"},
	{"более $50 000", "val_50000"},
}

// Числовые эквиваленты пресетов (середина диапазона)
var (
	WeightPresets = map[string]float64{
		"w_100":      50,
		"w_100_500":  300,
		"w_500_1000": 750,
		"w_1000":     1500,
	}
	VolumePresets = map[string]float64{
		"v_1":    0.5,
		"v_1_5":  3,
		"v_5_20": 12,
		"v_20":   30,
	}
	ValuePresets = map[string]float64{
		"val_1000":        500,
		"val_1000_10000":  5000,
		"val_10000_50000": 30000,
		"val_50000":       75000,
	}
)

// labelIndex: токен → подпись, собирается из всех списков
var labelIndex = map[string]string{}

func init() {
	lists := [][]Choice{
		Services, Countries, CargoTypes, CustomsCargoTypes,
		UrgencyOptions, CustomsUrgencyOptions, IncotermsOptions,
		WeightBuckets, VolumeBuckets, ValueBuckets,
	}
	for _, list := range lists {
		for _, c := range list {
			if c.Token == TokenOther {
				continue
			}
			if _, exists := labelIndex[c.Token]; !exists {
				labelIndex[c.Token] = c.Label
			}
		}
	}
}

// Label возвращает человекочитаемую подпись токена.
// Для неизвестного токена возвращается он сам: сырые токены
// не должны доходить до пользователя, но и блокировать вывод нельзя.
func Label(token string) string {
	if l, ok := labelIndex[token]; ok {
		return l
	}
	return token
}

// DisplayValue — подпись для значения числового шага: пресет → подпись,
// распознанное число → число с единицей, иначе сырой текст как есть
func DisplayValue(raw, unit string) string {
	if l, ok := labelIndex[raw]; ok {
		return l
	}
	if n, ok := parseNumber(raw); ok {
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", n), "0"), ".") + " " + unit
	}
	return raw
}
