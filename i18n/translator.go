package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional values to embed in the message (for example,
// "name" or "type").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalog = map[string]map[string]string{
	"en": {
		"malformed_json":     "schema document is not valid JSON",
		"missing_type":       `schema object has no "type" attribute`,
		"undefined_type":     `undefined type "{type}"`,
		"unknown_named_type": `unknown named type "{name}"`,
		"invalid_name":       `{what} must be a non-empty dotted name, got "{name}"`,
		"reserved_name":      `"{name}" is a reserved type name`,
		"duplicate_name":     `name "{name}" is already defined`,
		"invalid_field":      `invalid field "{name}"`,
		"duplicate_symbol":   `duplicate enum symbol "{symbol}"`,
		"invalid_size":       "fixed size must be a non-negative integer",
		"invalid_union":      "invalid union: {reason}",
		"invalid_schema":     `invalid "{attr}" attribute: {reason}`,
		"schema_too_deep":    "schema nesting exceeds {max} levels",
		"duplicate_key":      `duplicate key "{key}"`,
		"truncated":          "input exceeds the size limit",
	},
	"ja": {
		"malformed_json":     "スキーマ文書が正しいJSONではありません",
		"missing_type":       `スキーマオブジェクトに "type" 属性がありません`,
		"undefined_type":     `未定義の型 "{type}" です`,
		"unknown_named_type": `未知の名前付き型 "{name}" です`,
		"invalid_name":       `{what} は空でないドット区切りの名前である必要があります ("{name}")`,
		"reserved_name":      `"{name}" は予約された型名です`,
		"duplicate_name":     `名前 "{name}" は既に定義されています`,
		"invalid_field":      `フィールド "{name}" が不正です`,
		"duplicate_symbol":   `列挙シンボル "{symbol}" が重複しています`,
		"invalid_size":       "fixed のサイズは0以上の整数である必要があります",
		"invalid_union":      "ユニオンが不正です: {reason}",
		"invalid_schema":     `"{attr}" 属性が不正です: {reason}`,
		"schema_too_deep":    "スキーマの入れ子が {max} 階層を超えています",
		"duplicate_key":      `キー "{key}" が重複しています`,
		"truncated":          "入力がサイズ上限を超えています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		if msg, ok = catalog["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalog[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
