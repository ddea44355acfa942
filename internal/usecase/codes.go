package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// To'liq SKU: REV-41-1305-PK8 kabi
	skuRegex = regexp.MustCompile(`(?i)[A-Z]{2,6}-\d{2,4}(?:-[A-Z0-9]{2,10})+`)

	// Miqdor: "x10" yoki "10 шт|штук|pcs|pieces"
	qtyXRegex    = regexp.MustCompile(`(?i)x\s?(\d{1,4})`)
	qtyWordRegex = regexp.MustCompile(`(?i)(\d{1,4})\s?(шт|штук|pcs|pieces)`)

	// Kod shakliga o'xshash qisqa token (REV-41, ARD-10 kabi)
	codeShapeRegex = regexp.MustCompile(`^[A-Za-zА-Яа-я]{2,6}[\s\-]?\d{2,6}([\-A-Za-z0-9]{0,10})?$`)
)

// cyrillicCodeAliases kirill yozuvidagi kod prefikslari -> lotin
var cyrillicCodeAliases = map[string]string{
	"рев": "rev",
}

// CodeExtractor mahsulot kodi va miqdor patternlarini ajratib oladi.
// Prefikslar ro'yxati aniq whitelist - notanish prefiks kod emas.
type CodeExtractor struct {
	prefixes    []string
	codeRegexes []*regexp.Regexp
	hintRegexes []*regexp.Regexp
}

// NewCodeExtractor whitelist prefikslar bilan extractor yaratish
func NewCodeExtractor(prefixes []string) *CodeExtractor {
	e := &CodeExtractor{}
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		e.prefixes = append(e.prefixes, p)
		e.codeRegexes = append(e.codeRegexes,
			regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)[\s\-]?(\d{2,4})\b`, regexp.QuoteMeta(p))))
		e.hintRegexes = append(e.hintRegexes,
			regexp.MustCompile(fmt.Sprintf(`(?i)\b%s[\s\-]?\d{2,4}`, regexp.QuoteMeta(p))))
	}
	return e
}

// ExtractSKU matndan to'liq SKU ni ajratib olish. Topilmasa bo'sh string.
func (e *CodeExtractor) ExtractSKU(text string) string {
	if text == "" {
		return ""
	}
	m := skuRegex.FindString(text)
	return strings.ToUpper(m)
}

// ExtractProductCode whitelist prefiksli qisqa kodni ajratib olish,
// natija PREFIX-DIGITS ko'rinishida. Notanish prefiks hech narsa bermaydi.
func (e *CodeExtractor) ExtractProductCode(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for alias, latin := range cyrillicCodeAliases {
		lower = strings.ReplaceAll(lower, alias, latin)
	}
	for _, re := range e.codeRegexes {
		if m := re.FindStringSubmatch(lower); m != nil {
			return strings.ToUpper(m[1]) + "-" + m[2]
		}
	}
	return ""
}

// ExtractQty aniq miqdor iborasini ajratib olish ("x10", "10 шт").
// Birinchi topilgan pattern yutadi; topilmasa 0.
func (e *CodeExtractor) ExtractQty(text string) int {
	if text == "" {
		return 0
	}
	if m := qtyXRegex.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil {
			return qty
		}
	}
	if m := qtyWordRegex.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil {
			return qty
		}
	}
	return 0
}

// LooksLikeProductCode matn mahsulot kodiga o'xshaydimi. Ko'p variantli
// natijani avtomatik birinchisiga yig'ish o'rniga foydalanuvchiga
// ko'rsatish kerakligini aniqlash uchun ishlatiladi.
func (e *CodeExtractor) LooksLikeProductCode(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if codeShapeRegex.MatchString(t) {
		return true
	}
	lower := strings.ToLower(t)
	for alias, latin := range cyrillicCodeAliases {
		lower = strings.ReplaceAll(lower, alias, latin)
	}
	for _, re := range e.hintRegexes {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Prefixes ruxsat etilgan prefikslar ro'yxati
func (e *CodeExtractor) Prefixes() []string {
	return e.prefixes
}
