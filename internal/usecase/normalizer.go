package usecase

import (
	"strings"
	"unicode"
)

// digraphFolds transliteratsiya variantlarini bitta kanonik yozuvga
// keltirish uchun almashtirishlar. Tartib muhim: har biri oldingisining
// natijasiga qo'llanadi. Bu fonetik emas, oddiy substring almashtirish,
// shuning uchun kanonizatsiya taxminiy.
var digraphFolds = [][2]string{
	{"zh", "j"},
	{"sh", "s"},
	{"ch", "c"},
	{"ts", "c"},
	{"ya", "ia"},
	{"yu", "iu"},
	{"ye", "e"},
	{"yo", "o"},
}

// synonymTable domen sinonimlari -> kanonik termin. Faqat to'liq token
// bo'yicha qo'llanadi. Kalitlar transliteratsiya va folding bosqichidan
// keyingi ko'rinishda bo'lishi kerak.
var synonymTable = map[string]string{
	"batareia":     "battery",
	"akkumuliator": "battery",
	"akb":          "battery",
	"zariadka":     "charger",
	"adapter":      "charger",
	"pitanie":      "charger",
	"dvigatel":     "motor",
	"engine":       "motor",
}

// Normalizer erkin matnni qidiruvga tayyorlash pipeline'i
type Normalizer struct{}

// NewNormalizer yangi normalizer yaratish
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize matnni qat'iy tartibdagi bosqichlardan o'tkazadi:
// lowercase -> transliteratsiya -> digraph folding -> sinonimlar -> tokenlash.
// Hech qachon xato qaytarmaydi; natija bo'sh bo'lishi mumkin.
func (n *Normalizer) Normalize(raw string) (string, []string) {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = transliterateToLatin(text)
	for _, fold := range digraphFolds {
		text = strings.ReplaceAll(text, fold[0], fold[1])
	}

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if canonical, ok := synonymTable[tok]; ok {
			tok = canonical
		}
		tokens = append(tokens, tok)
	}

	return strings.Join(tokens, " "), tokens
}

// transliterateToLatin kirill matnini lotin taxminiga o'tkazish.
// Notanish harflar tashlab yuborilmaydi - ma'lumot yo'qolmasligi uchun
// placeholder bilan almashtiriladi.
func transliterateToLatin(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch r {
		case 'а':
			b.WriteByte('a')
		case 'б':
			b.WriteByte('b')
		case 'в':
			b.WriteByte('v')
		case 'г':
			b.WriteByte('g')
		case 'д':
			b.WriteByte('d')
		case 'е', 'э':
			b.WriteByte('e')
		case 'ё':
			b.WriteString("yo")
		case 'ж':
			b.WriteString("zh")
		case 'з':
			b.WriteByte('z')
		case 'и', 'і':
			b.WriteByte('i')
		case 'й':
			b.WriteByte('y')
		case 'к':
			b.WriteByte('k')
		case 'л':
			b.WriteByte('l')
		case 'м':
			b.WriteByte('m')
		case 'н':
			b.WriteByte('n')
		case 'о':
			b.WriteByte('o')
		case 'п':
			b.WriteByte('p')
		case 'р':
			b.WriteByte('r')
		case 'с':
			b.WriteByte('s')
		case 'т':
			b.WriteByte('t')
		case 'у':
			b.WriteByte('u')
		case 'ф':
			b.WriteByte('f')
		case 'х':
			b.WriteByte('h')
		case 'ц':
			b.WriteString("ts")
		case 'ч':
			b.WriteString("ch")
		case 'ш':
			b.WriteString("sh")
		case 'щ':
			b.WriteString("shch")
		case 'ъ', 'ь':
			continue
		case 'ы':
			b.WriteByte('y')
		case 'ю':
			b.WriteString("yu")
		case 'я':
			b.WriteString("ya")
		// Qozoq harflari
		case 'қ':
			b.WriteByte('q')
		case 'ғ':
			b.WriteByte('g')
		case 'ң':
			b.WriteString("ng")
		case 'ә':
			b.WriteByte('a')
		case 'ө':
			b.WriteByte('o')
		case 'ү', 'ұ':
			b.WriteByte('u')
		case 'һ':
			b.WriteByte('h')
		default:
			if unicode.IsLetter(r) && r > unicode.MaxASCII {
				b.WriteByte('?')
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
