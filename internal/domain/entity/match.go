package entity

// MatchKind resolver natijasining turi
type MatchKind int

const (
	// MatchNone hech qanday mahsulot topilmadi
	MatchNone MatchKind = iota
	// MatchSingle aniq bitta mahsulot topildi
	MatchSingle
	// MatchAmbiguous bir nechta teng ehtimolli variant topildi
	MatchAmbiguous
)

// MatchOutcome product resolver natijasi. Dialog state machine uchala
// variantga ham javob berishi shart.
type MatchOutcome struct {
	Kind     MatchKind
	Products []Product
}

// NoMatch bo'sh natija
func NoMatch() MatchOutcome {
	return MatchOutcome{Kind: MatchNone}
}

// SingleMatch bitta aniq mahsulot bilan natija
func SingleMatch(p Product) MatchOutcome {
	return MatchOutcome{Kind: MatchSingle, Products: []Product{p}}
}

// Ambiguous bir nechta variant bilan natija
func Ambiguous(products []Product) MatchOutcome {
	return MatchOutcome{Kind: MatchAmbiguous, Products: products}
}

// OutcomeOf mahsulotlar soniga qarab natija turi aniqlanadi
func OutcomeOf(products []Product) MatchOutcome {
	switch len(products) {
	case 0:
		return NoMatch()
	case 1:
		return SingleMatch(products[0])
	default:
		return Ambiguous(products)
	}
}

// Single yagona topilgan mahsulotni qaytaradi (Kind == MatchSingle bo'lganda)
func (m MatchOutcome) Single() Product {
	if len(m.Products) == 0 {
		return Product{}
	}
	return m.Products[0]
}
