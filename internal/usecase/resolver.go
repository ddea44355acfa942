package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

// ProductResolver erkin matnni katalog mahsulotiga bog'laydigan ko'p
// bosqichli pipeline: aniq SKU -> whitelist kod -> nom substring -> fuzzy.
// Katalog xatosi hech qachon yuqoriga chiqmaydi - NoMatch ga yig'iladi,
// chunki qidiruv muvaffaqiyatsizligi suhbatni bloklamasligi kerak.
type ProductResolver struct {
	catalog repository.CatalogRepository
	norm    *Normalizer
	codes   *CodeExtractor

	// Empirik tanlangan chegaralar; konfiguratsiya orqali o'zgartiriladi.
	// Recall precision dan ustun: transliteratsiya variantini yo'qotishdan
	// ko'ra foydalanuvchiga ortiqcha variant ko'rsatgan yaxshi.
	jaroWinklerMin float64
	editScoreMin   float64
}

// NewProductResolver resolver yaratish
func NewProductResolver(catalog repository.CatalogRepository, norm *Normalizer, codes *CodeExtractor, jaroWinklerMin, editScoreMin float64) *ProductResolver {
	return &ProductResolver{
		catalog:        catalog,
		norm:           norm,
		codes:          codes,
		jaroWinklerMin: jaroWinklerMin,
		editScoreMin:   editScoreMin,
	}
}

// ResolveBySKU aniq SKU bo'yicha mahsulotni olish. Xato yoki topilmasa nil.
func (r *ProductResolver) ResolveBySKU(ctx context.Context, sku string) *entity.Product {
	if sku == "" {
		return nil
	}
	product, err := r.catalog.FindBySKU(ctx, strings.ToUpper(sku))
	if err != nil {
		log.Printf("⚠️ SKU qidiruv xatosi (%s): %v", sku, err)
		return nil
	}
	return product
}

// Resolve so'rov matnini qat'iy ustunlik tartibida hal qiladi, birinchi
// muvaffaqiyatda to'xtaydi. Bir xil katalog uchun idempotent.
func (r *ProductResolver) Resolve(ctx context.Context, query string) entity.MatchOutcome {
	// 1. Aniq SKU - har doim birinchi tekshiriladi
	if sku := r.codes.ExtractSKU(query); sku != "" {
		if product := r.ResolveBySKU(ctx, sku); product != nil {
			return entity.SingleMatch(*product)
		}
	}

	normalized, tokens := r.norm.Normalize(query)
	code := r.codes.ExtractProductCode(normalized)

	// 2. Whitelist kod: SKU-prefiks YOKI nom-substring. Ko'p qator
	// Ambiguous sifatida dialog qatlamiga uzatiladi.
	if code != "" {
		if products := r.findByCode(ctx, code); len(products) > 0 {
			return entity.OutcomeOf(products)
		}
	}

	// 3. Nom bo'yicha token qidiruvi (tokenlar orasida OR). Resolver ko'p
	// natijani saralamaydi - bu chaqiruvchining ishi.
	if products := r.findByTokens(ctx, tokens); len(products) > 0 {
		return entity.OutcomeOf(products)
	}

	// 4. To'liq katalog bo'ylab fuzzy qidiruv
	return entity.OutcomeOf(r.fuzzyScan(ctx, tokens, code))
}

func (r *ProductResolver) findByCode(ctx context.Context, code string) []entity.Product {
	all, err := r.catalog.FindAllProducts(ctx)
	if err != nil {
		log.Printf("⚠️ Katalog so'rovi xatosi: %v", err)
		return nil
	}
	lowerCode := strings.ToLower(code)
	var results []entity.Product
	for _, p := range all {
		if strings.HasPrefix(strings.ToLower(p.SKU), lowerCode) ||
			strings.Contains(strings.ToLower(p.Name), lowerCode) {
			results = append(results, p)
		}
	}
	return results
}

func (r *ProductResolver) findByTokens(ctx context.Context, tokens []string) []entity.Product {
	seen := make(map[string]struct{})
	var results []entity.Product
	for _, token := range tokens {
		if len([]rune(token)) < 2 {
			continue
		}
		products, err := r.catalog.FindByNameToken(ctx, token)
		if err != nil {
			log.Printf("⚠️ Token qidiruv xatosi (%s): %v", token, err)
			continue
		}
		for _, p := range products {
			if _, ok := seen[p.SKU]; ok {
				continue
			}
			seen[p.SKU] = struct{}{}
			results = append(results, p)
		}
	}
	return results
}

// fuzzyScan har bir mahsulot nomini normalizatsiya qilib, har bir
// (so'rov tokeni x mahsulot tokeni) jufti uchun Jaro-Winkler, edit-distance
// balli va double-metaphone tengligini tekshiradi. Bittasi yetarli.
func (r *ProductResolver) fuzzyScan(ctx context.Context, queryTokens []string, code string) []entity.Product {
	if len(queryTokens) == 0 && code == "" {
		return nil
	}
	all, err := r.catalog.FindAllProducts(ctx)
	if err != nil {
		log.Printf("⚠️ Katalog so'rovi xatosi: %v", err)
		return nil
	}

	lowerCode := strings.ToLower(code)
	var results []entity.Product
	for _, product := range all {
		_, productTokens := r.norm.Normalize(product.Name)

		accepted := false
		for _, qt := range queryTokens {
			// Bir harfli tokenlar (predloglar) fuzzy uchun juda shovqinli
			if len([]rune(qt)) < 2 {
				continue
			}
			for _, pt := range productTokens {
				if r.tokensSimilar(qt, pt) {
					accepted = true
					break
				}
			}
			if accepted {
				break
			}
		}

		if !accepted && code != "" {
			if strings.HasPrefix(strings.ToLower(product.SKU), lowerCode) ||
				strings.Contains(strings.ToLower(product.Name), lowerCode) {
				accepted = true
			}
		}

		if accepted {
			results = append(results, product)
		}
	}
	return results
}

func (r *ProductResolver) tokensSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if matchr.JaroWinkler(a, b, false) > r.jaroWinklerMin {
		return true
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen > 0 {
		editScore := 1 - float64(matchr.Levenshtein(a, b))/float64(maxLen)
		if editScore > r.editScoreMin {
			return true
		}
	}
	primaryA, _ := matchr.DoubleMetaphone(a)
	primaryB, _ := matchr.DoubleMetaphone(b)
	return primaryA != "" && primaryA == primaryB
}
