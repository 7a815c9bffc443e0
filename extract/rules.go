package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 计费周期标签到规范取值的映射
var periodLabels = map[string]string{
	"mês":    "month",
	"mes":    "month",
	"mensal": "month",
	"dia":    "day",
	"diária": "day",
	"diaria": "day",
}

// 标题中房源类型之后的分隔
var typeTerminators = []string{" com ", " para ", ","}

type rules struct {
	sel     Selectors
	baseURL string
}

// 定位卡片中第一个匹配的子元素
func find(card *goquery.Selection, selector string) (*goquery.Selection, error) {
	s := card.Find(selector).First()
	if s.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, selector)
	}
	return s, nil
}

// 子元素的文本，去除多余空白，空文本视为缺失
func text(card *goquery.Selection, selector string) (string, error) {
	s, err := find(card, selector)
	if err != nil {
		return "", err
	}
	t := cleanText(s.Text())
	if t == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyValue, selector)
	}
	return t, nil
}

func (r rules) href(card *goquery.Selection) (string, error) {
	s, err := find(card, r.sel.Link)
	if err != nil {
		return "", err
	}
	h, ok := s.Attr("href")
	h = strings.TrimSpace(h)
	if !ok || h == "" {
		return "", fmt.Errorf("%w: %s[href]", ErrMissingElement, r.sel.Link)
	}
	return h, nil
}

// 详情链接最后一个"-"之后的数字即房源id，例如 .../aluguel-RS2500-id-2612345678/
func (r rules) id(card *goquery.Selection) (any, error) {
	h, err := r.href(card)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(h, "-")
	return parseInt(digits(parts[len(parts)-1]))
}

func (r rules) url(card *goquery.Selection) (any, error) {
	h, err := r.href(card)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") {
		return h, nil
	}
	return strings.TrimRight(r.baseURL, "/") + "/" + strings.TrimLeft(h, "/"), nil
}

func (r rules) title(card *goquery.Selection) (any, error) {
	return text(card, r.sel.Title)
}

// 房源类型取标题的前缀，例如"Apartamento com 2 Quartos para Alugar" -> "apartamento"
func (r rules) listingType(card *goquery.Selection) (any, error) {
	t, err := text(card, r.sel.Title)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(t)
	end := len(lower)
	for _, term := range typeTerminators {
		if i := strings.Index(lower, term); i >= 0 && i < end {
			end = i
		}
	}
	prefix := strings.TrimSpace(lower[:end])
	if prefix == "" {
		return nil, ErrEmptyValue
	}
	return prefix, nil
}

func (r rules) address(card *goquery.Selection) (any, error) {
	return text(card, r.sel.Address)
}

func (r rules) splitAddress(card *goquery.Selection) (Address, error) {
	t, err := text(card, r.sel.Address)
	if err != nil {
		return Address{}, err
	}
	return SplitAddress(t), nil
}

func (r rules) street(card *goquery.Selection) (any, error) {
	a, err := r.splitAddress(card)
	if err != nil {
		return nil, err
	}
	return a.Street()
}

func (r rules) streetNumber(card *goquery.Selection) (any, error) {
	a, err := r.splitAddress(card)
	if err != nil {
		return nil, err
	}
	return a.Number()
}

func (r rules) neighborhood(card *goquery.Selection) (any, error) {
	a, err := r.splitAddress(card)
	if err != nil {
		return nil, err
	}
	return a.Neighborhood()
}

func (r rules) price(card *goquery.Selection) (any, error) {
	t, err := text(card, r.sel.Price)
	if err != nil {
		return nil, err
	}
	return parseAmount(t)
}

// 价格框中"/"之后的第一个词，例如"R$ 1.500 /mês" -> "month"
func (r rules) period(card *goquery.Selection) (any, error) {
	t, err := text(card, r.sel.Price)
	if err != nil {
		return nil, err
	}
	_, after, ok := strings.Cut(t, "/")
	if !ok {
		return nil, fmt.Errorf("%w: price period", ErrMissingElement)
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: price period", ErrEmptyValue)
	}
	label := strings.ToLower(fields[0])
	if p, ok := periodLabels[label]; ok {
		return p, nil
	}
	return label, nil
}

func (r rules) condoFee(card *goquery.Selection) (any, error) {
	t, err := text(card, r.sel.CondoFee)
	if err != nil {
		return nil, err
	}
	return parseAmount(t)
}

func (r rules) area(card *goquery.Selection) (any, error) {
	t, err := text(card, r.sel.Area)
	if err != nil {
		return nil, err
	}
	n, err := parseInt(digits(t))
	if err != nil {
		return nil, err
	}
	return float64(n), nil
}

// 数量类字段取文本开头的数字，"--"之类的占位文本得到ErrNoDigits
func (r rules) count(selector string) Extractor {
	return func(card *goquery.Selection) (any, error) {
		t, err := text(card, selector)
		if err != nil {
			return nil, err
		}
		return parseInt(leadingDigits(t))
	}
}

func (r rules) amenities(card *goquery.Selection) (any, error) {
	var items []string
	card.Find(r.sel.Amenities).Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" {
			items = append(items, t)
		}
	})
	return strings.Join(items, "; "), nil
}
