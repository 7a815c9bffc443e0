package extract

// 字段抽取规则注册表：字段名 -> 抽取函数，所有与页面结构相关的知识都集中在这里

import (
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/dszqbsm/rentmonitor/listing"
)

var (
	ErrMissingElement = errors.New("element not found")
	ErrEmptyValue     = errors.New("empty value")
	ErrNoDigits       = errors.New("no digits")
	ErrCoercion       = errors.New("coercion failed")
	ErrTokenIndex     = errors.New("address token out of range")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrNoRule         = errors.New("no extraction rule")
)

// Extractor 从一张房源卡片中抽取一个字段的原始值，失败时返回错误而不是panic
type Extractor func(card *goquery.Selection) (any, error)

// Selectors 描述房源卡片的页面结构
type Selectors struct {
	Card        string `yaml:"card"`
	Link        string `yaml:"link"`
	Title       string `yaml:"title"`
	Address     string `yaml:"address"`
	Price       string `yaml:"price"`
	CondoFee    string `yaml:"condo_fee"`
	Area        string `yaml:"area"`
	Rooms       string `yaml:"rooms"`
	Bathrooms   string `yaml:"bathrooms"`
	Parking     string `yaml:"parking"`
	Amenities   string `yaml:"amenities"`
	ResultCount string `yaml:"result_count"` // XPath
}

// VivaReal结果页的卡片结构
var DefaultSelectors = Selectors{
	Card:        "article.property-card__container",
	Link:        "a.property-card__content-link",
	Title:       "span.js-card-title",
	Address:     "span.property-card__address",
	Price:       "div.property-card__price",
	CondoFee:    "strong.js-condo-price",
	Area:        "span.js-property-card-detail-area",
	Rooms:       "li.property-card__detail-room",
	Bathrooms:   "li.property-card__detail-bathroom span.property-card__detail-value",
	Parking:     "li.property-card__detail-garage span.property-card__detail-value",
	Amenities:   "li.amenities__item",
	ResultCount: "//strong[contains(@class,'results-summary__count')]",
}

// Merge 用s中非空的选择器覆盖默认值
func (s Selectors) Merge(def Selectors) Selectors {
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	return Selectors{
		Card:        pick(s.Card, def.Card),
		Link:        pick(s.Link, def.Link),
		Title:       pick(s.Title, def.Title),
		Address:     pick(s.Address, def.Address),
		Price:       pick(s.Price, def.Price),
		CondoFee:    pick(s.CondoFee, def.CondoFee),
		Area:        pick(s.Area, def.Area),
		Rooms:       pick(s.Rooms, def.Rooms),
		Bathrooms:   pick(s.Bathrooms, def.Bathrooms),
		Parking:     pick(s.Parking, def.Parking),
		Amenities:   pick(s.Amenities, def.Amenities),
		ResultCount: pick(s.ResultCount, def.ResultCount),
	}
}

// Registry 是固定的字段规则表
type Registry struct {
	selectors Selectors
	rules     map[listing.Field]Extractor
}

/*
输入页面结构和详情链接的站点前缀，输出字段规则表

每个可抽取字段都对应一条规则，地址派生字段(街道、门牌号、街区)共用SplitAddress
*/
func NewRegistry(sel Selectors, baseURL string) *Registry {
	b := rules{sel: sel, baseURL: baseURL}
	return &Registry{
		selectors: sel,
		rules: map[listing.Field]Extractor{
			listing.FieldID:            b.id,
			listing.FieldURL:           b.url,
			listing.FieldTitle:         b.title,
			listing.FieldType:          b.listingType,
			listing.FieldAddress:       b.address,
			listing.FieldStreet:        b.street,
			listing.FieldStreetNumber:  b.streetNumber,
			listing.FieldNeighborhood:  b.neighborhood,
			listing.FieldPrice:         b.price,
			listing.FieldPeriod:        b.period,
			listing.FieldCondoFee:      b.condoFee,
			listing.FieldArea:          b.area,
			listing.FieldRoomCount:     b.count(sel.Rooms),
			listing.FieldBathroomCount: b.count(sel.Bathrooms),
			listing.FieldParkingCount:  b.count(sel.Parking),
			listing.FieldAmenities:     b.amenities,
		},
	}
}

// Resolve 返回字段对应的抽取函数，字段未知时ok为false
func (r *Registry) Resolve(field listing.Field) (Extractor, bool) {
	e, ok := r.rules[field]
	return e, ok
}

func (r *Registry) Selectors() Selectors {
	return r.selectors
}
