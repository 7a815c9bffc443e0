package extract

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/listing"
)

// FieldError 记录单个字段抽取失败的原因
type FieldError struct {
	Field listing.Field
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Result 是一张卡片的格式化结果，失败的字段为空值并记录在Failures中
type Result struct {
	Listing  listing.Listing
	Failures []*FieldError
}

// Failed 判断某个字段是否抽取失败
func (r Result) Failed(field listing.Field) bool {
	for _, f := range r.Failures {
		if f.Field == field {
			return true
		}
	}
	return false
}

type formatterOptions struct {
	source string
	city   string
	now    func() time.Time
	logger *zap.Logger
}

var defaultFormatterOptions = formatterOptions{
	now:    time.Now,
	logger: zap.NewNop(),
}

type FormatterOption func(opts *formatterOptions)

func WithSource(source string) FormatterOption {
	return func(opts *formatterOptions) {
		opts.source = source
	}
}

func WithCity(city string) FormatterOption {
	return func(opts *formatterOptions) {
		opts.city = city
	}
}

// WithClock 设置采集时间的来源
func WithClock(now func() time.Time) FormatterOption {
	return func(opts *formatterOptions) {
		opts.now = now
	}
}

func WithLogger(logger *zap.Logger) FormatterOption {
	return func(opts *formatterOptions) {
		opts.logger = logger
	}
}

// Formatter 将一张房源卡片转换为一条Listing
type Formatter struct {
	registry *Registry
	formatterOptions
}

func NewFormatter(registry *Registry, opts ...FormatterOption) *Formatter {
	options := defaultFormatterOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Formatter{registry: registry, formatterOptions: options}
}

func (f *Formatter) Registry() *Registry {
	return f.registry
}

/*
输入一张房源卡片，输出格式化结果

对每个字段单独调用抽取规则，任何一个字段失败(元素缺失、类型不符、下标越界、甚至panic)都只会让该字段为空，
不会丢弃整条记录；采集时间取调用时刻，来源和城市由运行配置绑定
*/
func (f *Formatter) Format(card *goquery.Selection) Result {
	res := Result{
		Listing: listing.Listing{
			CaptureTimestamp: f.now(),
			Source:           f.source,
			City:             f.city,
		},
	}
	for _, field := range listing.Fields {
		v, err := f.extract(field, card)
		if err == nil {
			err = assign(&res.Listing, field, v)
		}
		if err != nil {
			res.Failures = append(res.Failures, &FieldError{Field: field, Err: err})
			f.logger.Debug("field extraction failed", zap.String("field", string(field)), zap.Error(err))
		}
	}
	return res
}

// FormatID 只抽取房源id，用于在完整格式化之前去重
func (f *Formatter) FormatID(card *goquery.Selection) (int64, error) {
	v, err := f.extract(listing.FieldID, card)
	if err != nil {
		return 0, &FieldError{Field: listing.FieldID, Err: err}
	}
	id, ok := v.(int64)
	if !ok {
		return 0, &FieldError{Field: listing.FieldID, Err: fmt.Errorf("%w: want int64, got %T", ErrTypeMismatch, v)}
	}
	return id, nil
}

func (f *Formatter) extract(field listing.Field, card *goquery.Selection) (v any, err error) {
	rule, ok := f.registry.Resolve(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRule, field)
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return rule(card)
}

// 将抽取到的值按字段写入记录，类型不符时返回ErrTypeMismatch
func assign(l *listing.Listing, field listing.Field, v any) error {
	switch field {
	case listing.FieldID:
		id, ok := v.(int64)
		if !ok {
			return mismatch[int64](v)
		}
		l.ListingID = id
		return nil
	case listing.FieldTitle:
		return set(&l.Title, v)
	case listing.FieldType:
		return set(&l.ListingType, v)
	case listing.FieldAddress:
		return set(&l.RawAddress, v)
	case listing.FieldStreet:
		return set(&l.Street, v)
	case listing.FieldStreetNumber:
		return set(&l.StreetNumber, v)
	case listing.FieldNeighborhood:
		return set(&l.Neighborhood, v)
	case listing.FieldPrice:
		return set(&l.Price, v)
	case listing.FieldPeriod:
		return set(&l.PricePeriod, v)
	case listing.FieldCondoFee:
		return set(&l.CondoFee, v)
	case listing.FieldArea:
		return set(&l.Area, v)
	case listing.FieldBathroomCount:
		return set(&l.BathroomCount, v)
	case listing.FieldRoomCount:
		return set(&l.RoomCount, v)
	case listing.FieldParkingCount:
		return set(&l.ParkingCount, v)
	case listing.FieldURL:
		return set(&l.URL, v)
	case listing.FieldAmenities:
		s, ok := v.(string)
		if !ok {
			return mismatch[string](v)
		}
		l.Amenities = s
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoRule, field)
}

func set[T any](dst **T, v any) error {
	t, ok := v.(T)
	if !ok {
		return mismatch[T](v)
	}
	*dst = &t
	return nil
}

func mismatch[T any](v any) error {
	var zero T
	return fmt.Errorf("%w: want %T, got %T", ErrTypeMismatch, zero, v)
}
