package listing

// 定义单条房源记录及其固定的列结构，所有数据层(extracted/formatted/curated)共用这一套字段

import (
	"reflect"
	"strings"
	"time"
)

// 单条房源记录，字段顺序即列顺序，指针字段表示可为空
type Listing struct {
	CaptureTimestamp time.Time `parquet:"capture_timestamp,timestamp(millisecond)"`
	Source           string    `parquet:"source"`
	ListingID        int64     `parquet:"listing_id"`
	Title            *string   `parquet:"title"`
	ListingType      *string   `parquet:"listing_type"`
	RawAddress       *string   `parquet:"raw_address"`
	Street           *string   `parquet:"street"`
	StreetNumber     *int64    `parquet:"street_number"`
	Neighborhood     *string   `parquet:"neighborhood"`
	City             string    `parquet:"city"`
	Price            *float64  `parquet:"price"`
	PricePeriod      *string   `parquet:"price_period"`
	CondoFee         *float64  `parquet:"condo_fee"`
	Area             *float64  `parquet:"area"`
	BathroomCount    *int64    `parquet:"bathroom_count"`
	RoomCount        *int64    `parquet:"room_count"`
	ParkingCount     *int64    `parquet:"parking_count"`
	URL              *string   `parquet:"url"`
	Amenities        string    `parquet:"amenities"`
}

// formatted层记录：在Listing全部列之后追加派生列
type Formatted struct {
	CaptureTimestamp time.Time `parquet:"capture_timestamp,timestamp(millisecond)"`
	Source           string    `parquet:"source"`
	ListingID        int64     `parquet:"listing_id"`
	Title            *string   `parquet:"title"`
	ListingType      *string   `parquet:"listing_type"`
	RawAddress       *string   `parquet:"raw_address"`
	Street           *string   `parquet:"street"`
	StreetNumber     *int64    `parquet:"street_number"`
	Neighborhood     *string   `parquet:"neighborhood"`
	City             string    `parquet:"city"`
	Price            *float64  `parquet:"price"`
	PricePeriod      *string   `parquet:"price_period"`
	CondoFee         *float64  `parquet:"condo_fee"`
	Area             *float64  `parquet:"area"`
	BathroomCount    *int64    `parquet:"bathroom_count"`
	RoomCount        *int64    `parquet:"room_count"`
	ParkingCount     *int64    `parquet:"parking_count"`
	URL              *string   `parquet:"url"`
	Amenities        string    `parquet:"amenities"`

	Category     string   `parquet:"category"`
	TotalCost    *float64 `parquet:"total_cost"`
	PricePerArea *float64 `parquet:"price_per_area"`
	CondoPerArea *float64 `parquet:"condo_per_area"`
}

// 计费周期的规范取值
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
)

// 派生分类的取值
const (
	CategoryCommercial  = "Commercial"
	CategoryResidential = "Residential"
)

// Columns 按写出顺序列出Listing的列名
var Columns = ColumnsOf(Listing{})

// FormattedColumns 按写出顺序列出Formatted的列名
var FormattedColumns = ColumnsOf(Formatted{})

/*
输入一个结构体值，输出其列名列表

按字段声明顺序读取parquet标签的第一段作为列名，未打标签或标签为"-"的字段被忽略
*/
func ColumnsOf(v any) []string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := ColumnName(t.Field(i)); name != "" {
			cols = append(cols, name)
		}
	}
	return cols
}

// ColumnName 返回字段对应的列名，没有列名时返回空串
func ColumnName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("parquet")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// ToFormatted 复制Listing的全部列，派生列留空
func (l Listing) ToFormatted() Formatted {
	return Formatted{
		CaptureTimestamp: l.CaptureTimestamp,
		Source:           l.Source,
		ListingID:        l.ListingID,
		Title:            l.Title,
		ListingType:      l.ListingType,
		RawAddress:       l.RawAddress,
		Street:           l.Street,
		StreetNumber:     l.StreetNumber,
		Neighborhood:     l.Neighborhood,
		City:             l.City,
		Price:            l.Price,
		PricePeriod:      l.PricePeriod,
		CondoFee:         l.CondoFee,
		Area:             l.Area,
		BathroomCount:    l.BathroomCount,
		RoomCount:        l.RoomCount,
		ParkingCount:     l.ParkingCount,
		URL:              l.URL,
		Amenities:        l.Amenities,
	}
}

func String(s string) *string { return &s }

func Int(i int64) *int64 { return &i }

func Float(f float64) *float64 { return &f }
