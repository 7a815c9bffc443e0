package listing

// Field 是可从房源卡片中抽取的字段名，取值与列名一致
type Field string

const (
	FieldID            Field = "listing_id"
	FieldTitle         Field = "title"
	FieldType          Field = "listing_type"
	FieldAddress       Field = "raw_address"
	FieldStreet        Field = "street"
	FieldStreetNumber  Field = "street_number"
	FieldNeighborhood  Field = "neighborhood"
	FieldPrice         Field = "price"
	FieldPeriod        Field = "price_period"
	FieldCondoFee      Field = "condo_fee"
	FieldArea          Field = "area"
	FieldBathroomCount Field = "bathroom_count"
	FieldRoomCount     Field = "room_count"
	FieldParkingCount  Field = "parking_count"
	FieldURL           Field = "url"
	FieldAmenities     Field = "amenities"
)

// Fields 按列顺序列出全部可抽取字段；capture_timestamp、source、city由格式化器绑定，不在其中
var Fields = []Field{
	FieldID,
	FieldTitle,
	FieldType,
	FieldAddress,
	FieldStreet,
	FieldStreetNumber,
	FieldNeighborhood,
	FieldPrice,
	FieldPeriod,
	FieldCondoFee,
	FieldArea,
	FieldBathroomCount,
	FieldRoomCount,
	FieldParkingCount,
	FieldURL,
	FieldAmenities,
}
