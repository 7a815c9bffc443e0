package dataset

import "github.com/dszqbsm/rentmonitor/listing"

// Table 是按listing_id去重的结果累加器，只追加，保持插入顺序
type Table struct {
	rows  []listing.Listing
	index map[int64]struct{}
}

func NewTable() *Table {
	return &Table{index: make(map[int64]struct{})}
}

// Append 追加一条记录；id已存在时丢弃新记录并返回false，已有记录不会被覆盖
func (t *Table) Append(l listing.Listing) bool {
	if _, ok := t.index[l.ListingID]; ok {
		return false
	}
	t.index[l.ListingID] = struct{}{}
	t.rows = append(t.rows, l)
	return true
}

func (t *Table) Has(id int64) bool {
	_, ok := t.index[id]
	return ok
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Rows 返回记录的副本
func (t *Table) Rows() []listing.Listing {
	out := make([]listing.Listing, len(t.rows))
	copy(out, t.rows)
	return out
}
