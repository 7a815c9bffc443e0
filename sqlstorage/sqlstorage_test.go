package sqlstorage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dszqbsm/rentmonitor/listing"
	"github.com/dszqbsm/rentmonitor/sqldb"
)

type fakedb struct {
	created []string
	dropped []string
	inserts []sqldb.TableData
	err     error
}

func (m *fakedb) CreateTable(t sqldb.TableData) error {
	m.created = append(m.created, t.TableName)
	return nil
}

func (m *fakedb) DropTable(t sqldb.TableData) error {
	m.dropped = append(m.dropped, t.TableName)
	return nil
}

func (m *fakedb) Insert(t sqldb.TableData) error {
	if m.err != nil {
		return m.err
	}
	m.inserts = append(m.inserts, t)
	return nil
}

func row(id int64) listing.Formatted {
	return listing.Formatted{
		CaptureTimestamp: time.Date(2023, 11, 28, 0, 0, 0, 0, time.UTC),
		Source:           "vivareal",
		ListingID:        id,
		City:             "florianopolis",
		Price:            listing.Float(1500),
		Category:         listing.CategoryResidential,
	}
}

func TestFields(t *testing.T) {
	fields := getFields()
	require.Len(t, fields, len(listing.FormattedColumns))
	for i, f := range fields {
		assert.Equal(t, listing.FormattedColumns[i], f.Title)
	}
	assert.Equal(t, sqldb.Field{Title: "capture_timestamp", Type: sqldb.TypeTime}, fields[0])
	assert.Equal(t, sqldb.Field{Title: "listing_id", Type: sqldb.TypeInt}, fields[2])
	assert.Equal(t, sqldb.Field{Title: "price", Type: sqldb.TypeFloat}, fields[10])
	assert.Equal(t, sqldb.Field{Title: "category", Type: sqldb.TypeText}, fields[19])
}

// 测试SQL存储
func TestSQLStorage_Flush(t *testing.T) {
	tests := []struct {
		name    string
		rows    []listing.Formatted
		batch   int
		inserts []int
		err     error
		wantErr bool
	}{
		{name: "empty", batch: 10},
		{name: "single batch", rows: []listing.Formatted{row(1), row(2)}, batch: 10, inserts: []int{2}},
		{name: "split batches", rows: []listing.Formatted{row(1), row(2), row(3), row(4), row(5)}, batch: 2, inserts: []int{2, 2, 1}},
		{name: "insert failed", rows: []listing.Formatted{row(1)}, batch: 10, err: errors.New("boom"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakedb{err: tt.err}
			s := New(db, WithBatchCount(tt.batch))
			require.NoError(t, s.Save(tt.rows...))
			err := s.Flush()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Nil(t, s.dataDocker)

			var counts []int
			for _, td := range db.inserts {
				counts = append(counts, td.DataCount)
				assert.Equal(t, "listings_history", td.TableName)
				assert.Len(t, td.Args, td.DataCount*len(listing.FormattedColumns))
			}
			assert.Equal(t, tt.inserts, counts)
		})
	}
}

func TestValues(t *testing.T) {
	args := values(row(42))
	require.Len(t, args, len(listing.FormattedColumns))
	assert.Equal(t, int64(42), args[2])
	assert.Nil(t, args[3])
	assert.Equal(t, 1500.0, args[10])
	assert.Equal(t, listing.CategoryResidential, args[19])
}

func TestReset(t *testing.T) {
	db := &fakedb{}
	s := New(db, WithTable("history"))
	require.NoError(t, s.Save(row(1)))
	require.NoError(t, s.Reset())
	assert.Equal(t, []string{"history"}, db.dropped)
	assert.Equal(t, []string{"history"}, db.created)
	require.NoError(t, s.Flush())
	assert.Empty(t, db.inserts)
}

func TestBatchCountCapped(t *testing.T) {
	assert.Equal(t, 2849, MaxBatchCount)

	db := &fakedb{}
	s := New(db, WithBatchCount(5000))
	assert.Equal(t, MaxBatchCount, s.BatchCount)

	rows := make([]listing.Formatted, MaxBatchCount+1)
	for i := range rows {
		rows[i] = row(int64(i + 1))
	}
	require.NoError(t, s.Save(rows...))
	require.NoError(t, s.Flush())
	require.Len(t, db.inserts, 2)
	for _, td := range db.inserts {
		assert.LessOrEqual(t, len(td.Args), maxBindParams)
	}
	assert.Equal(t, MaxBatchCount, db.inserts[0].DataCount)
	assert.Equal(t, 1, db.inserts[1].DataCount)
}
