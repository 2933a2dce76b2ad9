package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ShipmentRows(t *testing.T) {
	d := testDict(t)

	item, ok := d.Extract(0, []string{"CJ", "10", "Lee Hanna(SiemReap)", "150.0", "010-9999-8888"})
	require.True(t, ok)
	assert.Equal(t, "CJ", item.Courier)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, "Lee Hanna", item.Name)
	assert.Equal(t, "SiemReap", item.Region)
	assert.InDelta(t, 150.0, item.Weight, 1e-9)
	assert.Equal(t, "010-9999-8888", item.Phone)
	assert.Empty(t, item.Remainder)

	item, ok = d.Extract(1, []string{"용차", "5", "Lee Han-na", "50.0", "010-9999-8888"})
	require.True(t, ok)
	assert.Equal(t, "용차", item.Courier)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "Lee Han-na", item.Name)
	assert.Empty(t, item.Region)
	assert.InDelta(t, 50.0, item.Weight, 1e-9)
	assert.Equal(t, 1, item.RowIndex)
}

func TestExtract_Precedence(t *testing.T) {
	d := testDict(t)

	// second integer is not a quantity any more, so it becomes the weight
	item, ok := d.Extract(0, []string{"홍길동", "3", "12"})
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
	assert.InDelta(t, 12.0, item.Weight, 1e-9)

	// out-of-range integer falls through to weight
	item, ok = d.Extract(0, []string{"홍길동", "1500"})
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	assert.InDelta(t, 1500.0, item.Weight, 1e-9)
}

func TestExtract_DefaultQuantity(t *testing.T) {
	d := testDict(t)
	item, ok := d.Extract(0, []string{"김철수", "010-1234-5678"})
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	assert.Zero(t, item.Weight)
}

func TestExtract_Remainder(t *testing.T) {
	d := testDict(t)
	item, ok := d.Extract(0, []string{"홍길동", "010-1234-5678", "fragile", "2", "handle with care"})
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "fragile handle with care", item.Remainder)
}

func TestExtract_PhonePatterns(t *testing.T) {
	d := testDict(t)
	tests := []struct {
		cell string
		want string
	}{
		{"010-9999-8888", "010-9999-8888"},
		{"tel 02-123-4567", "02-123-4567"},
		{"070-1234-5678", "070-1234-5678"},
		{"0504-123-4567", "0504-123-4567"},
		{"+82 10-1234-5678", "+82 10-1234-5678"},
		{"+855 12 345 678", "+855 12 345 678"},
		{"ph:01012345678", "01012345678"},
	}
	for _, tt := range tests {
		item, ok := d.Extract(0, []string{"홍길동", tt.cell})
		require.True(t, ok, tt.cell)
		assert.Equal(t, tt.want, item.Phone, tt.cell)
	}
}

func TestExtract_PhoneSplitAcrossCells(t *testing.T) {
	d := testDict(t)
	item, ok := d.Extract(0, []string{"홍길동", "010", "1234-5678"})
	require.True(t, ok)
	assert.Equal(t, "01012345678", NormalizePhone(item.Phone))
}

func TestExtract_NameFallback(t *testing.T) {
	d := testDict(t)

	item, ok := d.Extract(0, []string{"김", "3"})
	require.True(t, ok)
	assert.Equal(t, "김", item.Name)
	assert.Equal(t, 3, item.Quantity)

	// two latin letters are too short for the name rule but win the fallback
	item, ok = d.Extract(0, []string{"5", "Jo"})
	require.True(t, ok)
	assert.Equal(t, "Jo", item.Name)
}

func TestExtract_NoName(t *testing.T) {
	d := testDict(t)
	for _, cells := range [][]string{
		{"5", "150.0"},
		{"CJ", "3", "010-1234-5678"},
		{},
	} {
		_, ok := d.Extract(0, cells)
		assert.False(t, ok, "%v", cells)
	}
}

func TestDictionary_Courier(t *testing.T) {
	d := testDict(t)
	tests := []struct {
		cell string
		want string
		ok   bool
	}{
		{"CJ", "CJ", true},
		{"cj", "CJ", true},
		{"CJ대한통운", "CJ대한통운", true},
		{"CJ대한통운 택배", "CJ대한통운", true},
		{"한진택배", "한진", true},
		{"EMS", "EMS", true},
		{"대한", "대한통운", true},
		{"이한진", "", false},
		{"한진우", "", false},
		{"롯데월드 앞", "", false},
		{"한", "", false},
	}
	for _, tt := range tests {
		got, ok := d.courier(tt.cell)
		assert.Equal(t, tt.ok, ok, tt.cell)
		assert.Equal(t, tt.want, got, tt.cell)
	}
}

func TestExtract_NameContainingCourierToken(t *testing.T) {
	d := testDict(t)
	item, ok := d.Extract(0, []string{"이한진", "010-1111-2222"})
	require.True(t, ok)
	assert.Equal(t, "이한진", item.Name)
	assert.Empty(t, item.Courier)
	assert.Equal(t, "010-1111-2222", item.Phone)
}
