package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-recon/internal/reconcile/model"
)

func siemReapDirectory() []model.Customer {
	return []model.Customer{
		{ID: "c-kim", Name: "Kim Minsu", Phone: "010-1234-5678", Region: "Phnom Penh", Active: true},
		{
			ID:              "c-lee",
			Name:            "Rev. Lee Han-na (Siem Reap)",
			Phone:           "010-9999-8888",
			Region:          "Siem Reap",
			Active:          true,
			DiscountPercent: ptr(10.0),
		},
	}
}

func TestMatch_EndToEndRows(t *testing.T) {
	e := NewEngine(testDict(t), Options{})
	text := "CJ\t10\tLee Hanna(SiemReap)\t150.0\t010-9999-8888\n" +
		"용차\t5\tLee Han-na\t50.0\t010-9999-8888\n"

	res, dups, err := e.Parse(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.Len(t, dups, 1)

	for _, m := range MatchAll(res.Items, siemReapDirectory()) {
		assert.Equal(t, model.StatusVerified, m.Status)
		require.NotNil(t, m.Customer)
		assert.Equal(t, "c-lee", m.Customer.ID)
		assert.Contains(t, m.Factors, model.FactorPhone)
		assert.GreaterOrEqual(t, m.Confidence, 0.95)
		assert.Empty(t, m.Candidates)
	}
}

func TestMatch_FactorsInOrder(t *testing.T) {
	item := model.ParsedItem{Name: "Lee Hanna", Region: "SiemReap", Phone: "010-9999-8888"}
	m := Match(item, siemReapDirectory())
	assert.Equal(t, []model.Factor{model.FactorPhone, model.FactorFuzzyName, model.FactorRegion}, m.Factors)
	assert.InDelta(t, 0.95, m.Confidence, 1e-9)
}

func TestMatch_PhoneOverridesNameMismatch(t *testing.T) {
	dir := siemReapDirectory()
	a := model.ParsedItem{Name: "Hanna L.", Phone: "010 9999 8888"}
	b := model.ParsedItem{Name: "이한나 선교사", Phone: "01099998888"}
	require.Less(t, Similarity(a.Name, b.Name), 0.5)

	for _, it := range []model.ParsedItem{a, b} {
		m := Match(it, dir)
		require.NotNil(t, m.Customer)
		assert.Equal(t, "c-lee", m.Customer.ID)
		assert.Contains(t, m.Factors, model.FactorPhone)
		assert.GreaterOrEqual(t, m.Confidence, 0.95)
	}
}

func TestMatch_PhoneSubstring(t *testing.T) {
	m := Match(model.ParsedItem{Name: "Somebody", Phone: "9999-8888"}, siemReapDirectory())
	require.NotNil(t, m.Customer)
	assert.Equal(t, "c-lee", m.Customer.ID)

	// fewer than 8 digits never counts
	m = Match(model.ParsedItem{Name: "Somebody", Phone: "999-8888"}, siemReapDirectory())
	assert.Equal(t, model.StatusNewCustomer, m.Status)
	assert.Nil(t, m.Customer)
}

func TestMatch_ExactName(t *testing.T) {
	m := Match(model.ParsedItem{Name: "kim minsu"}, siemReapDirectory())
	assert.Equal(t, model.StatusVerified, m.Status)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, []model.Factor{model.FactorExactName}, m.Factors)
	assert.Empty(t, m.Candidates)
}

func TestMatch_FuzzyAndRegion(t *testing.T) {
	dir := []model.Customer{{ID: "c1", Name: "Kim Chulso", Region: "Seoul", Active: true}}

	m := Match(model.ParsedItem{Name: "Kim Chulsoo"}, dir)
	assert.Equal(t, model.StatusSimilar, m.Status)
	assert.InDelta(t, 0.81, m.Confidence, 1e-9)
	assert.Equal(t, []model.Factor{model.FactorFuzzyName}, m.Factors)
	require.Len(t, m.Candidates, 1)
	assert.InDelta(t, 0.9, m.Candidates[0].Similarity, 1e-9)
	assert.Equal(t, "name 90% similar", m.Candidates[0].Reason)

	m = Match(model.ParsedItem{Name: "Kim Chulsoo", Region: "seoul "}, dir)
	assert.Equal(t, model.StatusSimilar, m.Status)
	assert.InDelta(t, 0.9, m.Confidence, 1e-9)
	assert.Equal(t, []model.Factor{model.FactorFuzzyName, model.FactorRegion}, m.Factors)
	assert.Equal(t, "name 90% similar, same region", m.Candidates[0].Reason)
}

func TestMatch_CandidatesCappedAndRanked(t *testing.T) {
	dir := []model.Customer{
		{ID: "c80a", Name: "abcdefghXY", Active: true},
		{ID: "c90a", Name: "abcdefghiX", Active: true},
		{ID: "c80b", Name: "abcdefghYZ", Active: true},
		{ID: "c90b", Name: "abcdefghiZ", Active: true},
	}
	m := Match(model.ParsedItem{Name: "abcdefghij"}, dir)

	assert.Equal(t, model.StatusSimilar, m.Status)
	require.NotNil(t, m.Customer)
	assert.Equal(t, "c90a", m.Customer.ID)
	require.Len(t, m.Candidates, 3)
	assert.Equal(t, "c90a", m.Candidates[0].Customer.ID)
	assert.Equal(t, "c90b", m.Candidates[1].Customer.ID)
	assert.Equal(t, "c80a", m.Candidates[2].Customer.ID)
}

func TestMatch_TieKeepsFirst(t *testing.T) {
	dir := []model.Customer{
		{ID: "first", Name: "홍길동", Active: true},
		{ID: "second", Name: "홍 길동", Active: true},
	}
	m := Match(model.ParsedItem{Name: "홍길동"}, dir)
	require.NotNil(t, m.Customer)
	assert.Equal(t, "first", m.Customer.ID)
}

func TestMatch_SkipsInactiveAndNew(t *testing.T) {
	dir := []model.Customer{{ID: "gone", Name: "홍길동", Phone: "010-1111-2222", Active: false}}
	m := Match(model.ParsedItem{Name: "홍길동", Phone: "010-1111-2222"}, dir)
	assert.Equal(t, model.StatusNewCustomer, m.Status)
	assert.Nil(t, m.Customer)
	assert.Zero(t, m.Confidence)
	assert.Empty(t, m.Factors)
	assert.NotNil(t, m.Candidates)
}

func TestMatch_DoesNotMutateDirectory(t *testing.T) {
	dir := siemReapDirectory()
	m := Match(model.ParsedItem{Name: "Kim Minsu"}, dir)
	require.NotNil(t, m.Customer)
	m.Customer.Name = "changed"
	assert.Equal(t, "Kim Minsu", dir[0].Name)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.StatusVerified, Classify(1))
	assert.Equal(t, model.StatusVerified, Classify(0.95))
	assert.Equal(t, model.StatusSimilar, Classify(0.94))
	assert.Equal(t, model.StatusSimilar, Classify(0.7))
	assert.Equal(t, model.StatusNewCustomer, Classify(0.69))
	assert.Equal(t, model.StatusNewCustomer, Classify(0))
}
