package staging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cargo-recon/internal/config"
	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/reconcile/service"
	"cargo-recon/internal/store"
)

const batchText = "CJ\t10\tLee Hanna(SiemReap)\t150.0\t010-9999-8888\n" +
	"용차\t5\tLee Han-na\t50.0\t010-9999-8888\n" +
	"\n" +
	"Park Jisoo\t3\n"

func testDeps(t *testing.T) Deps {
	t.Helper()
	raw := config.DefaultDictionary()
	dict, err := service.NewDictionary(raw)
	require.NoError(t, err)
	return Deps{
		Engine:        service.NewEngine(dict, service.Options{}),
		Resolver:      pricing.NewRateResolver(raw.DiscountKeywords),
		UnitPrice:     100,
		VolumeDivisor: 100,
	}
}

func testCustomers() []model.Customer {
	pct := 10.0
	return []model.Customer{
		{ID: "c-kim", Name: "Kim Minsu", Phone: "010-1234-5678", Region: "Phnom Penh", Active: true},
		{
			ID:              "c-lee",
			Name:            "Rev. Lee Han-na (Siem Reap)",
			Phone:           "010-9999-8888",
			Region:          "Siem Reap",
			Active:          true,
			DiscountPercent: &pct,
		},
	}
}

type fakeRepo struct {
	mu        sync.Mutex
	customers []model.Customer
	saveErr   error
	batches   []model.Batch
}

func (r *fakeRepo) ListActiveCustomers(context.Context) ([]model.Customer, error) {
	return r.customers, nil
}

func (r *fakeRepo) SaveBatch(_ context.Context, b model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.batches = append(r.batches, b)
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Save(_ context.Context, id string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
	return nil
}

func (c *memCache) Load(_ context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (c *memCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

var errDown = errors.New("database down")
