package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/store"
)

// fakeStore is an in-memory Store keyed exactly like the real ones:
// (file hash, organization id).
type fakeStore struct {
	mu      sync.Mutex
	cache   map[string]*model.ExtractionResult
	usage   []model.UsageRecord
	getErr  error
	putErr  error
	puts    int
	appends int
}

func newFakeStore() *fakeStore {
	return &fakeStore{cache: make(map[string]*model.ExtractionResult)}
}

func (f *fakeStore) key(hash, org string) string { return hash + "|" + org }

func (f *fakeStore) GetCachedResult(_ context.Context, hash, org string) (*model.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.cache[f.key(hash, org)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) PutCachedResult(_ context.Context, hash, org string, r *model.ExtractionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	cp := *r
	f.cache[f.key(hash, org)] = &cp
	return nil
}

func (f *fakeStore) PurgeCache(_ context.Context, org string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.cache {
		if strings.HasSuffix(k, "|"+org) {
			delete(f.cache, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) AppendUsage(_ context.Context, rec *model.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	f.usage = append(f.usage, *rec)
	return nil
}

func (f *fakeStore) ListUsage(_ context.Context, _ store.UsageFilter) ([]model.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.UsageRecord(nil), f.usage...), nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

// fakeExtractor returns a canned result or error and counts calls.
type fakeExtractor struct {
	mu     sync.Mutex
	result *model.ExtractionResult
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(_ context.Context, _ *model.ExtractionRequest) (*model.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.result
	return &cp, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func clientResult(fields int, confidence float64) *model.ExtractionResult {
	rec := model.PolicyRecord{}
	set := []*string{
		&rec.PolicyNumber, &rec.InsuredName, &rec.EffectiveDate,
		&rec.ExpirationDate, &rec.InsurerName, &rec.PropertyAddress,
		&rec.CoverageAmount, &rec.Deductible,
	}
	for i := 0; i < fields && i < len(set); i++ {
		*set[i] = "value"
	}
	return &model.ExtractionResult{
		ExtractedText:    "policy coverage deductible",
		PageCount:        1,
		Confidence:       confidence,
		ProcessingMethod: string(model.MethodClient),
		PolicyData:       rec,
	}
}

func providerResult(method model.Method, costCents int) *model.ExtractionResult {
	return &model.ExtractionResult{
		ExtractedText:    "provider text",
		PageCount:        3,
		Confidence:       0.9,
		ProcessingMethod: string(method),
		CostCents:        costCents,
		PolicyData: model.PolicyRecord{
			PolicyNumber: "PROV-123456",
			InsuredName:  "Jane Doe",
		},
	}
}

func request(doc, org string, method model.Method) *model.ExtractionRequest {
	return &model.ExtractionRequest{
		Document:       []byte(doc),
		FileName:       "declarations.pdf",
		OrganizationID: org,
		Method:         method,
	}
}

func TestProcess_ClientMethod(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{result: clientResult(5, 0.65)}
	orch := NewOrchestrator(st, client, nil, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodClient))
	require.NoError(t, err)

	assert.Equal(t, string(model.MethodClient), result.ProcessingMethod)
	assert.Zero(t, result.CostCents)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, st.puts, "successful result must be cached")
	assert.Zero(t, st.appends, "free extraction writes no ledger row")
}

func TestProcess_CacheHitIsFree(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	provider := &fakeExtractor{result: providerResult(model.MethodTextract, 18)}
	orch := NewOrchestrator(st, nil, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	req := request("doc", "org-1", model.MethodTextract)

	first, err := orch.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 18, first.CostCents)
	assert.Equal(t, 1, st.appends)

	second, err := orch.Process(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Zero(t, second.CostCents, "replays are never billed")
	assert.Equal(t, first.PolicyData, second.PolicyData)
	assert.Equal(t, 1, provider.callCount(), "provider must not run again")
	assert.Equal(t, 1, st.appends, "no second ledger row")
}

func TestProcess_TenantIsolation(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	provider := &fakeExtractor{result: providerResult(model.MethodTextract, 18)}
	orch := NewOrchestrator(st, nil, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	_, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodTextract))
	require.NoError(t, err)

	// Same bytes, different organization: no cross-tenant cache hit.
	second, err := orch.Process(context.Background(), request("doc", "org-2", model.MethodTextract))
	require.NoError(t, err)
	assert.False(t, second.CacheHit)
	assert.Equal(t, 2, provider.callCount())
}

func TestProcess_ProviderFailureFallsBackToClient(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{result: clientResult(3, 0.5)}
	provider := &fakeExtractor{err: &extract.ExtractionFailure{Provider: "vision", Err: errors.New("quota exceeded")}}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodVision: provider,
	}, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodVision))
	require.NoError(t, err)

	assert.Equal(t, "vision_failed_fallback_to_client", result.ProcessingMethod)
	assert.Zero(t, result.CostCents, "failed provider call is not billed")
	assert.Equal(t, 1, client.callCount())
	assert.Zero(t, st.appends)
	assert.Equal(t, 1, st.puts, "fallback result is still cached")
}

func TestProcess_ConfigurationErrorDoesNotFallBack(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{result: clientResult(3, 0.5)}
	provider := &fakeExtractor{err: &extract.ConfigurationError{Provider: "textract", Missing: "access_key_id"}}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	_, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodTextract))
	require.Error(t, err)
	assert.True(t, extract.IsConfiguration(err))
	assert.Zero(t, client.callCount())
}

func TestProcess_FallbackParseFailureIsTerminal(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{err: &extract.ParseFailure{Err: errors.New("no xref")}}
	provider := &fakeExtractor{err: &extract.ExtractionFailure{Provider: "vision", Err: errors.New("timeout")}}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodVision: provider,
	}, Options{})

	_, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodVision))
	require.Error(t, err)
	assert.True(t, extract.IsParseFailure(err))
	assert.Zero(t, st.puts)
}

func TestProcess_HybridSatisfiedByClient(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{result: clientResult(7, 0.8)}
	provider := &fakeExtractor{result: providerResult(model.MethodTextract, 18)}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodHybrid))
	require.NoError(t, err)

	assert.Equal(t, string(model.MethodHybrid), result.ProcessingMethod)
	assert.Zero(t, result.CostCents, "good client pass must stay free")
	assert.Zero(t, provider.callCount())
	assert.Zero(t, st.appends)
}

func TestProcess_HybridEscalatesAndMerges(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	cli := clientResult(2, 0.45)
	cli.PolicyData.EffectiveDate = "01/01/2024"
	client := &fakeExtractor{result: cli}
	provider := &fakeExtractor{result: providerResult(model.MethodTextract, 18)}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodHybrid))
	require.NoError(t, err)

	assert.Equal(t, string(model.MethodHybrid), result.ProcessingMethod)
	assert.Equal(t, 18, result.CostCents, "only the provider pass is billed")
	assert.Equal(t, 1, provider.callCount())
	// Provider wins overlapping fields; client fills gaps.
	assert.Equal(t, "PROV-123456", result.PolicyData.PolicyNumber)
	assert.Equal(t, "01/01/2024", result.PolicyData.EffectiveDate)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9, "merged confidence is the max of both passes")

	require.Len(t, st.usage, 1)
	assert.Equal(t, "textract", st.usage[0].Service)
	assert.Equal(t, 18, st.usage[0].CostCents)
	assert.Equal(t, "org-1", st.usage[0].OrganizationID)
}

func TestProcess_HybridProviderFailureKeepsClientResult(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	client := &fakeExtractor{result: clientResult(3, 0.5)}
	provider := &fakeExtractor{err: &extract.ExtractionFailure{Provider: "textract", Err: errors.New("503")}}
	orch := NewOrchestrator(st, client, map[model.Method]extract.Extractor{
		model.MethodTextract: provider,
	}, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodHybrid))
	require.NoError(t, err)

	assert.Equal(t, string(model.MethodHybrid), result.ProcessingMethod)
	assert.Zero(t, result.CostCents)
	assert.Zero(t, st.appends)
}

func TestProcess_UsageLedgerRow(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	provider := &fakeExtractor{result: providerResult(model.MethodVision, 15)}
	orch := NewOrchestrator(st, nil, map[model.Method]extract.Extractor{
		model.MethodVision: provider,
	}, Options{})

	_, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodVision))
	require.NoError(t, err)

	require.Len(t, st.usage, 1)
	rec := st.usage[0]
	assert.Equal(t, "vision", rec.Service)
	assert.Equal(t, "declarations.pdf", rec.DocumentName)
	assert.Equal(t, 3, rec.PageCount)
	assert.Equal(t, 15, rec.CostCents)
}

func TestProcess_CacheReadErrorDoesNotBlock(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.getErr = errors.New("database locked")
	client := &fakeExtractor{result: clientResult(3, 0.5)}
	orch := NewOrchestrator(st, client, nil, Options{})

	result, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodClient))
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
}

func TestProcess_Validation(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(newFakeStore(), &fakeExtractor{result: clientResult(1, 0.4)}, nil, Options{})

	_, err := orch.Process(context.Background(), request("", "org-1", model.MethodClient))
	assert.Error(t, err, "empty document")

	_, err = orch.Process(context.Background(), request("doc", "", model.MethodClient))
	assert.Error(t, err, "missing organization")

	_, err = orch.Process(context.Background(), request("doc", "org-1", model.Method("bogus")))
	assert.Error(t, err, "unknown method")
}

func TestProcess_NoAdapterConfigured(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(newFakeStore(), &fakeExtractor{result: clientResult(1, 0.4)}, nil, Options{})

	_, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodTextract))
	assert.Error(t, err)
}

// gatedExtractor blocks every call until released so concurrent requests
// pile up behind the in-flight execution.
type gatedExtractor struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (g *gatedExtractor) Extract(_ context.Context, _ *model.ExtractionRequest) (*model.ExtractionResult, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return clientResult(3, 0.5), nil
}

func TestProcess_ConcurrentDuplicatesShareOneExecution(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	gated := &gatedExtractor{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	orch := NewOrchestrator(st, gated, nil, Options{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]*model.ExtractionResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := orch.Process(context.Background(), request("doc", "org-1", model.MethodClient))
			require.NoError(t, err)
			results[i] = r
		}(i)
	}

	<-gated.entered
	time.Sleep(50 * time.Millisecond) // let the rest queue up behind the flight
	close(gated.release)
	wg.Wait()

	// Everyone got a result; the document was extracted at most twice
	// (late arrivals after the flight completes hit the cache instead).
	for _, r := range results {
		require.NotNil(t, r)
	}
	assert.LessOrEqual(t, gated.calls.Load(), int32(2))
}

func TestHashDocument(t *testing.T) {
	t.Parallel()

	a := HashDocument([]byte("same bytes"))
	b := HashDocument([]byte("same bytes"))
	c := HashDocument([]byte("different bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
