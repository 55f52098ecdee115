package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/excel"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
	memstore "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/store"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.StrategyReplaced
}

func (p *recordingPublisher) PublishStrategyReplaced(_ context.Context, ev notify.StrategyReplaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) reasons() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Reason
	}
	return out
}

type testEnv struct {
	router    *gin.Engine
	handler   *Handler
	repo      store.Repository
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memstore.NewMemoryStore()
	pub := &recordingPublisher{}
	opts := Options{
		Repo:      repo,
		Publisher: pub,
		Logger:    zerolog.Nop(),
		UploadDir: t.TempDir(),
		ExportDir: t.TempDir(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	h := NewHandler(opts)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, handler: h, repo: repo, publisher: pub}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func seedData(t *testing.T, repo store.Repository) {
	t.Helper()
	snap := &model.Snapshot{
		Customers: []*model.Customer{
			{ID: "c1", Name: "Acme Roofing", Group: "Dealer", AnnualSpend: 600000},
			{ID: "c2", Name: "Bolt Builders", Group: "Commercial", AnnualSpend: 80000},
		},
		Categories: []*model.Category{
			{ID: "k1", Name: "FC36", Revenue: 10000, MaterialCost: 60},
			{ID: "k2", Name: "Sealant Tape", Revenue: 2000, MaterialCost: 5},
		},
		Sales: []*model.SalesTransaction{
			{ID: "t1", CustomerName: "Acme Roofing", CategoryName: "FC36", Amount: 10000, COGS: 7000},
			{ID: "t2", CustomerName: "Bolt Builders Inc", CategoryName: "FC36", Amount: 5000, COGS: 4000},
			{ID: "t3", CustomerName: "Nobody", CategoryName: "FC36", Amount: 100, COGS: 50},
		},
		Aliases: []model.CustomerAlias{},
	}
	if err := repo.ReplaceSnapshot(snap); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// TestGetStrategySeeds 首次读取写入种子策略
func TestGetStrategySeeds(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.repo.GetStrategy(); !store.IsNotFound(err) {
		t.Fatalf("expected no strategy before first GET, got %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/strategy", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var got model.PricingStrategy
	decode(t, w, &got)
	if got.ListMultipliers[pricing.KeyDefault] != 1.5 {
		t.Errorf("list Default = %v, want 1.5", got.ListMultipliers[pricing.KeyDefault])
	}
	if _, err := env.repo.GetStrategy(); err != nil {
		t.Errorf("strategy not persisted: %v", err)
	}
}

func TestUpdateTierMultiplier(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body UpdateTierRequest
		code int
	}{
		{"valid", UpdateTierRequest{CustomerGroup: "dealer", Tier: "Authorized Gold", CategoryKey: "FC36", Value: 0.755}, http.StatusOK},
		{"string value", UpdateTierRequest{CustomerGroup: "Dealer", Tier: "Authorized Silver", CategoryKey: "FC36", Value: "0.8"}, http.StatusOK},
		{"unknown group", UpdateTierRequest{CustomerGroup: "Retail", Tier: "Authorized Gold", CategoryKey: "FC36", Value: 0.75}, http.StatusBadRequest},
		{"unknown tier", UpdateTierRequest{CustomerGroup: "Dealer", Tier: "Key Account", CategoryKey: "FC36", Value: 0.75}, http.StatusBadRequest},
		{"bad value", UpdateTierRequest{CustomerGroup: "Dealer", Tier: "Authorized Gold", CategoryKey: "FC36", Value: "abc"}, http.StatusBadRequest},
		{"too large", UpdateTierRequest{CustomerGroup: "Dealer", Tier: "Authorized Gold", CategoryKey: "FC36", Value: 2}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, "/api/strategy/tier", tt.body)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d body=%s", w.Code, tt.code, w.Body.String())
			}
		})
	}

	s, err := env.repo.GetStrategy()
	if err != nil {
		t.Fatalf("GetStrategy: %v", err)
	}
	if got := s.TierTable("Dealer", "Authorized Gold")["FC36"]; got != 0.76 {
		t.Errorf("Dealer gold FC36 = %v, want 0.76", got)
	}
	if got := s.TierTable("Dealer", "Authorized Silver")["FC36"]; got != 0.8 {
		t.Errorf("Dealer silver FC36 = %v, want 0.8", got)
	}
	if reasons := env.publisher.reasons(); len(reasons) != 2 || reasons[0] != notify.ReasonEdit {
		t.Errorf("published = %v", reasons)
	}
}

func TestUpdateListMultiplier(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPatch, "/api/strategy/list", UpdateListRequest{CategoryKey: "fasteners:type s", Value: 2.1})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var got model.PricingStrategy
	decode(t, w, &got)
	if got.ListMultipliers["Fasteners:Type S"] != 2.1 {
		t.Errorf("list multipliers = %v", got.ListMultipliers)
	}

	w = env.do(t, http.MethodPatch, "/api/strategy/list", UpdateListRequest{CategoryKey: "FC36", Value: -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative value status = %d", w.Code)
	}
}

func TestEnforceAndReset(t *testing.T) {
	env := newTestEnv(t, nil)

	// 较低等级比较高等级更优惠，违反层级
	env.do(t, http.MethodPatch, "/api/strategy/tier", UpdateTierRequest{CustomerGroup: "Dealer", Tier: "Standard Dealer", CategoryKey: pricing.KeyDefault, Value: 0.5})

	w := env.do(t, http.MethodPost, "/api/strategy/enforce", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp EnforceResponse
	decode(t, w, &resp)
	if len(resp.Report.Adjustments) == 0 {
		t.Error("expected adjustments")
	}
	if got := resp.Strategy.TierTable("Dealer", "Standard Dealer")[pricing.KeyDefault]; got != 0.8 {
		t.Errorf("Standard Dealer Default = %v, want 0.8", got)
	}

	w = env.do(t, http.MethodPost, "/api/strategy/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
	s, _ := env.repo.GetStrategy()
	if got := s.TierTable("Dealer", "Standard Dealer")[pricing.KeyDefault]; got != 0.8 {
		t.Errorf("after reset = %v, want 0.8", got)
	}

	reasons := env.publisher.reasons()
	want := []string{notify.ReasonEdit, notify.ReasonEnforce, notify.ReasonReset}
	if strings.Join(reasons, ",") != strings.Join(want, ",") {
		t.Errorf("published = %v, want %v", reasons, want)
	}
}

func TestCalibrate(t *testing.T) {
	env := newTestEnv(t, nil)
	seedData(t, env.repo)

	w := env.do(t, http.MethodPost, "/api/strategy/calibrate?aggregates=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp CalibrateResponse
	decode(t, w, &resp)
	if resp.RunID == "" || resp.Diagnostics == nil {
		t.Fatalf("incomplete response: %+v", resp)
	}
	if resp.Diagnostics.TransactionsTotal != 3 || resp.Diagnostics.TransactionsMatched != 2 {
		t.Errorf("diagnostics = %+v", resp.Diagnostics)
	}
	if len(resp.Aggregates) == 0 {
		t.Error("expected aggregates")
	}

	logs, err := env.repo.ListCalibrationLogs(1)
	if err != nil || len(logs) != 1 {
		t.Fatalf("logs = %v, err = %v", logs, err)
	}
	if logs[0].Status != model.CalibrationCompleted || logs[0].RunID != resp.RunID || logs[0].CompletedAt == nil {
		t.Errorf("log = %+v", logs[0])
	}

	saved, _ := env.repo.GetStrategy()
	if _, report := pricing.EnforceHierarchy(saved); len(report.Adjustments) != 0 {
		t.Errorf("saved strategy violates hierarchy: %+v", report.Adjustments)
	}

	if reasons := env.publisher.reasons(); len(reasons) != 1 || reasons[0] != notify.ReasonCalibrate {
		t.Errorf("published = %v", reasons)
	}
}

func TestCalibrateConflict(t *testing.T) {
	env := newTestEnv(t, nil)

	env.handler.calibrating.Lock()
	w := env.do(t, http.MethodPost, "/api/strategy/calibrate", nil)
	env.handler.calibrating.Unlock()

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestCalibrateRateLimit(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.CalibrationRate = 0.001
		o.CalibrationBurst = 1
	})

	if w := env.do(t, http.MethodPost, "/api/strategy/calibrate", nil); w.Code != http.StatusOK {
		t.Fatalf("first status = %d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/api/strategy/calibrate", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", w.Code)
	}
}

func TestResolveTierAndQuote(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/tiers/resolve?group=dealer&spend=600000", nil)
	var tier ResolveTierResponse
	decode(t, w, &tier)
	if tier.Tier != "Authorized Gold" || tier.TierIndex != 1 || tier.CustomerGroup != "Dealer" {
		t.Errorf("resolve = %+v", tier)
	}

	if w := env.do(t, http.MethodGet, "/api/tiers/resolve?group=Dealer&spend=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad spend status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/pricing/quote?cost=100&category=FC36&group=Dealer&spend=600000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("quote status = %d body=%s", w.Code, w.Body.String())
	}
	var quote pricing.Quote
	decode(t, w, &quote)
	want := pricing.BuildQuote(pricing.DefaultStrategy(), 100, "FC36", "Dealer", "Authorized Gold")
	if quote.Tier != "Authorized Gold" || quote.NetPrice != want.NetPrice || quote.ListPrice != 150 {
		t.Errorf("quote = %+v, want net %v", quote, want.NetPrice)
	}

	if w := env.do(t, http.MethodGet, "/api/pricing/quote?cost=100", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing category status = %d", w.Code)
	}
}

func TestNonFiniteQueryParams(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		path string
	}{
		{"resolve NaN spend", "/api/tiers/resolve?group=Dealer&spend=NaN"},
		{"resolve Inf spend", "/api/tiers/resolve?group=Dealer&spend=%2BInf"},
		{"quote Inf cost", "/api/pricing/quote?cost=Inf&category=FC36&group=Dealer&tier=Authorized%20Gold"},
		{"quote NaN cost", "/api/pricing/quote?cost=nan&category=FC36&group=Dealer&tier=Authorized%20Gold"},
		{"quote NaN spend", "/api/pricing/quote?cost=100&category=FC36&group=Dealer&spend=NaN"},
		{"preview NaN cost", "/api/reports/preview?cost=NaN"},
		{"preview Inf cost", "/api/reports/preview?cost=Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d body=%s, want 400", w.Code, w.Body.String())
			}
		})
	}
}

func TestCustomersCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/customers", model.Customer{Name: " Acme Roofing ", Group: "Dealer", AnnualSpend: 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var created model.Customer
	decode(t, w, &created)
	if created.ID == "" || created.Name != "Acme Roofing" {
		t.Errorf("created = %+v", created)
	}

	if w := env.do(t, http.MethodPost, "/api/customers", model.Customer{Name: ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/customers/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/customers/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/sales", []model.SalesTransaction{{CustomerName: "Acme", CategoryName: "FC36", Amount: 10}})
	if w.Code != http.StatusOK {
		t.Errorf("insert sales status = %d body=%s", w.Code, w.Body.String())
	}
	sales, _ := env.repo.ListSales()
	if len(sales) != 1 || sales[0].ID == "" {
		t.Errorf("sales = %+v", sales)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	seedData(t, env.repo)

	w := env.do(t, http.MethodGet, "/api/status", nil)
	var resp StatusResponse
	decode(t, w, &resp)
	if !resp.Initialized || resp.Customers != 2 || resp.Transactions != 3 || resp.StrategySaved {
		t.Errorf("status = %+v", resp)
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, nil)
	seedData(t, env.repo)

	w := env.do(t, http.MethodGet, "/api/reports/preview", nil)
	var preview struct {
		Items []pricing.PreviewRow `json:"items"`
	}
	decode(t, w, &preview)
	if len(preview.Items) != 2 {
		t.Errorf("preview rows = %d, want 2", len(preview.Items))
	}

	w = env.do(t, http.MethodGet, "/api/reports/margin-alerts", nil)
	var alerts struct {
		Total int `json:"total"`
	}
	decode(t, w, &alerts)
	if alerts.Total == 0 {
		t.Error("expected margin alerts for Sealant Tape under the seed strategy")
	}

	w = env.do(t, http.MethodGet, "/api/reports/impact", nil)
	var impact pricing.ImpactReport
	decode(t, w, &impact)
	if len(impact.Customers) != 2 {
		t.Errorf("impact customers = %d", len(impact.Customers))
	}
}

func TestExportDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	seedData(t, env.repo)

	w := env.do(t, http.MethodPost, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d body=%s", w.Code, w.Body.String())
	}
	var resp ExportResponse
	decode(t, w, &resp)
	if !strings.HasPrefix(resp.DownloadURL, "/api/export/download/") {
		t.Fatalf("downloadUrl = %q", resp.DownloadURL)
	}

	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("download status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, resp.Filename) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// 一次性链接
	if w := env.do(t, http.MethodGet, resp.DownloadURL, nil); w.Code != http.StatusNotFound {
		t.Errorf("second download status = %d, want 404", w.Code)
	}
}

func TestImportSSE(t *testing.T) {
	env := newTestEnv(t, nil)

	f, err := excel.NewDataWorkbook(&model.Snapshot{
		Customers: []*model.Customer{{ID: "c1", Name: "Acme Roofing", Group: "Dealer", AnnualSpend: 600000}},
	})
	if err != nil {
		t.Fatalf("NewDataWorkbook: %v", err)
	}
	content, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "data.xlsx")
	_, _ = part.Write(content.Bytes())
	_ = mw.WriteField("mode", "replace")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"type":"done"`) {
		t.Errorf("missing done event: %s", w.Body.String())
	}
	customers, _ := env.repo.ListCustomers()
	if len(customers) != 1 {
		t.Errorf("customers = %d, want 1", len(customers))
	}

	w = env.do(t, http.MethodGet, "/api/imports", nil)
	var imports struct {
		Items []model.ImportLog `json:"items"`
	}
	decode(t, w, &imports)
	if len(imports.Items) != 1 || imports.Items[0].Status != model.ImportCompleted {
		t.Errorf("imports = %+v", imports.Items)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(""))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d", w.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/import/template", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer f.Close()
	for _, sheet := range excel.DataSheets() {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("template missing sheet %s", sheet)
		}
	}
}
