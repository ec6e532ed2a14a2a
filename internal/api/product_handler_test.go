package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/domain"
	"github.com/freshfinds/catalog_server/internal/resp"
	"github.com/freshfinds/catalog_server/internal/service"
)

// mockCatalogService captures arguments and returns canned results.
type mockCatalogService struct {
	lastFilter     *domain.ProductFilter
	lastID         int64
	lastCreate     *domain.CreateProductRequest
	lastUpdate     *domain.UpdateProductRequest
	listResult     []*domain.Product
	product        *domain.Product
	interestsCount int64
	err            error
}

func (m *mockCatalogService) ListProducts(filter *domain.ProductFilter) ([]*domain.Product, error) {
	m.lastFilter = filter
	return m.listResult, m.err
}

func (m *mockCatalogService) GetProduct(id int64) (*domain.Product, error) {
	m.lastID = id
	return m.product, m.err
}

func (m *mockCatalogService) CreateProduct(req *domain.CreateProductRequest) (*domain.Product, error) {
	m.lastCreate = req
	return m.product, m.err
}

func (m *mockCatalogService) UpdateProduct(id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	m.lastID = id
	m.lastUpdate = req
	return m.product, m.err
}

func (m *mockCatalogService) DeleteProduct(id int64) error {
	m.lastID = id
	return m.err
}

func (m *mockCatalogService) RecordInterest(id int64) (int64, error) {
	m.lastID = id
	return m.interestsCount, m.err
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *resp.Response {
	t.Helper()
	var body resp.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return &body
}

func TestProductHandler_ListProducts_FilterParsing(t *testing.T) {
	svc := &mockCatalogService{}
	handler := NewProductHandler(svc, zap.NewNop())

	target := "/api/v1/products?category=phones&category=laptops&categories=cars" +
		"&search=pro&brand=apple&featured=true&minPrice=10.5&maxPrice=99&tags=new&tags=used"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()

	handler.ListProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	filter := svc.lastFilter
	if filter == nil {
		t.Fatalf("filter was not passed to catalog service")
	}
	if filter.Category != "phones" {
		t.Errorf("category = %q, want %q", filter.Category, "phones")
	}
	if len(filter.Categories) != 2 || filter.Categories[0] != "laptops" || filter.Categories[1] != "cars" {
		t.Errorf("categories = %v, want [laptops cars]", filter.Categories)
	}
	if filter.Search != "pro" {
		t.Errorf("search = %q, want %q", filter.Search, "pro")
	}
	if filter.Brand != "apple" {
		t.Errorf("brand = %q, want %q", filter.Brand, "apple")
	}
	if filter.Featured != "true" {
		t.Errorf("featured = %q, want %q", filter.Featured, "true")
	}
	if filter.MinPrice == nil || *filter.MinPrice != 10.5 {
		t.Errorf("minPrice = %v, want 10.5", filter.MinPrice)
	}
	if filter.MaxPrice == nil || *filter.MaxPrice != 99 {
		t.Errorf("maxPrice = %v, want 99", filter.MaxPrice)
	}
	if len(filter.Tags) != 2 || filter.Tags[0] != domain.TagNew || filter.Tags[1] != domain.TagUsed {
		t.Errorf("tags = %v, want [new used]", filter.Tags)
	}
}

func TestProductHandler_ListProducts_TagRefinement(t *testing.T) {
	svc := &mockCatalogService{
		listResult: []*domain.Product{
			{ID: 1, Tags: []domain.Tag{domain.TagNew}},
			{ID: 2, Tags: []domain.Tag{domain.TagUsed}},
			{ID: 3},
		},
	}
	handler := NewProductHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?tags=new", nil)
	rec := httptest.NewRecorder()

	handler.ListProducts(rec, req)

	body := decodeEnvelope(t, rec)
	items, ok := body.Data.([]any)
	if !ok {
		t.Fatalf("data = %T, want array", body.Data)
	}
	// Only the product tagged "new" survives the refinement stage.
	if len(items) != 1 {
		t.Fatalf("data length = %d, want 1", len(items))
	}
}

func TestProductHandler_ListProducts_EmptyResult(t *testing.T) {
	svc := &mockCatalogService{}
	handler := NewProductHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.ListProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// The payload is an empty array, never null.
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"data":[]`)) {
		t.Errorf("body = %s, want data to be []", rec.Body.String())
	}
}

func TestProductHandler_GetProduct(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		product    *domain.Product
		err        error
		wantStatus int
		wantCode   resp.Code
	}{
		{
			name:       "found",
			path:       "/api/v1/products/42",
			product:    &domain.Product{ID: 42, Name: "UltraPhone X"},
			wantStatus: http.StatusOK,
			wantCode:   resp.CodeOK,
		},
		{
			name:       "not found",
			path:       "/api/v1/products/999",
			err:        service.ErrProductNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   resp.CodeNotFound,
		},
		{
			name:       "invalid id",
			path:       "/api/v1/products/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   resp.CodeInvalidParam,
		},
		{
			name:       "storage unavailable",
			path:       "/api/v1/products/42",
			err:        service.ErrStorageUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   resp.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{product: tt.product, err: tt.err}
			handler := NewProductHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.GetProduct(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeEnvelope(t, rec)
			if body.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", body.Code, tt.wantCode)
			}
		})
	}
}

func TestProductHandler_CreateProduct(t *testing.T) {
	svc := &mockCatalogService{product: &domain.Product{ID: 1, Name: "UltraPhone X"}}
	handler := NewProductHandler(svc, zap.NewNop())

	payload := `{"name":"UltraPhone X","description":"flagship","price":999.99,` +
		`"category":"phones","brand":"Ultra","image":"https://example.com/p.jpg",` +
		`"tags":["new"],"whatsapp_number":"+233550000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	handler.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.lastCreate == nil || svc.lastCreate.Name != "UltraPhone X" {
		t.Errorf("create request = %+v, want name UltraPhone X", svc.lastCreate)
	}
}

func TestProductHandler_CreateProduct_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation failure",
			body:       `{"name":""}`,
			err:        &service.ValidationError{Fields: []string{"name", "price"}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{err: tt.err}
			handler := NewProductHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.CreateProduct(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeEnvelope(t, rec)
			if body.Code != resp.CodeInvalidParam {
				t.Errorf("code = %d, want %d", body.Code, resp.CodeInvalidParam)
			}
		})
	}
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	svc := &mockCatalogService{product: &domain.Product{ID: 42, Name: "Renamed"}}
	handler := NewProductHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/42", bytes.NewBufferString(`{"name":"Renamed"}`))
	rec := httptest.NewRecorder()

	handler.UpdateProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastID != 42 {
		t.Errorf("id = %d, want 42", svc.lastID)
	}
	if svc.lastUpdate == nil || svc.lastUpdate.Name == nil || *svc.lastUpdate.Name != "Renamed" {
		t.Errorf("update request = %+v, want name Renamed", svc.lastUpdate)
	}
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	svc := &mockCatalogService{}
	handler := NewProductHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/7", nil)
	rec := httptest.NewRecorder()

	handler.DeleteProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastID != 7 {
		t.Errorf("id = %d, want 7", svc.lastID)
	}
}

func TestProductHandler_RecordInterest(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		count      int64
		err        error
		wantStatus int
		wantID     int64
	}{
		{
			name:       "success",
			path:       "/api/v1/products/5/interest",
			count:      12,
			wantStatus: http.StatusOK,
			wantID:     5,
		},
		{
			name:       "unknown product",
			path:       "/api/v1/products/999/interest",
			err:        service.ErrProductNotFound,
			wantStatus: http.StatusNotFound,
			wantID:     999,
		},
		{
			name:       "invalid id",
			path:       "/api/v1/products/zero/interest",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{interestsCount: tt.count, err: tt.err}
			handler := NewProductHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.RecordInterest(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantID != 0 && svc.lastID != tt.wantID {
				t.Errorf("id = %d, want %d", svc.lastID, tt.wantID)
			}
			if tt.wantStatus == http.StatusOK {
				body := decodeEnvelope(t, rec)
				data, ok := body.Data.(map[string]any)
				if !ok {
					t.Fatalf("data = %T, want object", body.Data)
				}
				if got := data["interests"]; got != float64(tt.count) {
					t.Errorf("interests = %v, want %d", got, tt.count)
				}
			}
		})
	}
}

func TestProductIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		wantID int64
		wantOK bool
	}{
		{"/api/v1/products/42", 42, true},
		{"/api/v1/products/42/", 42, true},
		{"/api/v1/products/abc", 0, false},
		{"/api/v1/products/-1", 0, false},
		{"/api/v1/products/0", 0, false},
		{"/api/v1/products/", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id, ok := productIDFromPath(tt.path)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("productIDFromPath(%q) = (%d, %v), want (%d, %v)", tt.path, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
