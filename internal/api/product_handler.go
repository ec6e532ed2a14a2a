// Package api 提供商品目录相关的HTTP API处理器实现。
// API层负责处理HTTP请求/响应，进行参数解析和错误码转换。
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/domain"
	"github.com/freshfinds/catalog_server/internal/middleware"
	"github.com/freshfinds/catalog_server/internal/resp"
	"github.com/freshfinds/catalog_server/internal/service"
)

// ProductHandler 商品目录相关的HTTP处理器
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler 创建商品处理器实例
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListProducts 获取商品列表
// GET /api/v1/products?category=phones&categories=laptops&search=pro&minPrice=10&maxPrice=50&brand=apple&featured=true&tags=new&tags=used
// 标签条件不进入存储层查询，在取回结果后由标签过滤阶段应用
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	filter, tags := parseProductFilter(r)

	products, err := h.catalogService.ListProducts(filter)
	if err != nil {
		h.logger.Error("list products failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusServiceUnavailable, resp.CodeInternalError, "failed to fetch products", reqID, "")
		return
	}

	products = service.RefineByTags(products, tags)
	if products == nil {
		products = []*domain.Product{}
	}

	resp.OK(w, products, reqID, "")
}

// GetProduct 获取商品详情
// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	product, err := h.catalogService.GetProduct(id)
	if err != nil {
		h.writeCatalogError(w, r, "get product failed", err)
		return
	}

	resp.OK(w, product, reqID, "")
}

// CreateProduct 创建商品
// POST /api/v1/admin/products
// 需要有效的管理会话
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	product, err := h.catalogService.CreateProduct(&req)
	if err != nil {
		h.writeCatalogError(w, r, "create product failed", err)
		return
	}

	resp.WriteJSON(w, http.StatusCreated, &resp.Response{
		Code:      resp.CodeOK,
		Data:      product,
		RequestID: reqID,
	})
}

// UpdateProduct 更新商品
// PUT /api/v1/admin/products/{id}
// 需要有效的管理会话
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	var req domain.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	product, err := h.catalogService.UpdateProduct(id, &req)
	if err != nil {
		h.writeCatalogError(w, r, "update product failed", err)
		return
	}

	resp.OK(w, product, reqID, "")
}

// DeleteProduct 删除商品
// DELETE /api/v1/admin/products/{id}
// 需要有效的管理会话
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	if err := h.catalogService.DeleteProduct(id); err != nil {
		h.writeCatalogError(w, r, "delete product failed", err)
		return
	}

	result := map[string]any{"deleted": true}
	resp.OK(w, &result, reqID, "")
}

// RecordInterest 记录一次买家意向
// POST /api/v1/products/{id}/interest
// 匿名可调用，由限流中间件保护
func (h *ProductHandler) RecordInterest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	path := strings.TrimSuffix(r.URL.Path, "/interest")
	id, ok := productIDFromPath(path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	count, err := h.catalogService.RecordInterest(id)
	if err != nil {
		h.writeCatalogError(w, r, "record interest failed", err)
		return
	}

	result := map[string]any{"interests": count}
	resp.OK(w, &result, reqID, "")
}

// writeCatalogError 将目录服务错误映射为统一响应
func (h *ProductHandler) writeCatalogError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
	case errors.As(err, &validationErr):
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, validationErr.Error(), reqID, "")
	case errors.Is(err, service.ErrStorageUnavailable):
		h.logger.Error(msg, zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusServiceUnavailable, resp.CodeInternalError, "storage unavailable", reqID, "")
	default:
		h.logger.Error(msg, zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, msg, reqID, "")
	}
}

// parseProductFilter 从查询参数解析过滤条件与取后过滤的标签集合
// 重复的 category 参数并入多分类集合，与 categories 参数语义一致（OR）
func parseProductFilter(r *http.Request) (*domain.ProductFilter, []domain.Tag) {
	query := r.URL.Query()
	filter := &domain.ProductFilter{}

	if cats := query["category"]; len(cats) > 0 {
		filter.Category = cats[0]
		if len(cats) > 1 {
			filter.Categories = append(filter.Categories, cats[1:]...)
		}
	}
	filter.Categories = append(filter.Categories, query["categories"]...)

	filter.Search = query.Get("search")
	filter.Brand = query.Get("brand")
	filter.Featured = query.Get("featured")

	if s := query.Get("minPrice"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if s := query.Get("maxPrice"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			filter.MaxPrice = &v
		}
	}

	var tags []domain.Tag
	for _, t := range query["tags"] {
		tags = append(tags, domain.Tag(t))
	}
	filter.Tags = tags

	return filter, tags
}

// productIDFromPath 提取路径最后一段作为商品ID
func productIDFromPath(path string) (int64, bool) {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 || idx == len(path)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(path[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
