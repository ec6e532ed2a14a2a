// Package service 实现业务逻辑层，协调各种资源完成业务需求。
package service

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/domain"
	"github.com/freshfinds/catalog_server/internal/repo"
)

// 定义业务错误
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError 表示写入路径上的字段校验失败，携带所有不合法的字段名
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// CatalogService 定义商品目录业务逻辑接口
type CatalogService interface {
	// 公开读操作
	ListProducts(filter *domain.ProductFilter) ([]*domain.Product, error)
	GetProduct(id int64) (*domain.Product, error)

	// 管理写操作
	CreateProduct(req *domain.CreateProductRequest) (*domain.Product, error)
	UpdateProduct(id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProduct(id int64) error

	// RecordInterest 记录一次匿名买家意向并返回最新计数
	RecordInterest(id int64) (int64, error)
}

// catalogService 实现CatalogService接口
type catalogService struct {
	productRepo     repo.ProductRepository
	defaultWhatsApp string
	logger          *zap.Logger
}

// NewCatalogService 创建商品目录服务实例
// defaultWhatsApp 为历史记录缺少联系号码时的展示兜底值，不能替代创建时的必填校验
func NewCatalogService(productRepo repo.ProductRepository, defaultWhatsApp string, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:     productRepo,
		defaultWhatsApp: defaultWhatsApp,
		logger:          logger,
	}
}

// ListProducts 按过滤条件查询商品列表
// 结果由存储层按创建时间倒序返回，标签过滤由调用方在取回结果后应用
func (s *catalogService) ListProducts(filter *domain.ProductFilter) ([]*domain.Product, error) {
	products, err := s.productRepo.List(filter)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	for _, p := range products {
		s.applyContactFallback(p)
	}

	return products, nil
}

// GetProduct 获取商品详情
func (s *catalogService) GetProduct(id int64) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	s.applyContactFallback(product)
	return product, nil
}

// CreateProduct 创建商品
// 业务规则：
// 1. 所有必填字段在落库前显式校验，意向计数器初始化为0
// 2. 状态缺省为在售
// 3. 时间戳由存储层生成
func (s *catalogService) CreateProduct(req *domain.CreateProductRequest) (*domain.Product, error) {
	if req.Status == "" {
		req.Status = domain.ProductStatusAvailable
	}

	if err := validateCreateProductRequest(req); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Brand:          strings.TrimSpace(req.Brand),
		Image:          req.Image,
		Tags:           req.Tags,
		Status:         req.Status,
		Featured:       req.Featured,
		WhatsAppNumber: req.WhatsAppNumber,
		Interests:      0,
	}

	if err := s.productRepo.Create(product); err != nil {
		s.logger.Error("failed to create product", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// 回读以获得存储层生成的时间戳
	created, err := s.productRepo.GetByID(product.ID)
	if err != nil {
		s.logger.Error("failed to reload created product", zap.Int64("product_id", product.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if created == nil {
		return product, nil
	}

	s.logger.Info("product created",
		zap.Int64("product_id", created.ID),
		zap.String("name", created.Name),
		zap.String("category", string(created.Category)),
	)

	return created, nil
}

// UpdateProduct 更新商品，仅应用请求中提供的字段
// 提供的字段按创建时相同的不变式重新校验
func (s *catalogService) UpdateProduct(id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if err := validateUpdateProductRequest(req); err != nil {
		return nil, err
	}

	// 应用提供的字段
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Brand != nil {
		product.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Tags != nil {
		product.Tags = *req.Tags
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.WhatsAppNumber != nil {
		product.WhatsAppNumber = *req.WhatsAppNumber
	}

	if err := s.productRepo.Update(product); err != nil {
		s.logger.Error("failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// 回读以获得存储层刷新的更新时间
	updated, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to reload updated product", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, ErrProductNotFound
	}

	return updated, nil
}

// DeleteProduct 物理删除商品
// 重复删除同一ID会得到未找到错误，而不是静默成功
func (s *catalogService) DeleteProduct(id int64) error {
	found, err := s.productRepo.Delete(id)
	if err != nil {
		s.logger.Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !found {
		return ErrProductNotFound
	}

	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// RecordInterest 记录一次买家意向
// 自增由存储层原子完成，N次并发调用最终计数恰好增加N
func (s *catalogService) RecordInterest(id int64) (int64, error) {
	count, found, err := s.productRepo.IncrementInterests(id)
	if err != nil {
		s.logger.Error("failed to record interest", zap.Int64("product_id", id), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !found {
		return 0, ErrProductNotFound
	}

	return count, nil
}

// applyContactFallback 为缺少联系号码的历史记录填充配置的默认号码
func (s *catalogService) applyContactFallback(p *domain.Product) {
	if p.WhatsAppNumber == "" {
		p.WhatsAppNumber = s.defaultWhatsApp
	}
}

// validateCreateProductRequest 校验创建商品请求的全部必填字段与枚举值
func validateCreateProductRequest(req *domain.CreateProductRequest) error {
	var fields []string

	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(req.Description) == "" {
		fields = append(fields, "description")
	}
	if req.Price < 0 {
		fields = append(fields, "price")
	}
	if !req.Category.Valid() {
		fields = append(fields, "category")
	}
	if strings.TrimSpace(req.Brand) == "" {
		fields = append(fields, "brand")
	}
	if strings.TrimSpace(req.Image) == "" {
		fields = append(fields, "image")
	}
	for _, tag := range req.Tags {
		if !tag.Valid() {
			fields = append(fields, "tags")
			break
		}
	}
	if !req.Status.Valid() {
		fields = append(fields, "status")
	}
	if strings.TrimSpace(req.WhatsAppNumber) == "" {
		fields = append(fields, "whatsapp_number")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validateUpdateProductRequest 按创建时相同的不变式校验请求中提供的字段
func validateUpdateProductRequest(req *domain.UpdateProductRequest) error {
	var fields []string

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fields = append(fields, "name")
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		fields = append(fields, "description")
	}
	if req.Price != nil && *req.Price < 0 {
		fields = append(fields, "price")
	}
	if req.Category != nil && !req.Category.Valid() {
		fields = append(fields, "category")
	}
	if req.Brand != nil && strings.TrimSpace(*req.Brand) == "" {
		fields = append(fields, "brand")
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		fields = append(fields, "image")
	}
	if req.Tags != nil {
		for _, tag := range *req.Tags {
			if !tag.Valid() {
				fields = append(fields, "tags")
				break
			}
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		fields = append(fields, "status")
	}
	if req.WhatsAppNumber != nil && strings.TrimSpace(*req.WhatsAppNumber) == "" {
		fields = append(fields, "whatsapp_number")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
