// Package repo 实现数据访问层，负责与数据库的交互。
package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freshfinds/catalog_server/internal/domain"
)

// ProductRepository 定义商品数据访问接口
type ProductRepository interface {
	// 基本CRUD操作
	Create(product *domain.Product) error
	GetByID(id int64) (*domain.Product, error)
	Update(product *domain.Product) error
	// Delete 物理删除商品，返回是否存在被删除的记录
	Delete(id int64) (bool, error)

	// 查询操作
	// List 按过滤条件查询商品，结果按创建时间倒序排列
	List(filter *domain.ProductFilter) ([]*domain.Product, error)

	// IncrementInterests 对意向计数器执行存储层原子自增并返回自增后的值
	// found 为 false 表示商品不存在
	IncrementInterests(id int64) (count int64, found bool, err error)
}

// productRepo 实现ProductRepository接口
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

// productColumns 为商品表的查询列，所有SELECT共用
const productColumns = "id, name, description, price, category, brand, image, tags, status, featured, whatsapp_number, interests, created_at, updated_at"

// Create 创建商品，成功后回填商品ID
func (r *productRepo) Create(product *domain.Product) error {
	tags, err := json.Marshal(product.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
		INSERT INTO products (name, description, price, category, brand, image, tags, status, featured, whatsapp_number, interests)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Brand,
		product.Image,
		tags,
		product.Status,
		product.Featured,
		product.WhatsAppNumber,
		product.Interests,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	product.ID = id
	return nil
}

// GetByID 根据ID获取商品，不存在时返回 (nil, nil)
func (r *productRepo) GetByID(id int64) (*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = ?", productColumns)

	product, err := scanProduct(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return product, nil
}

// Update 更新商品的全部可变字段
func (r *productRepo) Update(product *domain.Product) error {
	tags, err := json.Marshal(product.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, brand = ?, image = ?, tags = ?, status = ?, featured = ?, whatsapp_number = ?
		WHERE id = ?
	`

	_, err = r.db.Exec(query,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Brand,
		product.Image,
		tags,
		product.Status,
		product.Featured,
		product.WhatsAppNumber,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete 物理删除商品
func (r *productRepo) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// List 按过滤条件查询商品列表
// 标签过滤不在这里表达，由服务层的取后过滤阶段处理
func (r *productRepo) List(filter *domain.ProductFilter) ([]*domain.Product, error) {
	where, args := buildFilterWhereClause(filter)

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY created_at DESC", productColumns, where)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// IncrementInterests 原子自增意向计数器
// 自增通过单条UPDATE在存储层完成，并发调用不会丢失更新；
// 返回的计数值随后单独读取，期间若有其他自增，读到的可能是更新的值
func (r *productRepo) IncrementInterests(id int64) (int64, bool, error) {
	result, err := r.db.Exec("UPDATE products SET interests = interests + 1 WHERE id = ?", id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment interests: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	var count int64
	err = r.db.QueryRow("SELECT interests FROM products WHERE id = ?", id).Scan(&count)
	if err == sql.ErrNoRows {
		// 自增与读取之间被删除
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read interests: %w", err)
	}

	return count, true, nil
}

// buildFilterWhereClause 将过滤条件翻译为WHERE子句
// 所有条件均为可选，缺省字段直接省略；空条件返回空子句表示全量查询。
// 规则：
//   - 单分类与多分类集合取并集（OR），一个值时用等值约束，多个值时用IN；
//   - 关键词对名称/描述/品牌做大小写不敏感的子串匹配，空白关键词视为无约束；
//   - 价格上下限均为闭区间；
//   - 品牌约束独立于关键词中的品牌匹配，两者可同时生效（AND）；
//   - featured 仅在字面值为 "true" 时生效；
//   - 标签不进入存储层查询。
func buildFilterWhereClause(filter *domain.ProductFilter) (string, []any) {
	var conditions []string
	var args []any

	// 分类过滤
	if cats := filter.CategorySet(); len(cats) == 1 {
		conditions = append(conditions, "category = ?")
		args = append(args, cats[0])
	} else if len(cats) > 1 {
		placeholders := strings.Repeat("?,", len(cats)-1) + "?"
		conditions = append(conditions, fmt.Sprintf("category IN (%s)", placeholders))
		for _, c := range cats {
			args = append(args, c)
		}
	}

	// 关键词搜索
	// 显式LOWER比较，避免行为依赖部署环境的排序规则
	if term := strings.TrimSpace(filter.Search); term != "" {
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?)")
		pattern := "%" + strings.ToLower(term) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	// 价格区间过滤
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	// 品牌过滤
	if brand := strings.TrimSpace(filter.Brand); brand != "" {
		conditions = append(conditions, "LOWER(brand) LIKE ?")
		args = append(args, "%"+strings.ToLower(brand)+"%")
	}

	// 推荐位过滤
	if filter.Featured == "true" {
		conditions = append(conditions, "featured = ?")
		args = append(args, true)
	}

	if len(conditions) > 0 {
		return "WHERE " + strings.Join(conditions, " AND "), args
	}

	return "", args
}

// rowScanner 抽象 *sql.Row 与 *sql.Rows 的公共Scan能力
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct 从查询结果扫描一条商品记录，标签列按JSON解码
func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var tags []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.Brand,
		&product.Image,
		&tags,
		&product.Status,
		&product.Featured,
		&product.WhatsAppNumber,
		&product.Interests,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &product.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	return product, nil
}
