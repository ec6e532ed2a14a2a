// Package domain 定义商品目录相关的业务领域模型和核心业务规则。
package domain

import (
	"time"
)

// Category 定义商品分类类型
type Category string

const (
	CategoryPhones      Category = "phones"      // 手机
	CategoryLaptops     Category = "laptops"     // 笔记本电脑
	CategoryCars        Category = "cars"        // 汽车
	CategoryAccessories Category = "accessories" // 配件
)

// Valid 判断分类是否属于固定枚举
func (c Category) Valid() bool {
	switch c {
	case CategoryPhones, CategoryLaptops, CategoryCars, CategoryAccessories:
		return true
	}
	return false
}

// Categories 返回所有合法分类
func Categories() []Category {
	return []Category{CategoryPhones, CategoryLaptops, CategoryCars, CategoryAccessories}
}

// Tag 定义商品标签类型
type Tag string

const (
	TagNew     Tag = "new"      // 新品
	TagHotDeal Tag = "hot deal" // 热卖
	TagUsed    Tag = "used"     // 二手
)

// Valid 判断标签是否属于固定枚举
func (t Tag) Valid() bool {
	switch t {
	case TagNew, TagHotDeal, TagUsed:
		return true
	}
	return false
}

// ProductStatus 定义商品状态类型
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available" // 在售
	ProductStatusSoldOut   ProductStatus = "sold out"  // 售罄
)

// Valid 判断状态是否属于固定枚举
func (s ProductStatus) Valid() bool {
	return s == ProductStatusAvailable || s == ProductStatusSoldOut
}

// Product 表示商品领域模型
// Interests 为匿名买家意向计数器，只能通过原子自增修改，不允许回退
type Product struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Price          float64       `json:"price"`
	Category       Category      `json:"category"`
	Brand          string        `json:"brand"`
	Image          string        `json:"image"`
	Tags           []Tag         `json:"tags"`
	Status         ProductStatus `json:"status"`
	Featured       bool          `json:"featured"`
	WhatsAppNumber string        `json:"whatsapp_number"`
	Interests      int64         `json:"interests"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsAvailable 判断商品是否在售
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusAvailable
}

// HasAnyTag 判断商品标签集合与给定集合是否存在交集
// 空的请求集合视为不限制
func (p *Product) HasAnyTag(tags []Tag) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range p.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// CreateProductRequest 表示创建商品请求
type CreateProductRequest struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Price          float64       `json:"price"`
	Category       Category      `json:"category"`
	Brand          string        `json:"brand"`
	Image          string        `json:"image"`
	Tags           []Tag         `json:"tags"`
	Status         ProductStatus `json:"status"`
	Featured       bool          `json:"featured"`
	WhatsAppNumber string        `json:"whatsapp_number"`
}

// UpdateProductRequest 表示更新商品请求，仅更新非nil字段
type UpdateProductRequest struct {
	Name           *string        `json:"name"`
	Description    *string        `json:"description"`
	Price          *float64       `json:"price"`
	Category       *Category      `json:"category"`
	Brand          *string        `json:"brand"`
	Image          *string        `json:"image"`
	Tags           *[]Tag         `json:"tags"`
	Status         *ProductStatus `json:"status"`
	Featured       *bool          `json:"featured"`
	WhatsAppNumber *string        `json:"whatsapp_number"`
}

// CategoryAll 表示不限制分类的哨兵值
const CategoryAll = "all"

// ProductFilter 表示商品列表的过滤条件
// 所有字段均为可选；Tags 不参与存储层查询，由获取结果后的标签过滤阶段处理
type ProductFilter struct {
	Category   string    `json:"category"`   // 单个分类，"all" 或空表示不限制
	Categories []string  `json:"categories"` // 多分类集合，与 Category 取并集（OR）
	Search     string    `json:"search"`     // 关键词，对名称/描述/品牌做大小写不敏感的子串匹配
	MinPrice   *float64  `json:"min_price"`  // 价格下限（含）
	MaxPrice   *float64  `json:"max_price"`  // 价格上限（含）
	Brand      string    `json:"brand"`      // 品牌，大小写不敏感的子串匹配
	Featured   string    `json:"featured"`   // 仅字面值 "true" 生效
	Tags       []Tag     `json:"tags"`       // 标签集合，取后过滤
}

// CategorySet 合并 Category 与 Categories 为一个去重后的分类约束集合
// 返回空集合表示不限制分类
func (f *ProductFilter) CategorySet() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if v == "" || v == CategoryAll {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	add(f.Category)
	for _, c := range f.Categories {
		add(c)
	}
	return out
}
