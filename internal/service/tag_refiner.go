package service

import (
	"github.com/freshfinds/catalog_server/internal/domain"
)

// RefineByTags 对已取回的商品序列做标签过滤
// 商品只要与请求的标签集合存在交集即保留（OR语义）；请求集合为空时原样返回。
// 该阶段是无状态的纯函数：只删除元素，不改变剩余元素的相对顺序。
//
// 标签过滤刻意放在主查询之后，以换取更简单的查询组合；
// 若存储层支持廉价的数组交集谓词，也可以下推进查询，但必须保持OR语义。
func RefineByTags(products []*domain.Product, tags []domain.Tag) []*domain.Product {
	if len(tags) == 0 {
		return products
	}

	refined := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if p.HasAnyTag(tags) {
			refined = append(refined, p)
		}
	}
	return refined
}
