package service

import (
	"testing"

	"github.com/freshfinds/catalog_server/internal/domain"
)

func taggedProduct(id int64, tags ...domain.Tag) *domain.Product {
	return &domain.Product{ID: id, Tags: tags}
}

func TestRefineByTags(t *testing.T) {
	products := []*domain.Product{
		taggedProduct(1, domain.TagNew),
		taggedProduct(2, domain.TagUsed),
		taggedProduct(3), // untagged
		taggedProduct(4, domain.TagHotDeal, domain.TagNew),
	}

	tests := []struct {
		name    string
		tags    []domain.Tag
		wantIDs []int64
	}{
		{
			name:    "empty tag set passes everything through",
			tags:    nil,
			wantIDs: []int64{1, 2, 3, 4},
		},
		{
			name:    "single tag keeps any product carrying it",
			tags:    []domain.Tag{domain.TagNew},
			wantIDs: []int64{1, 4},
		},
		{
			name:    "OR semantics across requested tags",
			tags:    []domain.Tag{domain.TagNew, domain.TagUsed},
			wantIDs: []int64{1, 2, 4},
		},
		{
			name:    "untagged product excluded for any non-empty request",
			tags:    []domain.Tag{domain.TagHotDeal},
			wantIDs: []int64{4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RefineByTags(products, tt.tags)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("RefineByTags() returned %d products, want %d", len(got), len(tt.wantIDs))
			}
			// Original order is preserved, elements are only removed.
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("RefineByTags()[%d].ID = %d, want %d", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestRefineByTags_Pure(t *testing.T) {
	products := []*domain.Product{
		taggedProduct(1, domain.TagNew),
		taggedProduct(2),
	}
	tags := []domain.Tag{domain.TagNew}

	first := RefineByTags(products, tags)
	second := RefineByTags(products, tags)

	if len(first) != len(second) {
		t.Fatalf("refiner is not deterministic: %d vs %d", len(first), len(second))
	}
	if len(products) != 2 {
		t.Errorf("refiner mutated its input, len = %d", len(products))
	}
}
