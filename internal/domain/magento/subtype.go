package magento

import (
	"github.com/erp/magento-connector/internal/domain/catalog"
)

// SubtypeRule describes how a Magento product type maps onto a template.
// All subtypes share the template shape; they differ only in the product
// type and in which child ids are read from the document.
type SubtypeRule struct {
	ProductType catalog.ProductType
	LinkedIDs   func(doc *ProductDocument) []int64
}

// SubtypeRules maps each supported Magento product type to its rule
var SubtypeRules = map[catalog.Subtype]SubtypeRule{
	catalog.SubtypeSimple: {
		ProductType: catalog.ProductTypeGoods,
		LinkedIDs:   noLinkedIDs,
	},
	catalog.SubtypeConfigurable: {
		ProductType: catalog.ProductTypeGoods,
		LinkedIDs: func(doc *ProductDocument) []int64 {
			return doc.AssociatedProducts.Int64s()
		},
	},
	catalog.SubtypeGrouped: {
		ProductType: catalog.ProductTypeGoods,
		LinkedIDs: func(doc *ProductDocument) []int64 {
			return doc.GroupedProducts.Int64s()
		},
	},
	catalog.SubtypeDownloadable: {
		ProductType: catalog.ProductTypeService,
		LinkedIDs: func(doc *ProductDocument) []int64 {
			ids := make([]int64, 0, len(doc.DownloadableLinks))
			for _, link := range doc.DownloadableLinks {
				if link.LinkID > 0 {
					ids = append(ids, int64(link.LinkID))
				}
			}
			return ids
		},
	},
}

// RuleFor resolves the subtype and rule for a document's type field
func RuleFor(doc *ProductDocument) (catalog.Subtype, SubtypeRule, error) {
	subtype := catalog.Subtype(doc.Type)
	rule, ok := SubtypeRules[subtype]
	if !ok {
		return "", SubtypeRule{}, &ValidationError{
			Entity: EntityProduct,
			Field:  "type",
			Reason: "unsupported product type " + doc.Type,
		}
	}
	return subtype, rule, nil
}

func noLinkedIDs(*ProductDocument) []int64 {
	return make([]int64, 0)
}
