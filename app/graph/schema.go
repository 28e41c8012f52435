// Package graph exposes the public catalogue as a read-only GraphQL API.
//
// The schema mirrors the public REST reads: store metadata is always
// resolvable, catalogue queries against a deactivated store fail closed.
// Writes stay REST-only.
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/errs"
	gql "github.com/tradeyard/tradeyard/pkg/graphql"
)

// Resolver carries the repositories the query fields read from.
type Resolver struct {
	Stores     *repositories.StoreRepository
	Categories *repositories.CategoryRepository
	Products   *repositories.ProductRepository
}

// NewResolver wires a Resolver against the default repositories.
func NewResolver() *Resolver {
	return &Resolver{
		Stores:     repositories.NewStoreRepository(),
		Categories: repositories.NewCategoryRepository(),
		Products:   repositories.NewProductRepository(),
	}
}

// ─── Types ────────────────────────────────────────────────────────────────────

var pairType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ImagePair",
	Fields: graphql.Fields{
		"original":  &graphql.Field{Type: graphql.String},
		"thumbnail": &graphql.Field{Type: graphql.String},
	},
})

var sizeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ColorSize",
	Fields: graphql.Fields{
		"name":     &graphql.Field{Type: graphql.String},
		"quantity": &graphql.Field{Type: graphql.Int},
	},
})

var colorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductColor",
	Fields: graphql.Fields{
		"name":  &graphql.Field{Type: graphql.String},
		"image": &graphql.Field{Type: pairType},
		"sizes": &graphql.Field{Type: graphql.NewList(sizeType)},
	},
})

var subcategoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Subcategory",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.String},
		"name": &graphql.Field{Type: graphql.String},
	},
})

var settingsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StoreSettings",
	Fields: graphql.Fields{
		"currency":    &graphql.Field{Type: graphql.String},
		"taxRate":     &graphql.Field{Type: graphql.Float},
		"shippingFee": &graphql.Field{Type: graphql.Float},
	},
})

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.String},
		"name":             &graphql.Field{Type: graphql.String},
		"description":      &graphql.Field{Type: graphql.String},
		"image":            &graphql.Field{Type: pairType},
		"isSubcategory":    &graphql.Field{Type: graphql.Boolean},
		"parentCategoryId": &graphql.Field{Type: graphql.String},
		"subcategories":    &graphql.Field{Type: graphql.NewList(subcategoryType)},
	},
})

var storeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Store",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"slug":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"logo":        &graphql.Field{Type: pairType},
		"banner":      &graphql.Field{Type: pairType},
		"address":     &graphql.Field{Type: graphql.String},
		"contact":     &graphql.Field{Type: graphql.String},
		"settings":    &graphql.Field{Type: settingsType},
		"isActive":    &graphql.Field{Type: graphql.Boolean},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"sku":         &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Float},
		"featured":    &graphql.Field{Type: graphql.Boolean},
		"images":      &graphql.Field{Type: graphql.NewList(pairType)},
		"colors":      &graphql.Field{Type: graphql.NewList(colorType)},
		"categories":  &graphql.Field{Type: graphql.NewList(categoryType)},
	},
})

// ─── Schema ───────────────────────────────────────────────────────────────────

// NewSchema builds the executable catalogue schema around r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	root := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"store": &graphql.Field{
				Type: storeType,
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					store, err := r.Stores.FindBySlug(p.Args["slug"].(string))
					if err != nil {
						return nil, err
					}
					return storeView(store), nil
				},
			},
			"stores": &graphql.Field{
				Type: graphql.NewList(storeType),
				Args: graphql.FieldConfigArgument{
					"page":    &graphql.ArgumentConfig{Type: graphql.Int},
					"perPage": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stores, _, err := r.Stores.Active(intArg(p, "page", 1), intArg(p, "perPage", 20))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(stores))
					for i, s := range stores {
						out[i] = storeView(s)
					}
					return out, nil
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Args: graphql.FieldConfigArgument{
					"storeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					store, err := r.activeStore(p.Args["storeId"].(string))
					if err != nil {
						return nil, err
					}
					cats, err := r.Categories.ListByStore(store.ID)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(cats))
					for i, c := range cats {
						view := categoryView(c.Category)
						view["subcategories"] = c.Subcategories
						out[i] = view
					}
					return out, nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"storeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"search":  &graphql.ArgumentConfig{Type: graphql.String},
					"page":    &graphql.ArgumentConfig{Type: graphql.Int},
					"perPage": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					store, err := r.activeStore(p.Args["storeId"].(string))
					if err != nil {
						return nil, err
					}
					search, _ := p.Args["search"].(string)
					products, _, err := r.Products.ListByStore(store.ID, search,
						intArg(p, "page", 1), intArg(p, "perPage", 20))
					if err != nil {
						return nil, err
					}
					return productViews(products), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"storeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					store, err := r.activeStore(p.Args["storeId"].(string))
					if err != nil {
						return nil, err
					}
					product, err := r.Products.FindByID(store.ID, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return productView(product), nil
				},
			},
			"featuredProducts": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"storeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					store, err := r.activeStore(p.Args["storeId"].(string))
					if err != nil {
						return nil, err
					}
					products, err := r.Products.Featured(store.ID)
					if err != nil {
						return nil, err
					}
					return productViews(products), nil
				},
			},
		},
	})

	return gql.NewSchema(root)
}

// activeStore loads the store and fails closed when it is deactivated.
func (r *Resolver) activeStore(id string) (models.Store, error) {
	store, err := r.Stores.FindByID(id)
	if err != nil {
		return models.Store{}, err
	}
	if !store.IsActive {
		return models.Store{}, errs.Forbidden("this store is deactivated")
	}
	return store, nil
}

// ─── Views ────────────────────────────────────────────────────────────────────
// The records embed a base model, which the library's reflection resolver
// does not see through, so each record is flattened into a map first.

func storeView(s models.Store) map[string]interface{} {
	return map[string]interface{}{
		"id":          s.ID,
		"name":        s.Name,
		"slug":        s.Slug,
		"description": s.Description,
		"logo":        s.Logo,
		"banner":      s.Banner,
		"address":     s.Address,
		"contact":     s.Contact,
		"settings":    s.Settings,
		"isActive":    s.IsActive,
	}
}

func categoryView(c models.Category) map[string]interface{} {
	view := map[string]interface{}{
		"id":            c.ID,
		"name":          c.Name,
		"description":   c.Description,
		"image":         c.Image,
		"isSubcategory": c.IsSubcategory,
	}
	if c.ParentCategoryID != nil {
		view["parentCategoryId"] = *c.ParentCategoryID
	}
	return view
}

func productView(p models.Product) map[string]interface{} {
	cats := make([]map[string]interface{}, len(p.Categories))
	for i, c := range p.Categories {
		cats[i] = categoryView(c)
	}
	return map[string]interface{}{
		"id":          p.ID,
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"featured":    p.Featured,
		"images":      p.Images,
		"colors":      p.Colors,
		"categories":  cats,
	}
}

func productViews(products []models.Product) []map[string]interface{} {
	out := make([]map[string]interface{}, len(products))
	for i, p := range products {
		out[i] = productView(p)
	}
	return out
}

func intArg(p graphql.ResolveParams, name string, fallback int) int {
	if v, ok := p.Args[name].(int); ok && v > 0 {
		return v
	}
	return fallback
}
