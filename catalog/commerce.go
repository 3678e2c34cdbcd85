package catalog

import (
	"net/http"
	"strconv"
)

const ResourceCommerce = "commerceAPI"

func commerceOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourceCommerce,
			Name:        "checkoutBasket",
			DisplayName: "Checkout Basket",
			Description: "Perform checkout for a basket",
			Method:      http.MethodPost,
			Path:        "/commerce/baskets/{basketId}/checkout",
			Prepare:     jsonBody("checkoutPayload", "Checkout"),
		},
		{
			Resource:    ResourceCommerce,
			Name:        "createBasket",
			DisplayName: "Create Basket",
			Description: "Create a new commerce basket",
			Method:      http.MethodPost,
			Path:        "/commerce/baskets",
			Internal:    true,
			Prepare:     jsonBody("basketPayload", "Basket"),
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getBasket",
			DisplayName: "Get Basket",
			Description: "Retrieve an existing basket",
			Method:      http.MethodGet,
			Path:        "/commerce/baskets/{basketId}",
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getCheckout",
			DisplayName: "Get Checkout",
			Description: "Retrieve an existing checkout by ID",
			Method:      http.MethodGet,
			Path:        "/commerce/checkouts/{checkoutId}",
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getCommerceStore",
			DisplayName: "Get Commerce Store",
			Description: "Retrieve a single commerce store by ID",
			Method:      http.MethodGet,
			Path:        "/commerce/stores/{storeId}",
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getCommerceStores",
			DisplayName: "Get Commerce Stores",
			Description: "List stores available through the Commerce API",
			Method:      http.MethodGet,
			Path:        "/commerce/stores",
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getRootMenus",
			DisplayName: "Get Root Menus",
			Description: "List root menus for a commerce store",
			Method:      http.MethodGet,
			Path:        "/commerce/stores/{storeId}/rootMenus",
		},
		{
			Resource:    ResourceCommerce,
			Name:        "getStoreMenus",
			DisplayName: "Get Store Menus",
			Description: "List store menus (including nested menus) for a commerce store",
			Method:      http.MethodGet,
			Path:        "/commerce/stores/{storeId}/menus",
			Prepare:     prepareMenuDepth,
		},
		{
			Resource:    ResourceCommerce,
			Name:        "patchBasket",
			DisplayName: "Patch Basket",
			Description: "Update an existing basket",
			Method:      http.MethodPatch,
			Path:        "/commerce/baskets/{basketId}",
			Prepare:     jsonBody("basketPatchPayload", "Basket Patch"),
		},
	}
}

func prepareMenuDepth(params Params) (Request, error) {
	depth, ok := params.Number("menuDepth")
	if !ok || depth <= 0 {
		return Request{}, nil
	}
	return Request{Query: map[string]string{
		"depth": strconv.FormatFloat(depth, 'f', -1, 64),
	}}, nil
}
