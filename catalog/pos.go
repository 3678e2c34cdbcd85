package catalog

import "net/http"

const ResourcePOS = "posAPI"

func posOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourcePOS,
			Name:        "getAllAllergens",
			DisplayName: "Get All Allergens",
			Description: "Retrieve all allergens from POSAPI",
			Method:      http.MethodGet,
			Path:        "/allAllergens",
			Projection:  map[string]any{"_id": 1, "name": 1, "tags": 1, "updatedAt": 1},
		},
		{
			Resource:    ResourcePOS,
			Name:        "getProductCategories",
			DisplayName: "Get Product Categories",
			Description: "Retrieve product categories for a specific account from POSAPI",
			Method:      http.MethodGet,
			Path:        "/productCategories",
			Projection: map[string]any{
				"_id":      1,
				"name":     1,
				"parent":   1,
				"account":  1,
				"products": map[string]any{"_id": 1, "name": 1},
			},
			Prepare: accountWhere,
		},
		{
			Resource:    ResourcePOS,
			Name:        "insertUpdateProducts",
			DisplayName: "Insert/Update Products",
			Description: "Create, update, or delete products and categories for a location. " +
				"Products not included in the payload will be deleted unless forceUpdate is disabled.",
			Method:  http.MethodPost,
			Path:    "/productAndCategories",
			Prepare: prepareProductsPayload,
		},
		{
			Resource:    ResourcePOS,
			Name:        "productSync",
			DisplayName: "Request Product Sync",
			Description: "Trigger Deliverect to sync products for a POS on a specific location",
			Method:      http.MethodPost,
			Path:        "/v2/locations/{location}/syncProducts",
		},
	}
}

func prepareProductsPayload(params Params) (Request, error) {
	decoded, err := params.JSON("productsPayload", "Products")
	if err != nil {
		return Request{}, err
	}
	payload, ok := decoded.(map[string]any)
	if !ok {
		return Request{}, payloadShapeError("productsPayload",
			"Products payload must be a JSON object containing accountId, locationId, and products array")
	}
	if !truthy(payload["accountId"]) || !truthy(payload["locationId"]) {
		return Request{}, payloadShapeError("productsPayload",
			"Products payload must include accountId and locationId")
	}

	query := map[string]string{}
	if params.Bool("previewSync", false) {
		query["previewSync"] = "true"
	}
	// forceUpdate defaults to true upstream; only an explicit false is sent.
	if params.has("forceUpdate") && !params.Bool("forceUpdate", true) {
		query["forceUpdate"] = "false"
	}
	return Request{Query: query, Body: payload}, nil
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	case bool:
		return typed
	case float64:
		return typed != 0
	default:
		return true
	}
}
