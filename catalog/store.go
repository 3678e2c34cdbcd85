package catalog

import "net/http"

const ResourceStore = "storeAPI"

func storeOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourceStore,
			Name:        "getOutOfStock",
			DisplayName: "Get Out-Of-Stock Products",
			Description: "Get out-of-stock products for a location",
			Method:      http.MethodGet,
			Path:        "/channelDisabledProducts",
			Projection: map[string]any{
				"_id":           1,
				"location":      1,
				"channelLink":   1,
				"plus":          1,
				"channel":       1,
				"disabledUntil": 1,
				"createdAt":     1,
				"updatedAt":     1,
			},
			Prepare: locationWhere,
		},
		{
			Resource:    ResourceStore,
			Name:        "getProductsForAccount",
			DisplayName: "Get Products for Account",
			Description: "Retrieve products for an entire account or a single location",
			Method:      http.MethodGet,
			Path:        "/products",
			Paginated:   true,
			Projection: map[string]any{
				"_id":          1,
				"account":      1,
				"location":     1,
				"name":         1,
				"plu":          1,
				"channelLinks": 1,
				"tags":         1,
				"updatedAt":    1,
			},
			Prepare: productsWhere,
		},
		{
			Resource:    ResourceStore,
			Name:        "getStoreHolidays",
			DisplayName: "Get Store Holidays",
			Method:      http.MethodGet,
			Path:        "/location/{location}/holidays",
		},
		{
			Resource:    ResourceStore,
			Name:        "getStoreOpeningHours",
			DisplayName: "Get Store Opening Hours",
			Method:      http.MethodGet,
			Path:        "/account/{account}/openingHours",
			Projection: map[string]any{
				"account":      1,
				"location":     1,
				"timezone":     1,
				"days":         1,
				"openingHours": 1,
			},
		},
		{
			Resource:    ResourceStore,
			Name:        "getStores",
			DisplayName: "Get Stores",
			Description: "Get stores for an account",
			Method:      http.MethodGet,
			Path:        "/locations",
			Projection: map[string]any{
				"_id":           1,
				"account":       1,
				"name":          1,
				"posLocationId": 1,
				"channelLinks":  1,
				"timezone":      1,
				"isActive":      1,
				"updatedAt":     1,
			},
			Prepare: accountWhere,
		},
		{
			Resource:    ResourceStore,
			Name:        "setOutOfStock",
			DisplayName: "Set Out-Of-Stock Products",
			Description: "Set out-of-stock products for a location",
			Method:      http.MethodPost,
			Path:        "/products/snoozeByPlus",
			Prepare:     prepareSnooze,
		},
		{
			Resource:    ResourceStore,
			Name:        "setStoreHolidays",
			DisplayName: "Set Store Holidays",
			Method:      http.MethodPost,
			Path:        "/locations/holidays",
			Prepare:     requiredJSONBody("holidays", "Holidays"),
		},
		{
			Resource:    ResourceStore,
			Name:        "setStoreOpeningHours",
			DisplayName: "Set Store Opening Hours",
			Method:      http.MethodPost,
			Path:        "/locations/openingHours",
			Prepare:     requiredJSONBody("openingHours", "Opening Hours"),
		},
		{
			Resource:    ResourceStore,
			Name:        "setStoreStatus",
			DisplayName: "Set Store Status",
			Description: "Set store status for a location",
			Method:      http.MethodPost,
			Path:        "/updateStoreStatus/{location}",
			Prepare:     prepareStoreStatus,
		},
	}
}

func locationWhere(params Params) (Request, error) {
	location, err := params.Required("location")
	if err != nil {
		return Request{}, err
	}
	query, err := whereQuery(map[string]any{"location": location})
	if err != nil {
		return Request{}, err
	}
	return Request{Query: query}, nil
}

func productsWhere(params Params) (Request, error) {
	account, err := params.Required("account")
	if err != nil {
		return Request{}, err
	}
	filter := map[string]any{"account": account}
	if location := params.String("locationId"); location != "" {
		filter["location"] = location
	}
	query, err := whereQuery(filter)
	if err != nil {
		return Request{}, err
	}
	return Request{Query: query}, nil
}

func prepareSnooze(params Params) (Request, error) {
	account, err := params.Required("account")
	if err != nil {
		return Request{}, err
	}
	location, err := params.Required("location")
	if err != nil {
		return Request{}, err
	}
	plus, err := params.JSON("products", "Product PLUs")
	if err != nil {
		return Request{}, err
	}
	if _, ok := plus.([]any); !ok {
		return Request{}, payloadShapeError("products", "Product PLUs payload must be an array")
	}
	return Request{Body: map[string]any{
		"account":     account,
		"location":    location,
		"plus":        plus,
		"snoozeStart": params.String("snoozeStart"),
		"snoozeEnd":   params.String("snoozeEnd"),
	}}, nil
}

func prepareStoreStatus(params Params) (Request, error) {
	body := map[string]any{
		"isActive": params.Bool("isActive", true),
	}

	// Blank or empty channelLinks targets the whole location.
	if params.String("channelLinks") != "" {
		links, err := params.JSON("channelLinks", "Channel Links")
		if err != nil {
			return Request{}, err
		}
		if list, ok := links.([]any); ok && len(list) > 0 {
			body["channelLinks"] = list
		}
	}

	if params.has("prepTime") {
		if prepTime, ok := params.Number("prepTime"); ok {
			body["prepTime"] = prepTime
		}
	}
	if disableAt := params.String("disableAt"); disableAt != "" {
		body["disableAt"] = disableAt
	}
	return Request{Body: body}, nil
}
