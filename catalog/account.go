package catalog

import "net/http"

const (
	ResourceAccount = "accountAPI"
	ResourceUser    = "userAPI"
	ResourceChannel = "channelAPI"
)

func accountOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourceAccount,
			Name:        "getAccount",
			DisplayName: "Get Account",
			Description: "Retrieve a single account by ID",
			Method:      http.MethodGet,
			Path:        "/accounts/{account}",
		},
		{
			// Used as the credential test request.
			Resource:    ResourceAccount,
			Name:        "listAccounts",
			DisplayName: "List Accounts",
			Description: "List accounts visible to the API client",
			Method:      http.MethodGet,
			Path:        "/accounts",
		},
	}
}

func userOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourceUser,
			Name:        "getOwnAccount",
			DisplayName: "Get My Account",
			Description: "Retrieve the account associated with the authenticated API user",
			Method:      http.MethodGet,
			Path:        "/users/validate",
		},
	}
}

func channelOperations() []Operation {
	return []Operation{
		{
			Resource:    ResourceChannel,
			Name:        "createOrder",
			DisplayName: "Create Order",
			Description: "Create an order to a store",
			Method:      http.MethodPost,
			Path:        "/deliverect/order/{channelLink}",
			Prepare:     jsonBody("orderData", "Order Data"),
		},
	}
}
