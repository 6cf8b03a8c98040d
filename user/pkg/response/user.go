package response

import "github.com/Alturino/storefront/internal/auth"

type UserPage struct {
	Users []auth.Profile `json:"users"`
	// Next is the cursor of the following page, empty on the last page.
	Next string `json:"next,omitempty"`
}

type Overview struct {
	ProductCount int64 `json:"productCount"`
	UserCount    int64 `json:"userCount"`
}
