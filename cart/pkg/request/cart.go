package request

type AddItem struct {
	ProductID string `validate:"required,max=256" json:"productId"`
	Quantity  int    `validate:"required,gte=1,max=2147483647" json:"quantity"`
}

type UpdateItem struct {
	// Quantity 0 or below removes the line.
	Quantity *int `validate:"required,max=2147483647" json:"quantity"`
}

type ReplaceItems struct {
	Items []AddItem `validate:"required,dive" json:"items"`
}
