package catalog

// Product is a single catalog record. All fields are strings because the
// admin UI submits them as free text; price holds a plain rupiah amount
// such as "15000".
type Product struct {
	ID           string `json:"id"`
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	RackLocation string `json:"rackLocation"`
	Price        string `json:"price"`
}

// NewProduct is the payload for adding a product. Quantity is optional.
type NewProduct struct {
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	RackLocation string `json:"rackLocation"`
	Price        string `json:"price"`
}
