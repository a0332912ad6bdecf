package shopping

// ListItem is one entry of the shopping list. Price and VisualAids are
// optional; Checked toggles independently of everything else.
type ListItem struct {
	ID           string `json:"id"`
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	RackLocation string `json:"rackLocation"`
	Price        string `json:"price,omitempty"`
	VisualAids   string `json:"visualAids,omitempty"`
	Checked      bool   `json:"checked"`
}

// NewListItem is the payload for adding items; ids and the checked flag
// are assigned by the service.
type NewListItem struct {
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	RackLocation string `json:"rackLocation"`
	Price        string `json:"price,omitempty"`
	VisualAids   string `json:"visualAids,omitempty"`
}
