package catalog

import "time"

type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Fabric      string    `json:"fabric"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Variants    []Variant `json:"variants,omitempty"`
}

type Variant struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	Colour            string `json:"colour"`
	Size              string `json:"size"`
	PricePaise        int64  `json:"price_paise"`
	Stock             int    `json:"stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

type ListFilter struct {
	Fabric   string
	Category string
	Limit    int
	Cursor   string
}

type ListPage struct {
	Items      []Product `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
