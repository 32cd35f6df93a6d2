package category

// Category groups subcategories, which in turn group products.
type Category struct {
	ID            int           `json:"categoryId"`
	Name          string        `json:"categoryName"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

type Subcategory struct {
	ID         int    `json:"subcategoryId"`
	CategoryID int    `json:"categoryId"`
	Name       string `json:"subcategoryName"`
}
