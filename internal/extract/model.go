package extract

// ProductGroup is the set of rows taken from one product table together with
// the heading and prose that introduce it on the page.
type ProductGroup struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"desc"`
	SubProducts []SubProduct `json:"subproducts"`
	Source      string       `json:"source"`
}

// SubProduct is one priced row of a product table. Image is empty when no
// image could be resolved and is then omitted from JSON.
type SubProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image,omitempty"`
}

// Catalog is the serialized form handed to downstream consumers.
type Catalog struct {
	Products []ProductGroup `json:"products"`
}

// NewCatalog wraps groups, keeping an empty list as [] rather than null.
func NewCatalog(groups []ProductGroup) Catalog {
	if groups == nil {
		groups = []ProductGroup{}
	}
	return Catalog{Products: groups}
}
