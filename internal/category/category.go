package category

import "errors"

var (
	ErrNotFound = errors.New("category not found")
)

// Category groups products in the catalog. Deleted categories stay in storage
// so historical products keep their reference.
type Category struct {
	ID       int    `json:"categoryId"`
	Name     string `json:"categoryName"`
	ImageRef string `json:"categoryImg,omitempty"`
	Deleted  bool   `json:"isDeleted"`
}
