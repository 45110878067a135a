package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/gocatalog/internal/images"
)

// Role is the semantic purpose of a table column.
type Role int

const (
	RoleDescription Role = iota
	RolePrice
	RoleImage
)

func (r Role) String() string {
	switch r {
	case RoleDescription:
		return "description"
	case RolePrice:
		return "price"
	case RoleImage:
		return "image"
	}
	return "unknown"
}

// roleRules is evaluated per header cell in this order; a cell claims the
// first role that is still unclaimed and whose keywords it contains.
var roleRules = []struct {
	role     Role
	keywords []string
}{
	{RoleDescription, []string{"description", "desc"}},
	{RolePrice, []string{"price"}},
	{RoleImage, []string{"image", "img", "picture", "photo", "thumbnail", "thumb", "icon"}},
}

// imageSampleCap bounds the density fallback: scanning stops once this many
// image-bearing cells have been counted across all columns.
const imageSampleCap = 5

// Roles maps each inferred role to its column index. Missing roles are absent.
type Roles map[Role]int

// Column returns the column index for role.
func (r Roles) Column(role Role) (int, bool) {
	i, ok := r[role]
	return i, ok
}

// IsCandidate reports whether a header row marks a product table: at least one
// header must mention a price.
func IsCandidate(headers []string) bool {
	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), "price") {
			return true
		}
	}
	return false
}

// InferRoles assigns columns to roles from the header texts. When no header
// names an image column, the body cells are sampled and the column holding
// the most image-bearing cells wins.
func InferRoles(headers []string, body [][]*html.Node) Roles {
	roles := headerRoles(headers)
	if _, ok := roles[RoleImage]; !ok {
		if col, ok := denseImageColumn(body); ok {
			roles[RoleImage] = col
		}
	}
	return roles
}

// headerRoles is the keyword pass of InferRoles alone.
func headerRoles(headers []string) Roles {
	roles := Roles{}
	for i, h := range headers {
		lh := strings.ToLower(h)
		for _, rule := range roleRules {
			if _, taken := roles[rule.role]; taken {
				continue
			}
			if containsAny(lh, rule.keywords) {
				roles[rule.role] = i
				break
			}
		}
	}
	return roles
}

// denseImageColumn counts image-bearing cells per column, in row order, until
// imageSampleCap cells have been seen. Ties go to the column seen first.
func denseImageColumn(body [][]*html.Node) (int, bool) {
	counts := map[int]int{}
	var order []int
	total := 0
scan:
	for _, row := range body {
		for i, c := range row {
			if !images.HasImage(c) {
				continue
			}
			if _, seen := counts[i]; !seen {
				order = append(order, i)
			}
			counts[i]++
			total++
			if total >= imageSampleCap {
				break scan
			}
		}
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, i := range order[1:] {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
