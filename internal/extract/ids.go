package extract

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	idPrefix = "ems-"
	idHexLen = 8
)

func makeID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return idPrefix + hex.EncodeToString(sum[:])[:idHexLen]
}

func groupKey(source, name string) string {
	return source + "|" + name
}

// GroupID is stable for a (source, group name) pair.
func GroupID(source, name string) string {
	return makeID(groupKey(source, name))
}

// SubProductID is stable for a row within its group.
func SubProductID(source, group, name, price string) string {
	return makeID(groupKey(source, group) + "|" + name + "|" + price)
}

// rowSet keeps rows in insertion order and drops any row whose (name, price)
// was already seen. A later duplicate never contributes fields.
type rowSet struct {
	seen map[[2]string]struct{}
	rows []SubProduct
}

func newRowSet() *rowSet {
	return &rowSet{seen: make(map[[2]string]struct{})}
}

// add reports whether the row was kept.
func (s *rowSet) add(sp SubProduct) bool {
	k := [2]string{sp.Name, sp.Price}
	if _, dup := s.seen[k]; dup {
		return false
	}
	s.seen[k] = struct{}{}
	s.rows = append(s.rows, sp)
	return true
}
