package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{6}-\d{4}$`)

// NewOrderNumber formats ORD-YYMMDD-NNNN for t with a random four digit
// suffix. Numbers are not unique by construction; the store's unique index
// decides and the caller regenerates on collision.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", t.Format("060102"), rand.IntN(10000)) // #nosec G404 -- display identifier
}

// ValidOrderNumber reports whether s has the order number shape.
func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
