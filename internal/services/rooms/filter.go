package rooms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-bexpr"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrInvalidFilter is returned when a listing filter expression does not compile.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterCache keeps compiled filter expressions, keyed by expression text.
// A nil or zero-sized cache compiles on every call.
type FilterCache struct {
	lru *expirable.LRU[string, *bexpr.Evaluator]
}

// NewFilterCache returns a cache holding up to size evaluators for ttl each.
func NewFilterCache(size int, ttl time.Duration) *FilterCache {
	if size <= 0 {
		return &FilterCache{}
	}
	return &FilterCache{lru: expirable.NewLRU[string, *bexpr.Evaluator](size, nil, ttl)}
}

// Evaluator returns the compiled form of expr.
func (c *FilterCache) Evaluator(expr string) (*bexpr.Evaluator, error) {
	expr = strings.TrimSpace(expr)
	if c != nil && c.lru != nil {
		if eval, ok := c.lru.Get(expr); ok {
			return eval, nil
		}
	}

	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if c != nil && c.lru != nil {
		c.lru.Add(expr, eval)
	}
	return eval, nil
}

// Len reports the number of cached evaluators.
func (c *FilterCache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
