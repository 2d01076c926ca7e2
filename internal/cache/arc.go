package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// NewARC builds an adaptive replacement cache holding up to size entries.
// It keeps both recently and frequently used entries, which suits the
// repeated re-renders of the same question.
func NewARC(size int) (*ARC, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("new arc cache of size %d: %w", size, err)
	}

	return &ARC{arc: c}, nil
}

var _ Cache = (*ARC)(nil)

type ARC struct {
	arc *lru.ARCCache
}

func (c *ARC) Get(key interface{}) (interface{}, bool) {
	return c.arc.Get(key)
}

func (c *ARC) Add(key, value interface{}) {
	c.arc.Add(key, value)
}

func (c *ARC) Keys() []interface{} {
	return c.arc.Keys()
}

func (c *ARC) Delete(key interface{}) {
	c.arc.Remove(key)
}

func (c *ARC) Purge() {
	c.arc.Purge()
}
