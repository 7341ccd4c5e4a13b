package memory

import (
	"github.com/patrickmn/go-cache"

	"feature-store-be/pkg/transform"
)

// PlanCache holds compiled group plans so the ingestion path never recompiles
// a graph or blocks on the catalog lock. Plans are immutable; entries never
// expire and are replaced only on re-registration.
type PlanCache struct {
	cache *cache.Cache
}

func NewPlanCache() *PlanCache {
	return &PlanCache{cache: cache.New(cache.NoExpiration, 0)}
}

func (c *PlanCache) Save(group string, plan *transform.Plan) {
	c.cache.Set(group, plan, cache.NoExpiration)
}

func (c *PlanCache) Get(group string) (*transform.Plan, bool) {
	if x, found := c.cache.Get(group); found {
		return x.(*transform.Plan), true
	}
	return nil, false
}

func (c *PlanCache) Delete(group string) {
	c.cache.Delete(group)
}
