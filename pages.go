package main

import (
	"log"
	"os"
	"time"

	"github.com/apibillme/cache"
	"github.com/google/uuid"
)

const (
	DefaultPageCapacity int = 1024
	DefaultPageTTL      int = 60
)

// PageRegistry holds live pages by id. A page that falls out of the cache
// is gone for good, like a closed tab.
type PageRegistry struct {
	pages cache.Cache
	log   *log.Logger
}

func NewPageRegistry(cfg *Config) *PageRegistry {
	capacity := DefaultPageCapacity
	if cfg.Pages.Capacity > 0 {
		capacity = cfg.Pages.Capacity
	}
	ttl := DefaultPageTTL
	if cfg.Pages.TTL > 0 {
		ttl = cfg.Pages.TTL
	}
	return &PageRegistry{
		pages: cache.New(capacity, cache.WithTTL(time.Duration(ttl)*time.Minute)),
		log:   log.New(os.Stderr, "(pages) ", log.LstdFlags),
	}
}

func (reg *PageRegistry) New(initial ImageDescriptor) *Page {
	page := NewPage(uuid.NewString(), initial)
	reg.pages.Set(page.Id(), page)
	PagesCreated.Inc()
	return page
}

func (reg *PageRegistry) Get(id string) (*Page, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	v, ok := reg.pages.Get(id)
	if !ok {
		return nil, false
	}
	page, ok := v.(*Page)
	if !ok {
		reg.log.Println("Unexpected entry for page", id)
		return nil, false
	}
	return page, true
}
