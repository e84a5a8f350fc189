package main

import (
	"context"
	"sync"
)

type PageView struct {
	Id       string `json:"id"`
	Loading  bool   `json:"loading"`
	ImageUrl string `json:"url"`
	Seq      uint64 `json:"seq"`
}

// Page is the state of one served page: Ready(url) or Loading.
// The last image is kept while loading so a failed fetch never clears it.
type Page struct {
	mu      sync.Mutex
	id      string
	current ImageDescriptor
	loading bool
	mounted bool
	seq     uint64
}

func NewPage(id string, initial ImageDescriptor) *Page {
	return &Page{id: id, current: initial}
}

func (p *Page) Id() string {
	return p.id
}

func (p *Page) View() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view()
}

func (p *Page) view() PageView {
	return PageView{
		Id:       p.id,
		Loading:  p.loading,
		ImageUrl: p.current.Url,
		Seq:      p.seq,
	}
}

// Mount runs the after-first-paint fetch. Only the first call fetches, even
// when it fails; a page stuck in Loading recovers through Next.
func (p *Page) Mount(ctx context.Context, fetcher ImageFetcher) (PageView, error) {
	p.mu.Lock()
	if p.mounted {
		v := p.view()
		p.mu.Unlock()
		return v, nil
	}
	p.mounted = true
	p.mu.Unlock()
	return p.refresh(ctx, fetcher)
}

// Next is the "one more cat!" action.
func (p *Page) Next(ctx context.Context, fetcher ImageFetcher) (PageView, error) {
	return p.refresh(ctx, fetcher)
}

// refresh never holds the lock across the fetch. On error the page is left
// Loading and the error goes back to the caller.
func (p *Page) refresh(ctx context.Context, fetcher ImageFetcher) (PageView, error) {
	token := p.begin()
	image, err := fetcher.FetchImage(ctx)
	if err != nil {
		RecordTransition("failed")
		return p.View(), err
	}
	p.complete(token, image)
	return p.View(), nil
}

func (p *Page) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = true
	p.seq++
	RecordTransition("loading")
	return p.seq
}

// complete applies image only if token is still the newest request.
func (p *Page) complete(token uint64, image ImageDescriptor) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.seq {
		RecordTransition("discarded")
		return false
	}
	p.current = image
	p.loading = false
	RecordTransition("ready")
	return true
}
