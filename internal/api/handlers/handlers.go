package handlers

import (
	gosync "sync"

	"stylesync/internal/services/ssactivewear"
)

// StyleClient is the distributor surface the handlers depend on.
type StyleClient interface {
	SearchStyles(query string) []ssactivewear.SearchResult
	FetchStyleColors(styleTitle string) []ssactivewear.ColorRecord
	StyleSummary(sku string) ssactivewear.StyleSummary
	TestAPI() ssactivewear.TestResult
}

// ClientProvider hands out the current distributor client and lets the
// settings handler swap it when credentials change, without restarting.
type ClientProvider struct {
	mu     gosync.RWMutex
	client StyleClient
}

func NewClientProvider(client StyleClient) *ClientProvider {
	return &ClientProvider{client: client}
}

func (p *ClientProvider) Get() StyleClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *ClientProvider) Set(client StyleClient) {
	p.mu.Lock()
	p.client = client
	p.mu.Unlock()
}
