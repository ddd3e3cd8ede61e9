// Package pricing provides the simulated market feed: a random-walk
// quote per pair, read by the contract engine at placement and expiry
// and streamed to clients over websocket.
package pricing

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Quote is one observation of the feed.
type Quote struct {
	Pair      string    `json:"pair"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"` // percent vs. previous tick
	Timestamp time.Time `json:"timestamp"`
}

// Feed is a random-walk price source for a single pair. Ticks move the
// price by up to ±1% per interval.
type Feed struct {
	pair     string
	interval time.Duration

	mu    sync.RWMutex
	price float64

	done chan struct{}
	once sync.Once
}

func NewFeed(pair string, initialPrice float64, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = time.Second
	}
	return &Feed{
		pair:     pair,
		interval: interval,
		price:    initialPrice,
		done:     make(chan struct{}),
	}
}

// Start begins ticking until Stop is called.
func (f *Feed) Start() {
	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-f.done:
				return
			case <-ticker.C:
				f.tick()
			}
		}
	}()
}

func (f *Feed) Stop() {
	f.once.Do(func() { close(f.done) })
}

func (f *Feed) tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	changePercent := (rand.Float64() - 0.5) * 2 // -1% to +1%
	f.price *= 1 + changePercent/100
}

// Pair returns the pair this feed quotes.
func (f *Feed) Pair() string {
	return f.pair
}

// Current returns the latest observed price.
func (f *Feed) Current() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.price
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI is served from a different origin in dev
	},
}

// StreamHandler upgrades the connection and pushes a quote per tick
// until the client disconnects.
func (f *Feed) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		last := f.Current()
		for {
			select {
			case <-f.done:
				return
			case <-ticker.C:
				price := f.Current()
				change := 0.0
				if last != 0 {
					change = (price - last) / last * 100
				}
				last = price

				quote := Quote{
					Pair:      f.pair,
					Price:     price,
					Change:    change,
					Timestamp: time.Now(),
				}
				if err := conn.WriteJSON(quote); err != nil {
					log.Debug().Err(err).Msg("websocket client gone")
					return
				}
			}
		}
	}
}
