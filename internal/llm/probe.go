package llm

import (
	"log"
	"net/http"
	"time"
)

const (
	probeTimeout  = 3 * time.Second
	probeInterval = 30 * time.Second
)

// Prober polls the endpoint's tag listing on a ticker and flips the
// gateway's availability flag. Decoupled from per-request retry: the probe
// answers "is the endpoint up at all", retries answer "is this request
// worth another attempt".
type Prober struct {
	baseURL string
	gateway *Gateway
	client  *http.Client
	stopCh  chan struct{}
}

// NewProber creates a prober for the given endpoint.
func NewProber(baseURL string, gw *Gateway) *Prober {
	return &Prober{
		baseURL: baseURL,
		gateway: gw,
		client:  &http.Client{Timeout: probeTimeout},
		stopCh:  make(chan struct{}),
	}
}

// Start probes once immediately, then on every tick until Stop.
func (p *Prober) Start() {
	p.probe()

	go func() {
		ticker := time.NewTicker(probeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.probe()
			case <-p.stopCh:
				return
			}
		}
	}()
}

// Stop halts the background probing.
func (p *Prober) Stop() {
	close(p.stopCh)
}

func (p *Prober) probe() {
	was := p.gateway.Status().Available
	up := probeURL(p.client, p.baseURL)
	p.gateway.SetAvailable(up)
	if up != was {
		log.Printf("probe: model endpoint available=%v", up)
	}
}
