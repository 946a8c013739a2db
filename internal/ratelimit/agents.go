package ratelimit

import (
	"math/rand"
	"sync"
)

// AgentPool hands out User-Agent strings from a fixed pool, one random
// pick per request.
type AgentPool struct {
	agents []string
	mu     sync.Mutex
}

func NewAgentPool(agents []string) *AgentPool {
	return &AgentPool{agents: agents}
}

// Next returns the User-Agent to use for the next request, or the empty
// string when the pool is empty.
func (p *AgentPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.agents) == 0 {
		return ""
	}
	return p.agents[rand.Intn(len(p.agents))]
}
