// Package keypool rotates API credentials in strict round-robin order.
//
// A Pool is the only mutable state shared between concurrent LLM calls.
// Every call to Next pops the front key and pushes it to the back inside
// one critical section, so no key is ever dropped or issued twice ahead
// of the others.
package keypool

import (
	"errors"
	"strings"
	"sync"
)

// ErrEmptyPool is returned by New when no usable key was supplied.
var ErrEmptyPool = errors.New("keypool: no API keys configured")

// Pool is a mutex-guarded deque of API keys.
type Pool struct {
	mu   sync.Mutex
	keys []string
}

// New creates a Pool from keys. Blank entries are dropped; if nothing
// remains, New returns ErrEmptyPool.
func New(keys []string) (*Pool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{keys: cleaned}, nil
}

// Next returns the key at the front of the pool and moves it to the back.
//
// Next panics if the pool is empty. New never builds an empty pool and
// rotation never shrinks it, so reaching that branch is a construction bug.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		panic("keypool: no API keys available")
	}
	key := p.keys[0]
	copy(p.keys, p.keys[1:])
	p.keys[len(p.keys)-1] = key
	return key
}

// Len reports how many keys are in rotation.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Parse resolves the key source. A comma-delimited multi-key value wins
// over the single-key value; entries are trimmed and blanks dropped.
func Parse(multi, single string) []string {
	if strings.TrimSpace(multi) != "" {
		var keys []string
		for _, part := range strings.Split(multi, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, part)
			}
		}
		return keys
	}
	if single = strings.TrimSpace(single); single != "" {
		return []string{single}
	}
	return nil
}
