package clip

import (
	"bytes"
	"crypto/sha256"
	"sync"
	"time"
)

// poller samples the clipboard on a ticker and signals watchCh when the
// sample's digest changes. The first sample only primes the digest.
type poller struct {
	watchCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newPoller() *poller {
	return &poller{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *poller) run(interval time.Duration, sample func() []byte) {
	t := time.NewTicker(interval)
	defer t.Stop()
	var last []byte
	primed := false
	for {
		select {
		case <-p.done:
			return
		case <-t.C:
			sum := sha256.Sum256(sample())
			if primed && !bytes.Equal(sum[:], last) {
				p.notify()
			}
			last, primed = sum[:], true
		}
	}
}

func (p *poller) notify() {
	select {
	case p.watchCh <- struct{}{}:
	default:
	}
}

func (p *poller) stop() { p.once.Do(func() { close(p.done) }) }
