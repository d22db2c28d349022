package manager

import (
	"sync"

	"rate-engine/rate"
)

// Publisher 一个轻量事件分发器：原始报价与计算结果分别广播。
// 订阅方消费过慢时直接丢弃，不阻塞计算流程。
type Publisher struct {
	mu       sync.RWMutex
	buffer   int
	rawSubs  []chan rate.RawRate
	calcSubs []chan rate.CalculatedRate
}

func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Publisher{buffer: buffer}
}

func (p *Publisher) SubscribeRaw() <-chan rate.RawRate {
	ch := make(chan rate.RawRate, p.buffer)
	p.mu.Lock()
	p.rawSubs = append(p.rawSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) SubscribeCalculated() <-chan rate.CalculatedRate {
	ch := make(chan rate.CalculatedRate, p.buffer)
	p.mu.Lock()
	p.calcSubs = append(p.calcSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) PublishRaw(r rate.RawRate) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.rawSubs {
		select {
		case ch <- r:
		default:
		}
	}
}

func (p *Publisher) PublishCalculated(r rate.CalculatedRate) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.calcSubs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Close closes every subscriber channel and drops the subscriber lists, so a
// PublishRaw / PublishCalculated after Close reaches nobody and is a no-op.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.rawSubs {
		close(ch)
	}
	for _, ch := range p.calcSubs {
		close(ch)
	}
	p.rawSubs = nil
	p.calcSubs = nil
}
