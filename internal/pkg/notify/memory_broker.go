package notify

import (
	"context"
	"sync"
)

// MemoryBroker 单进程内存实现
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[uint]map[int]chan Event
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[uint]map[int]chan Event)}
}

func (b *MemoryBroker) Publish(ctx context.Context, postID uint, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[postID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, postID uint) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	if b.subs[postID] == nil {
		b.subs[postID] = make(map[int]chan Event)
	}
	b.subs[postID][id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[postID], id)
			if len(b.subs[postID]) == 0 {
				delete(b.subs, postID)
			}
			close(ch)
		})
	}

	// 主动 cancel 时 ctx 可能永远不会结束，done 让监听协程一并退出
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel
}

// Subscribers 当前订阅数
func (b *MemoryBroker) Subscribers(postID uint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[postID])
}
