package workflow

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// conditionEnv is the expression environment a condition step's program
// runs against: one boolean per terminal activity status the lead may
// have accumulated, per spec.md §4.8 step 5.
type conditionEnv struct {
	Connected bool
	Replied   bool
	Opened    bool
	Clicked   bool
	Delivered bool
	Sent      bool
}

// conditionExprs maps a condition step's ConditionType value onto the
// boolean expression compiled and evaluated against conditionEnv. Kept as
// a fixed table rather than letting campaigns author raw expr-lang source,
// since spec.md §4.8's condition steps only ever name one of these three
// outcomes.
var conditionExprs = map[string]string{
	"connected": "Connected",
	"replied":   "Replied",
	"opened":    "Opened",
}

// conditionCache is a thread-safe LRU cache of compiled condition
// programs, keyed on the expression source. Adapted from
// internal/application/engine/condition_cache.go's container/list LRU;
// capacity is small here since conditionExprs only ever contributes a
// handful of distinct expressions.
type conditionCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

type conditionCacheEntry struct {
	key     string
	program *vm.Program
}

func newConditionCache(capacity int) *conditionCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &conditionCache{capacity: capacity, entries: make(map[string]*list.Element), order: list.New()}
}

func (cc *conditionCache) compile(source string) (*vm.Program, error) {
	cc.mu.Lock()
	if element, found := cc.entries[source]; found {
		cc.order.MoveToFront(element)
		program := element.Value.(*conditionCacheEntry).program
		cc.mu.Unlock()
		return program, nil
	}
	cc.mu.Unlock()

	program, err := expr.Compile(source, expr.Env(conditionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", source, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if element, found := cc.entries[source]; found {
		cc.order.MoveToFront(element)
		return element.Value.(*conditionCacheEntry).program, nil
	}
	element := cc.order.PushFront(&conditionCacheEntry{key: source, program: program})
	cc.entries[source] = element
	if cc.order.Len() > cc.capacity {
		oldest := cc.order.Back()
		if oldest != nil {
			cc.order.Remove(oldest)
			delete(cc.entries, oldest.Value.(*conditionCacheEntry).key)
		}
	}
	return program, nil
}
