package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Policy selects how a layer's nodes are spread over workers. Nodes within
// a layer share no state, so both policies produce bit-identical results;
// they differ only in load balance.
type Policy string

const (
	// PolicyStatic splits each layer into contiguous chunks, one per worker.
	PolicyStatic Policy = "static"
	// PolicyDynamic hands out small chunks from a shared cursor so uneven
	// node costs do not leave workers idle.
	PolicyDynamic Policy = "dynamic"
)

// dynamicChunk is how many nodes a worker claims per cursor fetch.
const dynamicChunk = 4

// runLayer executes step for every id in layer using up to workers
// goroutines, waits for all of them, and returns the first error observed.
// After a failure workers finish their in-flight node and claim no new
// ones, so a failing layer ends promptly but never interrupts a node
// mid-step.
func runLayer(layer []NodeID, workers int, policy Policy, step func(NodeID) error) error {
	workers = min(workers, len(layer))
	if workers <= 1 {
		for _, id := range layer {
			if err := step(id); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() { firstErr = err })
		failed.Store(true)
	}
	runChunk := func(ids []NodeID) bool {
		for _, id := range ids {
			if failed.Load() {
				return false
			}
			if err := step(id); err != nil {
				fail(err)
				return false
			}
		}
		return true
	}

	switch policy {
	case PolicyStatic:
		chunk := (len(layer) + workers - 1) / workers
		for lo := 0; lo < len(layer); lo += chunk {
			hi := min(lo+chunk, len(layer))
			wg.Add(1)
			go func(ids []NodeID) {
				defer wg.Done()
				runChunk(ids)
			}(layer[lo:hi])
		}
	case PolicyDynamic:
		var cursor atomic.Int64
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					lo := int(cursor.Add(dynamicChunk)) - dynamicChunk
					if lo >= len(layer) {
						return
					}
					hi := min(lo+dynamicChunk, len(layer))
					if !runChunk(layer[lo:hi]) {
						return
					}
				}
			}()
		}
	default:
		panic(fmt.Sprintf("unknown execution policy %q", policy))
	}

	wg.Wait()
	return firstErr
}
