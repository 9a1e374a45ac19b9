package embed

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader constructs the concrete Model backend; it runs at most once
// per process unless Reset is called.
type Loader func() (Model, error)

var (
	singletonMu    sync.Mutex
	singletonModel Model
	singletonGroup singleflight.Group
)

// Acquire returns the process-wide Model instance, constructing it via
// loader on first call. A second concurrent call (from any goroutine,
// regardless of which logical import path reached here) joins the
// same in-flight initialisation rather than racing a duplicate load.
func Acquire(loader Loader) (Model, error) {
	singletonMu.Lock()
	if m := singletonModel; m != nil {
		singletonMu.Unlock()
		return m, nil
	}
	singletonMu.Unlock()

	v, err, _ := singletonGroup.Do("model", func() (interface{}, error) {
		singletonMu.Lock()
		if m := singletonModel; m != nil {
			singletonMu.Unlock()
			return m, nil
		}
		singletonMu.Unlock()

		m, err := loader()
		if err != nil {
			return nil, fmt.Errorf("embed: load model: %w", err)
		}
		singletonMu.Lock()
		singletonModel = m
		singletonMu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Model), nil
}

// Reset tears down the process-wide model so a later Acquire loads a
// fresh instance. Intended for use between test cases.
func Reset() error {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singletonModel == nil {
		return nil
	}
	err := singletonModel.Close()
	singletonModel = nil
	return err
}
