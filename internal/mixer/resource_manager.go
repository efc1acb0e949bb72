package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amplimix/amplimix/internal/errors"
	"github.com/amplimix/amplimix/internal/logging"
)

// componentMixer names this package in error Context, mirroring
// audiocore's ComponentAudioCore constant.
const componentMixer = "mixer"

// ResourceTracker guards against leaked control-thread resources that
// never go through the audio-thread-owned layer.Pool: decoder handles,
// package-file readers, and anything else Play/Stop hand out to the
// game thread. Adapted from audiocore's ResourceTracker; the leak
// detector and cleanup worker are unchanged in shape, only the tracked
// domain (codec/asset handles instead of generic audio sources) differs.
type ResourceTracker struct {
	resources map[string]*TrackedResource
	mu        sync.RWMutex
	logger    *slog.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	cleanupQueue chan cleanupTask
	wg           sync.WaitGroup

	totalAllocated atomic.Int64
	totalReleased  atomic.Int64
	activeCount    atomic.Int32
}

type cleanupTask struct {
	resourceID string
	cleanupAt  time.Time
}

// TrackedResource is one allocation under watch.
type TrackedResource struct {
	ID          string
	Type        string
	AllocatedAt time.Time
	Stack       string
	Finalizer   func()
	Released    atomic.Bool
	ReleasedAt  time.Time
}

// NewResourceTracker starts a tracker with its leak detector and cleanup
// worker goroutines running. Call Close to stop them.
func NewResourceTracker() *ResourceTracker {
	logger := logging.ForService(componentMixer)
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	rt := &ResourceTracker{
		resources:    make(map[string]*TrackedResource),
		logger:       logger.With("component", "resource_tracker"),
		ctx:          ctx,
		cancel:       cancel,
		cleanupQueue: make(chan cleanupTask, 100),
	}

	rt.wg.Add(2)
	go rt.leakDetector()
	go rt.cleanupWorker()

	return rt
}

// Track registers a resource for leak detection; finalizer runs if the
// resource is garbage collected without a matching Release.
func (rt *ResourceTracker) Track(id, resourceType string, finalizer func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	resource := &TrackedResource{
		ID:          id,
		Type:        resourceType,
		AllocatedAt: time.Now(),
		Stack:       string(buf[:n]),
		Finalizer:   finalizer,
	}

	rt.resources[id] = resource
	rt.totalAllocated.Add(1)
	rt.activeCount.Add(1)

	runtime.SetFinalizer(resource, func(r *TrackedResource) {
		if !r.Released.Load() {
			rt.logger.Error("resource leaked - not properly closed",
				"resource_id", r.ID, "resource_type", r.Type,
				"allocated_at", r.AllocatedAt, "stack", r.Stack)
			if r.Finalizer != nil {
				r.Finalizer()
			}
		}
	})
}

// Release marks a resource released, running its finalizer immediately
// and scheduling its bookkeeping entry for later removal (kept around
// briefly so Stats/leak detection can still see recently-released IDs).
func (rt *ResourceTracker) Release(id string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	resource, exists := rt.resources[id]
	if !exists {
		return errors.Newf("resource not found: %s", id).
			Component(componentMixer).
			Category(errors.CategoryNotFound).
			Build()
	}
	if resource.Released.Load() {
		return errors.Newf("resource already released: %s", id).
			Component(componentMixer).
			Category(errors.CategoryState).
			Build()
	}

	resource.Released.Store(true)
	resource.ReleasedAt = time.Now()
	rt.totalReleased.Add(1)
	rt.activeCount.Add(-1)
	runtime.SetFinalizer(resource, nil)

	if resource.Finalizer != nil {
		resource.Finalizer()
	}

	select {
	case rt.cleanupQueue <- cleanupTask{resourceID: id, cleanupAt: time.Now().Add(5 * time.Minute)}:
	case <-rt.ctx.Done():
	}

	return nil
}

func (rt *ResourceTracker) leakDetector() {
	defer rt.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rt.checkForLeaks()
		case <-rt.ctx.Done():
			return
		}
	}
}

func (rt *ResourceTracker) checkForLeaks() {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	const threshold = 5 * time.Minute
	now := time.Now()
	for id, resource := range rt.resources {
		if !resource.Released.Load() && now.Sub(resource.AllocatedAt) > threshold {
			rt.logger.Warn("potential resource leak detected",
				"resource_id", id, "resource_type", resource.Type,
				"age", now.Sub(resource.AllocatedAt), "allocated_at", resource.AllocatedAt)
		}
	}
}

func (rt *ResourceTracker) cleanupWorker() {
	defer rt.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case task := <-rt.cleanupQueue:
			pending[task.resourceID] = task.cleanupAt
		case <-ticker.C:
			now := time.Now()
			for id, cleanupTime := range pending {
				if now.After(cleanupTime) {
					rt.mu.Lock()
					delete(rt.resources, id)
					rt.mu.Unlock()
					delete(pending, id)
				}
			}
		case <-rt.ctx.Done():
			return
		}
	}
}

// Close stops the tracker's background goroutines.
func (rt *ResourceTracker) Close() error {
	rt.cancel()
	rt.wg.Wait()
	return nil
}

// Stats reports allocation counters, for the health monitor.
func (rt *ResourceTracker) Stats() map[string]any {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	activeByType := make(map[string]int)
	for _, resource := range rt.resources {
		if !resource.Released.Load() {
			activeByType[resource.Type]++
		}
	}

	allocated := rt.totalAllocated.Load()
	var leakRate float64
	if allocated > 0 {
		leakRate = float64(rt.activeCount.Load()) / float64(allocated)
	}

	return map[string]any{
		"total_allocated": allocated,
		"total_released":  rt.totalReleased.Load(),
		"active_count":    rt.activeCount.Load(),
		"active_by_type":  activeByType,
		"leak_rate":       leakRate,
	}
}

// ManagedResource wraps a control-thread resource (a codec.Decoder, a
// pkgfile reader) with tracked, idempotent cleanup.
type ManagedResource struct {
	resource  any
	closeFunc func() error
	tracker   *ResourceTracker
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewManagedResource wraps resource, registering it with tracker (if
// non-nil) and arming a runtime finalizer as a last-resort backstop.
func NewManagedResource(id string, resource any, closeFunc func() error, tracker *ResourceTracker) *ManagedResource {
	ctx, cancel := context.WithCancel(context.Background())
	mr := &ManagedResource{resource: resource, closeFunc: closeFunc, tracker: tracker, id: id, ctx: ctx, cancel: cancel}

	if tracker != nil {
		tracker.Track(id, fmt.Sprintf("%T", resource), func() { _ = mr.Close() })
	}
	runtime.SetFinalizer(mr, func(m *ManagedResource) {
		if !m.closed.Load() {
			_ = m.Close()
		}
	})

	return mr
}

// Resource returns the wrapped value.
func (mr *ManagedResource) Resource() any { return mr.resource }

// Context is cancelled the moment Close runs.
func (mr *ManagedResource) Context() context.Context { return mr.ctx }

// Close runs closeFunc exactly once and releases the tracker entry.
func (mr *ManagedResource) Close() error {
	var closeErr error
	mr.closeOnce.Do(func() {
		mr.closed.Store(true)
		mr.cancel()
		if mr.closeFunc != nil {
			closeErr = mr.closeFunc()
		}
		if mr.tracker != nil {
			_ = mr.tracker.Release(mr.id)
		}
		runtime.SetFinalizer(mr, nil)
	})
	return closeErr
}

// ResourcePool manages a bounded, reusable pool of control-thread
// resources (e.g. codec.Decoder instances per active stream), built on
// sync.Pool with an active-count ceiling.
type ResourcePool[T any] struct {
	pool        *sync.Pool
	factory     func() (T, error)
	resetFunc   func(T) error
	closeFunc   func(T) error
	tracker     *ResourceTracker
	activeCount atomic.Int32
	maxActive   int32

	lastFactoryError atomic.Value
}

// NewResourcePool constructs a pool backed by factory, capped at
// maxActive concurrently outstanding resources (0 means unbounded).
func NewResourcePool[T any](factory func() (T, error), resetFunc, closeFunc func(T) error, maxActive int32, tracker *ResourceTracker) *ResourcePool[T] {
	rp := &ResourcePool[T]{factory: factory, resetFunc: resetFunc, closeFunc: closeFunc, tracker: tracker, maxActive: maxActive}
	rp.pool = &sync.Pool{
		New: func() any {
			if factory == nil {
				return nil
			}
			resource, err := factory()
			if err != nil {
				rp.lastFactoryError.Store(err)
				return nil
			}
			return resource
		},
	}
	return rp
}

// Get retrieves (or builds) a resource, erroring if maxActive would be
// exceeded or the factory failed.
func (rp *ResourcePool[T]) Get() (T, error) {
	var zero T

	if rp.maxActive > 0 && rp.activeCount.Load() >= rp.maxActive {
		return zero, errors.Newf("resource pool limit reached: %d", rp.maxActive).
			Component(componentMixer).
			Category(errors.CategoryLimit).
			Build()
	}

	if resource := rp.pool.Get(); resource != nil {
		if typed, ok := resource.(T); ok {
			rp.activeCount.Add(1)
			return typed, nil
		}
	}

	if err := rp.lastFactoryError.Load(); err != nil {
		rp.lastFactoryError.Store(nil)
		if factoryErr, ok := err.(error); ok {
			return zero, errors.Newf("resource factory failed: %v", factoryErr).
				Component(componentMixer).
				Category(errors.CategoryResource).
				Build()
		}
	}

	if rp.factory != nil {
		resource, err := rp.factory()
		if err != nil {
			return zero, err
		}
		rp.activeCount.Add(1)
		return resource, nil
	}

	return zero, errors.Newf("no resource factory configured").
		Component(componentMixer).
		Category(errors.CategoryConfiguration).
		Build()
}

// Put returns resource to the pool, resetting it first; a reset failure
// closes the resource instead of pooling it.
func (rp *ResourcePool[T]) Put(resource T) error {
	rp.activeCount.Add(-1)

	if rp.resetFunc != nil {
		if err := rp.resetFunc(resource); err != nil {
			if rp.closeFunc != nil {
				_ = rp.closeFunc(resource)
			}
			return err
		}
	}

	rp.pool.Put(resource)
	return nil
}
