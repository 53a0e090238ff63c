package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

// ReadingStore 读数持久化接口（由 repository.ReadingsRepository 实现）
type ReadingStore interface {
	InsertReading(ctx context.Context, reading models.Reading) (int64, error)
}

// ReadingPublisher 读数写入成功后的下游通知（可选）
type ReadingPublisher interface {
	PublishReading(ctx context.Context, readingID int64, reading models.Reading) error
}

// Options 持久化工作池参数
type Options struct {
	Workers int
	Queue   int
	Timeout time.Duration
}

// Dispatcher 异步写入读数：至多一次，不重试，队列满时丢弃
type Dispatcher struct {
	store     ReadingStore
	publisher ReadingPublisher
	opts      Options
	logger    *zap.Logger

	queue    chan models.Reading
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	dropped  atomic.Int64
	stored   atomic.Int64
	failures atomic.Int64
}

// NewDispatcher 创建持久化分发器，publisher 可以为 nil
func NewDispatcher(store ReadingStore, publisher ReadingPublisher, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Queue <= 0 {
		opts.Queue = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		queue:     make(chan models.Reading, opts.Queue),
	}
}

// Start 启动工作协程
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting persistence dispatcher",
		zap.Int("workers", d.opts.Workers),
		zap.Int("queue", d.opts.Queue),
	)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Persist enqueues a reading without blocking. The reading is dropped when the
// queue is full or the dispatcher has stopped.
func (d *Dispatcher) Persist(reading models.Reading) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.dropped.Add(1)
		return
	}

	select {
	case d.queue <- reading:
	default:
		d.dropped.Add(1)
		d.logger.Warn("Persistence queue full, dropping reading",
			zap.String("user_id", reading.UserID),
			zap.String("device_id", reading.DeviceID),
		)
	}
}

// Stop 停止接收新读数，等待队列中已有读数处理完毕
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Persistence dispatcher stopped",
		zap.Int64("stored", d.stored.Load()),
		zap.Int64("failed", d.failures.Load()),
		zap.Int64("dropped", d.dropped.Load()),
	)
}

// Dropped 返回被丢弃的读数数量
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for reading := range d.queue {
		d.storeReading(ctx, id, reading)
	}
}

func (d *Dispatcher) storeReading(ctx context.Context, workerID int, reading models.Reading) {
	// 已入队的读数在关闭期间仍然写入
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
	defer cancel()

	readingID, err := d.store.InsertReading(callCtx, reading)
	if err != nil {
		d.failures.Add(1)
		d.logger.Error("Failed to persist reading",
			zap.Int("worker", workerID),
			zap.String("user_id", reading.UserID),
			zap.String("device_id", reading.DeviceID),
			zap.Error(err),
		)
		return
	}
	d.stored.Add(1)

	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishReading(callCtx, readingID, reading); err != nil {
		d.logger.Warn("Failed to publish stored reading",
			zap.Int64("reading_id", readingID),
			zap.Error(err),
		)
	}
}
