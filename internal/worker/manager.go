package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"matchday/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimIdle is how long a message may sit unacked before another
	// worker takes it over
	DefaultClaimIdle = time.Minute
)

// Manager orchestrates worker goroutines that consume from Redis Streams.
//
// Each event gets at most two attempts: a retryable failure on first delivery
// leaves the message pending, and the retry (replay on start or claim after
// ClaimIdle) is always acked.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	stream      string
	group       string
	instance    string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	claimIdle   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	Stream       string
	Group        string
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
	ClaimIdle    time.Duration // Min idle time before claiming another consumer's message
	// Instance names this process's consumers. It must survive restarts so
	// startup can replay what the previous run left pending. Defaults to the hostname.
	Instance string
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Stream:       queue.StreamNotifications,
		Group:        queue.ConsumerGroupNotifications,
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
		ClaimIdle:    DefaultClaimIdle,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.Group == "" {
		cfg.Group = def.Group
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = def.BlockTimeout
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = def.ClaimIdle
	}
	if cfg.Instance == "" {
		cfg.Instance = defaultInstance()
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      cfg.Stream,
		group:       cfg.Group,
		instance:    cfg.Instance,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		claimIdle:   cfg.ClaimIdle,
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	log.Printf("[Manager] Starting %d workers for stream=%s group=%s instance=%s",
		m.workerCount, m.stream, m.group, m.instance)

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, m.consumerName(workerID))
	}

	return nil
}

// Stop cancels the workers and blocks until they have all returned.
func (m *Manager) Stop() {
	log.Printf("[Manager] Stopping workers...")
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] All workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log.Printf("[Worker-%d] Started (consumer=%s)", workerID, consumerName)

	m.processPending(workerID, consumerName)

	lastClaim := time.Now()
	for {
		select {
		case <-m.ctx.Done():
			log.Printf("[Worker-%d] Shutting down", workerID)
			return
		default:
		}

		if time.Since(lastClaim) >= m.claimIdle {
			m.processStale(workerID, consumerName)
			lastClaim = time.Now()
		}
		m.processMessages(workerID, consumerName)
	}
}

// processPending replays messages this consumer name was given but never acked.
func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, m.stream, m.group, consumerName, m.batchSize)
		if err != nil {
			log.Printf("[Worker-%d] Error reading pending: %v", workerID, err)
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Printf("[Worker-%d] Replaying %d pending messages", workerID, len(messages))
		m.handleMessages(workerID, messages, true)
	}
}

// processStale claims messages abandoned by other consumers.
func (m *Manager) processStale(workerID int, consumerName string) {
	messages, err := m.consumer.ClaimStale(m.ctx, m.stream, m.group, consumerName, m.claimIdle, m.batchSize)
	if err != nil {
		log.Printf("[Worker-%d] Error claiming stale messages: %v", workerID, err)
		return
	}
	if len(messages) > 0 {
		log.Printf("[Worker-%d] Claimed %d stale messages", workerID, len(messages))
		m.handleMessages(workerID, messages, true)
	}
}

func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Printf("[Worker-%d] Error reading: %v", workerID, err)
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	if len(messages) == 0 {
		return
	}

	log.Printf("[Worker-%d] Received %d messages", workerID, len(messages))
	m.handleMessages(workerID, messages, false)
}

// handleMessages runs each message through the handler. On a final attempt
// every message is acked; otherwise retryable failures stay pending.
func (m *Manager) handleMessages(workerID int, messages []queue.Message, final bool) {
	for _, msg := range messages {
		err := m.handler.HandleEvent(m.ctx, msg.Event)
		if err != nil {
			log.Printf("[Worker-%d] Handler error msgID=%s: %v", workerID, msg.ID, err)
			if !final && Retryable(err) {
				continue
			}
		}

		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			log.Printf("[Worker-%d] ACK error msgID=%s: %v", workerID, msg.ID, err)
		}
	}
}

// defaultInstance is the hostname, or a random id when it cannot be read.
func defaultInstance() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()[:8]
}

func (m *Manager) consumerName(workerID int) string {
	return fmt.Sprintf("worker-%s-%d", m.instance, workerID)
}
