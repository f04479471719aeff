package monitor

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/irq"
	"github.com/itohio/dhtick/pkg/loop"
	"github.com/itohio/dhtick/pkg/tick"
)

// Mock runs a simulated node in-process and reads its line output through
// a pipe, exactly as Serial reads a real one.
type Mock struct {
	cfg  config.MockConfig
	node config.NodeConfig

	records   chan Record
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	timer    *tick.SoftTimer
	sim      *dht.Sim
	pr       *io.PipeReader
	loopDone chan struct{}
	readDone chan struct{}
	stats    loop.Stats
}

// NewMock creates a simulated node. A nil cfg or node selects the defaults.
func NewMock(cfg *config.MockConfig, node *config.NodeConfig) *Mock {
	def := config.Default()
	if cfg == nil {
		cfg = &def.Mock
	}
	if node == nil {
		node = &def.Node
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     *cfg,
		node:    *node,
		records: make(chan Record, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect boots the simulated node and starts reading its output.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	model, err := dht.ParseModel(m.node.Sensor)
	if err != nil {
		return err
	}

	tc := tick.DefaultConfig()
	if m.node.SamplePeriod > 0 {
		tc.SamplePeriod = m.node.SamplePeriod
	}

	cpu := irq.NewCPU()
	timer := tick.NewSoftTimer(cpu, tc.ClockHz)
	timer.SetTimeScale(m.node.TimeScale)
	src, err := tick.NewSource(cpu, timer, tc)
	if err != nil {
		return fmt.Errorf("invalid node timing: %w", err)
	}
	timer.Attach(src.Handle)

	m.sim = &dht.Sim{
		Model:       model,
		Temperature: float32(m.cfg.Temperature),
		Humidity:    float32(m.cfg.Humidity),
		Noise:       float32(m.cfg.Noise),
		FailEvery:   m.cfg.FailEvery,
	}

	pr, pw := io.Pipe()
	l, err := loop.New(loop.Hardware{
		IRQ:    cpu,
		Source: src,
		Sensor: m.sim,
		Output: pw,
	}, loop.Options{
		Model:        model,
		PollInterval: scaledPoll(m.node.PollInterval, m.node.TimeScale),
	})
	if err != nil {
		return err
	}

	m.pr = pr
	m.timer = timer
	m.loopDone = make(chan struct{})
	m.readDone = make(chan struct{})

	go func() {
		defer close(m.readDone)
		readRecords(m.ctx, pr, m.records)
	}()

	// Init writes the banner, which blocks until the reader picks it up.
	if err := l.Init(); err != nil {
		pr.Close()
		<-m.readDone
		return err
	}
	if err := timer.Start(); err != nil {
		pr.Close()
		<-m.readDone
		return err
	}

	go func() {
		defer close(m.loopDone)
		err := l.Run(m.ctx)
		m.mu.Lock()
		m.stats = l.Stats()
		m.mu.Unlock()
		pw.CloseWithError(err)
	}()

	m.connected = true
	return nil
}

// Close stops the simulated node and waits for the records channel to close.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.cancel()
	// Unblock a loop stuck writing to a reader that already quit.
	m.pr.Close()
	m.timer.Stop()
	m.mu.Unlock()

	<-m.loopDone
	<-m.readDone

	m.mu.RLock()
	stats := m.stats
	m.mu.RUnlock()
	log.Printf("Mock node stopped: %d samples, %d failures, %d dropped", stats.Samples, stats.Failures, stats.Dropped)

	return nil
}

// Records returns the channel for reading records.
func (m *Mock) Records() <-chan Record {
	return m.records
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Reads returns how many sensor reads the simulated node performed.
func (m *Mock) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sim == nil {
		return 0
	}
	return m.sim.Reads()
}

func scaledPoll(poll time.Duration, scale uint32) time.Duration {
	if poll <= 0 {
		poll = loop.DefaultPollInterval
	}
	if scale > 1 {
		poll /= time.Duration(scale)
	}
	return max(poll, time.Millisecond)
}
