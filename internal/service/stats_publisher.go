package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

// DefaultStatsSubject is where stats heartbeats are published
const DefaultStatsSubject = "floor.stats"

// StatsSource is the read side of the alert engine the publisher reports on
type StatsSource interface {
	Stats() model.Stats
	BadgeCount() int
}

// HostUsage is the load of the machine running the monitor
type HostUsage struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
}

// StatsReport is one heartbeat
type StatsReport struct {
	Timestamp  time.Time   `json:"timestamp"`
	Stats      model.Stats `json:"stats"`
	BadgeCount int         `json:"badge_count"`
	Host       *HostUsage  `json:"host,omitempty"`
}

// StatsPublisher periodically publishes alert stats so dashboards can show
// badge counts without polling the engine
type StatsPublisher struct {
	logger   *zap.Logger
	nc       *nats.Conn
	subject  string
	interval time.Duration
	source   StatsSource
	stop     chan struct{}
}

// NewStatsPublisher creates a new stats publisher
func NewStatsPublisher(nc *nats.Conn, subject string, interval time.Duration, source StatsSource, logger *zap.Logger) *StatsPublisher {
	if subject == "" {
		subject = DefaultStatsSubject
	}
	return &StatsPublisher{
		logger:   logger.Named("stats-publisher"),
		nc:       nc,
		subject:  subject,
		interval: interval,
		source:   source,
		stop:     make(chan struct{}),
	}
}

// Start starts the publish loop
func (p *StatsPublisher) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("invalid stats interval %s", p.interval)
	}
	p.logger.Info("Starting stats publisher",
		zap.String("subject", p.subject),
		zap.Duration("interval", p.interval))

	go p.publishLoop(ctx)
	return nil
}

// Stop stops the publish loop
func (p *StatsPublisher) Stop() {
	p.logger.Info("Stopping stats publisher")
	close(p.stop)
}

func (p *StatsPublisher) publishLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.Publish(); err != nil {
				p.logger.Error("Failed to publish stats", zap.Error(err))
			}
		}
	}
}

// Publish sends one heartbeat now
func (p *StatsPublisher) Publish() error {
	report := StatsReport{
		Timestamp:  time.Now(),
		Stats:      p.source.Stats(),
		BadgeCount: p.source.BadgeCount(),
		Host:       p.hostUsage(),
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish stats: %w", err)
	}

	p.logger.Debug("Stats published",
		zap.Int("total", report.Stats.Total),
		zap.Int("unread", report.Stats.Unread))
	return nil
}

// hostUsage samples CPU and memory; nil when either is unavailable
func (p *StatsPublisher) hostUsage() *HostUsage {
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil || len(cpuPercent) == 0 {
		p.logger.Debug("Failed to get CPU usage", zap.Error(err))
		return nil
	}
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		p.logger.Debug("Failed to get memory usage", zap.Error(err))
		return nil
	}
	return &HostUsage{
		CPUUsage:    cpuPercent[0],
		MemoryUsage: memInfo.UsedPercent,
	}
}
