package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/booking-availability/internal/config"
	"github.com/carelink/booking-availability/internal/db"
)

type SimConfig struct {
	APIBaseURL        string
	Duration          time.Duration
	Workers           int
	AvailabilityRatio float64
	AssignRatio       float64
	ContactRatio      float64
	ProviderLimit     int
	BookingLimit      int
	PostgresDSN       string
}

type DataPool struct {
	Providers []uuid.UUID
	Bookings  []uuid.UUID
	mu        sync.RWMutex
	pending   []uuid.UUID // shrinks as the simulator assigns them
}

func (dp *DataPool) TakeRandomPending(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.pending) == 0 {
		return uuid.Nil, false
	}
	idx := rng.Intn(len(dp.pending))
	id := dp.pending[idx]
	return id, true
}

func (dp *DataPool) RemovePending(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	for i, p := range dp.pending {
		if p == id {
			dp.pending = append(dp.pending[:i], dp.pending[i+1:]...)
			return
		}
	}
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Availability OperationMetrics
	Schedule     OperationMetrics
	Assign       OperationMetrics
	Contact      OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d availability=%.2f assign=%.2f contact=%.2f",
		cfg.Duration, cfg.Workers, cfg.AvailabilityRatio, cfg.AssignRatio, cfg.ContactRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d providers, %d bookings, %d pending",
		len(dataPool.Providers), len(dataPool.Bookings), len(dataPool.pending))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:        getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:          getDuration("SIM_DURATION", 30*time.Second),
		Workers:           getInt("SIM_WORKERS", 10),
		AvailabilityRatio: getFloat("SIM_AVAILABILITY_RATIO", 0.5),
		AssignRatio:       getFloat("SIM_ASSIGN_RATIO", 0.2),
		ContactRatio:      getFloat("SIM_CONTACT_RATIO", 0.3),
		ProviderLimit:     getInt("SIM_PROVIDER_LIMIT", 200),
		BookingLimit:      getInt("SIM_BOOKING_LIMIT", 4000),
		PostgresDSN:       baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.AvailabilityRatio + cfg.AssignRatio + cfg.ContactRatio
	if total > 0 {
		cfg.AvailabilityRatio /= total
		cfg.AssignRatio /= total
		cfg.ContactRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM providers LIMIT $1
	`, cfg.ProviderLimit)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Providers = append(dataPool.Providers, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, status FROM bookings LIMIT $1
	`, cfg.BookingLimit)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		dataPool.Bookings = append(dataPool.Bookings, id)
		if status == "pending" {
			dataPool.pending = append(dataPool.pending, id)
		}
	}

	if len(dataPool.Providers) == 0 {
		return nil, fmt.Errorf("no providers loaded")
	}
	if len(dataPool.Bookings) == 0 {
		return nil, fmt.Errorf("no bookings loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.AvailabilityRatio:
				// Availability reads dominate, split between the badge
				// check and the full day schedule.
				if rng.Intn(2) == 0 {
					s.doAvailability(ctx, rng)
				} else {
					s.doSchedule(ctx, rng)
				}
			case r < s.config.AvailabilityRatio+s.config.AssignRatio:
				s.doAssign(ctx, rng)
			default:
				s.doContact(ctx, rng)
			}
		}
	}
}

func randomSlot(rng *rand.Rand) (date, start string, duration float64) {
	date = time.Now().AddDate(0, 0, rng.Intn(14)).Format("2006-01-02")
	start = fmt.Sprintf("%02d:%02d", 7+rng.Intn(12), 15*rng.Intn(4))
	duration = float64(1+rng.Intn(6)) * 0.5
	return date, start, duration
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	providerID := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	date, start, duration := randomSlot(rng)

	began := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/providers/%s/availability?date=%s&start=%s&duration=%g",
			s.config.APIBaseURL, providerID.String(), date, start, duration), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Availability.Record(latency, success, false)
}

func (s *Simulator) doSchedule(ctx context.Context, rng *rand.Rand) {
	providerID := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	date, _, _ := randomSlot(rng)

	began := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/providers/%s/schedule?date=%s",
			s.config.APIBaseURL, providerID.String(), date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Schedule.Record(latency, success, false)
}

func (s *Simulator) doAssign(ctx context.Context, rng *rand.Rand) {
	bookingID, ok := s.pool.TakeRandomPending(rng)
	if !ok {
		return
	}
	providerID := s.pool.Providers[rng.Intn(len(s.pool.Providers))]

	began := time.Now()

	reqBody := map[string]string{"provider_id": providerID.String()}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/bookings/%s/assign", s.config.APIBaseURL, bookingID.String()),
		bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
			s.pool.RemovePending(bookingID)
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Assign.Record(latency, success, conflict)
}

var viewerRoles = []string{"admin", "customer", "provider", "auditor"}

func (s *Simulator) doContact(ctx context.Context, rng *rand.Rand) {
	bookingID := s.pool.Bookings[rng.Intn(len(s.pool.Bookings))]
	role := viewerRoles[rng.Intn(len(viewerRoles))]

	began := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/bookings/%s/contact?viewer_role=%s",
			s.config.APIBaseURL, bookingID.String(), role), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Contact.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Availability", &s.metrics.Availability)
	printOperationReport("Schedule", &s.metrics.Schedule)
	printOperationReport("Assign", &s.metrics.Assign)
	printOperationReport("Contact", &s.metrics.Contact)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
