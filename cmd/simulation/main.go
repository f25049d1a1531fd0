package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/api"
	"github.com/crmkit/portal-api/internal/auth"
	"github.com/crmkit/portal-api/internal/content"
	"github.com/crmkit/portal-api/internal/crm"
	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/internal/spot"
	"github.com/crmkit/portal-api/internal/storage"
	"github.com/crmkit/portal-api/pkg/middleware"
)

const (
	gatewayAddress = "http://localhost:8080"
	backendPort    = "9090"
	numWorkers     = 3
	ordersPerWork  = 10
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for a gateway endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes min, max, mean, median, p95 and p99 durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient drives the portal gateway over HTTP
type simulationClient struct {
	baseURL string
	client  *http.Client
	mu      sync.Mutex
	stats   map[string]*routeStats
}

func newSimulationClient() (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: gatewayAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"login":    {name: "Login"},
			"customer": {name: "Customer CRUD"},
			"snapshot": {name: "Spot Snapshot"},
			"place":    {name: "Place Spot Order"},
			"cancel":   {name: "Cancel Spot Order"},
		},
	}

	if err := sc.login("carl", "carl-password"); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	return sc, nil
}

func (sc *simulationClient) record(route string, start time.Time, err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stats[route].addDuration(time.Since(start))
	if err != nil {
		sc.stats[route].failures++
	}
}

// call performs one gateway round trip and decodes the envelope's data field
func (sc *simulationClient) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

func (sc *simulationClient) login(username, password string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("login", start, err) }()

	err = sc.call("POST", "/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	return err
}

// customerCycle creates, updates and deletes one customer through the gateway
func (sc *simulationClient) customerCycle(workerID int) error {
	start := time.Now()
	var err error
	defer func() { sc.record("customer", start, err) }()

	input := crm.CustomerInput{
		Name:  fmt.Sprintf("Sim Customer %d-%d", workerID, rand.Intn(10000)),
		Level: []string{"A", "B", "C"}[rand.Intn(3)],
		Owner: "simulation",
	}

	var created crm.Customer
	if err = sc.call("POST", "/customers", input, &created); err != nil {
		return err
	}

	input.Industry = "software"
	var updated crm.Customer
	if err = sc.call("PUT", fmt.Sprintf("/customers/%d", created.ID), input, &updated); err != nil {
		return err
	}

	err = sc.call("DELETE", fmt.Sprintf("/customers/%d", created.ID), nil, nil)
	return err
}

func (sc *simulationClient) snapshot() (spot.Snapshot, error) {
	start := time.Now()
	var err error
	defer func() { sc.record("snapshot", start, err) }()

	var snap spot.Snapshot
	err = sc.call("GET", "/spot/snapshot", nil, &snap)
	return snap, err
}

func (sc *simulationClient) placeSpotOrder(last float64) (spot.Order, error) {
	start := time.Now()
	var err error
	defer func() { sc.record("place", start, err) }()

	req := spot.OrderRequest{
		Symbol: "BTC/USDT",
		Side:   spot.SideBuy,
		Type:   spot.TypeMarket,
		Qty:    0.001 + rand.Float64()*0.01,
	}
	// Half the orders rest as limits a little away from the market.
	if rand.Float64() > 0.5 {
		req.Type = spot.TypeLimit
		req.Price = last * (1 - 0.001 - rand.Float64()*0.002)
	}
	if rand.Float64() > 0.5 {
		req.Side = spot.SideSell
		if req.Type == spot.TypeLimit {
			req.Price = last * (1 + 0.001 + rand.Float64()*0.002)
		}
	}

	var placed spot.Order
	err = sc.call("POST", "/spot/orders", req, &placed)
	return placed, err
}

func (sc *simulationClient) cancelSpotOrder(id string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("cancel", start, err) }()

	err = sc.call("POST", fmt.Sprintf("/spot/orders/%s/cancel", id), nil, nil)
	return err
}

// printPerformanceStats outputs formatted statistics for all endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nGateway Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// startStubBackend serves a minimal in-memory CRM backend so the simulation
// is self-contained: login issues an unsigned demo token, collections are
// plain slices.
func startStubBackend() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	var (
		mu        sync.Mutex
		nextID    int64 = 1
		customers       = make(map[int64]crm.Customer)
	)

	r.POST("/api/auth/login", func(c *gin.Context) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&creds); err != nil || creds.Username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": "demo-header.demo-payload.demo-sig",
			"user":  gin.H{"username": creds.Username, "role": "admin"},
		})
	})

	list := func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()
		out := make([]crm.Customer, 0, len(customers))
		for _, v := range customers {
			out = append(out, v)
		}
		c.JSON(http.StatusOK, out)
	}

	r.GET("/api/customers", list)
	r.POST("/api/customers", func(c *gin.Context) {
		var in crm.CustomerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mu.Lock()
		defer mu.Unlock()
		cust := crm.Customer{ID: nextID, Name: in.Name, Level: in.Level, Owner: in.Owner}
		customers[nextID] = cust
		nextID++
		c.JSON(http.StatusCreated, cust)
	})
	r.PUT("/api/customers/:id", func(c *gin.Context) {
		var in crm.CustomerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for id, cust := range customers {
			if fmt.Sprintf("%d", id) == c.Param("id") {
				cust.Name = in.Name
				cust.Industry = in.Industry
				customers[id] = cust
				c.JSON(http.StatusOK, cust)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.DELETE("/api/customers/:id", func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()
		for id := range customers {
			if fmt.Sprintf("%d", id) == c.Param("id") {
				delete(customers, id)
			}
		}
		c.Status(http.StatusNoContent)
	})

	// Remaining collections are empty but well-formed.
	for _, path := range []string{"/api/orders", "/api/visits", "/api/finance-records", "/api/employees", "/api/news"} {
		r.GET(path, func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
	}

	return r.Run(":" + backendPort)
}

// startGateway runs the portal gateway wired to the stub backend
func startGateway() error {
	store, err := storage.Open("simulation.db")
	if err != nil {
		return err
	}

	sessions := session.NewStore(store)
	client := api.NewClient("http://localhost:"+backendPort+"/api", sessions)

	authService := auth.NewService(client, sessions)
	authHandlers := auth.NewGinHandlers(authService, sessions)
	crmStore := crm.NewStore(client)
	crmHandlers := crm.NewGinHandlers(crmStore)
	feed := spot.NewFeed("BTC/USDT")
	spotService := spot.NewService(feed, store)
	spotHandlers := spot.NewGinHandlers(spotService)
	articles := content.NewArticleStore(store)
	banners := content.NewBannerStore(store)
	contentHandlers := content.NewGinHandlers(articles, banners)
	_ = contentHandlers

	go spotService.Start(context.Background(), 500*time.Millisecond)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.POST("/login", authHandlers.LoginHandler())
	authed := router.Group("", middleware.RequireAuth(sessions))
	authed.GET("/customers", crmHandlers.ListCustomersHandler())
	authed.POST("/customers", crmHandlers.CreateCustomerHandler())
	authed.PUT("/customers/:id", crmHandlers.UpdateCustomerHandler())
	authed.DELETE("/customers/:id", crmHandlers.DeleteCustomerHandler())
	authed.GET("/spot/snapshot", spotHandlers.SnapshotHandler())
	authed.GET("/spot/orders", spotHandlers.ListOrdersHandler())
	authed.POST("/spot/orders", spotHandlers.PlaceOrderHandler())
	authed.POST("/spot/orders/:id/cancel", spotHandlers.CancelOrderHandler())

	return router.Run(":8080")
}

// main runs the portal simulation: it starts a stub backend and the
// gateway, then drives concurrent workers through login, customer churn and
// the spot widget, reporting per-endpoint latency statistics.
func main() {
	go func() {
		if err := startStubBackend(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start stub backend")
		}
	}()
	go func() {
		if err := startGateway(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start gateway")
		}
	}()

	// Wait for both servers to come up
	time.Sleep(2 * time.Second)

	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for n := 0; n < ordersPerWork; n++ {
				if err := simClient.customerCycle(workerID); err != nil {
					log.Warn().Err(err).Int("worker", workerID).Msg("customer cycle failed")
				}

				snap, err := simClient.snapshot()
				if err != nil {
					log.Warn().Err(err).Int("worker", workerID).Msg("snapshot failed")
					continue
				}

				placed, err := simClient.placeSpotOrder(snap.Ticker.Last)
				if err != nil {
					log.Warn().Err(err).Int("worker", workerID).Msg("place failed")
					continue
				}

				// Cancel a third of the resting limit orders.
				if placed.Status == spot.StatusOpen && rand.Intn(3) == 0 {
					if err := simClient.cancelSpotOrder(placed.ID); err != nil {
						log.Warn().Err(err).Int("worker", workerID).Msg("cancel failed")
					}
				}
			}
		}(i)
	}
	wg.Wait()

	log.Info().Msg("Simulation complete")
	simClient.printPerformanceStats()
}
