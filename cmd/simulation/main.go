package main

import (
	"bytes"
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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minInvestors  = 5
	maxInvestors  = 25
	numWorkers    = 5
	serverAddress = "http://localhost:8080"

	adminEmail    = "admin@fortress.com"
	adminPassword = "admin"
)

var (
	networks   = []string{"TRC20", "ERC20", "BTC"}
	directions = []string{"buy", "sell"}
	countries  = []string{"Singapore", "Germany", "Brazil", "Japan", "Canada"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the platform API.
// One client instance drives the whole run; investor tokens are passed
// per call so workers can share the stats map.
type simulationClient struct {
	baseURL    string
	adminToken string
	client     *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates as the operator and prepares performance tracking
func newSimulationClient() (*simulationClient, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"signup":   {name: "Signup"},
			"deposit":  {name: "Request Deposit"},
			"approve":  {name: "Approve Deposit"},
			"trade":    {name: "Place Contract"},
			"expire":   {name: "Expire Contract"},
			"settle":   {name: "Resolve Contract"},
			"kyc":      {name: "Submit KYC"},
			"review":   {name: "Review KYC"},
			"withdraw": {name: "Request Withdrawal"},
			"payout":   {name: "Resolve Withdrawal"},
		},
	}

	token, err := sc.login(adminEmail, adminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate operator: %w", err)
	}
	sc.adminToken = token

	return sc, nil
}

// record measures a call duration under the given route key, marking a
// failure when err is non-nil.
func (sc *simulationClient) record(key string, start time.Time, err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	rs := sc.stats[key]
	rs.addDuration(time.Since(start))
	if err != nil {
		rs.failures++
	}
}

// do sends an authenticated JSON request and decodes the standard
// response envelope into out (which may be nil).
func (sc *simulationClient) do(method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w, body: %s", err, string(respBody))
	}
	return nil
}

// login authenticates an existing account and returns its JWT token
func (sc *simulationClient) login(email, password string) (string, error) {
	var result struct {
		Token struct {
			Token string `json:"token"`
		} `json:"token"`
	}
	err := sc.do("POST", "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return "", err
	}
	if result.Token.Token == "" {
		return "", fmt.Errorf("no token in login response")
	}
	return result.Token.Token, nil
}

// investor holds the state a single simulated account accumulates as it
// moves through the funding and trading lifecycle.
type investor struct {
	index        int
	accountID    string
	email        string
	password     string
	token        string
	referralCode string
}

// signup registers a new investor account, optionally attaching the
// referral code of an earlier investor.
func (sc *simulationClient) signup(inv *investor, referralCode string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("signup", start, err) }()

	var result struct {
		Token struct {
			Token string `json:"token"`
		} `json:"token"`
		Account struct {
			AccountID    string `json:"account_id"`
			ReferralCode string `json:"referral_code"`
		} `json:"account"`
	}
	err = sc.do("POST", "/api/v1/auth/signup", "", map[string]string{
		"name":          fmt.Sprintf("investor %d", inv.index),
		"email":         inv.email,
		"password":      inv.password,
		"country":       countries[rand.Intn(len(countries))],
		"referral_code": referralCode,
	}, &result)
	if err != nil {
		return err
	}
	if result.Account.AccountID == "" {
		return fmt.Errorf("no account ID in signup response")
	}

	inv.accountID = result.Account.AccountID
	inv.token = result.Token.Token
	inv.referralCode = result.Account.ReferralCode
	return nil
}

// requestDeposit submits an on-chain deposit claim for review
// Returns the pending transaction ID
func (sc *simulationClient) requestDeposit(inv *investor, amount float64) (string, error) {
	start := time.Now()
	var err error
	defer func() { sc.record("deposit", start, err) }()

	var tx struct {
		TransactionID string `json:"transaction_id"`
	}
	err = sc.do("POST", "/api/v1/accounts/me/deposits", inv.token, map[string]interface{}{
		"amount":  amount,
		"network": networks[rand.Intn(len(networks))],
		"asset":   "USDT",
		"proof":   fmt.Sprintf("0x%08x", rand.Uint32()),
	}, &tx)
	if err != nil {
		return "", err
	}
	if tx.TransactionID == "" {
		return "", fmt.Errorf("no transaction ID in deposit response")
	}
	return tx.TransactionID, nil
}

// approveDeposit resolves a pending deposit as the operator
func (sc *simulationClient) approveDeposit(transactionID string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("approve", start, err) }()

	err = sc.do("POST", fmt.Sprintf("/api/v1/admin/deposits/%s/resolve", transactionID), sc.adminToken, map[string]string{
		"password": adminPassword,
		"status":   "Completed",
	}, nil)
	return err
}

// placeContract opens a timed contract for the investor
// Returns the contract ID
func (sc *simulationClient) placeContract(inv *investor, stake float64) (string, error) {
	start := time.Now()
	var err error
	defer func() { sc.record("trade", start, err) }()

	var contract struct {
		ContractID string `json:"contract_id"`
	}
	err = sc.do("POST", "/api/v1/accounts/me/contracts", inv.token, map[string]interface{}{
		"stake":     stake,
		"direction": directions[rand.Intn(len(directions))],
		"option": map[string]interface{}{
			"duration_seconds": 30,
			"profit_rate":      0.85,
			"commission_rate":  0.02,
		},
	}, &contract)
	if err != nil {
		return "", err
	}
	if contract.ContractID == "" {
		return "", fmt.Errorf("no contract ID in response")
	}
	return contract.ContractID, nil
}

// expireContract reports the contract countdown as finished
func (sc *simulationClient) expireContract(inv *investor, contractID string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("expire", start, err) }()

	err = sc.do("POST", fmt.Sprintf("/api/v1/accounts/me/contracts/%s/expire", contractID), inv.token, nil, nil)
	return err
}

// resolveContract settles an expired contract as the operator
func (sc *simulationClient) resolveContract(contractID, resolution string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("settle", start, err) }()

	err = sc.do("POST", fmt.Sprintf("/api/v1/admin/contracts/%s/resolve", contractID), sc.adminToken, map[string]string{
		"password":   adminPassword,
		"resolution": resolution,
	}, nil)
	return err
}

// submitKyc files identity documents for the investor
func (sc *simulationClient) submitKyc(inv *investor) error {
	start := time.Now()
	var err error
	defer func() { sc.record("kyc", start, err) }()

	err = sc.do("POST", "/api/v1/accounts/me/kyc", inv.token, map[string]string{
		"full_name":     fmt.Sprintf("Investor %d", inv.index),
		"date_of_birth": "1990-01-01",
		"country":       countries[rand.Intn(len(countries))],
		"address":       fmt.Sprintf("%d Market Street", 100+inv.index),
		"id_front":      "data:image/png;base64,front",
		"id_back":       "data:image/png;base64,back",
	}, nil)
	return err
}

// reviewKyc verifies the investor's identity submission as the operator
func (sc *simulationClient) reviewKyc(accountID string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("review", start, err) }()

	err = sc.do("POST", fmt.Sprintf("/api/v1/admin/kyc/%s/resolve", accountID), sc.adminToken, map[string]string{
		"password": adminPassword,
		"status":   "verified",
	}, nil)
	return err
}

// requestWithdrawal submits a withdrawal for review
// Returns the pending transaction ID
func (sc *simulationClient) requestWithdrawal(inv *investor, amount float64) (string, error) {
	start := time.Now()
	var err error
	defer func() { sc.record("withdraw", start, err) }()

	var tx struct {
		TransactionID string `json:"transaction_id"`
	}
	err = sc.do("POST", "/api/v1/accounts/me/withdrawals", inv.token, map[string]interface{}{
		"amount":   amount,
		"address":  fmt.Sprintf("T%022d", rand.Int63()),
		"asset":    "USDT",
		"password": inv.password,
	}, &tx)
	if err != nil {
		return "", err
	}
	if tx.TransactionID == "" {
		return "", fmt.Errorf("no transaction ID in withdrawal response")
	}
	return tx.TransactionID, nil
}

// resolveWithdrawal pays out or declines a pending withdrawal as the operator
func (sc *simulationClient) resolveWithdrawal(transactionID, status string) error {
	start := time.Now()
	var err error
	defer func() { sc.record("payout", start, err) }()

	err = sc.do("POST", fmt.Sprintf("/api/v1/admin/withdrawals/%s/resolve", transactionID), sc.adminToken, map[string]string{
		"password": adminPassword,
		"status":   status,
	}, nil)
	return err
}

// runLifecycle walks one investor through the full platform flow:
// signup, deposit and approval, a contract trade with settlement,
// KYC verification, and a withdrawal.
func (sc *simulationClient) runLifecycle(inv *investor, referralCode string) error {
	if err := sc.signup(inv, referralCode); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	log.Info().
		Str("account_id", inv.accountID).
		Str("email", inv.email).
		Msg("Investor registered")

	depositAmount := 200 + rand.Float64()*4800
	depositID, err := sc.requestDeposit(inv, depositAmount)
	if err != nil {
		return fmt.Errorf("request deposit: %w", err)
	}
	if err := sc.approveDeposit(depositID); err != nil {
		return fmt.Errorf("approve deposit: %w", err)
	}

	stake := math.Floor(depositAmount * 0.1)
	contractID, err := sc.placeContract(inv, stake)
	if err != nil {
		return fmt.Errorf("place contract: %w", err)
	}
	if err := sc.expireContract(inv, contractID); err != nil {
		return fmt.Errorf("expire contract: %w", err)
	}

	resolution := "loss"
	if rand.Float64() < 0.5 {
		resolution = "win"
	}
	if err := sc.resolveContract(contractID, resolution); err != nil {
		return fmt.Errorf("resolve contract: %w", err)
	}
	log.Info().
		Str("account_id", inv.accountID).
		Str("contract_id", contractID).
		Str("resolution", resolution).
		Float64("stake", stake).
		Msg("Contract settled")

	if err := sc.submitKyc(inv); err != nil {
		return fmt.Errorf("submit kyc: %w", err)
	}
	if err := sc.reviewKyc(inv.accountID); err != nil {
		return fmt.Errorf("review kyc: %w", err)
	}

	withdrawalID, err := sc.requestWithdrawal(inv, math.Floor(depositAmount*0.25))
	if err != nil {
		return fmt.Errorf("request withdrawal: %w", err)
	}
	if err := sc.resolveWithdrawal(withdrawalID, "Completed"); err != nil {
		return fmt.Errorf("resolve withdrawal: %w", err)
	}

	return nil
}

// printStats outputs performance statistics for all monitored routes
func (sc *simulationClient) printStats() {
	fmt.Println("\n=== API Performance Statistics ===")

	keys := make([]string, 0, len(sc.stats))
	for key := range sc.stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rs := sc.stats[key]
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("\n%s (%d calls, %d failures):\n", rs.name, rs.totalCalls, rs.failures)
		fmt.Printf("  Min:    %v\n", min)
		fmt.Printf("  Max:    %v\n", max)
		fmt.Printf("  Mean:   %v\n", mean)
		fmt.Printf("  Median: %v\n", median)
		fmt.Printf("  P95:    %v\n", p95)
		fmt.Printf("  P99:    %v\n", p99)
	}
	fmt.Println(strings.Repeat("=", 34))
}

func main() {
	rand.Seed(time.Now().UnixNano())

	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create simulation client")
	}

	numInvestors := minInvestors + rand.Intn(maxInvestors-minInvestors+1)
	log.Info().Int("investors", numInvestors).Msg("Starting simulation")

	// Register investors up front so later signups can use earlier
	// investors' referral codes.
	investors := make([]*investor, numInvestors)
	runID := time.Now().Unix()
	for i := range investors {
		investors[i] = &investor{
			index:    i + 1,
			email:    fmt.Sprintf("investor%d.%d@example.com", runID, i+1),
			password: fmt.Sprintf("sim-pass-%d", runID),
		}
	}

	// Process investors through a worker pool
	var wg sync.WaitGroup
	work := make(chan int, numInvestors)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				inv := investors[idx]

				// Roughly a third of investors sign up with a referral
				// code from an already-registered investor.
				referralCode := ""
				if idx > 0 && rand.Float64() < 0.35 {
					if prev := investors[rand.Intn(idx)]; prev.referralCode != "" {
						referralCode = prev.referralCode
					}
				}

				if err := sc.runLifecycle(inv, referralCode); err != nil {
					log.Error().Err(err).Int("investor", inv.index).Msg("Lifecycle failed")
				}
			}
		}()
	}

	for i := 0; i < numInvestors; i++ {
		work <- i
	}
	close(work)
	wg.Wait()

	log.Info().Msg("Simulation complete")
	sc.printStats()
}
