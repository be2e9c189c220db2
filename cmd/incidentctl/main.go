package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// incidentctl drives demo scenarios against the mock application and the
// incident gateway. It replaces a pile of curl-based shell scripts with one
// interactive menu.

var (
	mockURL    = flag.String("mock-url", envOr("MOCK_APP_URL", "http://localhost:3000"), "mock application base URL")
	gatewayURL = flag.String("gateway-url", envOr("GATEWAY_URL", "http://localhost:8090"), "incident gateway base URL")
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

const menu = `
==========================================
 Incident Detection & Auto-Scaling Demo
==========================================
 1) Simulate high CPU (warning, 70%)
 2) Simulate high CPU (critical, 95%)
 3) Simulate memory pressure (critical, 92%)
 4) Simulate 5xx error spike (50% of requests)
 5) Simulate high latency (1500ms)
 6) Fire a synthetic critical alert at the gateway
 7) Show mock application status
 8) Show recent incidents
 9) Reset all simulations
 0) Exit
==========================================
`

func main() {
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(menu)
		fmt.Print("Select an option: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Printf("Failed to read input: %v\n", err)
			continue
		}

		switch strings.TrimSpace(line) {
		case "1":
			simulate("cpu", map[string]interface{}{"intensity": 70, "duration": 300})
		case "2":
			simulate("cpu", map[string]interface{}{"intensity": 95, "duration": 300})
		case "3":
			simulate("memory", map[string]interface{}{"intensity": 92, "duration": 300})
		case "4":
			simulate("errors", map[string]interface{}{"rate": 0.5, "duration": 300})
		case "5":
			simulate("latency", map[string]interface{}{"delayMs": 1500, "duration": 300})
		case "6":
			fireSyntheticAlert()
		case "7":
			showMockStatus()
		case "8":
			showIncidents()
		case "9":
			reset()
		case "0":
			fmt.Println("Bye.")
			return
		default:
			fmt.Println("Invalid choice, try again.")
		}
	}
}

func simulate(kind string, body map[string]interface{}) {
	url := fmt.Sprintf("%s/api/simulate/%s", *mockURL, kind)
	resp, err := postJSON(url, body)
	if err != nil {
		fmt.Printf("Failed to start %s simulation: %v\n", kind, err)
		fmt.Println("Hint: is the mock app running? Check docker-compose ps or start cmd/mockapp.")
		return
	}
	fmt.Printf("Started %s simulation: %s\n", kind, resp)
	fmt.Println("Prometheus should pick this up within one scrape interval; watch for the alert to fire.")
}

// fireSyntheticAlert bypasses Prometheus/Alertmanager and posts a webhook
// payload straight at the gateway, useful for testing the pipeline alone
func fireSyntheticAlert() {
	now := time.Now().UTC()
	payload := models.WebhookPayload{
		Version:  "4",
		GroupKey: fmt.Sprintf("synthetic-%d", now.Unix()),
		Status:   "firing",
		Receiver: "incident-gateway",
		Alerts: []models.Alert{{
			Status: "firing",
			Labels: map[string]string{
				"alertname":   "HighCPUUsage",
				"severity":    "critical",
				"instance":    "mock-app:3000",
				"type":        "cpu",
				"environment": "production",
			},
			Annotations: map[string]string{
				"summary":      "CPU usage above 90% for 2 minutes",
				"description":  "Synthetic alert fired from incidentctl",
				"metric_value": "95%",
			},
			StartsAt: now,
		}},
	}

	url := *gatewayURL + "/api/webhooks/alertmanager"
	resp, err := postJSON(url, payload)
	if err != nil {
		fmt.Printf("Failed to deliver webhook: %v\n", err)
		fmt.Println("Hint: is the gateway running? Check its /health endpoint.")
		return
	}
	fmt.Printf("Webhook accepted: %s\n", resp)
}

func showMockStatus() {
	body, err := getJSON(*mockURL + "/api/status")
	if err != nil {
		fmt.Printf("Failed to fetch mock app status: %v\n", err)
		fmt.Println("Hint: is the mock app running? Check docker-compose ps or start cmd/mockapp.")
		return
	}
	fmt.Println(body)
}

func showIncidents() {
	body, err := getJSON(*gatewayURL + "/api/incidents")
	if err != nil {
		fmt.Printf("Failed to fetch incidents: %v\n", err)
		fmt.Println("Hint: is the gateway running? Check its /health endpoint.")
		return
	}

	var incidents []models.Incident
	if err := json.Unmarshal([]byte(body), &incidents); err != nil {
		fmt.Printf("Failed to parse incidents: %v\n", err)
		return
	}
	if len(incidents) == 0 {
		fmt.Println("No incidents recorded yet.")
		return
	}
	for _, inc := range incidents {
		line := fmt.Sprintf("[%s] %-10s %-20s %s on %s",
			inc.DetectedAt.Format("15:04:05"), inc.Status, inc.AlertName, inc.Severity, inc.Instance)
		if inc.Analysis != nil {
			line += fmt.Sprintf(" -> %s (%d%%)", inc.Analysis.Action, inc.Analysis.Confidence)
		}
		fmt.Println(line)
	}
}

func reset() {
	resp, err := postJSON(*mockURL+"/api/reset", map[string]string{})
	if err != nil {
		fmt.Printf("Failed to reset simulations: %v\n", err)
		return
	}
	fmt.Printf("Reset: %s\n", resp)
}

func postJSON(url string, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return strings.TrimSpace(string(respBody)), nil
}

func getJSON(url string) (string, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return strings.TrimSpace(string(respBody)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
