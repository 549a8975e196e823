// Package sender uploads custody reports to a collection server.
package sender

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ilexum-group/amcache/internal/config"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

// UserAgent identifies uploads on the server side.
const UserAgent = "amcache-agent/1.0"

// ErrNoServer is returned when no server URL is configured.
var ErrNoServer = errors.New("no server URL configured")

var client = &http.Client{Timeout: 60 * time.Second}

// SendReport posts the report as JSON to cfg.ServerURL with the agent token as
// bearer credential. Any non-2xx status is an error.
func SendReport(cfg *config.Config, report models.Report) error {
	if cfg.ServerURL == "" {
		return ErrNoServer
	}
	utils.LogInfo("Preparing to send report to server", map[string]string{"entries": strconv.Itoa(len(report.Entries))})

	if report.Custody != nil {
		report.Custody.MarkSent()
	}
	jsonData, err := json.Marshal(report)
	if err != nil {
		utils.LogError("Failed to marshal report", map[string]string{"error": err.Error()})
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.ServerURL, bytes.NewBuffer(jsonData))
	if err != nil {
		utils.LogError("Failed to create request", map[string]string{"error": err.Error()})
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.AgentToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AgentToken)
	}
	req.Header.Set("User-Agent", UserAgent)

	utils.LogInfo("Sending request to server", map[string]string{"url": cfg.ServerURL})

	resp, err := client.Do(req)
	if err != nil {
		utils.LogError("Failed to send request", map[string]string{"error": err.Error()})
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.LogError("Server returned non-OK status", map[string]string{"status_code": strconv.Itoa(resp.StatusCode)})
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	utils.LogInfo("Report sent successfully to server", nil)
	return nil
}
