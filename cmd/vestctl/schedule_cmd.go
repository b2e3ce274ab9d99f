package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"nutvest/gateway/middleware"
	"nutvest/native/schedule"
)

var scheduleHTTPClient = &http.Client{Timeout: 15 * time.Second}

func runScheduleCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: vestctl schedule <validate|submit> --plan <file> [flags]")
		return 1
	}
	switch args[0] {
	case "validate":
		return runScheduleValidate(args[1:], stdout, stderr)
	case "submit":
		return runScheduleSubmit(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown schedule subcommand: %s\n", args[0])
		return 1
	}
}

func runScheduleValidate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("schedule validate", stderr)
	var planPath string
	fs.StringVar(&planPath, "plan", "", "path to the YAML plan")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if planPath == "" {
		fmt.Fprintln(stderr, "Error: --plan is required")
		return 1
	}
	plans, err := schedule.LoadPlanFile(planPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, p := range plans {
		fmt.Fprintf(stdout, "%s tranches=%d total=%s final=%d\n", p.Account.Hex(), len(p.Tranches), p.Total(), p.FinalTimestamp())
	}
	return 0
}

type lockPayload struct {
	Account   string `json:"account"`
	Timestamp uint64 `json:"timestamp"`
	Amount    string `json:"amount"`
}

type tranchePayload struct {
	Timestamp uint64 `json:"timestamp"`
	Amount    string `json:"amount"`
}

type schedulePayload struct {
	Tranches []tranchePayload `json:"tranches"`
}

func runScheduleSubmit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("schedule submit", stderr)
	var planPath, gateway, token string
	var withLock bool
	fs.StringVar(&planPath, "plan", "", "path to the YAML plan")
	fs.StringVar(&gateway, "gateway", "http://127.0.0.1:8080", "gateway base URL")
	fs.StringVar(&token, "token", os.Getenv("VESTCTL_TOKEN"), "admin bearer token (defaults to $VESTCTL_TOKEN)")
	fs.BoolVar(&withLock, "lock", true, "set the companion lock before each schedule")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if planPath == "" {
		fmt.Fprintln(stderr, "Error: --plan is required")
		return 1
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(stderr, "Error: --token or VESTCTL_TOKEN is required")
		return 1
	}
	plans, err := schedule.LoadPlanFile(planPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	base := strings.TrimRight(gateway, "/")
	for _, p := range plans {
		account := p.Account.Hex()
		if withLock {
			lock := lockPayload{Account: account, Timestamp: p.FinalTimestamp(), Amount: p.Total().String()}
			if err := sendJSON(http.MethodPost, base+"/v1/admin/locks", token, lock); err != nil {
				fmt.Fprintf(stderr, "Error: lock %s: %v\n", account, err)
				return 1
			}
		}
		payload := schedulePayload{Tranches: make([]tranchePayload, len(p.Tranches))}
		for i, t := range p.Tranches {
			payload.Tranches[i] = tranchePayload{Timestamp: t.Timestamp, Amount: t.Amount.String()}
		}
		if err := sendJSON(http.MethodPut, base+"/v1/admin/schedules/"+account, token, payload); err != nil {
			fmt.Fprintf(stderr, "Error: schedule %s: %v\n", account, err)
			return 1
		}
		fmt.Fprintf(stdout, "submitted %s total=%s\n", account, p.Total())
	}
	return 0
}

func sendJSON(method, url, token string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := scheduleHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		return nil
	}
	var gerr middleware.ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(data, &gerr) == nil && gerr.Code != "" {
		return fmt.Errorf("%s: %s (%d)", gerr.Code, gerr.Message, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
