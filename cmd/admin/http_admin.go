package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	runID := fs.String("run", "", "run id (empty lists runs)")
	full := fs.Bool("full", false, "include the whole game state")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/v1/runs"
	if id := strings.TrimSpace(*runID); id != "" {
		u += "/" + url.PathEscape(id)
		if *full {
			u += "?full=1"
		}
	}
	get(u)
}

func leaderboardCmd(args []string) {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	limit := fs.Int("limit", 10, "entries")
	_ = fs.Parse(args)

	get(fmt.Sprintf("%s/v1/leaderboard?limit=%d", strings.TrimRight(strings.TrimSpace(*baseURL), "/"), *limit))
}

func get(u string) {
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
