package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gigcraft.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "leaderboard":
			leaderboardCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints every run under the data dir with its saved weeks.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "index" {
			continue
		}
		weeks, err := snapshot.Weeks(*dataDir, e.Name())
		if err != nil || len(weeks) == 0 {
			continue
		}
		ws := make([]string, 0, len(weeks))
		for _, w := range weeks {
			ws = append(ws, fmt.Sprint(w))
		}
		fmt.Printf("%s\tweeks=%s\n", e.Name(), strings.Join(ws, ","))
	}
}
