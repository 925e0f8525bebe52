package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd queries the run index directly: runs, commands, snapshots or endings.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.sqlite)")
	runID := fs.String("run", "", "run_id filter (commands, snapshots)")
	action := fs.String("action", "", "action filter (commands)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "runs.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "runs":
		rows, err := db.Query(`SELECT run_id,seed,difficulty,player_name,band_name,started_at,last_week,commands FROM runs ORDER BY started_at DESC LIMIT ?`, *limit)
		exitOn(err)
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID      string `json:"run_id"`
				Seed       int64  `json:"seed"`
				Difficulty string `json:"difficulty"`
				PlayerName string `json:"player_name"`
				BandName   string `json:"band_name"`
				StartedAt  string `json:"started_at"`
				LastWeek   int    `json:"last_week"`
				Commands   int    `json:"commands"`
			}
			exitOn(rows.Scan(&r.RunID, &r.Seed, &r.Difficulty, &r.PlayerName, &r.BandName, &r.StartedAt, &r.LastWeek, &r.Commands))
			printJSON(r)
		}
		exitOn(rows.Err())

	case "commands":
		if strings.TrimSpace(*runID) == "" && strings.TrimSpace(*action) == "" {
			fmt.Fprintln(os.Stderr, "missing -run or -action")
			os.Exit(2)
		}
		query := `SELECT run_id,seq,week,kind,action,digest FROM commands WHERE 1=1`
		var qa []any
		if *runID != "" {
			query += ` AND run_id=?`
			qa = append(qa, *runID)
		}
		if *action != "" {
			query += ` AND action=?`
			qa = append(qa, strings.ToUpper(*action))
		}
		query += ` ORDER BY run_id, seq DESC LIMIT ?`
		qa = append(qa, *limit)
		rows, err := db.Query(query, qa...)
		exitOn(err)
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID  string `json:"run_id"`
				Seq    int    `json:"seq"`
				Week   int    `json:"week"`
				Kind   string `json:"kind"`
				Action string `json:"action,omitempty"`
				Digest string `json:"digest"`
			}
			exitOn(rows.Scan(&r.RunID, &r.Seq, &r.Week, &r.Kind, &r.Action, &r.Digest))
			printJSON(r)
		}
		exitOn(rows.Err())

	case "snapshots":
		query := `SELECT run_id,week,path,digest FROM snapshots`
		var qa []any
		if *runID != "" {
			query += ` WHERE run_id=?`
			qa = append(qa, *runID)
		}
		query += ` ORDER BY run_id, week DESC LIMIT ?`
		qa = append(qa, *limit)
		rows, err := db.Query(query, qa...)
		exitOn(err)
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID  string `json:"run_id"`
				Week   int    `json:"week"`
				Path   string `json:"path"`
				Digest string `json:"digest"`
			}
			exitOn(rows.Scan(&r.RunID, &r.Week, &r.Path, &r.Digest))
			printJSON(r)
		}
		exitOn(rows.Err())

	case "endings":
		rows, err := db.Query(`SELECT run_id,week,reason,category,variation,title,score,fans,money FROM endings ORDER BY recorded_at DESC LIMIT ?`, *limit)
		exitOn(err)
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID     string `json:"run_id"`
				Week      int    `json:"week"`
				Reason    string `json:"reason"`
				Category  string `json:"category"`
				Variation string `json:"variation"`
				Title     string `json:"title"`
				Score     int    `json:"score"`
				Fans      int    `json:"fans"`
				Money     int    `json:"money"`
			}
			exitOn(rows.Scan(&r.RunID, &r.Week, &r.Reason, &r.Category, &r.Variation, &r.Title, &r.Score, &r.Fans, &r.Money))
			printJSON(r)
		}
		exitOn(rows.Err())

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want runs|commands|snapshots|endings)")
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
