package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"volley-globe/internal/config"
	"volley-globe/internal/fivb"
	"volley-globe/internal/migrate"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
	"volley-globe/internal/store"
	"volley-globe/internal/utils"
)

func printHelp() {
	fmt.Println("commands:")
	fmt.Println("  top <women|men> [limit]")
	fmt.Println("  country <women|men> <name>")
	fmt.Println("  flag <name>")
	fmt.Println("  refresh <women|men>")
	fmt.Println("  status")
	fmt.Println("  history <women|men> <name> [limit]   (PG_ENABLE=true)")
	fmt.Println("  prune <keep>                          (PG_ENABLE=true)")
	fmt.Println("  help")
	fmt.Println("  exit")
}

func printEntry(e rankings.Entry) {
	trend := "="
	switch {
	case e.Trend > 0:
		trend = "+" + strconv.Itoa(e.Trend)
	case e.Trend < 0:
		trend = strconv.Itoa(e.Trend)
	}
	fmt.Printf("%4d  %-32s %9.2f  %-6s %s\n", e.Rank, e.FederationName, e.Points, e.ConfederationCode, trend)
}

// parseArgs：<division> <name...> [limit]，末尾为数字时视为 limit
func parseArgs(parts []string) (rankings.Division, string, int, error) {
	if len(parts) < 3 {
		return "", "", 0, fmt.Errorf("missing arguments")
	}
	d, err := rankings.ParseDivision(parts[1])
	if err != nil {
		return "", "", 0, err
	}
	rest := parts[2:]
	limit := 0
	if n, err := strconv.Atoi(rest[len(rest)-1]); err == nil && len(rest) > 1 {
		limit = n
		rest = rest[:len(rest)-1]
	}
	return d, strings.Join(rest, " "), limit, nil
}

func main() {
	var envFile string
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--env" && i+1 < len(os.Args) {
			envFile = os.Args[i+1]
			i++
		} else if strings.HasSuffix(os.Args[i], ".env") {
			envFile = os.Args[i]
		}
	}
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		config.LoadDotenv()
	}
	cfg := config.Load()
	ctx := context.Background()

	var st *store.Store
	opts := []rankings.Option{rankings.WithTTL(cfg.RankingsTTL)}
	if cfg.PGEnable {
		db, err := utils.OpenPostgresFromEnv(ctx)
		if err != nil {
			fmt.Println("db error:", err)
			os.Exit(1)
		}
		if err := migrate.EnsureSchema(db); err != nil {
			fmt.Println("schema error:", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		defer st.Close()
		opts = append(opts, rankings.WithRecorder(st))
	}
	cache := rankings.NewCache(fivb.NewClient(cfg.FIVBBase, cfg.FIVBPages, cfg.FIVBPageSize, cfg.FIVBTimeout), opts...)
	reg := registry.New(cfg.FlagBaseURL, cfg.FlagFallbackURL)

	fmt.Println("rankings cli ready, source:", cfg.FIVBBase)
	printHelp()
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		switch cmd {
		case "exit", "quit":
			return
		case "help":
			printHelp()
		case "top":
			if len(parts) < 2 {
				fmt.Println("usage: top <women|men> [limit]")
				continue
			}
			d, err := rankings.ParseDivision(parts[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			limit := 10
			if len(parts) > 2 {
				if n, err := strconv.Atoi(parts[2]); err == nil {
					limit = n
				}
			}
			es, err := cache.TopRankings(ctx, d, limit)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, e := range es {
				printEntry(e)
			}
		case "country":
			d, name, _, err := parseArgs(parts)
			if err != nil {
				fmt.Println("usage: country <women|men> <name>")
				continue
			}
			e, err := cache.CountryRanking(ctx, name, d)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if e == nil {
				fmt.Println("not ranked:", name)
				continue
			}
			printEntry(*e)
			for _, m := range e.Progression {
				fmt.Printf("      %s  %-4s vs %-28s %-6s %+.2f  %s\n", m.Date, m.Result, m.Opponent, m.Score, m.Increment, m.Event)
			}
		case "flag":
			if len(parts) < 2 {
				fmt.Println("usage: flag <name>")
				continue
			}
			name := strings.Join(parts[1:], " ")
			if id, ok := reg.IDForName(name); ok {
				fmt.Printf("%s  %s  %s\n", id, reg.FlagCode(id), reg.FlagURL(id))
			} else {
				fmt.Println("unknown:", name, "->", reg.FallbackFlagURL())
			}
		case "refresh":
			if len(parts) < 2 {
				fmt.Println("usage: refresh <women|men>")
				continue
			}
			d, err := rankings.ParseDivision(parts[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			start := time.Now()
			snap, err := cache.Refresh(ctx, d)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("ok: %d entries in %s\n", len(snap.Entries), time.Since(start).Round(time.Millisecond))
		case "status":
			for _, s := range cache.Status() {
				fmt.Printf("%-6s fresh=%v entries=%d fetched=%s\n", s.Division, s.Fresh, s.Entries, s.FetchedAt.Format(time.RFC3339))
			}
		case "history":
			if st == nil {
				fmt.Println("history requires PG_ENABLE=true")
				continue
			}
			d, name, limit, err := parseArgs(parts)
			if err != nil {
				fmt.Println("usage: history <women|men> <name> [limit]")
				continue
			}
			if limit <= 0 {
				limit = 30
			}
			if e, err := cache.CountryRanking(ctx, name, d); err == nil && e != nil {
				name = e.FederationName
			}
			pts, err := st.History(ctx, d, name, limit)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if len(pts) == 0 {
				fmt.Println("no history:", name)
				continue
			}
			for _, p := range pts {
				fmt.Printf("%s  %4d  %9.2f\n", p.FetchedAt.Format(time.RFC3339), p.Rank, p.Points)
			}
		case "prune":
			if st == nil {
				fmt.Println("prune requires PG_ENABLE=true")
				continue
			}
			if len(parts) < 2 {
				fmt.Println("usage: prune <keep>")
				continue
			}
			keep, err := strconv.Atoi(parts[1])
			if err != nil || keep < 1 {
				fmt.Println("keep must be a positive integer")
				continue
			}
			n, err := st.Prune(ctx, keep)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("ok, removed snapshots:", n)
		default:
			fmt.Println("unknown command")
		}
	}
}
