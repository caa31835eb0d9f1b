// graphfetchctl is a flag-based CLI for one-off fetches and relation edits
// against a configured database, grounded on the cmd/server/main.go
// bootstrapping sequence and ridoystarlord-migrato's subcommand-per-file
// cmd/ layout (flag.FlagSet instead of cobra.Command, since this module's
// dependency surface does not include cobra).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"graphfetch/internal/config"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/fetch"
	"graphfetch/internal/hydrate"
	"graphfetch/internal/metadata"
	"graphfetch/internal/migrate"
	"graphfetch/internal/obs"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "fetch":
		runFetch(os.Args[2:])
	case "set-relation":
		runSetRelation(os.Args[2:])
	case "remove-relation":
		runRemoveRelation(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `graphfetchctl - one-off entity graph fetcher CLI

Usage:
  graphfetchctl fetch -tree <tree.json> -ids <id,id,...>
  graphfetchctl set-relation -from-type T -from-id I -to-type T -to-id I
  graphfetchctl remove-relation -pairs <pairs.json>
  graphfetchctl health`)
}

// requestID tags every onRequest log line a subcommand issues, so batches
// belonging to the same invocation can be told apart in server logs that
// interleave with graphfetchd's own.
func requestID() string {
	return uuid.New().String()[:8]
}

func bootstrap(ctx context.Context) (*dbconn.Pool, *fetch.Fetcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := dbconn.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	if err := migrate.Bootstrap(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}

	reg := metadata.NewRegistry()
	idReg := metadata.NewIDPropertyRegistry()
	if err := metadata.LoadAll(ctx, pool.Pool, reg, idReg); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load metadata: %w", err)
	}

	// Freeze the loaded registry for this invocation's lifetime, matching
	// the "schema is static per process" assumption the stored-function
	// cache relies on.
	src := metadata.NewStaticSource(reg.AllEntities())
	fetcher := fetch.NewFetcher(src, idReg, hydrate.DefaultConverter{}, cfg.IsDevEnv)
	return pool, fetcher, nil
}

func runFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	treePath := fs.String("tree", "", "path to a JSON fetch tree (see fetch.Tree)")
	idsFlag := fs.String("ids", "", "comma-separated ids to fetch")
	fs.Parse(args)

	if *treePath == "" || *idsFlag == "" {
		log.Fatal("fetch requires -tree and -ids")
	}

	treeJSON, err := os.ReadFile(*treePath)
	if err != nil {
		log.Fatalf("read tree file: %v", err)
	}
	var tree fetch.Tree
	if err := json.Unmarshal(treeJSON, &tree); err != nil {
		log.Fatalf("parse tree file: %v", err)
	}
	ids := strings.Split(*idsFlag, ",")

	ctx := context.Background()
	pool, fetcher, err := bootstrap(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	reqID := requestID()
	timer := obs.NewRequestTimer(fmt.Sprintf("%s[%s]", tree.Entity, reqID))
	rows, err := fetcher.Entities(ctx, pool, tree, ids, timer.OnRequest)
	timer.Stop()
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(out))
}

func runSetRelation(args []string) {
	fs := flag.NewFlagSet("set-relation", flag.ExitOnError)
	fromType := fs.String("from-type", "", "owning entity name")
	fromID := fs.String("from-id", "", "owning entity id")
	toType := fs.String("to-type", "", "target entity name")
	toID := fs.String("to-id", "", "target entity id")
	fs.Parse(args)

	if *fromType == "" || *fromID == "" || *toType == "" || *toID == "" {
		log.Fatal("set-relation requires -from-type, -from-id, -to-type, -to-id")
	}

	ctx := context.Background()
	pool, fetcher, err := bootstrap(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	from := fetch.EntityID{Type: *fromType, ID: *fromID}
	to := fetch.EntityID{Type: *toType, ID: *toID}
	if err := fetcher.SetRelation(ctx, pool, from, to); err != nil {
		log.Fatalf("set-relation failed: %v", err)
	}
	fmt.Println("ok")
}

func runRemoveRelation(args []string) {
	fs := flag.NewFlagSet("remove-relation", flag.ExitOnError)
	pairsPath := fs.String("pairs", "", "path to a JSON array of fetch.RelationPair")
	fs.Parse(args)

	if *pairsPath == "" {
		log.Fatal("remove-relation requires -pairs")
	}

	pairsJSON, err := os.ReadFile(*pairsPath)
	if err != nil {
		log.Fatalf("read pairs file: %v", err)
	}
	var pairs []fetch.RelationPair
	if err := json.Unmarshal(pairsJSON, &pairs); err != nil {
		log.Fatalf("parse pairs file: %v", err)
	}

	ctx := context.Background()
	pool, fetcher, err := bootstrap(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := fetcher.RemoveRelation(ctx, pool, pairs); err != nil {
		log.Fatalf("remove-relation failed: %v", err)
	}
	fmt.Println("ok")
}

func runHealth(args []string) {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	pool, err := dbconn.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Pool.Ping(ctx); err != nil {
		log.Fatalf("ping failed: %v", err)
	}
	fmt.Println("database is healthy and accessible")
}
