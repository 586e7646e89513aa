package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/causalmap-backend/internal/app"
	"github.com/yungbote/causalmap-backend/internal/modules/graph"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var users idList
	var dryRun bool
	var limit int
	var rules string
	var workers int
	flag.Var(&users, "user", "user_id to patch (repeatable; default all users)")
	flag.BoolVar(&dryRun, "dry-run", false, "report changes without persisting")
	flag.IntVar(&limit, "limit", 0, "limit number of users processed")
	flag.StringVar(&rules, "rules", "", "required-set rules yaml (default compiled-in)")
	flag.IntVar(&workers, "workers", 4, "parallel patch workers")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	ids, err := resolveUsers(ctx, application, users, limit)
	if err != nil {
		fmt.Printf("resolve users: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("no users to patch")
		return
	}
	if rules == "" {
		rules = application.Cfg.RulesPath
	}

	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	changed, failed := 0, 0

	for _, id := range ids {
		id := id
		g.Go(func() error {
			out, err := application.Usecases.PatchUserGraph(gctx, graph.PatchInput{
				UserID:    id,
				RulesPath: rules,
				DryRun:    dryRun,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Printf("user=%s error=%v\n", id, err)
				return nil
			}
			if out.Changed {
				changed++
			}
			fmt.Printf("user=%s changed=%t added_nodes=%d added_edges=%d missing_nodes=%d missing_edges=%d version=%s\n",
				id, out.Changed, len(out.AddedNodeIDs), len(out.AddedEdgeSignatures),
				len(out.MissingCanonicalNodeIDs), len(out.MissingCanonicalEdgeRules), out.GraphVersion)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("patched %d/%d users (%d changed, %d failed, dry_run=%t)\n",
		len(ids)-failed, len(ids), changed, failed, dryRun)
	if failed > 0 {
		os.Exit(1)
	}
}

func resolveUsers(ctx context.Context, application *app.App, users idList, limit int) ([]uuid.UUID, error) {
	if len(users) > 0 {
		ids := make([]uuid.UUID, 0, len(users))
		for _, s := range users {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("invalid user id %q: %w", s, err)
			}
			ids = append(ids, id)
		}
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		return ids, nil
	}
	return application.Repos.UserGraphs.ListUserIDs(dbctx.Context{Ctx: ctx}, limit)
}
