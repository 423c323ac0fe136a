// Package commands holds the console commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/km-arc/gomvc/app/models"
	"github.com/km-arc/gomvc/framework/console"
	"github.com/km-arc/gomvc/framework/database"
)

// PrunePosts deletes unpublished posts older than --days.
//
//	gomvc posts:prune --days=14 --dry-run
type PrunePosts struct {
	posts *database.Repository[models.Post]
	out   *console.Output
	log   *slog.Logger
	now   func() time.Time
}

func NewPrunePosts(posts *database.Repository[models.Post], out *console.Output, log *slog.Logger) *PrunePosts {
	return &PrunePosts{posts: posts, out: out, log: log, now: time.Now}
}

func (p *PrunePosts) Run(ctx context.Context, args []string) (int, error) {
	flags := pflag.NewFlagSet("posts:prune", pflag.ContinueOnError)
	flags.SetOutput(p.out)
	days := flags.Int("days", 30, "prune drafts created more than this many days ago")
	dryRun := flags.Bool("dry-run", false, "report what would be pruned without deleting")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return 2, err
	}
	if *days < 0 {
		return 2, fmt.Errorf("posts:prune: --days must not be negative, got %d", *days)
	}

	cutoff := p.now().AddDate(0, 0, -*days)
	if *dryRun {
		stale, err := p.posts.Where(ctx, "published = ? AND created_at < ?", false, cutoff)
		if err != nil {
			return 1, err
		}
		_, err = fmt.Fprintf(p.out, "Would prune %d draft posts older than %d days.\n", len(stale), *days)
		return 0, err
	}

	n, err := p.posts.DeleteWhere(ctx, "published = ? AND created_at < ?", false, cutoff)
	if err != nil {
		return 1, err
	}
	p.log.Info("pruned draft posts", slog.Int64("count", n), slog.Int("days", *days))
	_, err = fmt.Fprintf(p.out, "Pruned %d draft posts older than %d days.\n", n, *days)
	return 0, err
}
