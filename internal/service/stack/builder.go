// Package stack materializes the deterministic, room-shared candidate
// ordering both members swipe through.
package stack

import (
	"context"
	"fmt"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/catalog"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/repository"
)

// discoverPages is how many successive provider pages feed one build.
const discoverPages = 5

type Builder struct {
	appCtx *app.AppContext
	stacks *repository.StackRepository
}

func NewBuilder(appCtx *app.AppContext) *Builder {
	return &Builder{
		appCtx: appCtx,
		stacks: repository.NewStackRepository(appCtx.DB),
	}
}

// Build replaces the room's stack with candidates discovered under the
// filter document. Stack position is provider-page order then
// within-page order. A page fetch failure stops the loop early and
// persists whatever accumulated: a short or empty stack is a valid,
// degraded outcome. Only a missing catalog configuration is fatal.
func (b *Builder) Build(ctx context.Context, roomID uint64, filters catalog.Filters) error {
	if b.appCtx.Catalog == nil {
		return fmt.Errorf("%w: no catalog provider", svcErr.ErrUnconfigured)
	}

	seen := make(map[uint64]struct{})
	var ordered []uint64

	for page := 1; page <= discoverPages; page++ {
		ids, err := b.appCtx.Catalog.Discover(ctx, filters, page)
		if err != nil {
			b.appCtx.Logger.Warn("discover page failed, keeping partial stack",
				"room", roomID, "page", page, "err", err)
			break
		}
		for _, id := range ids {
			// provider pages are disjoint in practice; the set guards
			// the no-duplicates invariant regardless
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ordered = append(ordered, id)
		}
	}

	if err := b.stacks.Replace(ctx, roomID, ordered); err != nil {
		return fmt.Errorf("persist stack for room %d: %w", roomID, err)
	}

	b.appCtx.Logger.Info("stack built", "room", roomID, "size", len(ordered))
	return nil
}
