// Package jobs defines the background jobs the marketplace runs off the
// request path: retrying asset deletions that failed inline and sweeping the
// storage disk for objects no record references anymore.
//
// Register wires every job type into the queue registry at boot so workers
// can decode envelopes; Schedule plants the recurring ones.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/notifications"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/notification"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"github.com/tradeyard/tradeyard/pkg/queue"
	"github.com/tradeyard/tradeyard/pkg/schedule"
	"github.com/tradeyard/tradeyard/pkg/storage"
	"github.com/tradeyard/tradeyard/pkg/workerpool"
)

// Register makes every job type available for deserialization by name.
// Call once at boot, before queue workers start.
func Register() {
	queue.Register("jobs.CleanupAssetsJob", func() queue.Job { return &CleanupAssetsJob{} })
	queue.Register("jobs.SweepStrandedAssetsJob", func() queue.Job { return &SweepStrandedAssetsJob{} })
}

// Schedule plants the recurring maintenance jobs.
func Schedule() {
	schedule.Daily().Name("assets.sweep").WithoutOverlapping().Run(func() {
		if err := queue.Dispatch(SweepStrandedAssetsJob{}); err != nil {
			logger.Error("jobs: could not queue asset sweep", "error", err)
		}
	})
}

// ─── CleanupAssetsJob ─────────────────────────────────────────────────────────

// cleanupWorkers bounds how many blob deletions run concurrently per job.
const cleanupWorkers = 8

// CleanupAssetsJob retries object deletions that failed inline. Services
// queue one whenever a best-effort delete leaves references behind; deleting
// an already-removed object succeeds on every disk, so a partially processed
// job can safely run again.
type CleanupAssetsJob struct {
	Refs []string `json:"refs"`
}

// Handle deletes every referenced object, fanning the work out over a small
// worker pool. Remaining failures are reported back to the queue so its
// retry cycle gets another go at them.
func (j CleanupAssetsJob) Handle() error {
	mgr := assets.NewManager(storage.Default())

	var (
		mu    sync.Mutex
		total assets.Result
	)
	pool := workerpool.New(cleanupWorkers)
	for _, ref := range j.Refs {
		if err := pool.SubmitWait(func() {
			res := mgr.Delete(assets.Pair{Original: ref})
			mu.Lock()
			total.Merge(res)
			mu.Unlock()
		}); err != nil {
			pool.Shutdown()
			return err
		}
	}
	pool.Shutdown()

	if len(total.Deleted) > 0 {
		logger.Info("jobs: cleaned up assets", "deleted", len(total.Deleted))
	}
	return total.Err()
}

// ─── SweepStrandedAssetsJob ───────────────────────────────────────────────────

// sweepGrace is how old an object must be before the sweep will touch it.
// An upload whose record has not been committed yet is younger than this
// and is skipped.
const sweepGrace = time.Hour

// assetPrefixes are the directories the asset manager writes under.
var assetPrefixes = []string{"products", "categories", "stores/logos", "stores/banners"}

// SweepStrandedAssetsJob walks the asset directories and collects objects no
// store, category or product references anymore. It is the safety net behind
// the inline cleanup: a crash between a blob write and its record commit, or
// between a record delete and its blob delete, leaves objects behind that
// nothing will ever remove. Found strays are handed to CleanupAssetsJob.
type SweepStrandedAssetsJob struct{}

func (j SweepStrandedAssetsJob) Handle() error {
	disk := storage.Default()
	mgr := assets.NewManager(disk)

	referenced, err := referencedKeys(mgr)
	if err != nil {
		return err
	}

	var stranded []string
	for _, prefix := range assetPrefixes {
		files, err := disk.AllFiles(prefix)
		if err != nil {
			return fmt.Errorf("jobs: list %s: %w", prefix, err)
		}
		for _, key := range files {
			if referenced[key] {
				continue
			}
			if mod, err := disk.LastModified(key); err == nil && time.Since(mod) < sweepGrace {
				continue
			}
			stranded = append(stranded, key)
		}
	}
	if len(stranded) == 0 {
		return nil
	}

	refs := make([]string, len(stranded))
	for i, key := range stranded {
		refs[i] = disk.URL(key)
	}
	logger.Info("jobs: queueing stranded assets for cleanup", "count", len(refs))
	if err := queue.Dispatch(CleanupAssetsJob{Refs: refs}); err != nil {
		return err
	}
	notification.SendAsync("", &notifications.StrandedAssetsSwept{Count: len(refs)})
	return nil
}

// referencedKeys collects the object key of every asset pair some record in
// the database still points at.
func referencedKeys(mgr *assets.Manager) (map[string]bool, error) {
	var pairs []assets.Pair

	var stores []models.Store
	if err := orm.DB().Get(&stores); err != nil {
		return nil, fmt.Errorf("jobs: list stores: %w", err)
	}
	for _, st := range stores {
		pairs = append(pairs, st.Logo, st.Banner)
	}

	var cats []models.Category
	if err := orm.DB().Get(&cats); err != nil {
		return nil, fmt.Errorf("jobs: list categories: %w", err)
	}
	for _, c := range cats {
		pairs = append(pairs, c.Image)
	}

	var products []models.Product
	if err := orm.DB().Get(&products); err != nil {
		return nil, fmt.Errorf("jobs: list products: %w", err)
	}
	for _, p := range products {
		pairs = append(pairs, p.AssetPairs()...)
	}

	keys := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		for _, ref := range []string{p.Original, p.Thumbnail} {
			if ref != "" {
				keys[mgr.Key(ref)] = true
			}
		}
	}
	return keys, nil
}
