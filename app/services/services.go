// Package services holds the application's business logic. Each service
// owns one domain area and composes repositories with the shared asset
// manager; controllers stay thin and call into here.
package services

import (
	"github.com/tradeyard/tradeyard/app/jobs"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/container"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/queue"
	"github.com/tradeyard/tradeyard/pkg/storage"
)

// assetManager resolves the process-wide asset manager from the container,
// binding it lazily against the default disk. Tests rebind "assets.manager"
// to point at a throwaway disk.
func assetManager() *assets.Manager {
	if !container.Has("assets.manager") {
		container.Singleton("assets.manager", func() interface{} {
			return assets.NewManager(storage.Default())
		})
	}
	return container.Make("assets.manager").(*assets.Manager)
}

// retryCleanup queues the references a best-effort delete could not remove
// so the cleanup job retries them in the background.
func retryCleanup(res assets.Result) {
	if len(res.Failed) == 0 {
		return
	}
	if err := queue.Dispatch(jobs.CleanupAssetsJob{Refs: res.Failed}); err != nil {
		logger.Warn("services: could not queue asset cleanup",
			"refs", len(res.Failed), "error", err)
	}
}
