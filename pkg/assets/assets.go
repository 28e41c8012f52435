// Package assets manages image asset pairs: every upload is persisted as a
// full-resolution original plus a generated thumbnail, created and deleted
// together.
//
//	mgr := assets.NewManager(storage.Default())
//	pair, err := mgr.Store(content, "photo.jpg", "products", assets.Catalog)
//	// pair.Original / pair.Thumbnail are public URLs
//
// Deletion is best-effort: failures are collected into a Result instead of
// aborting the caller, so removing a record never blocks on a stuck blob.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"

	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/metrics"
	"github.com/tradeyard/tradeyard/pkg/storage"
)

// ─── Presets ──────────────────────────────────────────────────────────────────

// FitMode selects how a thumbnail is fitted into its target bounds.
type FitMode int

const (
	// FitShrink scales down to fit within the bounds. Images already within
	// bounds are kept at their original size, never upscaled.
	FitShrink FitMode = iota
	// FitContain scales to fit within the bounds preserving aspect ratio,
	// padding onto a canvas of exactly the target size.
	FitContain
	// FitCover scales and center-crops to exactly fill the bounds.
	FitCover
)

// Preset fixes the thumbnail geometry for a class of images.
type Preset struct {
	Name   string
	Width  int
	Height int
	Mode   FitMode
}

var (
	// Catalog is used for category and product images.
	Catalog = Preset{Name: "catalog", Width: 400, Height: 400, Mode: FitShrink}
	// Logo is used for store logos.
	Logo = Preset{Name: "logo", Width: 200, Height: 200, Mode: FitContain}
	// Banner is used for store banners.
	Banner = Preset{Name: "banner", Width: 1200, Height: 400, Mode: FitCover}
)

// ─── Pair ─────────────────────────────────────────────────────────────────────

// Pair references the two objects that make up one stored image.
type Pair struct {
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
}

// Empty reports whether the pair references no objects.
func (p Pair) Empty() bool { return p.Original == "" && p.Thumbnail == "" }

// ─── Manager ──────────────────────────────────────────────────────────────────

// Manager stores and deletes asset pairs on a storage disk.
type Manager struct {
	disk storage.Disk
	now  func() time.Time
}

// NewManager returns a Manager writing to disk.
func NewManager(disk storage.Disk) *Manager {
	return &Manager{disk: disk, now: time.Now}
}

// Store persists content under prefix as an original plus a generated
// thumbnail and returns both URLs. Object keys are the upload timestamp plus
// the sanitized original filename; the thumbnail key carries a "thumb-"
// marker so the two objects of a pair stay correlated by name.
//
// Any decode, resize or upload failure aborts with an asset-processing
// error. If the thumbnail upload fails after the original was written, the
// original is removed again so no half pair is left behind.
func (m *Manager) Store(content []byte, filename, prefix string, preset Preset) (Pair, error) {
	if len(content) == 0 {
		return Pair{}, errs.AssetProcessing("uploaded file %q is empty", filename)
	}
	metrics.AssetUploadBytes.Observe(float64(len(content)))

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not decode image %q", filename)
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail(img, preset), format); err != nil {
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not generate thumbnail for %q", filename)
	}

	name := sanitize(filename)
	ts := m.now().UnixNano()
	dir := strings.Trim(prefix, "/")
	origKey := fmt.Sprintf("%s/%d-%s", dir, ts, name)
	thumbKey := fmt.Sprintf("%s/thumb-%d-%s", dir, ts, name)
	ctype := contentType(format)

	if err := m.disk.Put(origKey, content, ctype); err != nil {
		metrics.RecordAssetOp("store", err)
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not store image %q", filename)
	}
	if err := m.disk.Put(thumbKey, buf.Bytes(), ctype); err != nil {
		// Remove the original again so no orphan object outlives the failure.
		if derr := m.disk.Delete(origKey); derr != nil {
			logger.Warn("assets: orphan original left after thumbnail failure",
				"key", origKey, "error", derr)
		}
		metrics.RecordAssetOp("store", err)
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not store thumbnail for %q", filename)
	}
	metrics.RecordAssetOp("store", nil)

	return Pair{Original: m.disk.URL(origKey), Thumbnail: m.disk.URL(thumbKey)}, nil
}

// StoreFile reads an uploaded multipart file and stores it via Store.
func (m *Manager) StoreFile(fh *multipart.FileHeader, prefix string, preset Preset) (Pair, error) {
	f, err := fh.Open()
	if err != nil {
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not read upload %q", fh.Filename)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return Pair{}, errs.Wrap(errs.KindAssetProcessing, err, "could not read upload %q", fh.Filename)
	}
	return m.Store(content, fh.Filename, prefix, preset)
}

// Delete removes both objects of each pair, continuing past failures. The
// Result lists every reference that was removed and every one that was not;
// callers inspect both rather than a single boolean.
func (m *Manager) Delete(pairs ...Pair) Result {
	var res Result
	for _, p := range pairs {
		for _, ref := range []string{p.Original, p.Thumbnail} {
			if ref == "" {
				continue
			}
			key := m.Key(ref)
			if err := m.disk.Delete(key); err != nil {
				metrics.RecordAssetOp("delete", err)
				logger.Warn("assets: delete failed", "key", key, "error", err)
				res.Failed = append(res.Failed, ref)
				continue
			}
			metrics.RecordAssetOp("delete", nil)
			res.Deleted = append(res.Deleted, ref)
		}
	}
	return res
}

// Key maps a URL produced by the disk back to its object key.
func (m *Manager) Key(raw string) string {
	if base := m.disk.URL(""); base != "" && strings.HasPrefix(raw, base) {
		return raw[len(base):]
	}
	// Fall back to the URL path for keys stored before a base-URL change.
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return strings.TrimLeft(u.Path, "/")
	}
	return strings.TrimLeft(raw, "/")
}

// ─── Result ───────────────────────────────────────────────────────────────────

// Result accumulates the outcome of best-effort deletions.
type Result struct {
	Deleted []string `json:"deleted,omitempty"`
	Failed  []string `json:"failed,omitempty"`
}

// Merge folds other into r.
func (r *Result) Merge(other Result) {
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Err reports the accumulated failures as an asset-deletion error, or nil
// when everything was removed.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return errs.AssetDeletion("failed to delete %d of %d asset object(s)",
		len(r.Failed), len(r.Failed)+len(r.Deleted))
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func thumbnail(img image.Image, preset Preset) image.Image {
	switch preset.Mode {
	case FitCover:
		return imaging.Fill(img, preset.Width, preset.Height, imaging.Center, imaging.Lanczos)
	case FitContain:
		fitted := imaging.Fit(img, preset.Width, preset.Height, imaging.Lanczos)
		canvas := imaging.New(preset.Width, preset.Height, color.NRGBA{})
		return imaging.PasteCenter(canvas, fitted)
	default:
		return imaging.Fit(img, preset.Width, preset.Height, imaging.Lanczos)
	}
}

// sanitize strips directory components and whitespace from an upload's
// filename so it can serve as an object-key suffix.
func sanitize(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, filename)
}

func contentType(f imaging.Format) string {
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
