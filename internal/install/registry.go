package install

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/adamancini/hmm/internal/archive"
	"github.com/adamancini/hmm/internal/logging"
	"github.com/adamancini/hmm/internal/state"
)

// RegistryInstaller downloads and unpacks haxelib archives.
type RegistryInstaller struct {
	Layout     state.Layout
	Downloader Downloader
	Logger     *log.Logger
}

// Install implements Installer.
//
// The archive is downloaded to a per-entry temp file and unpacked into the
// version directory before the .current marker is written, so an
// interrupted install never looks complete.
func (r *RegistryInstaller) Install(ctx context.Context, st state.Status) (Action, error) {
	dep := st.Dependency
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	record := r.Layout.RecordDir(dep.Name)
	if err := os.MkdirAll(record, 0755); err != nil {
		return ActionDownload, fmt.Errorf("failed to create %s: %w", record, err)
	}

	tmp, err := os.CreateTemp(r.Layout.Root, "."+state.SafeName(dep.Name)+"-*.zip")
	if err != nil {
		return ActionDownload, fmt.Errorf("failed to create temp archive: %w", err)
	}
	archivePath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(archivePath) }()

	progress := newProgressLogger(logger, dep.Name)
	size, err := r.Downloader.Download(ctx, dep.Name, dep.Version, archivePath, progress.report)
	if err != nil {
		return ActionDownload, err
	}
	logger.Debug("unpacking", "name", dep.Name, "version", dep.Version, "size", humanize.Bytes(uint64(size)))

	if err := archive.ExtractZip(archivePath, r.Layout.PayloadDir(dep.Name, dep.Version)); err != nil {
		return ActionDownload, err
	}

	if err := writeFileAtomic(r.Layout.CurrentMarker(dep.Name), dep.Version); err != nil {
		return ActionDownload, err
	}
	if err := removeIfExists(r.Layout.DevMarker(dep.Name)); err != nil {
		return ActionDownload, fmt.Errorf("failed to remove stale %s marker: %w", state.DevMarker, err)
	}
	return ActionDownload, nil
}

// progressLogger logs download progress at every quarter.
type progressLogger struct {
	logger *log.Logger
	name   string
	next   int64
}

func newProgressLogger(logger *log.Logger, name string) *progressLogger {
	return &progressLogger{logger: logger, name: name, next: 25}
}

func (p *progressLogger) report(written, total int64) {
	if total <= 0 {
		return
	}
	pct := written * 100 / total
	if pct < p.next {
		return
	}
	p.logger.Debug("download progress", "name", p.name,
		"received", humanize.Bytes(uint64(written)),
		"total", humanize.Bytes(uint64(total)),
		"percent", pct)
	for p.next <= pct {
		p.next += 25
	}
}
