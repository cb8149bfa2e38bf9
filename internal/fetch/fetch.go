// Package fetch implements the download collaborator: it pulls the
// upstream archive over HTTP into the archive dir and unpacks it into
// the extracted dir.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"geoexport/internal/logging"
	"geoexport/internal/workspace"
)

// Config locates the upstream archive. The registry publishes one
// cumulative zip covering all address points; both sources transform
// the same extracted documents.
type Config struct {
	URL         string `koanf:"url"`
	ArchiveName string `koanf:"archive_name"` // filename inside the archive dir
}

type Client struct {
	cfg  Config
	ws   workspace.Workspace
	http *http.Client
}

func NewClient(cfg Config, ws workspace.Workspace) *Client {
	return &Client{cfg: cfg, ws: ws, http: http.DefaultClient}
}

// Fetch downloads the archive and extracts its members. Satisfies
// job.Fetcher.
func (c *Client) Fetch(ctx context.Context) error {
	archive := filepath.Join(c.ws.ArchiveDir, c.cfg.ArchiveName)
	if err := c.download(ctx, archive); err != nil {
		return err
	}
	return c.unpack(archive)
}

func (c *Client) download(ctx context.Context, dest string) error {
	logging.L().Info("downloading archive", "url", c.cfg.URL, "to", dest)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %s: %w", c.cfg.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: %s: unexpected status %s", c.cfg.URL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("fetch: write %s: %w", dest, err)
	}
	logging.L().Info("download finished", "bytes", n)
	return nil
}

// unpack extracts every member into the extracted dir. Upstream member
// names carry a long date-stamped prefix; only the last underscore-
// separated token is kept, so successive publications extract to
// stable filenames.
func (c *Client) unpack(archive string) error {
	logging.L().Info("unpacking archive", "archive", archive)
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("fetch: open %s: %w", archive, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := extractedName(zf.Name)
		if name == "" {
			return fmt.Errorf("fetch: archive member %q has no usable name", zf.Name)
		}
		if err := writeMember(zf, filepath.Join(c.ws.ExtractedDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// extractedName maps an archive member name to its extracted filename:
// the final underscore-separated token of the base name. Path
// separators are stripped first so a crafted member cannot escape the
// extracted dir.
func extractedName(member string) string {
	base := path.Base(filepath.ToSlash(member))
	parts := strings.Split(base, "_")
	name := parts[len(parts)-1]
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func writeMember(zf *zip.File, dest string) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("fetch: open member %s: %w", zf.Name, err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	_, err = io.Copy(f, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("fetch: extract %s: %w", zf.Name, err)
	}
	return nil
}
