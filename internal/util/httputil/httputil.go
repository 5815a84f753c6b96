// Copyright 2025 The reposync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httputil wraps the HTTP client used for direct asset transfer.
package httputil

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/types"
)

// FetchContent fetches the content from the input url.
func FetchContent(ctx context.Context, url string) (string, error) {
	const op errors.Op = "httputil.FetchContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.E(op, errors.HTTP, err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.E(op, errors.HTTP, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", errors.E(op, errors.HTTP,
			fmt.Errorf("GET %s: %s", url, res.Status))
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.E(op, errors.HTTP, err)
	}
	return string(body), nil
}

// DownloadOptions controls Download behavior.
type DownloadOptions struct {
	// Overwrite permits replacing an existing destination file. Without
	// it an existing destination is an error: overwriting requires
	// explicit consent.
	Overwrite bool

	// Extract treats the downloaded payload as a zip archive and unpacks
	// it into the destination's directory after the download.
	Extract bool
}

// Download streams the content at url into dest.
func Download(ctx context.Context, url, dest string, opts DownloadOptions) error {
	const op errors.Op = "httputil.Download"

	if !opts.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			return errors.E(op, errors.Exist, types.UniquePath(dest),
				fmt.Errorf("destination file already exists, pass --overwrite to replace it"))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.E(op, errors.HTTP, err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.E(op, errors.HTTP, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errors.E(op, errors.HTTP, fmt.Errorf("GET %s: %s", url, res.Status))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.E(op, errors.IO, err)
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.E(op, errors.IO, err)
	}
	_, err = io.Copy(f, res.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.E(op, errors.IO, types.UniquePath(dest), err)
	}

	if opts.Extract {
		if err := extractZip(dest, filepath.Dir(dest)); err != nil {
			return errors.E(op, types.UniquePath(dest), err)
		}
	}
	return nil
}

// extractZip unpacks the archive at src into dir.
func extractZip(src, dir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, zf := range r.File {
		// Reject entries escaping the destination directory.
		target := filepath.Join(dir, filepath.FromSlash(zf.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, zf.Mode()); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		w, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, zf.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
