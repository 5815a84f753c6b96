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

package asset_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotools/reposync/internal/printer/fake"
	"github.com/repotools/reposync/internal/util/asset"
	"github.com/repotools/reposync/internal/util/remote"
)

func TestResolveURLs(t *testing.T) {
	meta := remote.RepoMetadata{
		Remote: "https://example.com/org/repo.git",
		Branch: "main",
		Files: map[string]remote.FileRecord{
			"models/weights.bin": {Path: "models/weights.bin"},
		},
	}

	testCases := map[string]struct {
		endpoint string
		expected string
	}{
		"placeholders": {
			endpoint: "https://media.example.com/{branch}/raw/{path}",
			expected: "https://media.example.com/main/raw/models/weights.bin",
		},
		"plain endpoint appends branch and path": {
			endpoint: "https://media.example.com/raw",
			expected: "https://media.example.com/raw/main/models/weights.bin",
		},
		"trailing slash is not doubled": {
			endpoint: "https://media.example.com/raw/",
			expected: "https://media.example.com/raw/main/models/weights.bin",
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			resolved := asset.ResolveURLs(meta, tc.endpoint)
			assert.Equal(t, tc.expected, resolved.Files["models/weights.bin"].DownloadURL)
			// The input is not mutated.
			assert.Empty(t, meta.Files["models/weights.bin"].DownloadURL)
		})
	}
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	abs := filepath.Join(root, "present.bin")
	require.NoError(t, os.WriteFile(abs, []byte("data"), 0644))
	require.NoError(t, os.Chtimes(abs, mod, mod))

	testCases := map[string]struct {
		rec      remote.FileRecord
		expected asset.State
	}{
		"no local counterpart": {
			rec:      remote.FileRecord{Path: "absent.bin", ModTime: mod, HasModTime: true},
			expected: asset.Missing,
		},
		"mtime equals commit timestamp": {
			rec:      remote.FileRecord{Path: "present.bin", ModTime: mod, HasModTime: true},
			expected: asset.Matched,
		},
		"sub-second difference still matches": {
			rec:      remote.FileRecord{Path: "present.bin", ModTime: mod.Add(500 * time.Millisecond), HasModTime: true},
			expected: asset.Matched,
		},
		"mtime differs": {
			rec:      remote.FileRecord{Path: "present.bin", ModTime: mod.Add(time.Hour), HasModTime: true},
			expected: asset.Stale,
		},
		"record without timestamp never matches": {
			rec:      remote.FileRecord{Path: "present.bin"},
			expected: asset.Stale,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, asset.Classify(tc.rec, root))
		})
	}
}

func TestSync(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/main/a.bin":
			w.Write([]byte("content a"))
		case "/main/models/b.bin":
			w.Write([]byte("content b"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	meta := remote.RepoMetadata{
		Remote: "https://example.com/org/repo.git",
		Branch: "main",
		Files: map[string]remote.FileRecord{
			"a.bin":        {Path: "a.bin", ModTime: mod, HasModTime: true},
			"models/b.bin": {Path: "models/b.bin", ModTime: mod, HasModTime: true},
		},
	}
	meta = asset.ResolveURLs(meta, srv.URL)

	dest := filepath.Join(t.TempDir(), "assets")
	ctx := fake.CtxWithNilPrinter()

	result, err := asset.Sync(ctx, meta, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bin", "models/b.bin"}, result.Downloaded)
	assert.Empty(t, result.Matched)
	assert.Empty(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(dest, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, "content a", string(data))

	// Each download is stamped with the commit timestamp.
	info, err := os.Stat(filepath.Join(dest, "models", "b.bin"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().UTC().Equal(mod), "got %v", info.ModTime())

	// The second pass transfers nothing.
	result, err = asset.Sync(ctx, meta, dest)
	require.NoError(t, err)
	assert.Empty(t, result.Downloaded)
	assert.Len(t, result.Matched, 2)
}

func TestSyncRemovesUnknownFiles(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer srv.Close()

	meta := asset.ResolveURLs(remote.RepoMetadata{
		Branch: "main",
		Files: map[string]remote.FileRecord{
			"a.bin": {Path: "a.bin", ModTime: mod, HasModTime: true},
		},
	}, srv.URL)

	dest := t.TempDir()
	stray := filepath.Join(dest, "stray.bin")
	require.NoError(t, os.WriteFile(stray, []byte("old"), 0644))

	result, err := asset.Sync(fake.CtxWithNilPrinter(), meta, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"stray.bin"}, result.Removed)
	_, err = os.Stat(stray)
	assert.True(t, os.IsNotExist(err))
}

func TestSyncIsolatesFailedDownloads(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/main/broken.bin" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("content"))
	}))
	defer srv.Close()

	meta := asset.ResolveURLs(remote.RepoMetadata{
		Branch: "main",
		Files: map[string]remote.FileRecord{
			"good.bin":   {Path: "good.bin", ModTime: mod, HasModTime: true},
			"broken.bin": {Path: "broken.bin", ModTime: mod, HasModTime: true},
		},
	}, srv.URL)

	dest := t.TempDir()
	result, err := asset.Sync(fake.CtxWithNilPrinter(), meta, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{"good.bin"}, result.Downloaded)
	assert.Equal(t, []string{"broken.bin"}, result.Failed)

	_, err = os.Stat(filepath.Join(dest, "good.bin"))
	assert.NoError(t, err)
}
