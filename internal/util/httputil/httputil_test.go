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

package httputil_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/util/httputil"
)

func TestFetchContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	body, err := httputil.FetchContent(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "hello", body)

	_, err = httputil.FetchContent(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "file.bin")
	ctx := context.Background()

	require.NoError(t, httputil.Download(ctx, srv.URL, dest, httputil.DownloadOptions{}))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// An existing destination is rejected unless overwrite is requested.
	err = httputil.Download(ctx, srv.URL, dest, httputil.DownloadOptions{})
	require.Error(t, err)
	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errors.Exist, e.Kind)

	require.NoError(t, httputil.Download(ctx, srv.URL, dest, httputil.DownloadOptions{Overwrite: true}))
}

func TestDownloadExtract(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	f, err := zw.Create("sub/inner.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("zipped content"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "bundle.zip")
	require.NoError(t, httputil.Download(context.Background(), srv.URL, dest,
		httputil.DownloadOptions{Extract: true}))

	data, err := os.ReadFile(filepath.Join(dir, "sub", "inner.txt"))
	require.NoError(t, err)
	assert.Equal(t, "zipped content", string(data))
}

func TestDownloadExtractRejectsEscapingEntries(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	f, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	err = httputil.Download(context.Background(), srv.URL, filepath.Join(dir, "bundle.zip"),
		httputil.DownloadOptions{Extract: true})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
