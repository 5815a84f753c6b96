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

package sync_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotools/reposync/internal/printer/fake"
	"github.com/repotools/reposync/internal/testutil"
	"github.com/repotools/reposync/internal/util/sync"
)

func TestRun(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "content a", "2024-01-01T00:00:00Z")
	repo.CommitFile("docs/b.txt", "content b", "2024-06-01T00:00:00Z")

	dest := filepath.Join(t.TempDir(), "mirror")
	cmd := sync.Command{
		Remote:      repo.RepoDirectory,
		Branch:      "main",
		Destination: dest,
	}

	var out bytes.Buffer
	require.NoError(t, cmd.Run(fake.CtxWithPrinter(&out, &out)))

	assert.Equal(t, "content a", readBack(t, dest, "a.txt"))
	assert.Equal(t, "content b", readBack(t, dest, "docs/b.txt"))
	assert.Contains(t, out.String(), "2 need updating")

	// A second run finds everything current and copies nothing: the copy
	// stamps destination files with the checkout's mtimes, which postdate
	// the remote commit timestamps.
	out.Reset()
	require.NoError(t, cmd.Run(fake.CtxWithPrinter(&out, &out)))
	assert.Contains(t, out.String(), "0 need updating")
}

func TestRunPicksUpNewCommits(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "v1", "2024-01-01T00:00:00Z")

	dest := filepath.Join(t.TempDir(), "mirror")
	cmd := sync.Command{
		Remote:      repo.RepoDirectory,
		Branch:      "main",
		Destination: dest,
	}
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))
	assert.Equal(t, "v1", readBack(t, dest, "a.txt"))

	// Commit a future-dated update so the remote timestamp beats the local
	// mtime stamped by the first sync.
	repo.CommitFile("a.txt", "v2", "2030-01-01T00:00:00Z")
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))
	assert.Equal(t, "v2", readBack(t, dest, "a.txt"))
}

func TestRunLeavesUpToDateFilesAlone(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "v1", "2024-01-01T00:00:00Z")
	repo.CommitFile("docs/a.txt", "nested remote", "2024-01-01T00:00:00Z")

	dest := filepath.Join(t.TempDir(), "mirror")
	cmd := sync.Command{
		Remote:      repo.RepoDirectory,
		Branch:      "main",
		Destination: dest,
	}
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))

	// Edit the nested file locally with an mtime ahead of its remote
	// commit: the partition classifies it up to date, so the next sync
	// must not touch it even though the root file shares its base name.
	edited := filepath.Join(dest, "docs", "a.txt")
	require.NoError(t, os.WriteFile(edited, []byte("local edit"), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(edited, future, future))

	repo.CommitFile("a.txt", "v2", "2030-01-01T00:00:00Z")
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))

	assert.Equal(t, "v2", readBack(t, dest, "a.txt"))
	assert.Equal(t, "local edit", readBack(t, dest, "docs/a.txt"))
}

func TestRunPurgeUntracked(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "content a", "2024-01-01T00:00:00Z")

	dest := filepath.Join(t.TempDir(), "mirror")
	cmd := sync.Command{
		Remote:      repo.RepoDirectory,
		Branch:      "main",
		Destination: dest,
		PurgeExtra:  true,
	}
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))

	// Plant untracked entries, then re-sync with purge.
	writeLocal(t, dest, "extra.txt", "untracked")
	writeLocal(t, dest, "stray/deep/extra.txt", "untracked")
	require.NoError(t, cmd.Run(fake.CtxWithNilPrinter()))

	assert.Equal(t, "content a", readBack(t, dest, "a.txt"))
	_, err := os.Stat(filepath.Join(dest, "extra.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "stray"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunMissingBranch(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "content a", "2024-01-01T00:00:00Z")

	cmd := sync.Command{
		Remote:      repo.RepoDirectory,
		Branch:      "no-such-branch",
		Destination: filepath.Join(t.TempDir(), "mirror"),
	}
	require.Error(t, cmd.Run(fake.CtxWithNilPrinter()))
}

func readBack(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func writeLocal(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}
