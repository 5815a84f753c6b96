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

package remote_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotools/reposync/internal/errors"
	"github.com/repotools/reposync/internal/printer/fake"
	"github.com/repotools/reposync/internal/testutil"
	"github.com/repotools/reposync/internal/util/remote"
)

func TestFetch(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "a", "2024-01-01T00:00:00Z")
	repo.CommitFile("docs/b.txt", "b", "2024-06-01T00:00:00Z")
	repo.CommitFile("a.txt", "a2", "2024-07-01T00:00:00Z")

	ctx := fake.CtxWithNilPrinter()
	meta, err := remote.Fetch(ctx, repo.RepoDirectory, "main")
	require.NoError(t, err)

	assert.Equal(t, repo.RepoDirectory, meta.Remote)
	assert.Equal(t, "main", meta.Branch)

	paths := meta.Paths()
	sort.Strings(paths)
	assert.Equal(t, []string{"a.txt", "docs/b.txt"}, paths)

	// a.txt was touched twice; the record carries the later commit.
	a := meta.Files["a.txt"]
	require.True(t, a.HasModTime)
	assert.True(t, a.ModTime.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		"got %v", a.ModTime)
	assert.Equal(t, "add a.txt", a.Subject)

	b := meta.Files["docs/b.txt"]
	require.True(t, b.HasModTime)
	assert.True(t, b.ModTime.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		"got %v", b.ModTime)
	assert.Equal(t, "add docs/b.txt", b.Subject)
	assert.Empty(t, b.DownloadURL)
}

func TestFetchNormalizesOffsets(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "a", "2024-01-01T02:00:00+02:00")

	ctx := fake.CtxWithNilPrinter()
	meta, err := remote.Fetch(ctx, repo.RepoDirectory, "main")
	require.NoError(t, err)

	rec := meta.Files["a.txt"]
	require.True(t, rec.HasModTime)
	assert.Equal(t, time.UTC, rec.ModTime.Location())
	assert.True(t, rec.ModTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		"got %v", rec.ModTime)
}

func TestFetchMissingBranch(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitFile("a.txt", "a", "2024-01-01T00:00:00Z")

	ctx := fake.CtxWithNilPrinter()
	_, err := remote.Fetch(ctx, repo.RepoDirectory, "no-such-branch")
	require.Error(t, err)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errors.BranchMissing, e.Kind)
}

func TestFetchUnreachableRemote(t *testing.T) {
	ctx := fake.CtxWithNilPrinter()
	_, err := remote.Fetch(ctx, "/no/such/repository", "main")
	require.Error(t, err)
}
