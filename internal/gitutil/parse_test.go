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

package gitutil_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/repotools/reposync/internal/gitutil"
)

// The fixtures below are captured from real git output. The parsers must
// hold up against exactly this shape, since format drift otherwise breaks
// silently.

func TestParseLsRemote(t *testing.T) {
	t.Run("heads and tags", func(t *testing.T) {
		out := "da39a3ee5e6b4b0d3255bfef95601890afd80709\trefs/heads/main\n" +
			"af1f9c7b9e9b0d3255bfef95601890afd8070901\trefs/heads/release-1.2\n" +
			"b2c3d4e5f60718293a4b5c6d7e8f901234567890\trefs/tags/v1.0.0\n"
		refs, err := ParseLsRemote(out)
		require.NoError(t, err)
		expected := map[string]string{
			"main":        "da39a3ee5e6b4b0d3255bfef95601890afd80709",
			"release-1.2": "af1f9c7b9e9b0d3255bfef95601890afd8070901",
			"v1.0.0":      "b2c3d4e5f60718293a4b5c6d7e8f901234567890",
		}
		if diff := cmp.Diff(expected, refs); diff != "" {
			t.Errorf("unexpected refs (-want +got):\n%s", diff)
		}
	})

	t.Run("garbage line is skipped", func(t *testing.T) {
		out := "warning: redirecting to https://example.com/repo.git/\n" +
			"da39a3ee5e6b4b0d3255bfef95601890afd80709\trefs/heads/main\n"
		refs, err := ParseLsRemote(out)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"main": "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		}, refs)
	})

	t.Run("empty output", func(t *testing.T) {
		refs, err := ParseLsRemote("")
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestParseLsTree(t *testing.T) {
	out := "README.md\ndocs/guide.md\nmodels/weights.bin\n\n"
	assert.Equal(t,
		[]string{"README.md", "docs/guide.md", "models/weights.bin"},
		ParseLsTree(out))

	assert.Nil(t, ParseLsTree(""))
}

func TestParseLogLine(t *testing.T) {
	testCases := map[string]struct {
		line            string
		expectedTime    time.Time
		expectedSubject string
		expectErr       bool
	}{
		"utc timestamp": {
			line:            "2024-06-01T00:00:00+00:00\tadd b.txt",
			expectedTime:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			expectedSubject: "add b.txt",
		},
		"offset timestamp is normalized to utc": {
			line:            "2024-01-01T02:00:00+02:00\tinitial commit",
			expectedTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedSubject: "initial commit",
		},
		"subject with tabs keeps first split only": {
			line:            "2024-01-01T00:00:00Z\tfix:\tparser",
			expectedTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedSubject: "fix:\tparser",
		},
		"trailing newline is tolerated": {
			line:            "2024-01-01T00:00:00Z\tsubject\n",
			expectedTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedSubject: "subject",
		},
		"empty line": {
			line:      "",
			expectErr: true,
		},
		"unparseable timestamp": {
			line:      "last tuesday\tsubject",
			expectErr: true,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			when, subject, err := ParseLogLine(tc.line)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expectedTime.Equal(when), "got %v", when)
			assert.Equal(t, time.UTC, when.Location())
			assert.Equal(t, tc.expectedSubject, subject)
		})
	}
}
