package usecase_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mooring/pkg/usecase"
)

const sampleWorkflow = `
name: CI
on:
  push:
    branches: [main]
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - name: Setup Go
        uses: actions/setup-go@0123456789abcdef0123456789abcdef01234567
        with:
          go-version: "1.24"
      - name: Build
        run: go build ./...
      - uses: ./local/action
      - uses: docker://alpine:3.19
  lint:
    runs-on: ubuntu-latest
    steps:
      - uses: internalorg/build-tools@main
  release:
    uses: acme/workflows/.github/workflows/release.yml@v2
`

func TestExtractRefs(t *testing.T) {
	refs, err := usecase.ExtractRefs([]byte(sampleWorkflow), []string{"internalorg"})
	gt.NoError(t, err)
	gt.Array(t, refs).Length(4)

	// Jobs iterate in name order: build, lint, release
	checkout := refs[0]
	gt.Value(t, checkout.Action).Equal("actions/checkout")
	gt.Value(t, checkout.Ref).Equal("v4")
	gt.False(t, checkout.Pinned)
	gt.False(t, checkout.Internal)

	setupGo := refs[1]
	gt.Value(t, setupGo.Action).Equal("actions/setup-go")
	gt.True(t, setupGo.Pinned)
	gt.False(t, setupGo.Internal)

	internal := refs[2]
	gt.Value(t, internal.Action).Equal("internalorg/build-tools")
	gt.False(t, internal.Pinned)
	gt.True(t, internal.Internal)

	reusable := refs[3]
	gt.Value(t, reusable.Action).Equal("acme/workflows")
	gt.Value(t, reusable.Ref).Equal("v2")
	gt.Value(t, reusable.Raw).Equal("acme/workflows/.github/workflows/release.yml@v2")
	gt.False(t, reusable.Pinned)
}

func TestExtractRefs_PinnedClassification(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		pinned bool
	}{
		{"full lowercase hash", strings.Repeat("a1", 20), true},
		{"full uppercase hash", strings.Repeat("A1", 20), true},
		{"short hash", "a1b2c3d", false},
		{"39 chars", strings.Repeat("a", 39), false},
		{"41 chars", strings.Repeat("a", 41), false},
		{"semantic tag", "v4.1.2", false},
		{"branch", "main", false},
		{"40 chars with non-hex", strings.Repeat("g", 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow := "jobs:\n  a:\n    steps:\n      - uses: acme/tool@" + tt.ref + "\n"
			refs, err := usecase.ExtractRefs([]byte(workflow), nil)
			gt.NoError(t, err)
			gt.Array(t, refs).Length(1)
			gt.Value(t, refs[0].Pinned).Equal(tt.pinned)
		})
	}
}

func TestExtractRefs_InternalClassification(t *testing.T) {
	workflow := "jobs:\n  a:\n    steps:\n      - uses: InternalOrg/tool@v1\n      - uses: otherorg/tool@v1\n"

	refs, err := usecase.ExtractRefs([]byte(workflow), []string{"internalorg"})
	gt.NoError(t, err)
	gt.Array(t, refs).Length(2)

	// Owner comparison is case-insensitive
	gt.True(t, refs[0].Internal)
	gt.False(t, refs[1].Internal)
}

func TestExtractRefs_SkipsNonExternalSteps(t *testing.T) {
	workflow := `
jobs:
  a:
    steps:
      - run: echo hello
      - uses: ./.github/actions/local
      - uses: docker://ghcr.io/acme/img:latest
      - uses: no-ref-at-all
      - uses: single-segment@v1
`
	refs, err := usecase.ExtractRefs([]byte(workflow), nil)
	gt.NoError(t, err)
	gt.Array(t, refs).Length(0)
}

func TestExtractRefs_InvalidYAML(t *testing.T) {
	_, err := usecase.ExtractRefs([]byte("jobs: [unclosed"), nil)
	gt.Error(t, err)
}

func TestExtractRefs_EmptyDocument(t *testing.T) {
	refs, err := usecase.ExtractRefs([]byte(""), nil)
	gt.NoError(t, err)
	gt.Array(t, refs).Length(0)
}
