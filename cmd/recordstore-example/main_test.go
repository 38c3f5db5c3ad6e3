/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/internal/example"
)

func newTestMeta(t *testing.T) (*Meta, *cli.MockUi) {
	t.Helper()
	example.Register()

	cfg := config.Default()
	cfg.User = "tester"
	cfg.LogLevel = "panic"
	cfg.Containers = map[string]string{"drafts": "drafts"}
	s, err := openStore(context.Background(), cfg)
	require.NoError(t, err)

	ui := cli.NewMockUi()
	return &Meta{Ctx: context.Background(), Ui: ui, Store: s}, ui
}

// runCommand runs name and decodes its YAML output into out.
func runCommand(t *testing.T, meta *Meta, ui *cli.MockUi, out any, name string, args ...string) int {
	t.Helper()
	ui.OutputWriter.Reset()
	ui.ErrorWriter.Reset()

	factory, ok := Commands(meta)[name]
	require.True(t, ok, "unknown command %s", name)
	cmd, err := factory()
	require.NoError(t, err)

	code := cmd.Run(args)
	if code == 0 && out != nil {
		require.NoError(t, yaml.Unmarshal([]byte(ui.OutputWriter.String()), out), ui.OutputWriter.String())
	}
	return code
}

func TestPostLifecycle(t *testing.T) {
	meta, ui := newTestMeta(t)

	var created map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &created, "create",
		"-name", "Sunset", "-description", "over the lake", "-link", "https://example.com/sunset.png"))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Sunset", created["name"])
	assert.Equal(t, "tester", created["author"])

	var shown map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &shown, "show", "-id", id))
	assert.Equal(t, "over the lake", shown["simple_description"])

	var updated map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &updated, "update", "-id", id, "-name", "Sunrise"))
	assert.Equal(t, id, updated["updated"])

	require.Equal(t, 0, runCommand(t, meta, ui, &shown, "show", "-id", id))
	assert.Equal(t, "Sunrise", shown["name"])
	assert.Equal(t, "over the lake", shown["simple_description"], "unchanged fields are kept")

	var listed []map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list"))
	assert.Len(t, listed, 1)

	var deleted map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &deleted, "delete", "-id", id))
	assert.Equal(t, id, deleted["deleted"])

	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "show", "-id", id))
	assert.Contains(t, ui.ErrorWriter.String(), "Error:")
}

func TestCreateValidates(t *testing.T) {
	meta, ui := newTestMeta(t)

	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "create"))
	assert.Contains(t, ui.ErrorWriter.String(), "name is required")

	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "create", "-name", "x", "-link", "not a uri"))
}

func TestUpdateNeedsAField(t *testing.T) {
	meta, ui := newTestMeta(t)

	var created map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &created, "create", "-name", "a"))
	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "update", "-id", created["id"].(string)))
	assert.Contains(t, ui.ErrorWriter.String(), "nothing to update")
}

func TestListPages(t *testing.T) {
	meta, ui := newTestMeta(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.Equal(t, 0, runCommand(t, meta, ui, nil, "create", "-name", name))
	}

	require.Equal(t, 0, runCommand(t, meta, ui, nil, "list", "-page", "2"))
	out := ui.OutputWriter.String()
	assert.Contains(t, out, "page: 1")
	assert.Contains(t, out, "page: 3")
	assert.NotContains(t, out, "page: 4")
}

func TestScopesAndContainers(t *testing.T) {
	meta, ui := newTestMeta(t)

	require.Equal(t, 0, runCommand(t, meta, ui, nil, "create", "-name", "notice", "-scope", "public"))
	require.Equal(t, 0, runCommand(t, meta, ui, nil, "create", "-name", "draft", "-scope", "public", "-container", "drafts"))

	var listed []map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list"))
	assert.Empty(t, listed)

	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list", "-scope", "public"))
	require.Len(t, listed, 1)
	assert.Equal(t, "notice", listed[0]["name"])

	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list", "-scope", "public", "-container", "drafts"))
	require.Len(t, listed, 1)
	assert.Equal(t, "draft", listed[0]["name"])

	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "list", "-container", "missing"))
	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "list", "-scope", "shared"))
}

func TestDefaultScopeIsPrivate(t *testing.T) {
	meta, ui := newTestMeta(t)

	var created map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &created, "create", "-name", "secret"))

	var listed []map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list", "-scope", "private"))
	require.Len(t, listed, 1)
	assert.Equal(t, created["id"], listed[0]["id"])

	require.Equal(t, 0, runCommand(t, meta, ui, &listed, "list", "-scope", "public"))
	assert.Empty(t, listed)

	var status map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &status, "status"))
	assert.Equal(t, "private", status["partition"])
}

func TestPurge(t *testing.T) {
	meta, ui := newTestMeta(t)
	for _, name := range []string{"a", "b", "c"} {
		require.Equal(t, 0, runCommand(t, meta, ui, nil, "create", "-name", name))
	}

	var purged map[string][]string
	require.Equal(t, 0, runCommand(t, meta, ui, &purged, "purge", "-mine"))
	assert.Len(t, purged["deleted"], 3)

	require.Equal(t, 0, runCommand(t, meta, ui, &purged, "purge"))
	assert.Empty(t, purged["deleted"])
}

func TestStatus(t *testing.T) {
	meta, ui := newTestMeta(t)

	var status map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &status, "status", "-scope", "private"))
	assert.Equal(t, "available", status["account"])
	assert.Equal(t, "tester", status["user"])
	assert.Equal(t, "private", status["partition"])
}

func TestProfile(t *testing.T) {
	meta, ui := newTestMeta(t)

	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "profile"))
	assert.Equal(t, 1, runCommand(t, meta, ui, nil, "profile", "-email", "nope"))

	var profile map[string]any
	require.Equal(t, 0, runCommand(t, meta, ui, &profile, "profile", "-name", "Tess", "-email", "tess@example.com"))
	assert.Equal(t, "tester", profile["id"])
	assert.Equal(t, "Tess", profile["display_name"])

	require.Equal(t, 0, runCommand(t, meta, ui, &profile, "profile", "-name", "Tessa"))
	assert.Equal(t, "Tessa", profile["display_name"])
	assert.Equal(t, "tess@example.com", profile["email"])

	require.Equal(t, 0, runCommand(t, meta, ui, &profile, "profile"))
	assert.Equal(t, "Tessa", profile["display_name"])
}

func TestTypesAndVersion(t *testing.T) {
	meta, ui := newTestMeta(t)

	var types []map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &types, "types"))
	var names []string
	for _, tp := range types {
		names = append(names, tp["type"])
	}
	assert.Contains(t, names, example.PostRecordType)
	assert.Contains(t, names, example.UserRecordType)

	var version map[string]string
	require.Equal(t, 0, runCommand(t, meta, ui, &version, "version"))
	assert.NotEmpty(t, version["version"])
	assert.NotEmpty(t, version["go_version"])
}

func TestCommandsHaveHelp(t *testing.T) {
	meta, _ := newTestMeta(t)
	for name, factory := range Commands(meta) {
		cmd, err := factory()
		require.NoError(t, err)
		assert.NotEmpty(t, cmd.Help(), name)
		assert.NotEmpty(t, cmd.Synopsis(), name)
	}
}
