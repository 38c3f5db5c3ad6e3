/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/suparena/recordstore"
	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/datastore/ddb"
	"github.com/suparena/recordstore/datastore/memory"
)

// localUser is the identity of the memory backend when none is configured.
const localUser = "local-user"

// Meta holds the state shared by every command.
type Meta struct {
	Ctx context.Context
	Ui  cli.Ui

	// Store is opened from the configuration on first use unless set.
	Store *recordstore.Store

	configPath string
	scope      string
	container  string
}

const metaHelp = `
Common options:

	-config=""        Configuration file (YAML)
	-scope=private    Database scope: private or public
	-container=""     Container identifier; empty selects the default
`

// FlagSet returns a flag set carrying the common options.
func (m *Meta) FlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&m.configPath, "config", "", "config file")
	fs.StringVar(&m.scope, "scope", "private", "private or public")
	fs.StringVar(&m.container, "container", "", "container identifier")
	return fs
}

// Partition returns the partition selected by the common options.
func (m *Meta) Partition() (recordstore.Partition, error) {
	var p recordstore.Partition
	switch strings.ToLower(m.scope) {
	case "", "private":
		p = recordstore.DefaultPartition()
	case "public":
		p = recordstore.Public()
	default:
		return p, fmt.Errorf("unknown scope %q", m.scope)
	}
	if m.container != "" {
		p = p.In(m.container)
	}
	return p, nil
}

// OpenStore returns the shared store, opening it from the configuration
// when needed.
func (m *Meta) OpenStore() (*recordstore.Store, error) {
	if m.Store != nil {
		return m.Store, nil
	}
	cfg, err := config.Load(m.configPath)
	if err != nil {
		return nil, err
	}
	s, err := openStore(m.Ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.Store = s
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*recordstore.Store, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.WithField("backend", cfg.Backend).Debug("store opened")
	return recordstore.New(provider, recordstore.WithLogger(logger))
}

func newProvider(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (datastore.Provider, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		user := cfg.User
		if user == "" {
			user = localUser
		}
		p := memory.New(memory.WithUser(user), memory.WithStrictContainers())
		for _, id := range cfg.ContainerIDs() {
			if _, err := p.RegisterContainer(id); err != nil {
				return nil, err
			}
		}
		return p, nil

	case config.BackendDynamoDB:
		client, identity, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		return ddb.NewProvider(client, identity, ddb.Config{
			DefaultTable: cfg.Table,
			Tables:       cfg.Containers,
			Index: ddb.IndexConfig{
				IndexName:        cfg.Index.Name,
				PartitionKeyName: cfg.Index.PartitionKey,
				SortKeyName:      cfg.Index.SortKey,
			},
			UserRecordID: cfg.User,
		}, ddb.WithLogger(logger))
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Output writes v as a YAML document.
func (m *Meta) Output(v any) int {
	data, err := yaml.Marshal(v)
	if err != nil {
		m.Ui.Error(fmt.Sprintf("Error encoding output: %s", err))
		return 1
	}
	m.Ui.Output(strings.TrimRight(string(data), "\n"))
	return 0
}

// Fail reports err and returns the failure exit code.
func (m *Meta) Fail(err error) int {
	m.Ui.Error(fmt.Sprintf("Error: %s", err))
	return 1
}

// setup parses args and opens the store and partition.
func (m *Meta) setup(fs *flag.FlagSet, args []string) (*recordstore.Store, recordstore.Partition, error) {
	if err := fs.Parse(args); err != nil {
		return nil, recordstore.Partition{}, err
	}
	p, err := m.Partition()
	if err != nil {
		return nil, p, err
	}
	s, err := m.OpenStore()
	if err != nil {
		return nil, p, err
	}
	return s, p, nil
}
