/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordstore"
	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/internal/example"
	"github.com/suparena/recordstore/registry"
)

func versionString() string {
	info := recordstore.GetVersionInfo()
	return fmt.Sprintf("%s (%s)", info.Version, info.GitCommit)
}

// StatusCommand shows the account status and the current user identity.
type StatusCommand struct {
	*Meta
}

func (c *StatusCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example status [options]

  Reports whether the current user can use the store.
` + metaHelp)
}

func (c *StatusCommand) Synopsis() string {
	return "Shows account status and user identity"
}

func (c *StatusCommand) Run(args []string) int {
	s, p, err := c.setup(c.FlagSet("status"), args)
	if err != nil {
		return c.Fail(err)
	}

	pending := recordstore.Async(c.Ctx, s, func(ctx context.Context) (string, error) {
		return recordstore.UserRecordID(ctx, s, p)
	})
	status, err := recordstore.AccountStatus(c.Ctx, s, p)
	if err != nil {
		return c.Fail(err)
	}
	out := map[string]string{
		"partition": p.String(),
		"account":   status.String(),
	}
	if uid, err := pending.Await(c.Ctx); err == nil {
		out["user"] = uid
	}
	return c.Output(out)
}

// ListCommand lists posts.
type ListCommand struct {
	*Meta
}

func (c *ListCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example list [options]

  Lists posts, newest first when paged.

Options:

	-page=0           Page size; zero lists every post at once
	-mine             Only posts created by the current user
` + metaHelp)
}

func (c *ListCommand) Synopsis() string {
	return "Lists posts"
}

func (c *ListCommand) Run(args []string) int {
	var pageSize int
	var mine bool
	fs := c.FlagSet("list")
	fs.IntVar(&pageSize, "page", 0, "page size")
	fs.BoolVar(&mine, "mine", false, "only my posts")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}

	if mine {
		posts, err := recordstore.FetchRecordsByUser[example.Post](c.Ctx, s, p)
		if err != nil {
			return c.Fail(err)
		}
		return c.Output(posts)
	}
	if pageSize <= 0 {
		posts, err := recordstore.GetAllWithoutLimit[example.Post](c.Ctx, s, p)
		if err != nil {
			return c.Fail(err)
		}
		return c.Output(posts)
	}

	page, err := recordstore.GetAllPaginated[example.Post](c.Ctx, s, p, pageSize)
	for n := 1; ; n++ {
		if err != nil {
			return c.Fail(err)
		}
		if code := c.Output(map[string]any{"page": n, "posts": page.Items}); code != 0 {
			return code
		}
		if page.Next == nil {
			return 0
		}
		page, err = page.Next.FetchPage(c.Ctx)
	}
}

// ShowCommand prints one post.
type ShowCommand struct {
	*Meta
}

func (c *ShowCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example show -id=<id> [options]

Options:

	-id=""            Post identity
` + metaHelp)
}

func (c *ShowCommand) Synopsis() string {
	return "Shows a post"
}

func (c *ShowCommand) Run(args []string) int {
	var id string
	fs := c.FlagSet("show")
	fs.StringVar(&id, "id", "", "post identity")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}
	post, err := recordstore.GetByID[example.Post](c.Ctx, s, p, id)
	if err != nil {
		return c.Fail(err)
	}
	return c.Output(post)
}

// CreateCommand creates a post.
type CreateCommand struct {
	*Meta
}

func (c *CreateCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example create -name=<name> [options]

Options:

	-name=""          Post name
	-description=""   Short description
	-link=""          Image link (URI)
` + metaHelp)
}

func (c *CreateCommand) Synopsis() string {
	return "Creates a post"
}

func (c *CreateCommand) Run(args []string) int {
	var post example.Post
	var link string
	fs := c.FlagSet("create")
	fs.StringVar(&post.Name, "name", "", "post name")
	fs.StringVar(&post.SimpleDescription, "description", example.DefaultDescription, "description")
	fs.StringVar(&link, "link", "", "image link")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}
	post.Link = strfmt.URI(link)
	if err := post.Validate(); err != nil {
		return c.Fail(err)
	}

	created, err := recordstore.Create(c.Ctx, s, p, post)
	if err != nil {
		return c.Fail(err)
	}
	return c.Output(created)
}

// UpdateCommand changes the fields of an existing post.
type UpdateCommand struct {
	*Meta
}

func (c *UpdateCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example update -id=<id> [options]

  Only the given fields change.

Options:

	-id=""            Post identity
	-name=""          New name
	-description=""   New description
	-link=""          New image link (URI)
` + metaHelp)
}

func (c *UpdateCommand) Synopsis() string {
	return "Updates a post"
}

func (c *UpdateCommand) Run(args []string) int {
	var id, name, description, link string
	fs := c.FlagSet("update")
	fs.StringVar(&id, "id", "", "post identity")
	fs.StringVar(&name, "name", "", "post name")
	fs.StringVar(&description, "description", "", "description")
	fs.StringVar(&link, "link", "", "image link")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}

	post, err := recordstore.GetByID[example.Post](c.Ctx, s, p, id)
	if err != nil {
		return c.Fail(err)
	}
	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			post.Name, changed = name, true
		case "description":
			post.SimpleDescription, changed = description, true
		case "link":
			post.Link, changed = strfmt.URI(link), true
		}
	})
	if !changed {
		return c.Fail(fmt.Errorf("nothing to update"))
	}
	if err := post.Validate(); err != nil {
		return c.Fail(err)
	}

	updated, err := recordstore.Update(c.Ctx, s, p, post)
	if err != nil {
		return c.Fail(err)
	}
	return c.Output(map[string]string{"updated": updated})
}

// DeleteCommand deletes one post.
type DeleteCommand struct {
	*Meta
}

func (c *DeleteCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example delete -id=<id> [options]

Options:

	-id=""            Post identity
` + metaHelp)
}

func (c *DeleteCommand) Synopsis() string {
	return "Deletes a post"
}

func (c *DeleteCommand) Run(args []string) int {
	var id string
	fs := c.FlagSet("delete")
	fs.StringVar(&id, "id", "", "post identity")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}
	deleted, err := recordstore.Remove(c.Ctx, s, p, id)
	if err != nil {
		return c.Fail(err)
	}
	return c.Output(map[string]string{"deleted": deleted})
}

// PurgeCommand deletes every post, or every post of the current user.
type PurgeCommand struct {
	*Meta
}

func (c *PurgeCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example purge [options]

Options:

	-mine             Only posts created by the current user
` + metaHelp)
}

func (c *PurgeCommand) Synopsis() string {
	return "Deletes all posts"
}

func (c *PurgeCommand) Run(args []string) int {
	var mine bool
	fs := c.FlagSet("purge")
	fs.BoolVar(&mine, "mine", false, "only my posts")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}

	var deleted []string
	if mine {
		deleted, err = recordstore.RemoveAllByUser[example.Post](c.Ctx, s, p)
	} else {
		deleted, err = recordstore.RemoveAll[example.Post](c.Ctx, s, p)
	}
	if err != nil {
		return c.Fail(err)
	}
	return c.Output(map[string]any{"deleted": deleted})
}

// ProfileCommand shows or edits the current user's profile. The profile
// record uses the user record identity as its own identity.
type ProfileCommand struct {
	*Meta
}

func (c *ProfileCommand) Help() string {
	return strings.TrimSpace(`
Usage: recordstore-example profile [options]

  Without options the profile is shown. With options it is created or
  updated.

Options:

	-name=""          Display name
	-email=""         Email address
` + metaHelp)
}

func (c *ProfileCommand) Synopsis() string {
	return "Shows or edits the current user's profile"
}

func (c *ProfileCommand) Run(args []string) int {
	var name, email string
	fs := c.FlagSet("profile")
	fs.StringVar(&name, "name", "", "display name")
	fs.StringVar(&email, "email", "", "email address")

	s, p, err := c.setup(fs, args)
	if err != nil {
		return c.Fail(err)
	}
	uid, err := recordstore.UserRecordID(c.Ctx, s, p)
	if err != nil {
		return c.Fail(err)
	}

	user, err := recordstore.GetByID[example.User](c.Ctx, s, p, uid)
	exists := err == nil
	if err != nil && !storeerrors.IsNullReturn(err) {
		return c.Fail(err)
	}
	if name == "" && email == "" {
		if !exists {
			return c.Fail(fmt.Errorf("no profile for %s", uid))
		}
		return c.Output(user)
	}

	if email != "" {
		if !strfmt.Default.Validates("email", email) {
			return c.Fail(fmt.Errorf("%q is not a valid email address", email))
		}
		user.Email = strfmt.Email(email)
	}
	if name != "" {
		user.DisplayName = name
	}
	if !exists {
		user.ID = uid
		if user, err = recordstore.Create(c.Ctx, s, p, user); err != nil {
			return c.Fail(err)
		}
		return c.Output(user)
	}
	if _, err := recordstore.Update(c.Ctx, s, p, user); err != nil {
		return c.Fail(err)
	}
	return c.Output(user)
}

// TypesCommand lists the registered record types.
type TypesCommand struct {
	*Meta
}

func (c *TypesCommand) Help() string {
	return "Usage: recordstore-example types"
}

func (c *TypesCommand) Synopsis() string {
	return "Lists the registered record types"
}

func (c *TypesCommand) Run(args []string) int {
	types := make([]map[string]string, 0)
	for _, name := range registry.RecordTypes() {
		entry, _ := registry.Lookup(name)
		types = append(types, map[string]string{
			"type":    name,
			"go_type": entry.GoType.String(),
		})
	}
	return c.Output(types)
}

// VersionCommand prints build information.
type VersionCommand struct {
	*Meta
}

func (c *VersionCommand) Help() string {
	return "Usage: recordstore-example version"
}

func (c *VersionCommand) Synopsis() string {
	return "Prints the version"
}

func (c *VersionCommand) Run(args []string) int {
	return c.Output(recordstore.GetVersionInfo())
}
