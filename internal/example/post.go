/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package example

import (
	"fmt"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordstore"
	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/record"
)

// PostRecordType is the record type tag of Post.
const PostRecordType = "Post"

// Post field names.
const (
	FieldName              = "name"
	FieldSimpleDescription = "simpleDescription"
	FieldLink              = "link"
)

// DefaultDescription is used when a stored post has no description.
const DefaultDescription = ""

// Post is a titled entry with an optional description and image link.
type Post struct {
	ID                string          `yaml:"id,omitempty"`
	Name              string          `yaml:"name"`
	SimpleDescription string          `yaml:"simple_description,omitempty"`
	Link              strfmt.URI      `yaml:"link,omitempty"`
	Author            string          `yaml:"author,omitempty"`
	CreatedAt         strfmt.DateTime `yaml:"created_at"`
	ModifiedAt        strfmt.DateTime `yaml:"modified_at"`
}

func (Post) RecordType() string { return PostRecordType }

func (p Post) RecordID() string { return p.ID }

func (Post) Mapper() recordstore.Mapper[Post] { return postMapper{} }

// Validate checks the formats of the post's fields.
func (p Post) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("post name is required")
	}
	if p.Link != "" && !strfmt.Default.Validates("uri", p.Link.String()) {
		return fmt.Errorf("post link %q is not a valid URI", p.Link)
	}
	return nil
}

// postMapper reads name as required; description and link fall back to
// defaults when absent.
type postMapper struct{}

func (postMapper) FromRecord(rec *record.Record) (Post, error) {
	rd := record.NewReader(rec).ExpectType(PostRecordType)
	p := Post{
		ID:                rec.ID,
		Name:              record.Read[string](rd, FieldName),
		SimpleDescription: record.ReadOptional(rd, FieldSimpleDescription, DefaultDescription),
		Link:              strfmt.URI(record.ReadOptional(rd, FieldLink, "")),
		Author:            rec.CreatorID,
		CreatedAt:         strfmt.DateTime(rec.CreatedAt),
		ModifiedAt:        strfmt.DateTime(rec.ModifiedAt),
	}
	if err := rd.Err(); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (postMapper) ToRecord(p Post) (*record.Record, error) {
	rec := record.From(PostRecordType, p.ID)
	if err := rec.Set(FieldName, p.Name); err != nil {
		return nil, storeerrors.NewParsingError(PostRecordType, FieldName, err.Error())
	}
	if err := rec.Set(FieldSimpleDescription, p.SimpleDescription); err != nil {
		return nil, storeerrors.NewParsingError(PostRecordType, FieldSimpleDescription, err.Error())
	}
	if p.Link != "" {
		if err := rec.Set(FieldLink, p.Link.String()); err != nil {
			return nil, storeerrors.NewParsingError(PostRecordType, FieldLink, err.Error())
		}
	}
	return rec, nil
}
