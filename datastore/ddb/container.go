/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/storagemodels"
)

// Container is one DynamoDB table holding a public scope and one private
// scope per user.
type Container struct {
	provider *Provider
	id       string
	table    string
}

// Identifier returns the container identifier.
func (c *Container) Identifier() string {
	return c.id
}

// Table returns the table backing the container.
func (c *Container) Table() string {
	return c.table
}

// PublicDatabase returns the scope shared by every user.
func (c *Container) PublicDatabase() datastore.Database {
	return &Database{container: c, public: true}
}

// PrivateDatabase returns the current user's scope.
func (c *Container) PrivateDatabase() datastore.Database {
	return &Database{container: c}
}

// UserRecordID returns the configured user identity, or the ARN of the STS
// caller identity. A resolved ARN is reused for the life of the provider.
func (c *Container) UserRecordID(ctx context.Context) (string, error) {
	p := c.provider
	if p.cfg.UserRecordID != "" {
		return p.cfg.UserRecordID, nil
	}
	if id := p.cachedCallerID(); id != "" {
		return id, nil
	}
	if p.identity == nil {
		return "", datastore.ErrNoAccount
	}

	out, err := p.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("GetCallerIdentity failed: %w", err)
	}
	arn := aws.ToString(out.Arn)
	if arn == "" {
		return "", datastore.ErrNoAccount
	}
	p.setCallerID(arn)
	return arn, nil
}

// AccountStatus classifies the outcome of resolving the caller identity.
func (c *Container) AccountStatus(ctx context.Context) (storagemodels.AccountStatus, error) {
	_, err := c.UserRecordID(ctx)
	switch {
	case err == nil:
		return storagemodels.Available, nil
	case ctx.Err() != nil:
		return storagemodels.CouldNotDetermine, ctx.Err()
	case errors.Is(err, datastore.ErrNoAccount):
		return storagemodels.NoAccount, nil
	}

	c.provider.logger.WithError(err).WithField("container", c.id).Debug("identity check failed")
	return accountStatusOf(err), nil
}

func accountStatusOf(err error) storagemodels.AccountStatus {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return storagemodels.CouldNotDetermine
	}
	switch ae.ErrorCode() {
	case "AccessDenied", "AccessDeniedException":
		return storagemodels.Restricted
	case "ExpiredToken", "ExpiredTokenException", "InvalidClientTokenId",
		"UnrecognizedClientException", "SignatureDoesNotMatch", "MissingAuthenticationToken":
		return storagemodels.NoAccount
	case "Throttling", "ThrottlingException", "RequestLimitExceeded", "ServiceUnavailable":
		return storagemodels.TemporarilyUnavailable
	}
	return storagemodels.CouldNotDetermine
}
