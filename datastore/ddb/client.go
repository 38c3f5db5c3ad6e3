/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"
)

// API is the subset of the DynamoDB client used by the provider.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// IdentityAPI resolves the caller identity used as the user record identity.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ClientConfig holds the AWS connection settings.
type ClientConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the DynamoDB endpoint, e.g. DynamoDB Local.
	Endpoint string
}

// LoadAWSConfig loads the AWS configuration. Static credentials are used when
// an access key is set; otherwise the default credential chain applies.
func LoadAWSConfig(ctx context.Context, cc ClientConfig) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if cc.Region != "" {
		opts = append(opts, config.WithRegion(cc.Region))
	}
	if cc.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return cfg, nil
}

// NewDynamoDBClient initializes a DynamoDB client and an STS client sharing
// the same AWS configuration.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig, logger *logrus.Logger) (*sdk.Client, *sts.Client, error) {
	cfg, err := LoadAWSConfig(ctx, cc)
	if err != nil {
		return nil, nil, err
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})
	identity := sts.NewFromConfig(cfg)

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"region":   cfg.Region,
			"endpoint": cc.Endpoint,
		}).Info("DynamoDB client initialized")
	}
	return client, identity, nil
}
