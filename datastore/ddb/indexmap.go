/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IndexConfig names the secondary index used for type queries.
type IndexConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName is the GSI partition key attribute (e.g., "GSI1PK")
	PartitionKeyName string
	// SortKeyName is the GSI sort key attribute (e.g., "GSI1SK")
	SortKeyName string
}

// DefaultIndexConfig is the type index of the default table layout.
var DefaultIndexConfig = IndexConfig{
	IndexName:        "GSI1",
	PartitionKeyName: "GSI1PK",
	SortKeyName:      "GSI1SK",
}

// Table key attribute names.
const (
	PartitionKeyName = "PK"
	SortKeyName      = "SK"
)

// Scope prefixes in key values.
const (
	publicScope  = "PUBLIC"
	privateScope = "PRIVATE#"
)

// keyFields are the values available to index map macros.
type keyFields struct {
	Scope      string `dynamodbav:"Scope"`
	EntityType string `dynamodbav:"EntityType"`
	RecordID   string `dynamodbav:"RecordID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	ModifiedAt string `dynamodbav:"ModifiedAt"`
}

// indexMap builds the key templates for a type index:
//
//	PK, SK  {Scope}#REC#{RecordID}
//	GSI PK  {Scope}#TYPE#{EntityType}
//	GSI SK  {CreatedAt}#{ModifiedAt}#{RecordID}
func indexMap(idx IndexConfig) map[string]string {
	return map[string]string{
		PartitionKeyName:     "{Scope}#REC#{RecordID}",
		SortKeyName:          "{Scope}#REC#{RecordID}",
		idx.PartitionKeyName: "{Scope}#TYPE#{EntityType}",
		idx.SortKeyName:      "{CreatedAt}#{ModifiedAt}#{RecordID}",
	}
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	// Convert keysInput to a map of attribute values
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		var missing []string
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")

			val, ok := av[key]
			if !ok {
				missing = append(missing, key)
				return ""
			}

			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				if tv.Value == "" {
					missing = append(missing, key)
				}
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				missing = append(missing, key)
				return ""
			}
		})
		if len(missing) > 0 {
			return nil, fmt.Errorf("key %s: no value for %s", fieldName, strings.Join(missing, ", "))
		}
		res[fieldName] = expanded
	}

	return res, nil
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
// It assumes that the expanded map has valid non-empty values for "PK" and "SK".
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded[PartitionKeyName]
	sk, okSK := expanded[SortKeyName]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		PartitionKeyName: &types.AttributeValueMemberS{Value: pk},
		SortKeyName:      &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// primaryKeyMap restricts an index map to the table key templates.
func primaryKeyMap(indexMap map[string]string) map[string]string {
	return map[string]string{
		PartitionKeyName: indexMap[PartitionKeyName],
		SortKeyName:      indexMap[SortKeyName],
	}
}
