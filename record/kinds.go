/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var unmarshalerType = reflect.TypeOf((*attributevalue.Unmarshaler)(nil)).Elem()

// kindMismatch reports why av cannot hold a value of type t, or "" when it
// can. attributevalue converts numbers into string targets without
// complaint, so scalar kinds are matched against the attribute member first.
// Struct, collection and custom decoded types are left to attributevalue.
func kindMismatch(av types.AttributeValue, t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return ""
	}

	var want string
	switch t.Kind() {
	case reflect.String:
		if _, ok := av.(*types.AttributeValueMemberS); !ok {
			want = "string"
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if _, ok := av.(*types.AttributeValueMemberN); !ok {
			want = "number"
		}
	case reflect.Bool:
		if _, ok := av.(*types.AttributeValueMemberBOOL); !ok {
			want = "boolean"
		}
	}
	if want == "" {
		return ""
	}
	return fmt.Sprintf("expected a %s, got %s", want, memberName(av))
}

// structMismatch checks the top level fields of a struct type against fields.
// It returns the offending attribute name and the reason.
func structMismatch(fields map[string]types.AttributeValue, t reflect.Type) (string, string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || reflect.PointerTo(t).Implements(unmarshalerType) {
		return "", ""
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("dynamodbav")
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && tag == "" {
			if n, why := structMismatch(fields, f.Type); why != "" {
				return n, why
			}
			continue
		}
		if name == "" {
			name = f.Name
		}
		av, ok := fields[name]
		if !ok || isNull(av) {
			continue
		}
		if why := kindMismatch(av, f.Type); why != "" {
			return name, why
		}
	}
	return "", ""
}

func memberName(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	}
	return fmt.Sprintf("%T", av)
}
