package dynamodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// encodeCursor creates an opaque cursor from DynamoDB's LastEvaluatedKey
func encodeCursor(lastEvaluatedKey map[string]types.AttributeValue) string {
	if len(lastEvaluatedKey) == 0 {
		return ""
	}

	plain := make(map[string]string, len(lastEvaluatedKey))
	if err := attributevalue.UnmarshalMap(lastEvaluatedKey, &plain); err != nil {
		return ""
	}
	jsonData, err := json.Marshal(plain)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonData)
}

// decodeCursor decodes an opaque cursor back to an ExclusiveStartKey
func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	jsonData, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	var plain map[string]string
	if err := json.Unmarshal(jsonData, &plain); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}
	return attributevalue.MarshalMap(plain)
}
