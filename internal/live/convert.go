package live

import (
	dyntypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// convertImage maps a stream record image to the dynamodb attribute types
// so the shared attributevalue unmarshaler can decode it. The two unions
// are structurally identical but live in different packages.
func convertImage(in map[string]streamtypes.AttributeValue) map[string]dyntypes.AttributeValue {
	out := make(map[string]dyntypes.AttributeValue, len(in))
	for k, v := range in {
		out[k] = convertAttr(v)
	}
	return out
}

func convertAttr(in streamtypes.AttributeValue) dyntypes.AttributeValue {
	switch v := in.(type) {
	case *streamtypes.AttributeValueMemberS:
		return &dyntypes.AttributeValueMemberS{Value: v.Value}
	case *streamtypes.AttributeValueMemberN:
		return &dyntypes.AttributeValueMemberN{Value: v.Value}
	case *streamtypes.AttributeValueMemberB:
		return &dyntypes.AttributeValueMemberB{Value: v.Value}
	case *streamtypes.AttributeValueMemberBOOL:
		return &dyntypes.AttributeValueMemberBOOL{Value: v.Value}
	case *streamtypes.AttributeValueMemberNULL:
		return &dyntypes.AttributeValueMemberNULL{Value: v.Value}
	case *streamtypes.AttributeValueMemberSS:
		return &dyntypes.AttributeValueMemberSS{Value: v.Value}
	case *streamtypes.AttributeValueMemberNS:
		return &dyntypes.AttributeValueMemberNS{Value: v.Value}
	case *streamtypes.AttributeValueMemberBS:
		return &dyntypes.AttributeValueMemberBS{Value: v.Value}
	case *streamtypes.AttributeValueMemberM:
		return &dyntypes.AttributeValueMemberM{Value: convertImage(v.Value)}
	case *streamtypes.AttributeValueMemberL:
		list := make([]dyntypes.AttributeValue, 0, len(v.Value))
		for _, item := range v.Value {
			list = append(list, convertAttr(item))
		}
		return &dyntypes.AttributeValueMemberL{Value: list}
	default:
		return &dyntypes.AttributeValueMemberNULL{Value: true}
	}
}
