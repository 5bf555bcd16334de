package types

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Constrained scanners speak protobuf without a generated schema: both
// transports carry scans as google.protobuf.Struct with the same field
// names as the JSON body.

// ScanRequestFromStruct reads token, gate and action. Missing fields come
// back empty; non-string values are an error.
func ScanRequestFromStruct(s *structpb.Struct) (ScanRequest, error) {
	var req ScanRequest
	for key, dst := range map[string]*string{
		"token":  &req.Token,
		"gate":   &req.Gate,
		"action": &req.Action,
	} {
		v, ok := s.GetFields()[key]
		if !ok {
			continue
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return ScanRequest{}, fmt.Errorf("field %q must be a string", key)
		}
		*dst = sv.StringValue
	}
	return req, nil
}

func (r ScanRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"token":  r.Token,
		"gate":   r.Gate,
		"action": r.Action,
	})
}

// ToStruct mirrors the JSON encoding of the response.
func (r ScanResponse) ToStruct() (*structpb.Struct, error) {
	return toStruct(r)
}

func ScanResponseFromStruct(s *structpb.Struct) (ScanResponse, error) {
	var resp ScanResponse
	b, err := s.MarshalJSON()
	if err != nil {
		return ScanResponse{}, fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return ScanResponse{}, fmt.Errorf("decode scan response: %w", err)
	}
	return resp, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
