package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

// maxRequestBody bounds every request body, JSON or protobuf. The largest
// legitimate one is a scan: a sealed pass token, a gate and an action.
const maxRequestBody = 4096

// protobufContentType is what gate scanners send and get back when they
// speak the binary scan encoding: a google.protobuf.Struct carrying the
// same fields as the JSON body.
const protobufContentType = "application/x-protobuf"

// wantsProtobuf reports whether a scanner posted the binary encoding.
// Media type parameters are ignored.
func wantsProtobuf(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == protobufContentType || mt == "application/protobuf"
}

// decodeScanProto reads a Struct-encoded scan. Bodies over maxRequestBody
// are refused rather than truncated.
func decodeScanProto(w http.ResponseWriter, r *http.Request) (types.ScanRequest, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return types.ScanRequest{}, fmt.Errorf("read scan body: %w", err)
	}
	var body structpb.Struct
	if err := proto.Unmarshal(raw, &body); err != nil {
		return types.ScanRequest{}, fmt.Errorf("invalid protobuf body: %w", err)
	}
	return types.ScanRequestFromStruct(&body)
}

func writeScanProto(w http.ResponseWriter, status int, resp types.ScanResponse) {
	msg, err := resp.ToStruct()
	if err == nil {
		var data []byte
		if data, err = proto.Marshal(msg); err == nil {
			w.Header().Set("Content-Type", protobufContentType)
			w.WriteHeader(status)
			_, _ = w.Write(data)
			return
		}
	}
	http.Error(w, "encode scan response", http.StatusInternalServerError)
}
