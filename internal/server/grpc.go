package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/export"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
	"github.com/joseph-ayodele/docscan/internal/utils"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "docscan.v1.RecognitionService"

// RecognitionServer is the gRPC surface. Messages are the well-known
// Struct/ListValue/wrapper types, so no generated stubs are needed.
//
//	Scan        Struct{front,back(base64),name,force} -> Struct{records,content_hash,deduplicated,back_error}
//	ScanStream  same request -> stream Struct{progress,side} ... then the Scan reply
//	GetRecord   StringValue(id) -> Struct(record)
//	ListRecords Struct{document_type,from_date,to_date,limit} -> ListValue(records)
//	Export      same filter -> BytesValue(xlsx)
type RecognitionServer struct {
	scans    *scan.Service
	exporter *export.Service
	logger   *slog.Logger
}

func NewRecognitionServer(scans *scan.Service, exporter *export.Service, logger *slog.Logger) *RecognitionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognitionServer{scans: scans, exporter: exporter, logger: logger}
}

// Register adds the service to s.
func Register(s grpc.ServiceRegistrar, srv *RecognitionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func decodeScanRequest(in *structpb.Struct) (scan.Request, error) {
	m := in.AsMap()
	var req scan.Request
	var err error
	if req.Front, err = b64Field(m, "front"); err != nil {
		return req, err
	}
	if req.Back, err = b64Field(m, "back"); err != nil {
		return req, err
	}
	req.Name, _ = m["name"].(string)
	req.Force, _ = m["force"].(bool)
	return req, nil
}

func b64Field(m map[string]any, key string) ([]byte, error) {
	s, _ := m[key].(string)
	if s == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", common.ErrInvalidInput, key)
	}
	return b, nil
}

func encodeScanResult(res scan.Result) (*structpb.Struct, error) {
	recs := make([]any, 0, len(res.Records))
	for _, r := range res.Records {
		recs = append(recs, utils.RecordMap(r))
	}
	m := map[string]any{
		"records":      recs,
		"content_hash": res.ContentHash,
		"deduplicated": res.Deduplicated,
	}
	if res.BackErr != nil {
		m["back_error"] = res.BackErr.Error()
	}
	return structpb.NewStruct(m)
}

func (s *RecognitionServer) Scan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rid := uuid.New().String()
	start := time.Now()
	req, err := decodeScanRequest(in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	res, err := s.scans.Scan(common.WithRequestID(ctx, rid), req)
	if err != nil {
		s.logger.Error("grpc.scan.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.ToStatus(err)
	}
	s.logger.Info("grpc.scan.ok", "req_id", rid, "records", len(res.Records),
		"deduplicated", res.Deduplicated, "elapsed_ms", time.Since(start).Milliseconds())
	out, err := encodeScanResult(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}

// ScanStream sends one message per progress milestone of each side, then
// the Scan reply.
func (s *RecognitionServer) ScanStream(in *structpb.Struct, stream grpc.ServerStream) error {
	req, err := decodeScanRequest(in)
	if err != nil {
		return common.ToStatus(err)
	}
	// Sinks run on the pipeline goroutines; grpc streams allow one sender.
	events := make(chan *structpb.Struct, 64)
	sink := func(side string) func(int) {
		return func(p int) {
			msg, _ := structpb.NewStruct(map[string]any{"side": side, "progress": p})
			events <- msg
		}
	}
	req.FrontSink, req.BackSink = sink("front"), sink("back")

	type outcome struct {
		res scan.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.scans.Scan(stream.Context(), req)
		close(events)
		done <- outcome{res, err}
	}()

	var sendErr error
	for ev := range events {
		if sendErr == nil {
			sendErr = stream.SendMsg(ev)
		}
	}
	o := <-done
	if sendErr != nil {
		return sendErr
	}
	if o.err != nil {
		s.logger.Error("grpc.scan_stream.failed", "error", o.err)
		return common.ToStatus(o.err)
	}
	out, err := encodeScanResult(o.res)
	if err != nil {
		return common.InternalErrorf("encode result: %v", err)
	}
	return stream.SendMsg(out)
}

func (s *RecognitionServer) GetRecord(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	rec, err := s.scans.Get(ctx, in.GetValue())
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("grpc.get_record.failed", "id", in.GetValue(), "error", err)
		}
		return nil, common.ToStatus(err)
	}
	out, err := utils.ToPBRecord(*rec)
	if err != nil {
		return nil, common.InternalErrorf("encode record: %v", err)
	}
	return out, nil
}

func filterFrom(in *structpb.Struct) (docType, from, to string, limit int) {
	m := in.AsMap()
	docType, _ = m["document_type"].(string)
	from, _ = m["from_date"].(string)
	to, _ = m["to_date"].(string)
	if l, ok := m["limit"].(float64); ok {
		limit = int(l)
	}
	return strings.TrimSpace(docType), from, to, limit
}

func (s *RecognitionServer) ListRecords(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	f, err := utils.ParseFilter(filterFrom(in))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	recs, err := s.scans.List(ctx, f)
	if err != nil {
		s.logger.Error("grpc.list_records.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	out, err := utils.ToPBRecords(recs)
	if err != nil {
		return nil, common.InternalErrorf("encode records: %v", err)
	}
	return out, nil
}

func (s *RecognitionServer) Export(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	if s.exporter == nil {
		return nil, common.UnavailableError("export is not configured")
	}
	f, err := utils.ParseFilter(filterFrom(in))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	xlsx, err := s.exporter.ExportXLSX(ctx, f)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(xlsx), nil
}
