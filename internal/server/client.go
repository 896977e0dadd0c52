package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/utils"
)

// Client calls a RecognitionServer.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ScanReply is the decoded Scan response.
type ScanReply struct {
	Records      []entity.Record
	ContentHash  string
	Deduplicated bool
	BackError    string
}

// Filter mirrors the ListRecords/Export request. Dates are YYYY-MM-DD.
type Filter struct {
	DocumentType string
	FromDate     string
	ToDate       string
	Limit        int
}

func (f Filter) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"document_type": f.DocumentType,
		"from_date":     f.FromDate,
		"to_date":       f.ToDate,
		"limit":         f.Limit,
	})
}

func scanRequest(name string, front, back []byte, force bool) (*structpb.Struct, error) {
	m := map[string]any{
		"name":  name,
		"front": base64.StdEncoding.EncodeToString(front),
		"force": force,
	}
	if len(back) > 0 {
		m["back"] = base64.StdEncoding.EncodeToString(back)
	}
	return structpb.NewStruct(m)
}

func decodeScanReply(out *structpb.Struct) (ScanReply, error) {
	m := out.GetFields()
	reply := ScanReply{
		ContentHash:  m["content_hash"].GetStringValue(),
		Deduplicated: m["deduplicated"].GetBoolValue(),
		BackError:    m["back_error"].GetStringValue(),
	}
	for _, v := range m["records"].GetListValue().GetValues() {
		rec, err := utils.FromPBRecord(v.GetStructValue())
		if err != nil {
			return reply, err
		}
		reply.Records = append(reply.Records, rec)
	}
	return reply, nil
}

func (c *Client) Scan(ctx context.Context, name string, front, back []byte, force bool) (ScanReply, error) {
	in, err := scanRequest(name, front, back, force)
	if err != nil {
		return ScanReply{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodScan, in, out); err != nil {
		return ScanReply{}, err
	}
	return decodeScanReply(out)
}

// ScanStream is Scan with progress: onProgress gets each milestone and its side.
func (c *Client) ScanStream(ctx context.Context, name string, front, back []byte, force bool, onProgress func(side string, p int)) (ScanReply, error) {
	in, err := scanRequest(name, front, back, force)
	if err != nil {
		return ScanReply{}, err
	}
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], methodScanStream)
	if err != nil {
		return ScanReply{}, err
	}
	if err := stream.SendMsg(in); err != nil {
		return ScanReply{}, err
	}
	if err := stream.CloseSend(); err != nil {
		return ScanReply{}, err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return ScanReply{}, fmt.Errorf("scan stream ended without a result")
			}
			return ScanReply{}, err
		}
		f := msg.GetFields()
		if p, ok := f["progress"]; ok {
			if onProgress != nil {
				onProgress(f["side"].GetStringValue(), int(p.GetNumberValue()))
			}
			continue
		}
		return decodeScanReply(msg)
	}
}

func (c *Client) GetRecord(ctx context.Context, id string) (entity.Record, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetRecord, wrapperspb.String(id), out); err != nil {
		return entity.Record{}, err
	}
	return utils.FromPBRecord(out)
}

func (c *Client) ListRecords(ctx context.Context, f Filter) ([]entity.Record, error) {
	in, err := f.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListRecords, in, out); err != nil {
		return nil, err
	}
	recs := make([]entity.Record, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		rec, err := utils.FromPBRecord(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (c *Client) Export(ctx context.Context, f Filter) ([]byte, error) {
	in, err := f.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodExport, in, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}
