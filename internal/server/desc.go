package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	methodScan        = "/" + ServiceName + "/Scan"
	methodScanStream  = "/" + ServiceName + "/ScanStream"
	methodGetRecord   = "/" + ServiceName + "/GetRecord"
	methodListRecords = "/" + ServiceName + "/ListRecords"
	methodExport      = "/" + ServiceName + "/Export"
)

// recognitionService is the handler type checked by grpc.Server.RegisterService.
type recognitionService interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ScanStream(*structpb.Struct, grpc.ServerStream) error
	GetRecord(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	Export(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

var _ recognitionService = (*RecognitionServer)(nil)

// unary builds a method handler in the shape protoc-gen-go-grpc emits.
func unary[In any, Out any](full string, call func(recognitionService, context.Context, *In) (*Out, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(recognitionService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(recognitionService), ctx, req.(*In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func scanStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(recognitionService).ScanStream(in, stream)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*recognitionService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: unary(methodScan, recognitionService.Scan)},
		{MethodName: "GetRecord", Handler: unary(methodGetRecord, recognitionService.GetRecord)},
		{MethodName: "ListRecords", Handler: unary(methodListRecords, recognitionService.ListRecords)},
		{MethodName: "Export", Handler: unary(methodExport, recognitionService.Export)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ScanStream", Handler: scanStreamHandler, ServerStreams: true},
	},
	Metadata: "docscan/v1/recognition.proto",
}
