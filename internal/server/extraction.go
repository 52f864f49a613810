// Package server hosts the gRPC surface of the ticket ingestion service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

const (
	ExtractionServiceName = "ticketingest.v1.ExtractionService"
	ExtractFullMethod     = "/" + ExtractionServiceName + "/Extract"
)

// ExtractionServer runs field extraction over already-recognized page text.
// Requests and responses are google.protobuf.Struct messages:
//
//	request:  {"pages": ["..."], "text": "...", "mode": "multipage|legacy"}
//	response: {"mode": "...", "recovered": false, "fallback_fields": [...],
//	           "fields": {"<key>": {"value": ..., "status": "matched"}}}
type ExtractionServer interface {
	Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionServiceDesc is registered by hand; the messages are well-known types.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketingest/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).Extract(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionClient calls ExtractionService over conn.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExtractFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractionService implements ExtractionServer on top of the field extractor.
type ExtractionService struct {
	fx     extract.FieldExtractor
	fields *fields.Store
	logger *slog.Logger
}

var _ ExtractionServer = (*ExtractionService)(nil)

// NewExtractionService wires fx. A nil store means the default field configuration.
func NewExtractionService(fx extract.FieldExtractor, store *fields.Store, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{fx: fx, fields: store, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pages, mode, err := decodeExtractRequest(in)
	if err != nil {
		s.logger.Warn("grpc.extract.invalid", "error", err)
		return nil, common.StatusError(err)
	}
	cfg := fields.Default()
	if s.fields != nil {
		cfg = s.fields.Snapshot()
	}

	res := s.fx.Extract(pages, mode, cfg)
	out, err := encodeResult(res)
	if err != nil {
		s.logger.Error("grpc.extract.encode_failed", "error", err)
		return nil, common.StatusError(common.NewAppError("INTERNAL", "encode result", fmt.Errorf("%w: %w", common.ErrInternal, err)))
	}
	s.logger.Info("grpc.extract.ok", "pages", len(pages), "mode", res.Mode, "fields", len(res.Fields), "recovered", res.Recovered)
	return out, nil
}

func invalid(msg string) error {
	return common.NewAppError("INVALID_ARGUMENT", msg, common.ErrInvalidInput)
}

func decodeExtractRequest(in *structpb.Struct) ([]string, extract.Mode, error) {
	var pages []string
	if v, ok := in.GetFields()["pages"]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, "", invalid("pages must be a list of strings")
		}
		for _, p := range list.GetValues() {
			sv, ok := p.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, "", invalid("pages must be a list of strings")
			}
			pages = append(pages, sv.StringValue)
		}
	}
	if len(pages) == 0 {
		if text := in.GetFields()["text"].GetStringValue(); text != "" {
			pages = []string{text}
		}
	}
	if len(pages) == 0 {
		return nil, "", invalid("pages is required")
	}

	mode, err := extract.ParseMode(in.GetFields()["mode"].GetStringValue())
	if err != nil {
		return nil, "", invalid(err.Error())
	}
	return pages, mode, nil
}

func encodeResult(res extract.Result) (*structpb.Struct, error) {
	fs := make(map[string]any, len(res.Fields))
	for _, f := range extract.All() {
		fr, ok := res.Fields[f]
		if !ok || !fr.Present() {
			continue
		}
		fs[string(f)] = map[string]any{
			"value":  wireValue(fr.Value),
			"status": fr.Status.String(),
		}
	}
	fallbacks := []any{}
	for _, f := range res.Fallbacks() {
		fallbacks = append(fallbacks, string(f))
	}
	return structpb.NewStruct(map[string]any{
		"mode":            string(res.Mode),
		"recovered":       res.Recovered,
		"fallback_fields": fallbacks,
		"fields":          fs,
	})
}

func wireValue(v extract.Value) any {
	switch v.Kind {
	case extract.KindNumber:
		return v.Num
	case extract.KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Str
	}
}
