package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// GenerationClient calls a remote GenerationService.
type GenerationClient struct {
	startRun *connect.Client[StartRunRequest, RunEvent]
	sendTurn *connect.Client[SendTurnRequest, RunEvent]
	closeRun *connect.Client[CloseRunRequest, CloseRunResponse]
	getRun   *connect.Client[GetRunRequest, GetRunResponse]
}

func NewGenerationClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GenerationClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &GenerationClient{
		startRun: connect.NewClient[StartRunRequest, RunEvent](httpClient, baseURL+StartRunProcedure, opts...),
		sendTurn: connect.NewClient[SendTurnRequest, RunEvent](httpClient, baseURL+SendTurnProcedure, opts...),
		closeRun: connect.NewClient[CloseRunRequest, CloseRunResponse](httpClient, baseURL+CloseRunProcedure, opts...),
		getRun:   connect.NewClient[GetRunRequest, GetRunResponse](httpClient, baseURL+GetRunProcedure, opts...),
	}
}

func (c *GenerationClient) StartRun(ctx context.Context, req *StartRunRequest) (*connect.ServerStreamForClient[RunEvent], error) {
	return c.startRun.CallServerStream(ctx, connect.NewRequest(req))
}

func (c *GenerationClient) SendTurn(ctx context.Context, req *SendTurnRequest) (*connect.ServerStreamForClient[RunEvent], error) {
	return c.sendTurn.CallServerStream(ctx, connect.NewRequest(req))
}

func (c *GenerationClient) CloseRun(ctx context.Context, req *CloseRunRequest) (*CloseRunResponse, error) {
	res, err := c.closeRun.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *GenerationClient) GetRun(ctx context.Context, req *GetRunRequest) (*GetRunResponse, error) {
	res, err := c.getRun.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
