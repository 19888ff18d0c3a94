package rewardsv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "rewards.v1.RewardsService"

const (
	RewardsService_SetRewardSpeed_FullMethodName = "/rewards.v1.RewardsService/SetRewardSpeed"
	RewardsService_Claim_FullMethodName          = "/rewards.v1.RewardsService/Claim"
	RewardsService_ClaimBatch_FullMethodName     = "/rewards.v1.RewardsService/ClaimBatch"
	RewardsService_GetClaimable_FullMethodName   = "/rewards.v1.RewardsService/GetClaimable"
	RewardsService_GetRewardState_FullMethodName = "/rewards.v1.RewardsService/GetRewardState"
	RewardsService_Pause_FullMethodName          = "/rewards.v1.RewardsService/Pause"
	RewardsService_Resume_FullMethodName         = "/rewards.v1.RewardsService/Resume"
	RewardsService_Migrate_FullMethodName        = "/rewards.v1.RewardsService/Migrate"
	RewardsService_SupplyAsset_FullMethodName    = "/rewards.v1.RewardsService/SupplyAsset"
	RewardsService_WithdrawAsset_FullMethodName  = "/rewards.v1.RewardsService/WithdrawAsset"
	RewardsService_BorrowAsset_FullMethodName    = "/rewards.v1.RewardsService/BorrowAsset"
	RewardsService_RepayAsset_FullMethodName     = "/rewards.v1.RewardsService/RepayAsset"
	RewardsService_GetPosition_FullMethodName    = "/rewards.v1.RewardsService/GetPosition"
)

// RewardsServiceServer is the server API for the rewards service.
type RewardsServiceServer interface {
	SetRewardSpeed(context.Context, *SetRewardSpeedRequest) (*SetRewardSpeedResponse, error)
	Claim(context.Context, *ClaimRequest) (*ClaimResponse, error)
	ClaimBatch(context.Context, *ClaimBatchRequest) (*ClaimBatchResponse, error)
	GetClaimable(context.Context, *GetClaimableRequest) (*GetClaimableResponse, error)
	GetRewardState(context.Context, *GetRewardStateRequest) (*GetRewardStateResponse, error)
	Pause(context.Context, *PauseRequest) (*PauseResponse, error)
	Resume(context.Context, *ResumeRequest) (*ResumeResponse, error)
	Migrate(context.Context, *MigrateRequest) (*MigrateResponse, error)
	SupplyAsset(context.Context, *SupplyAssetRequest) (*SupplyAssetResponse, error)
	WithdrawAsset(context.Context, *WithdrawAssetRequest) (*WithdrawAssetResponse, error)
	BorrowAsset(context.Context, *BorrowAssetRequest) (*BorrowAssetResponse, error)
	RepayAsset(context.Context, *RepayAssetRequest) (*RepayAssetResponse, error)
	GetPosition(context.Context, *GetPositionRequest) (*GetPositionResponse, error)
}

// UnimplementedRewardsServiceServer can be embedded to stay forward
// compatible with methods added later.
type UnimplementedRewardsServiceServer struct{}

func (UnimplementedRewardsServiceServer) SetRewardSpeed(context.Context, *SetRewardSpeedRequest) (*SetRewardSpeedResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SetRewardSpeed not implemented")
}
func (UnimplementedRewardsServiceServer) Claim(context.Context, *ClaimRequest) (*ClaimResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Claim not implemented")
}
func (UnimplementedRewardsServiceServer) ClaimBatch(context.Context, *ClaimBatchRequest) (*ClaimBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ClaimBatch not implemented")
}
func (UnimplementedRewardsServiceServer) GetClaimable(context.Context, *GetClaimableRequest) (*GetClaimableResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetClaimable not implemented")
}
func (UnimplementedRewardsServiceServer) GetRewardState(context.Context, *GetRewardStateRequest) (*GetRewardStateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRewardState not implemented")
}
func (UnimplementedRewardsServiceServer) Pause(context.Context, *PauseRequest) (*PauseResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Pause not implemented")
}
func (UnimplementedRewardsServiceServer) Resume(context.Context, *ResumeRequest) (*ResumeResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Resume not implemented")
}
func (UnimplementedRewardsServiceServer) Migrate(context.Context, *MigrateRequest) (*MigrateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Migrate not implemented")
}
func (UnimplementedRewardsServiceServer) SupplyAsset(context.Context, *SupplyAssetRequest) (*SupplyAssetResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SupplyAsset not implemented")
}
func (UnimplementedRewardsServiceServer) WithdrawAsset(context.Context, *WithdrawAssetRequest) (*WithdrawAssetResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method WithdrawAsset not implemented")
}
func (UnimplementedRewardsServiceServer) BorrowAsset(context.Context, *BorrowAssetRequest) (*BorrowAssetResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BorrowAsset not implemented")
}
func (UnimplementedRewardsServiceServer) RepayAsset(context.Context, *RepayAssetRequest) (*RepayAssetResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RepayAsset not implemented")
}
func (UnimplementedRewardsServiceServer) GetPosition(context.Context, *GetPositionRequest) (*GetPositionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPosition not implemented")
}

// RegisterRewardsServiceServer attaches srv to the gRPC registrar.
func RegisterRewardsServiceServer(s grpc.ServiceRegistrar, srv RewardsServiceServer) {
	s.RegisterService(&RewardsService_ServiceDesc, srv)
}

// unaryHandler builds a method handler that decodes In, routes through the
// interceptor chain and invokes call.
func unaryHandler[In any, Out any](method string, call func(RewardsServiceServer, context.Context, *In) (*Out, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RewardsServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(RewardsServiceServer), ctx, req.(*In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RewardsService_ServiceDesc is the grpc.ServiceDesc for RewardsService.
var RewardsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RewardsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetRewardSpeed", Handler: unaryHandler(RewardsService_SetRewardSpeed_FullMethodName, RewardsServiceServer.SetRewardSpeed)},
		{MethodName: "Claim", Handler: unaryHandler(RewardsService_Claim_FullMethodName, RewardsServiceServer.Claim)},
		{MethodName: "ClaimBatch", Handler: unaryHandler(RewardsService_ClaimBatch_FullMethodName, RewardsServiceServer.ClaimBatch)},
		{MethodName: "GetClaimable", Handler: unaryHandler(RewardsService_GetClaimable_FullMethodName, RewardsServiceServer.GetClaimable)},
		{MethodName: "GetRewardState", Handler: unaryHandler(RewardsService_GetRewardState_FullMethodName, RewardsServiceServer.GetRewardState)},
		{MethodName: "Pause", Handler: unaryHandler(RewardsService_Pause_FullMethodName, RewardsServiceServer.Pause)},
		{MethodName: "Resume", Handler: unaryHandler(RewardsService_Resume_FullMethodName, RewardsServiceServer.Resume)},
		{MethodName: "Migrate", Handler: unaryHandler(RewardsService_Migrate_FullMethodName, RewardsServiceServer.Migrate)},
		{MethodName: "SupplyAsset", Handler: unaryHandler(RewardsService_SupplyAsset_FullMethodName, RewardsServiceServer.SupplyAsset)},
		{MethodName: "WithdrawAsset", Handler: unaryHandler(RewardsService_WithdrawAsset_FullMethodName, RewardsServiceServer.WithdrawAsset)},
		{MethodName: "BorrowAsset", Handler: unaryHandler(RewardsService_BorrowAsset_FullMethodName, RewardsServiceServer.BorrowAsset)},
		{MethodName: "RepayAsset", Handler: unaryHandler(RewardsService_RepayAsset_FullMethodName, RewardsServiceServer.RepayAsset)},
		{MethodName: "GetPosition", Handler: unaryHandler(RewardsService_GetPosition_FullMethodName, RewardsServiceServer.GetPosition)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rewards/v1/rewards.proto",
}

// RewardsServiceClient is the client API for the rewards service.
type RewardsServiceClient interface {
	SetRewardSpeed(ctx context.Context, in *SetRewardSpeedRequest, opts ...grpc.CallOption) (*SetRewardSpeedResponse, error)
	Claim(ctx context.Context, in *ClaimRequest, opts ...grpc.CallOption) (*ClaimResponse, error)
	ClaimBatch(ctx context.Context, in *ClaimBatchRequest, opts ...grpc.CallOption) (*ClaimBatchResponse, error)
	GetClaimable(ctx context.Context, in *GetClaimableRequest, opts ...grpc.CallOption) (*GetClaimableResponse, error)
	GetRewardState(ctx context.Context, in *GetRewardStateRequest, opts ...grpc.CallOption) (*GetRewardStateResponse, error)
	Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error)
	Resume(ctx context.Context, in *ResumeRequest, opts ...grpc.CallOption) (*ResumeResponse, error)
	Migrate(ctx context.Context, in *MigrateRequest, opts ...grpc.CallOption) (*MigrateResponse, error)
	SupplyAsset(ctx context.Context, in *SupplyAssetRequest, opts ...grpc.CallOption) (*SupplyAssetResponse, error)
	WithdrawAsset(ctx context.Context, in *WithdrawAssetRequest, opts ...grpc.CallOption) (*WithdrawAssetResponse, error)
	BorrowAsset(ctx context.Context, in *BorrowAssetRequest, opts ...grpc.CallOption) (*BorrowAssetResponse, error)
	RepayAsset(ctx context.Context, in *RepayAssetRequest, opts ...grpc.CallOption) (*RepayAssetResponse, error)
	GetPosition(ctx context.Context, in *GetPositionRequest, opts ...grpc.CallOption) (*GetPositionResponse, error)
}

type rewardsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRewardsServiceClient wraps a connection. Every call uses the rewards codec.
func NewRewardsServiceClient(cc grpc.ClientConnInterface) RewardsServiceClient {
	return &rewardsServiceClient{cc: cc}
}

func invoke[Out any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Out, error) {
	out := new(Out)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rewardsServiceClient) SetRewardSpeed(ctx context.Context, in *SetRewardSpeedRequest, opts ...grpc.CallOption) (*SetRewardSpeedResponse, error) {
	return invoke[SetRewardSpeedResponse](ctx, c.cc, RewardsService_SetRewardSpeed_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) Claim(ctx context.Context, in *ClaimRequest, opts ...grpc.CallOption) (*ClaimResponse, error) {
	return invoke[ClaimResponse](ctx, c.cc, RewardsService_Claim_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) ClaimBatch(ctx context.Context, in *ClaimBatchRequest, opts ...grpc.CallOption) (*ClaimBatchResponse, error) {
	return invoke[ClaimBatchResponse](ctx, c.cc, RewardsService_ClaimBatch_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) GetClaimable(ctx context.Context, in *GetClaimableRequest, opts ...grpc.CallOption) (*GetClaimableResponse, error) {
	return invoke[GetClaimableResponse](ctx, c.cc, RewardsService_GetClaimable_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) GetRewardState(ctx context.Context, in *GetRewardStateRequest, opts ...grpc.CallOption) (*GetRewardStateResponse, error) {
	return invoke[GetRewardStateResponse](ctx, c.cc, RewardsService_GetRewardState_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error) {
	return invoke[PauseResponse](ctx, c.cc, RewardsService_Pause_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) Resume(ctx context.Context, in *ResumeRequest, opts ...grpc.CallOption) (*ResumeResponse, error) {
	return invoke[ResumeResponse](ctx, c.cc, RewardsService_Resume_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) Migrate(ctx context.Context, in *MigrateRequest, opts ...grpc.CallOption) (*MigrateResponse, error) {
	return invoke[MigrateResponse](ctx, c.cc, RewardsService_Migrate_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) SupplyAsset(ctx context.Context, in *SupplyAssetRequest, opts ...grpc.CallOption) (*SupplyAssetResponse, error) {
	return invoke[SupplyAssetResponse](ctx, c.cc, RewardsService_SupplyAsset_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) WithdrawAsset(ctx context.Context, in *WithdrawAssetRequest, opts ...grpc.CallOption) (*WithdrawAssetResponse, error) {
	return invoke[WithdrawAssetResponse](ctx, c.cc, RewardsService_WithdrawAsset_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) BorrowAsset(ctx context.Context, in *BorrowAssetRequest, opts ...grpc.CallOption) (*BorrowAssetResponse, error) {
	return invoke[BorrowAssetResponse](ctx, c.cc, RewardsService_BorrowAsset_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) RepayAsset(ctx context.Context, in *RepayAssetRequest, opts ...grpc.CallOption) (*RepayAssetResponse, error) {
	return invoke[RepayAssetResponse](ctx, c.cc, RewardsService_RepayAsset_FullMethodName, in, opts)
}

func (c *rewardsServiceClient) GetPosition(ctx context.Context, in *GetPositionRequest, opts ...grpc.CallOption) (*GetPositionResponse, error) {
	return invoke[GetPositionResponse](ctx, c.cc, RewardsService_GetPosition_FullMethodName, in, opts)
}
