package client

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	rewardsv1 "lendrewards/api/rewards/v1"
)

// Client provides a thin wrapper around the rewards service gRPC API.
type Client struct {
	conn  *grpc.ClientConn
	api   rewardsv1.RewardsServiceClient
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithBearerToken attaches an API token or signed JWT to every Msg call.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// Dial initialises a client connection to the rewards service endpoint.
func Dial(target string, dialOpts []grpc.DialOption, opts ...Option) (*Client, error) {
	if len(dialOpts) == 0 {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, api: rewardsv1.NewRewardsServiceClient(conn)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Raw exposes the service client for advanced usage.
func (c *Client) Raw() rewardsv1.RewardsServiceClient {
	if c == nil {
		return nil
	}
	return c.api
}

func (c *Client) authed(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// Claimable previews an account's claimable amount. market may be empty and
// a zero version targets the active engine.
func (c *Client) Claimable(ctx context.Context, version uint32, kind, market, account string) (*rewardsv1.GetClaimableResponse, error) {
	return c.api.GetClaimable(ctx, &rewardsv1.GetClaimableRequest{Kind: kind, Market: market, Account: account, EngineVersion: version})
}

// Claim pays out one account.
func (c *Client) Claim(ctx context.Context, version uint32, kind, account string) (*rewardsv1.ClaimResult, error) {
	resp, err := c.api.Claim(c.authed(ctx), &rewardsv1.ClaimRequest{Kind: kind, Account: account, EngineVersion: version})
	if err != nil {
		return nil, err
	}
	return resp.GetResult(), nil
}

// ClaimBatch pays out many accounts.
func (c *Client) ClaimBatch(ctx context.Context, version uint32, kind string, accounts []string) ([]*rewardsv1.ClaimResult, error) {
	resp, err := c.api.ClaimBatch(c.authed(ctx), &rewardsv1.ClaimBatchRequest{Kind: kind, Accounts: accounts, EngineVersion: version})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SetRewardSpeed configures a stream; the token must identify the admin.
func (c *Client) SetRewardSpeed(ctx context.Context, market, kind, side, speed string) error {
	_, err := c.api.SetRewardSpeed(c.authed(ctx), &rewardsv1.SetRewardSpeedRequest{Market: market, Kind: kind, Side: side, Speed: speed})
	return err
}

// State fetches every stream of a market.
func (c *Client) State(ctx context.Context, market string) (*rewardsv1.GetRewardStateResponse, error) {
	return c.api.GetRewardState(ctx, &rewardsv1.GetRewardStateRequest{Market: market})
}

// SetPaused pauses or resumes claims and returns the resulting state.
func (c *Client) SetPaused(ctx context.Context, paused bool) (bool, error) {
	if paused {
		resp, err := c.api.Pause(c.authed(ctx), &rewardsv1.PauseRequest{})
		if err != nil {
			return false, err
		}
		return resp.Paused, nil
	}
	resp, err := c.api.Resume(c.authed(ctx), &rewardsv1.ResumeRequest{})
	if err != nil {
		return false, err
	}
	return resp.Paused, nil
}

// Migrate switches the service to a fresh engine version.
func (c *Client) Migrate(ctx context.Context) (*rewardsv1.MigrateResponse, error) {
	return c.api.Migrate(c.authed(ctx), &rewardsv1.MigrateRequest{})
}

// Supply deposits liquidity for account in market.
func (c *Client) Supply(ctx context.Context, account, market, amount string) error {
	_, err := c.api.SupplyAsset(c.authed(ctx), &rewardsv1.SupplyAssetRequest{Account: account, Market: market, Amount: amount})
	return err
}

// Withdraw redeems supplied liquidity.
func (c *Client) Withdraw(ctx context.Context, account, market, amount string) error {
	_, err := c.api.WithdrawAsset(c.authed(ctx), &rewardsv1.WithdrawAssetRequest{Account: account, Market: market, Amount: amount})
	return err
}

// Borrow draws debt from market.
func (c *Client) Borrow(ctx context.Context, account, market, amount string) error {
	_, err := c.api.BorrowAsset(c.authed(ctx), &rewardsv1.BorrowAssetRequest{Account: account, Market: market, Amount: amount})
	return err
}

// Repay settles debt and returns the amount actually repaid.
func (c *Client) Repay(ctx context.Context, account, market, amount string) (string, error) {
	resp, err := c.api.RepayAsset(c.authed(ctx), &rewardsv1.RepayAssetRequest{Account: account, Market: market, Amount: amount})
	if err != nil {
		return "", err
	}
	return resp.GetRepaid(), nil
}

// Position fetches account balances in market.
func (c *Client) Position(ctx context.Context, market, account string) (*rewardsv1.GetPositionResponse, error) {
	return c.api.GetPosition(ctx, &rewardsv1.GetPositionRequest{Market: market, Account: account})
}
