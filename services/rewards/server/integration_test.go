package server

import (
	"context"
	"net"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	rewardsv1 "lendrewards/api/rewards/v1"
	"lendrewards/services/rewards/engine"
)

const (
	bufSize     = 1024 * 1024
	testToken   = "secret-token"
	testSecret  = "jwt-signing-secret"
	testAdmin   = "0x00000000000000000000000000000000000000AA"
	testMarket  = "0x0000000000000000000000000000000000000C01"
	testAccount = "0x0000000000000000000000000000000000000A11"
	zeroAddress = "0x0000000000000000000000000000000000000000"
)

func startBufServer(t *testing.T, eng engine.Engine, cfg Config) rewardsv1.RewardsServiceClient {
	t.Helper()
	return startBufServerWithLending(t, eng, nil, cfg)
}

func startBufServerWithLending(t *testing.T, eng engine.Engine, lend engine.Lending, cfg Config) rewardsv1.RewardsServiceClient {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	grpcServer := grpc.NewServer(Interceptors(cfg)...)
	rewardsv1.RegisterRewardsServiceServer(grpcServer, New(eng, lend, nil, NewInterceptorAuthorizer()))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return rewardsv1.NewRewardsServiceClient(conn)
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestIntegration_RewardsService(t *testing.T) {
	t.Parallel()

	var (
		claimCalled  bool
		claimVersion uint32
		speedCaller  string
	)
	eng := &fakeEngine{
		claimFn: func(_ context.Context, version uint32, kind, account string) (engine.Claim, error) {
			claimCalled = true
			claimVersion = version
			if kind != "protocol" || account != testAccount {
				t.Fatalf("unexpected claim args %q %q", kind, account)
			}
			return engine.Claim{Account: account, Kind: kind, Amount: "7907683090", EngineVersion: version, ReceiptID: "r-1"}, nil
		},
		claimableFn: func(_ context.Context, _ uint32, kind, market, account string) (engine.Claimable, error) {
			if market != testMarket {
				t.Fatalf("unexpected market filter %q", market)
			}
			return engine.Claimable{Account: account, Kind: kind, Amount: " "}, nil
		},
		setSpeedFn: func(_ context.Context, caller, market, kind, side, speed string) error {
			speedCaller = caller
			if market != testMarket || side != "supply" || speed != "10000000000000000" {
				t.Fatalf("unexpected speed args %q %q %q", market, side, speed)
			}
			if caller != testAdmin {
				return engine.ErrUnauthorized
			}
			return nil
		},
		marketStateFn: func(_ context.Context, market string) (engine.MarketState, error) {
			return engine.MarketState{
				Market:        market,
				EngineVersion: 2,
				FrozenAt:      0,
				Streams: []engine.Stream{
					{Kind: "protocol", Side: "supply", Speed: "1", Index: "1000000000000000000000000000000000000", Tick: 101, Initialized: true},
				},
			}, nil
		},
	}

	client := startBufServer(t, eng, Config{APITokens: []string{testToken}, JWTSecret: testSecret})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Claim(ctx, &rewardsv1.ClaimRequest{Kind: "protocol", Account: testAccount})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated claim, got %v", err)
	}

	claimable, err := client.GetClaimable(ctx, &rewardsv1.GetClaimableRequest{Kind: "protocol", Market: testMarket, Account: testAccount})
	if err != nil {
		t.Fatalf("get claimable: %v", err)
	}
	if claimable.Amount != "0" {
		t.Fatalf("expected blank amount normalised to 0, got %q", claimable.Amount)
	}

	tokenCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+testToken)
	resp, err := client.Claim(tokenCtx, &rewardsv1.ClaimRequest{Kind: "protocol", Account: testAccount, EngineVersion: 1})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimCalled || resp.GetResult().Amount != "7907683090" || resp.GetResult().ReceiptID != "r-1" {
		t.Fatalf("unexpected claim response %+v", resp.GetResult())
	}
	if claimVersion != 1 || resp.GetResult().EngineVersion != 1 {
		t.Fatalf("expected claim routed to engine v1, got %d / %d", claimVersion, resp.GetResult().EngineVersion)
	}

	speedReq := &rewardsv1.SetRewardSpeedRequest{Market: testMarket, Kind: "protocol", Side: "supply", Speed: "10000000000000000"}
	_, err = client.SetRewardSpeed(tokenCtx, speedReq)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected permission denied for anonymous caller, got %v", err)
	}
	if speedCaller != zeroAddress {
		t.Fatalf("expected zero caller for api token, got %q", speedCaller)
	}

	adminCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+signedToken(t, testAdmin))
	if _, err := client.SetRewardSpeed(adminCtx, speedReq); err != nil {
		t.Fatalf("admin set speed: %v", err)
	}
	if speedCaller != testAdmin {
		t.Fatalf("expected jwt subject as caller, got %q", speedCaller)
	}

	state, err := client.GetRewardState(ctx, &rewardsv1.GetRewardStateRequest{Market: testMarket})
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.EngineVersion != 2 || len(state.Streams) != 1 || state.Streams[0].Tick != 101 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestClaimBatchReportsPerAccountErrors(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{
		claimBatchFn: func(_ context.Context, _ uint32, kind string, accounts []string) ([]engine.Claim, error) {
			return []engine.Claim{
				{Account: accounts[0], Kind: kind, Amount: "5"},
				{Account: accounts[1], Kind: kind, Amount: "0", Err: engine.ErrInsufficientFunds},
			}, nil
		},
	}
	client := startBufServer(t, eng, Config{APITokens: []string{testToken}})
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-token", testToken)

	resp, err := client.ClaimBatch(ctx, &rewardsv1.ClaimBatchRequest{Kind: "protocol", Accounts: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results got %d", len(resp.Results))
	}
	if resp.Results[0].Error != "" || resp.Results[0].Amount != "5" {
		t.Fatalf("unexpected first result %+v", resp.Results[0])
	}
	if resp.Results[1].Error != "insufficient reward token balance" {
		t.Fatalf("unexpected second error %q", resp.Results[1].Error)
	}

	_, err = client.ClaimBatch(ctx, &rewardsv1.ClaimBatchRequest{Kind: "protocol"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for empty batch, got %v", err)
	}
}

func TestClaimRateLimit(t *testing.T) {
	t.Parallel()

	client := startBufServer(t, &fakeEngine{}, Config{APITokens: []string{testToken}, ClaimsPerMinute: 1})
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-token", testToken)

	req := &rewardsv1.ClaimRequest{Kind: "protocol", Account: testAccount}
	if _, err := client.Claim(ctx, req); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := client.Claim(ctx, req); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected rate limit, got %v", err)
	}
	// Queries are never throttled.
	if _, err := client.GetClaimable(ctx, &rewardsv1.GetClaimableRequest{Kind: "protocol", Account: testAccount}); err != nil {
		t.Fatalf("claimable after throttle: %v", err)
	}
}

func TestAuthNotConfiguredRejectsMsgRPCs(t *testing.T) {
	t.Parallel()

	client := startBufServer(t, &fakeEngine{}, Config{})
	_, err := client.Pause(context.Background(), &rewardsv1.PauseRequest{})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestJWTRejectsBadSignatureAndSubject(t *testing.T) {
	t.Parallel()

	a := newAuthenticator(AuthConfig{JWTSecret: testSecret})
	if _, err := a.parseCaller(signedToken(t, testAdmin)); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if _, err := a.parseCaller(signedToken(t, "alice")); err == nil {
		t.Fatalf("expected non-address subject to be rejected")
	}
	other := newAuthenticator(AuthConfig{JWTSecret: "different"})
	if _, err := other.parseCaller(signedToken(t, testAdmin)); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}
}

func TestLendingRPCs(t *testing.T) {
	t.Parallel()

	var supplied []string
	lend := &fakeLending{
		supplyFn: func(_ context.Context, account, market, amount string) error {
			supplied = append(supplied, account+"/"+market+"/"+amount)
			return nil
		},
		borrowFn: func(context.Context, string, string, string) error {
			return engine.ErrInsufficientBalance
		},
		repayFn: func(context.Context, string, string, string) (string, error) {
			return "", nil
		},
		positionFn: func(_ context.Context, market, account string) (engine.Position, error) {
			return engine.Position{Market: market, Account: account, Supply: "7907683090"}, nil
		},
	}
	client := startBufServerWithLending(t, &fakeEngine{}, lend, Config{APITokens: []string{testToken}})
	ctx := context.Background()
	tokenCtx := metadata.AppendToOutgoingContext(ctx, "x-api-token", testToken)

	req := &rewardsv1.SupplyAssetRequest{Account: testAccount, Market: testMarket, Amount: "7907683090"}
	if _, err := client.SupplyAsset(ctx, req); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated supply, got %v", err)
	}
	if _, err := client.SupplyAsset(tokenCtx, req); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if len(supplied) != 1 || supplied[0] != testAccount+"/"+testMarket+"/7907683090" {
		t.Fatalf("unexpected supply calls %v", supplied)
	}
	if _, err := client.SupplyAsset(tokenCtx, &rewardsv1.SupplyAssetRequest{Account: testAccount, Market: testMarket}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for missing amount, got %v", err)
	}

	_, err := client.BorrowAsset(tokenCtx, req)
	if status.Code(err) != codes.FailedPrecondition || status.Convert(err).Message() != "insufficient balance" {
		t.Fatalf("expected failed precondition on borrow, got %v", err)
	}

	repaid, err := client.RepayAsset(tokenCtx, req)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if repaid.Repaid != "0" {
		t.Fatalf("expected blank repaid normalised to 0, got %q", repaid.Repaid)
	}

	pos, err := client.GetPosition(ctx, &rewardsv1.GetPositionRequest{Market: testMarket, Account: testAccount})
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.Supply != "7907683090" || pos.Borrow != "0" {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestLendingRPCsWithoutLedger(t *testing.T) {
	t.Parallel()

	client := startBufServer(t, &fakeEngine{}, Config{APITokens: []string{testToken}})
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-token", testToken)
	_, err := client.WithdrawAsset(ctx, &rewardsv1.WithdrawAssetRequest{Account: testAccount, Market: testMarket, Amount: "1"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}
