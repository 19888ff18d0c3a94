package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	rewardsv1 "lendrewards/api/rewards/v1"
)

// AuthConfig lists the authenticators accepted on mutating RPCs.
type AuthConfig struct {
	APITokens        []string
	AllowedClientCNs []string
	MTLSRequired     bool
	// JWTSecret enables HMAC bearer tokens whose subject is the caller address.
	JWTSecret string
	JWTIssuer string
	ClockSkew time.Duration
}

type authContextKey struct{}

type callerContextKey struct{}

// NewAuthInterceptors constructs unary and stream interceptors that enforce
// authentication on Msg RPCs. Requests must present a configured API token,
// a signed JWT, or an mTLS client certificate with an allowed common name.
func NewAuthInterceptors(cfg AuthConfig) (grpc.UnaryServerInterceptor, grpc.StreamServerInterceptor) {
	authenticator := newAuthenticator(cfg)
	return authenticator.unaryInterceptor(), authenticator.streamInterceptor()
}

func markAuthenticated(ctx context.Context) context.Context {
	return context.WithValue(ctx, authContextKey{}, true)
}

func isAuthenticated(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	value, ok := ctx.Value(authContextKey{}).(bool)
	return ok && value
}

// WithCaller attaches the authenticated caller address to ctx.
func WithCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller established by a JWT, if any.
func CallerFromContext(ctx context.Context) (common.Address, bool) {
	if ctx == nil {
		return common.Address{}, false
	}
	caller, ok := ctx.Value(callerContextKey{}).(common.Address)
	return caller, ok
}

type authenticator struct {
	tokens       map[string]struct{}
	commonNames  map[string]struct{}
	secret       []byte
	issuer       string
	skew         time.Duration
	allowByToken bool
	allowByMTLS  bool
	allowByJWT   bool
}

func newAuthenticator(cfg AuthConfig) *authenticator {
	tokens := make(map[string]struct{})
	for _, token := range cfg.APITokens {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}
		tokens[trimmed] = struct{}{}
	}
	commonNames := make(map[string]struct{})
	for _, name := range cfg.AllowedClientCNs {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		commonNames[trimmed] = struct{}{}
	}
	secret := []byte(strings.TrimSpace(cfg.JWTSecret))
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = 2 * time.Minute
	}
	return &authenticator{
		tokens:       tokens,
		commonNames:  commonNames,
		secret:       secret,
		issuer:       strings.TrimSpace(cfg.JWTIssuer),
		skew:         skew,
		allowByToken: len(tokens) > 0,
		allowByMTLS:  len(commonNames) > 0,
		allowByJWT:   len(secret) > 0,
	}
}

func (a *authenticator) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !isMsgMethod(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := a.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (a *authenticator) streamInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !isMsgMethod(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := a.authenticate(ss.Context())
		if err != nil {
			return err
		}
		wrapped := &authStream{ServerStream: ss, ctx: ctx}
		return handler(srv, wrapped)
	}
}

func (a *authenticator) authenticate(ctx context.Context) (context.Context, error) {
	if a == nil {
		return ctx, status.Error(codes.Internal, "authenticator unavailable")
	}
	if !a.allowByToken && !a.allowByMTLS && !a.allowByJWT {
		return ctx, status.Error(codes.PermissionDenied, "authentication is not configured")
	}
	if a.allowByJWT {
		if caller, ok := a.authenticateByJWT(ctx); ok {
			return WithCaller(markAuthenticated(ctx), caller), nil
		}
	}
	if a.allowByToken && a.authenticateByToken(ctx) {
		return markAuthenticated(ctx), nil
	}
	if a.allowByMTLS && a.authenticateByMTLS(ctx) {
		return markAuthenticated(ctx), nil
	}
	return ctx, status.Error(codes.Unauthenticated, "authentication required")
}

func (a *authenticator) authenticateByJWT(ctx context.Context) (common.Address, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return common.Address{}, false
	}
	for _, header := range md.Get("authorization") {
		raw := parseBearerToken(header)
		if raw == "" {
			continue
		}
		caller, err := a.parseCaller(raw)
		if err == nil {
			return caller, true
		}
	}
	return common.Address{}, false
}

func (a *authenticator) parseCaller(raw string) (common.Address, error) {
	opts := []jwt.ParserOption{jwt.WithLeeway(a.skew), jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return common.Address{}, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return common.Address{}, errors.New("token invalid")
	}
	subject := strings.TrimSpace(claims.Subject)
	if !common.IsHexAddress(subject) {
		return common.Address{}, errors.New("subject is not an address")
	}
	return common.HexToAddress(subject), nil
}

func (a *authenticator) authenticateByToken(ctx context.Context) bool {
	if ctx == nil || len(a.tokens) == 0 {
		return false
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return false
	}
	for _, header := range md.Get("authorization") {
		if token := parseBearerToken(header); token != "" {
			if _, exists := a.tokens[token]; exists {
				return true
			}
		}
	}
	for _, token := range md.Get("x-api-token") {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}
		if _, exists := a.tokens[trimmed]; exists {
			return true
		}
	}
	return false
}

func (a *authenticator) authenticateByMTLS(ctx context.Context) bool {
	if ctx == nil || len(a.commonNames) == 0 {
		return false
	}
	pr, ok := peer.FromContext(ctx)
	if !ok {
		return false
	}
	info, ok := pr.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return false
	}
	state := info.State
	for _, chain := range state.VerifiedChains {
		if len(chain) == 0 {
			continue
		}
		if a.commonNameAllowed(chain[0].Subject.CommonName) {
			return true
		}
	}
	for _, cert := range state.PeerCertificates {
		if a.commonNameAllowed(cert.Subject.CommonName) {
			return true
		}
	}
	return false
}

func (a *authenticator) commonNameAllowed(name string) bool {
	_, ok := a.commonNames[strings.TrimSpace(name)]
	return ok
}

func parseBearerToken(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(strings.TrimSpace(parts[0]), "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func isMsgMethod(fullMethod string) bool {
	switch fullMethod {
	case rewardsv1.RewardsService_SetRewardSpeed_FullMethodName,
		rewardsv1.RewardsService_Claim_FullMethodName,
		rewardsv1.RewardsService_ClaimBatch_FullMethodName,
		rewardsv1.RewardsService_Pause_FullMethodName,
		rewardsv1.RewardsService_Resume_FullMethodName,
		rewardsv1.RewardsService_Migrate_FullMethodName,
		rewardsv1.RewardsService_SupplyAsset_FullMethodName,
		rewardsv1.RewardsService_WithdrawAsset_FullMethodName,
		rewardsv1.RewardsService_BorrowAsset_FullMethodName,
		rewardsv1.RewardsService_RepayAsset_FullMethodName:
		return true
	default:
		return false
	}
}

func isClaimMethod(fullMethod string) bool {
	return fullMethod == rewardsv1.RewardsService_Claim_FullMethodName ||
		fullMethod == rewardsv1.RewardsService_ClaimBatch_FullMethodName
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context {
	if s == nil {
		return nil
	}
	if s.ctx != nil {
		return s.ctx
	}
	return s.ServerStream.Context()
}
