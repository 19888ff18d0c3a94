package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	rewardsv1 "lendrewards/api/rewards/v1"
)

type stubClient struct {
	rewardsClient
	calls []string
}

func (s *stubClient) Claim(_ context.Context, version uint32, kind, account string) (*rewardsv1.ClaimResult, error) {
	s.calls = append(s.calls, fmt.Sprintf("claim:v%d:%s:%s", version, kind, account))
	return &rewardsv1.ClaimResult{Account: account, Kind: kind, Amount: "7907683090", EngineVersion: version}, nil
}

func (s *stubClient) SetRewardSpeed(_ context.Context, market, kind, side, speed string) error {
	s.calls = append(s.calls, "speed:"+market+":"+kind+":"+side+":"+speed)
	return nil
}

func (s *stubClient) Repay(_ context.Context, account, market, amount string) (string, error) {
	s.calls = append(s.calls, "repay:"+account+":"+market+":"+amount)
	return "40", nil
}

func (s *stubClient) SetPaused(_ context.Context, paused bool) (bool, error) {
	return paused, nil
}

func (s *stubClient) Close() error { return nil }

func withStub(t *testing.T) *stubClient {
	t.Helper()
	stub := &stubClient{}
	prev := dialFunc
	dialFunc = func(string, string) (rewardsClient, error) { return stub, nil }
	t.Cleanup(func() { dialFunc = prev })
	return stub
}

func TestRunClaimPrintsResult(t *testing.T) {
	stub := withStub(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"claim", "-kind", "native", "0xA11"}, &out))
	require.Equal(t, []string{"claim:v0:native:0xA11"}, stub.calls)

	var result rewardsv1.ClaimResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Equal(t, "7907683090", result.Amount)
}

func TestRunClaimAddressesFrozenVersion(t *testing.T) {
	stub := withStub(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"claim", "-engine-version", "1", "0xA11"}, &out))
	require.Equal(t, []string{"claim:v1:protocol:0xA11"}, stub.calls)
	require.Contains(t, out.String(), `"engine_version": 1`)

	err := run([]string{"claim", "-engine-version", "-3", "0xA11"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunSetSpeedAndRepay(t *testing.T) {
	stub := withStub(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"set-speed", "-market", "0xC01", "-side", "borrow", "5"}, &out))
	require.NoError(t, run([]string{"repay", "-market", "0xC01", "0xA11", "50"}, &out))
	require.Equal(t, []string{"speed:0xC01:protocol:borrow:5", "repay:0xA11:0xC01:50"}, stub.calls)
	require.Contains(t, out.String(), `"repaid": "40"`)
}

func TestRunPause(t *testing.T) {
	withStub(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"pause"}, &out))
	require.Contains(t, out.String(), `"claimsPaused": true`)
}

func TestRunUsageErrors(t *testing.T) {
	withStub(t)
	cases := [][]string{
		nil,
		{"bogus"},
		{"claim"},
		{"set-speed", "5"},
		{"supply", "-market", "0xC01", "0xA11"},
		{"position", "0xA11"},
		{"claim-batch"},
	}
	for _, args := range cases {
		err := run(args, &bytes.Buffer{})
		require.True(t, errors.Is(err, errUsage), "args %v: %v", args, err)
	}
}
