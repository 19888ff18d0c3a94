package rewardsv1

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers match rewards.proto. WithdrawAssetRequest, BorrowAssetRequest
// and RepayAssetRequest share the SupplyAssetRequest encoding.

func (x *SetRewardSpeedRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Market)
	b = appendString(b, 2, x.Kind)
	b = appendString(b, 3, x.Side)
	b = appendString(b, 4, x.Speed)
	return b
}

func (x *SetRewardSpeedRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Market)
	case 2:
		return consumeString(typ, b, &x.Kind)
	case 3:
		return consumeString(typ, b, &x.Side)
	case 4:
		return consumeString(typ, b, &x.Speed)
	}
	return 0
}

func (*SetRewardSpeedResponse) appendWire(b []byte) []byte { return b }

func (*SetRewardSpeedResponse) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (x *ClaimRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Kind)
	b = appendString(b, 2, x.Account)
	b = appendVarint(b, 3, uint64(x.EngineVersion))
	return b
}

func (x *ClaimRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Kind)
	case 2:
		return consumeString(typ, b, &x.Account)
	case 3:
		return consumeUint32(typ, b, &x.EngineVersion)
	}
	return 0
}

func (x *ClaimResult) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Account)
	b = appendString(b, 2, x.Kind)
	b = appendString(b, 3, x.Amount)
	b = appendVarint(b, 4, uint64(x.EngineVersion))
	b = appendString(b, 5, x.ReceiptID)
	b = appendString(b, 6, x.Error)
	return b
}

func (x *ClaimResult) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Account)
	case 2:
		return consumeString(typ, b, &x.Kind)
	case 3:
		return consumeString(typ, b, &x.Amount)
	case 4:
		return consumeUint32(typ, b, &x.EngineVersion)
	case 5:
		return consumeString(typ, b, &x.ReceiptID)
	case 6:
		return consumeString(typ, b, &x.Error)
	}
	return 0
}

func (x *ClaimResponse) appendWire(b []byte) []byte {
	if x.Result != nil {
		b = appendMessage(b, 1, x.Result)
	}
	return b
}

func (x *ClaimResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		if x.Result == nil {
			x.Result = new(ClaimResult)
		}
		return consumeMessage(typ, b, x.Result)
	}
	return 0
}

func (x *ClaimBatchRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Kind)
	b = appendStrings(b, 2, x.Accounts)
	b = appendVarint(b, 3, uint64(x.EngineVersion))
	return b
}

func (x *ClaimBatchRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Kind)
	case 2:
		return consumeStrings(typ, b, &x.Accounts)
	case 3:
		return consumeUint32(typ, b, &x.EngineVersion)
	}
	return 0
}

func (x *ClaimBatchResponse) appendWire(b []byte) []byte {
	for _, item := range x.Results {
		if item != nil {
			b = appendMessage(b, 1, item)
		}
	}
	return b
}

func (x *ClaimBatchResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		item := new(ClaimResult)
		n := consumeMessage(typ, b, item)
		if n > 0 {
			x.Results = append(x.Results, item)
		}
		return n
	}
	return 0
}

func (x *GetClaimableRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Kind)
	b = appendString(b, 2, x.Market)
	b = appendString(b, 3, x.Account)
	b = appendVarint(b, 4, uint64(x.EngineVersion))
	return b
}

func (x *GetClaimableRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Kind)
	case 2:
		return consumeString(typ, b, &x.Market)
	case 3:
		return consumeString(typ, b, &x.Account)
	case 4:
		return consumeUint32(typ, b, &x.EngineVersion)
	}
	return 0
}

func (x *GetClaimableResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Account)
	b = appendString(b, 2, x.Kind)
	b = appendString(b, 3, x.Amount)
	b = appendVarint(b, 4, uint64(x.EngineVersion))
	return b
}

func (x *GetClaimableResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Account)
	case 2:
		return consumeString(typ, b, &x.Kind)
	case 3:
		return consumeString(typ, b, &x.Amount)
	case 4:
		return consumeUint32(typ, b, &x.EngineVersion)
	}
	return 0
}

func (x *GetRewardStateRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Market)
	return b
}

func (x *GetRewardStateRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Market)
	}
	return 0
}

func (x *RewardStream) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Kind)
	b = appendString(b, 2, x.Side)
	b = appendString(b, 3, x.Speed)
	b = appendString(b, 4, x.Index)
	b = appendVarint(b, 5, x.Tick)
	b = appendBool(b, 6, x.Initialized)
	return b
}

func (x *RewardStream) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Kind)
	case 2:
		return consumeString(typ, b, &x.Side)
	case 3:
		return consumeString(typ, b, &x.Speed)
	case 4:
		return consumeString(typ, b, &x.Index)
	case 5:
		return consumeUint64(typ, b, &x.Tick)
	case 6:
		return consumeBool(typ, b, &x.Initialized)
	}
	return 0
}

func (x *GetRewardStateResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Market)
	b = appendVarint(b, 2, uint64(x.EngineVersion))
	b = appendVarint(b, 3, x.FrozenAt)
	b = appendBool(b, 4, x.ClaimsPaused)
	for _, item := range x.Streams {
		if item != nil {
			b = appendMessage(b, 5, item)
		}
	}
	return b
}

func (x *GetRewardStateResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Market)
	case 2:
		return consumeUint32(typ, b, &x.EngineVersion)
	case 3:
		return consumeUint64(typ, b, &x.FrozenAt)
	case 4:
		return consumeBool(typ, b, &x.ClaimsPaused)
	case 5:
		item := new(RewardStream)
		n := consumeMessage(typ, b, item)
		if n > 0 {
			x.Streams = append(x.Streams, item)
		}
		return n
	}
	return 0
}

func (*PauseRequest) appendWire(b []byte) []byte { return b }

func (*PauseRequest) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (x *PauseResponse) appendWire(b []byte) []byte {
	b = appendBool(b, 1, x.Paused)
	return b
}

func (x *PauseResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeBool(typ, b, &x.Paused)
	}
	return 0
}

func (*ResumeRequest) appendWire(b []byte) []byte { return b }

func (*ResumeRequest) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (x *ResumeResponse) appendWire(b []byte) []byte {
	b = appendBool(b, 1, x.Paused)
	return b
}

func (x *ResumeResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeBool(typ, b, &x.Paused)
	}
	return 0
}

func (*MigrateRequest) appendWire(b []byte) []byte { return b }

func (*MigrateRequest) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (x *MigrateResponse) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(x.PreviousVersion))
	b = appendVarint(b, 2, uint64(x.EngineVersion))
	b = appendVarint(b, 3, x.FrozenAt)
	return b
}

func (x *MigrateResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeUint32(typ, b, &x.PreviousVersion)
	case 2:
		return consumeUint32(typ, b, &x.EngineVersion)
	case 3:
		return consumeUint64(typ, b, &x.FrozenAt)
	}
	return 0
}

func (x *SupplyAssetRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Account)
	b = appendString(b, 2, x.Market)
	b = appendString(b, 3, x.Amount)
	return b
}

func (x *SupplyAssetRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Account)
	case 2:
		return consumeString(typ, b, &x.Market)
	case 3:
		return consumeString(typ, b, &x.Amount)
	}
	return 0
}

func (*SupplyAssetResponse) appendWire(b []byte) []byte { return b }

func (*SupplyAssetResponse) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (*WithdrawAssetResponse) appendWire(b []byte) []byte { return b }

func (*WithdrawAssetResponse) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (*BorrowAssetResponse) appendWire(b []byte) []byte { return b }

func (*BorrowAssetResponse) consumeField(protowire.Number, protowire.Type, []byte) int { return 0 }

func (x *RepayAssetResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Repaid)
	return b
}

func (x *RepayAssetResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Repaid)
	}
	return 0
}

func (x *GetPositionRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Market)
	b = appendString(b, 2, x.Account)
	return b
}

func (x *GetPositionRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Market)
	case 2:
		return consumeString(typ, b, &x.Account)
	}
	return 0
}

func (x *GetPositionResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.Market)
	b = appendString(b, 2, x.Account)
	b = appendString(b, 3, x.Supply)
	b = appendString(b, 4, x.Borrow)
	return b
}

func (x *GetPositionResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(typ, b, &x.Market)
	case 2:
		return consumeString(typ, b, &x.Account)
	case 3:
		return consumeString(typ, b, &x.Supply)
	case 4:
		return consumeString(typ, b, &x.Borrow)
	}
	return 0
}
