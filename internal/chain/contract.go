package chain

import (
	"context"
	"fmt"
	"math"
)

// XP amounts are carried on chain as fixed-point integers scaled by 100.
const xpScale = 100

// ContractLedger implements Ledger against the deployed game contract.
type ContractLedger struct {
	client       *Client
	contractHash string
}

var _ Ledger = (*ContractLedger)(nil)

// NewContractLedger builds a Ledger over the given RPC client and game
// contract script hash.
func NewContractLedger(client *Client, contractHash string) (*ContractLedger, error) {
	if contractHash == "" {
		return nil, fmt.Errorf("contract hash required")
	}
	return &ContractLedger{client: client, contractHash: contractHash}, nil
}

// invokeTx runs a mutating contract method and returns the broadcast
// transaction hash.
func (l *ContractLedger) invokeTx(ctx context.Context, method string, params []ContractParam) (*InvokeResult, error) {
	result, err := l.client.InvokeFunction(ctx, l.contractHash, method, params)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", method, err)
	}
	if result.State != "HALT" {
		return nil, fmt.Errorf("%s faulted: %s", method, result.Exception)
	}
	if result.Tx == "" {
		return nil, fmt.Errorf("%s: no transaction broadcast", method)
	}
	return result, nil
}

func scaleXP(amount float64) int64 {
	return int64(math.Round(amount * xpScale))
}

func (l *ContractLedger) RegisterPlayer(ctx context.Context, address string) (string, error) {
	result, err := l.invokeTx(ctx, "registerPlayer", []ContractParam{Hash160Param(address)})
	if err != nil {
		return "", err
	}
	return result.Tx, nil
}

func (l *ContractLedger) GrantPlayerXP(ctx context.Context, address string, amount float64) (string, error) {
	result, err := l.invokeTx(ctx, "grantPlayerXp", []ContractParam{
		Hash160Param(address),
		IntParam(scaleXP(amount)),
	})
	if err != nil {
		return "", err
	}
	return result.Tx, nil
}

func (l *ContractLedger) MintTank(ctx context.Context, owner string, capacity int64) (MintReceipt, error) {
	result, err := l.invokeTx(ctx, "mintTank", []ContractParam{
		Hash160Param(owner),
		IntParam(capacity),
	})
	if err != nil {
		return MintReceipt{}, err
	}
	return mintReceipt(result, "mintTank")
}

func (l *ContractLedger) MintFish(ctx context.Context, owner, species, dna string) (MintReceipt, error) {
	result, err := l.invokeTx(ctx, "mintFish", []ContractParam{
		Hash160Param(owner),
		StringParam(species),
		StringParam(dna),
	})
	if err != nil {
		return MintReceipt{}, err
	}
	return mintReceipt(result, "mintFish")
}

func (l *ContractLedger) GrantFishXP(ctx context.Context, fishID int64, amount float64) (string, error) {
	result, err := l.invokeTx(ctx, "grantFishXp", []ContractParam{
		IntParam(fishID),
		IntParam(scaleXP(amount)),
	})
	if err != nil {
		return "", err
	}
	return result.Tx, nil
}

func (l *ContractLedger) BreedFish(ctx context.Context, fish1ID, fish2ID int64) (MintReceipt, error) {
	result, err := l.invokeTx(ctx, "breedFish", []ContractParam{
		IntParam(fish1ID),
		IntParam(fish2ID),
	})
	if err != nil {
		return MintReceipt{}, err
	}
	return mintReceipt(result, "breedFish")
}

func (l *ContractLedger) ActivateDecoration(ctx context.Context, id int64) (string, error) {
	result, err := l.invokeTx(ctx, "activateDecoration", []ContractParam{IntParam(id)})
	if err != nil {
		return "", err
	}
	return result.Tx, nil
}

func (l *ContractLedger) DeactivateDecoration(ctx context.Context, id int64) (string, error) {
	result, err := l.invokeTx(ctx, "deactivateDecoration", []ContractParam{IntParam(id)})
	if err != nil {
		return "", err
	}
	return result.Tx, nil
}

func mintReceipt(result *InvokeResult, method string) (MintReceipt, error) {
	if len(result.Stack) == 0 {
		return MintReceipt{}, fmt.Errorf("%s: empty result stack", method)
	}
	tokenID, err := result.Stack[0].Int()
	if err != nil {
		return MintReceipt{}, fmt.Errorf("%s: decode token id: %w", method, err)
	}
	return MintReceipt{TxID: result.Tx, TokenID: tokenID}, nil
}

// query runs a read-only contract method and returns the struct fields of
// the first stack item.
func (l *ContractLedger) query(ctx context.Context, method string, params []ContractParam) ([]StackItem, error) {
	result, err := l.client.InvokeFunction(ctx, l.contractHash, method, params)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", method, err)
	}
	if result.State != "HALT" {
		return nil, fmt.Errorf("%s faulted: %s", method, result.Exception)
	}
	if len(result.Stack) == 0 {
		return nil, fmt.Errorf("%s: empty result stack", method)
	}
	return result.Stack[0].Items()
}

func (l *ContractLedger) QueryFish(ctx context.Context, id int64) (FishState, error) {
	items, err := l.query(ctx, "getFish", []ContractParam{IntParam(id)})
	if err != nil {
		return FishState{}, err
	}
	if len(items) < 4 {
		return FishState{}, fmt.Errorf("getFish: short struct (%d fields)", len(items))
	}

	xp, err := items[0].Int()
	if err != nil {
		return FishState{}, fmt.Errorf("getFish: xp: %w", err)
	}
	hunger, err := items[1].Int()
	if err != nil {
		return FishState{}, fmt.Errorf("getFish: hunger: %w", err)
	}
	ready, err := items[2].Bool()
	if err != nil {
		return FishState{}, fmt.Errorf("getFish: readyToBreed: %w", err)
	}
	dna, err := items[3].String()
	if err != nil {
		return FishState{}, fmt.Errorf("getFish: dna: %w", err)
	}

	return FishState{
		XP:           float64(xp) / xpScale,
		Hunger:       hunger,
		ReadyToBreed: ready,
		DNA:          dna,
	}, nil
}

func (l *ContractLedger) QueryTank(ctx context.Context, id int64) (TankState, error) {
	items, err := l.query(ctx, "getTank", []ContractParam{IntParam(id)})
	if err != nil {
		return TankState{}, err
	}
	if len(items) < 2 {
		return TankState{}, fmt.Errorf("getTank: short struct (%d fields)", len(items))
	}

	owner, err := items[0].String()
	if err != nil {
		return TankState{}, fmt.Errorf("getTank: owner: %w", err)
	}
	capacity, err := items[1].Int()
	if err != nil {
		return TankState{}, fmt.Errorf("getTank: capacity: %w", err)
	}

	return TankState{Owner: owner, Capacity: capacity}, nil
}

func (l *ContractLedger) QueryDecoration(ctx context.Context, id int64) (DecorationState, error) {
	items, err := l.query(ctx, "getDecoration", []ContractParam{IntParam(id)})
	if err != nil {
		return DecorationState{}, err
	}
	if len(items) < 3 {
		return DecorationState{}, fmt.Errorf("getDecoration: short struct (%d fields)", len(items))
	}

	owner, err := items[0].String()
	if err != nil {
		return DecorationState{}, fmt.Errorf("getDecoration: owner: %w", err)
	}
	kind, err := items[1].String()
	if err != nil {
		return DecorationState{}, fmt.Errorf("getDecoration: kind: %w", err)
	}
	multiplier, err := items[2].Int()
	if err != nil {
		return DecorationState{}, fmt.Errorf("getDecoration: multiplier: %w", err)
	}

	return DecorationState{Owner: owner, Kind: kind, XPMultiplier: multiplier}, nil
}
