// Command epochbench builds a synthetic beacon state of a configurable
// validator count and runs a configurable number of epoch transitions
// against it, reporting per-transition timing. It exists to give the
// epoch-transition core a runnable entry point, the way the teacher wraps
// its core packages in small cmd/ tools, and to exercise urfave/cli and the
// metrics package from somewhere other than a test binary.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/transition"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/io/logs"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

var log = logs.New("cmd/epochbench")

var (
	validatorsFlag = &cli.IntFlag{
		Name:  "validators",
		Usage: "number of validators in the synthetic active set",
		Value: 1024,
	}
	epochsFlag = &cli.IntFlag{
		Name:  "epochs",
		Usage: "number of epoch transitions to run back to back",
		Value: 10,
	}
	forkFlag = &cli.StringFlag{
		Name:  "fork",
		Usage: "fork to benchmark: phase0 or altair",
		Value: "altair",
	}
)

func main() {
	app := &cli.App{
		Name:  "epochbench",
		Usage: "drive N synthetic epoch transitions and report timing",
		Flags: []cli.Flag{validatorsFlag, epochsFlag, forkFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("epochbench failed")
	}
}

func run(c *cli.Context) error {
	fork, err := parseFork(c.String(forkFlag.Name))
	if err != nil {
		return err
	}
	numValidators := c.Int(validatorsFlag.Name)
	numEpochs := c.Int(epochsFlag.Name)

	st := syntheticState(fork, numValidators)
	cfg := params.BeaconConfig()
	ctx := context.Background()

	for i := 0; i < numEpochs; i++ {
		target := st.Slot() + primitives.Slot(cfg.SlotsPerEpoch)
		start := time.Now()
		if err := transition.ProcessSlots(ctx, st, target); err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Printf("epoch %d: fork=%s validators=%d slot=%d elapsed=%s\n",
			i, fork.String(), numValidators, st.Slot(), elapsed)
	}
	return nil
}

func parseFork(s string) (version.Fork, error) {
	switch s {
	case "phase0":
		return version.Phase0, nil
	case "altair":
		return version.Altair, nil
	default:
		return 0, cli.Exit(fmt.Sprintf("unknown fork %q, want phase0 or altair", s), 1)
	}
}

// syntheticState builds a fully active validator set so the benchmark
// exercises the hot participation/reward paths rather than a mostly-empty
// registry; mirrors the shape of the transition package's own test fixture.
func syntheticState(fork version.Fork, n int) *zstate.BeaconState {
	cfg := params.BeaconConfig()
	st := zstate.New(fork, n)
	balances := make([]uint64, n)
	for i := 0; i < n; i++ {
		v := &types.Validator{
			EffectiveBalance:  cfg.MaxEffectiveBalance,
			ExitEpoch:         cfg.FarFutureEpoch,
			WithdrawableEpoch: cfg.FarFutureEpoch,
		}
		if err := st.UpdateValidator(i, v); err != nil {
			panic(err)
		}
		balances[i] = cfg.MaxEffectiveBalance
	}
	st.SetBalances(balances)
	return st
}
