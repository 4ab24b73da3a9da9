package cli

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log"
	"github.com/urfave/cli/v2"
	"github.com/wcgcyx/rubidity/config"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/library"
	"github.com/wcgcyx/rubidity/processor"
	"github.com/wcgcyx/rubidity/script"
	"github.com/wcgcyx/rubidity/statestore"
)

// Logger
var log = logging.Logger("cli")

// newRegistry creates a registry with the bundled classes.
func newRegistry(conf config.Config) (*contract.Registry, error) {
	policy, err := contract.ParseMergePolicy(conf.StateMergePolicy)
	if err != nil {
		return nil, err
	}
	r, err := contract.NewRegistry(contract.Opts{MergePolicy: policy})
	if err != nil {
		return nil, err
	}
	if err = library.Register(r, script.Opts{Timeout: conf.ScriptTimeout}); err != nil {
		return nil, err
	}
	return r, nil
}

// readBlock reads a block file.
func readBlock(path string) (*processor.Block, [][]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	block := &processor.Block{}
	if err = json.Unmarshal(contents, block); err != nil {
		return nil, nil, fmt.Errorf("fail to decode block file %v: %w", path, err)
	}
	payloads := make([][]byte, len(block.Transactions))
	for i, tx := range block.Transactions {
		payloads[i] = tx
	}
	return block, payloads, nil
}

func runProcess(c *cli.Context) error {
	// Load config
	conf, err := config.NewConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("path") {
		log.Infof("Override path to be %v", c.String("path"))
		conf.Path = c.String("path")
	}

	r, err := newRegistry(conf)
	if err != nil {
		return err
	}

	// Create statestore
	log.Infof("Start statestore...")
	sstore, err := statestore.NewStateStoreImpl(c.Context, statestore.Opts{
		Path:              filepath.Join(conf.Path, "statedata"),
		GCPeriod:          conf.StateStoreGCPeriod,
		SnapshotsToRetain: conf.StateStoreSnapshotsToRetain,
		ReadTimeout:       conf.DSTimeout,
		WriteTimeout:      conf.DSTimeout,
	})
	if err != nil {
		return err
	}
	defer sstore.Shutdown()
	log.Infof("Statestore started.")

	// Create block processor
	pr, err := processor.NewProcessor(processor.Opts{
		StartBlock:              conf.StartBlock,
		GasLimit:                conf.GasLimit,
		SupportedInitCodeHashes: conf.SupportedInitCodeHashes,
		ArtifactCacheSize:       conf.ArtifactCacheSize,
	}, r, sstore)
	if err != nil {
		return err
	}

	for _, path := range c.StringSlice("block") {
		block, payloads, err := readBlock(path)
		if err != nil {
			return err
		}
		res, err := pr.ProcessBlock(c.Context, block.Header, payloads)
		if err != nil {
			return err
		}
		printResult(c.App.Writer, res)
	}
	return nil
}

func runABI(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expect exactly one class name, got %v", c.NArg())
	}
	r, err := newRegistry(config.DefaultConfig)
	if err != nil {
		return err
	}
	class, ok := r.ClassByName(c.Args().First())
	if !ok {
		return fmt.Errorf("class %v not found", c.Args().First())
	}
	abi, err := class.ABIJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(abi))
	return nil
}

func runClasses(c *cli.Context) error {
	r, err := newRegistry(config.DefaultConfig)
	if err != nil {
		return err
	}
	printClasses(c.App.Writer, r.Classes())
	return nil
}
