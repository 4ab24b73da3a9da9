package processor

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
	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/gas"
)

// Opts is the options for the processor.
type Opts struct {
	// Transactions in blocks below the start block are skipped.
	StartBlock uint64

	// Per transaction gas limit, 0 means unlimited.
	GasLimit gas.Gas

	// Init code hashes that may be deployed, empty allows every known class.
	SupportedInitCodeHashes []common.Hash

	// Size of the artifact cache
	ArtifactCacheSize int
}
