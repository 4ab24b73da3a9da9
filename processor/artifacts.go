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
	"github.com/wcgcyx/rubidity/contract"
)

//go:generate mockgen -source=artifacts.go -destination=mock_artifacts.go -package=processor

// ArtifactLookup resolves contract classes. It is implemented by contract.Registry.
type ArtifactLookup interface {
	// FindContractArtifact gets the class with the init code hash.
	FindContractArtifact(initCodeHash common.Hash) (*contract.Class, error)

	// ClassByName gets the class with the name.
	ClassByName(name string) (*contract.Class, bool)
}
