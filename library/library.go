package library

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
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/script"
	"github.com/wcgcyx/rubidity/types"
)

// Logger
var log = logging.Logger("library")

// Names of the bundled classes in registration order.
var Names = []string{"Ownable", "ERC20", "Token", "Counter", "TokenFactory"}

// Definitions gets the bundled class definitions, parents first.
func Definitions(opts script.Opts) ([]*contract.Definition, error) {
	builders := []func() (*contract.Definition, error){
		Ownable,
		ERC20,
		Token,
		func() (*contract.Definition, error) { return Counter(opts) },
		func() (*contract.Definition, error) { return TokenFactory(opts) },
	}
	defs := make([]*contract.Definition, 0, len(builders))
	for _, build := range builders {
		def, err := build()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Register registers the bundled classes.
func Register(r *contract.Registry, opts script.Opts) error {
	defs, err := Definitions(opts)
	if err != nil {
		return err
	}
	for _, def := range defs {
		class, err := r.Register(def)
		if err != nil {
			log.Errorf("Fail to register %v: %v", def.Name, err.Error())
			return err
		}
		log.Debugf("Registered %v with init code hash %v", class.Name(), class.InitCodeHash())
	}
	return nil
}

func mustType(typ *types.Type, err error) *types.Type {
	if err != nil {
		panic(err)
	}
	return typ
}
