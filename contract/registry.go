package contract

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
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Logger
var log = logging.Logger("contract")

// ErrArtifactNotFound is returned when no class matches an init code hash.
var ErrArtifactNotFound = errors.New("artifact not found")

const defaultCacheSize = 256

// Registry links and holds contract classes by name and init code hash.
type Registry struct {
	lock sync.RWMutex

	opts   Opts
	byName map[string]*Class
	byHash map[common.Hash]*Class

	// Linearization cache
	linearizations *lru.Cache[string, []string]
}

// NewRegistry creates a new registry.
func NewRegistry(opts Opts) (*Registry, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []string](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		opts:           opts,
		byName:         make(map[string]*Class),
		byHash:         make(map[common.Hash]*Class),
		linearizations: cache,
	}, nil
}

// Register links a definition and registers the resulting class.
// Parents must be registered first.
func (r *Registry) Register(def *Definition) (*Class, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.byName[def.Name]; ok {
		return nil, vmerrors.NewDefinitionError(vmerrors.InvalidDefinition, def.Name, "", "class %v already registered", def.Name)
	}
	linearized, err := r.linearize(def)
	if err != nil {
		return nil, err
	}
	ancestors := make([]*Class, 0, len(linearized)-1)
	for _, name := range linearized[:len(linearized)-1] {
		ancestors = append(ancestors, r.byName[name])
	}
	c, err := link(def, linearized, ancestors, r.opts.MergePolicy)
	if err == nil {
		err = computeInitCodeHash(c)
	}
	if err != nil {
		r.linearizations.Remove(def.Name)
		return nil, err
	}
	r.byName[def.Name] = c
	r.byHash[c.initCodeHash] = c
	log.Debugf("Registered class %v with init code hash %v", def.Name, c.initCodeHash)
	return c, nil
}

// MustRegister is like Register but panics on error.
// It should only be used for built-in classes.
func (r *Registry) MustRegister(def *Definition, err error) *Class {
	if err != nil {
		panic(err)
	}
	c, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return c
}

// ClassByName gets a class by name.
func (r *Registry) ClassByName(name string) (*Class, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// FindContractArtifact gets a class by init code hash.
func (r *Registry) FindContractArtifact(initCodeHash common.Hash) (*Class, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.byHash[initCodeHash]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return c, nil
}

// Classes gets all registered classes sorted by name.
func (r *Registry) Classes() []*Class {
	r.lock.RLock()
	defer r.lock.RUnlock()
	res := make([]*Class, 0, len(r.byName))
	for _, c := range r.byName {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})
	return res
}

// Linearize gets the linearization of a registered class.
func (r *Registry) Linearize(name string) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, vmerrors.NewDefinitionError(vmerrors.UnknownParent, name, name, "unknown class %v", name)
	}
	return r.linearize(c.def)
}

// linearize computes the linearization of def against the registered classes.
func (r *Registry) linearize(def *Definition) ([]string, error) {
	if res, ok := r.linearizations.Get(def.Name); ok {
		return res, nil
	}
	res, err := Linearize(def.Name, func(name string) ([]string, error) {
		if name == def.Name {
			return def.Parents, nil
		}
		c, ok := r.byName[name]
		if !ok {
			return nil, vmerrors.NewDefinitionError(vmerrors.UnknownParent, def.Name, name, "unknown parent %v", name)
		}
		return c.def.Parents, nil
	})
	if err != nil {
		return nil, err
	}
	r.linearizations.Add(def.Name, res)
	return res, nil
}
