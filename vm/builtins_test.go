package vm

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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/types"
)

// probe deploys a contract whose single function runs the given body and returns its result.
func probe(t *testing.T, body contract.Body) (*types.TypedValue, error) {
	h := newMemHost(t, 0)
	class := h.register(t, contract.NewBuilder("Probe").
		Struct(mustType(types.StructOf("Point", []types.Field{{Name: "x", Type: types.Uint8}, {Name: "y", Type: types.Uint8}}))).
		Function("run", nil, body, contract.Returns(types.String)))
	addr := deploy(t, h, class, 1)
	_, res, err := call(h, addr, "run")
	return res, err
}

// stringify runs fn in the sandbox and returns the string form of its result.
func stringify(t *testing.T, fn func(env contract.Env) (*types.TypedValue, error)) string {
	res, err := probe(t, func(env contract.Env) (interface{}, error) {
		v, err := fn(env)
		if err != nil {
			return nil, err
		}
		return v.String(), nil
	})
	assert.Nil(t, err)
	s, _ := res.Str()
	return s
}

func TestContextBuiltins(t *testing.T) {
	assert.Equal(t, "10", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("block", "number")
	}))
	assert.Equal(t, "1700000000", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("block", "timestamp")
	}))
	assert.Equal(t, testTx.Hash.Hex(), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("tx", "hash")
	}))
	assert.Equal(t, hexutil.Encode(testOrigin.Bytes()), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("tx", "origin")
	}))
	assert.Equal(t, hexutil.Encode(testOrigin.Bytes()), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("msg", "sender")
	}))

	_, err := probe(t, func(env contract.Env) (interface{}, error) {
		return env.Invoke("msg", "value")
	})
	assert.NotNil(t, err)
}

func TestCastBuiltins(t *testing.T) {
	assert.Equal(t, "44", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("uint8", 300)
	}))
	assert.Equal(t, "-1", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("int8", 255)
	}))
	assert.Equal(t, "0x0000000000000000000000000000000000000001", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("address", 1)
	}))
}

func TestHashBuiltins(t *testing.T) {
	assert.Equal(t, crypto.Keccak256Hash([]byte("hello")).Hex(), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("keccak256", "hello")
	}))
	// uint8 1 and uint16 2 pack into three bytes.
	assert.Equal(t, "0x010002", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		a := types.MustValidate(types.Uint8, 1)
		b := types.MustValidate(mustType(types.IntegerType(false, 16)), 2)
		return env.Invoke("abi", "encodePacked", a, b)
	}))
	assert.Equal(t, "12", stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("sqrt", 150)
	}))
}

func TestEcrecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	assert.Nil(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	digest := crypto.Keccak256Hash([]byte("message"))
	sig, err := crypto.Sign(digest.Bytes(), key)
	assert.Nil(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	assert.Equal(t, hexutil.Encode(signer.Bytes()), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("ecrecover", digest, sig)
	}))
	assert.Equal(t, hexutil.Encode(common.Address{}.Bytes()), stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		return env.Invoke("ecrecover", digest, []byte{1, 2, 3})
	}))
}

func TestStructAndJSON(t *testing.T) {
	assert.Equal(t, `{"x":"1","y":"2"}`, stringify(t, func(env contract.Env) (*types.TypedValue, error) {
		p, err := env.Invoke("Point", map[string]interface{}{"x": 1, "y": 2})
		if err != nil {
			return nil, err
		}
		return env.Invoke("json", "stringify", p)
	}))

	_, err := probe(t, func(env contract.Env) (interface{}, error) {
		return env.Invoke("Point", map[string]interface{}{"x": 1, "y": 256})
	})
	assert.NotNil(t, err)
}

func TestNames(t *testing.T) {
	var names []string
	_, err := probe(t, func(env contract.Env) (interface{}, error) {
		names = env.Names()
		return "", nil
	})
	assert.Nil(t, err)
	for _, name := range []string{"run", "Point", "Probe", "uint256", "int8", "address", "require", "emit", "forLoop", "new"} {
		assert.Contains(t, names, name)
	}
	assert.NotContains(t, names, "system")
	assert.NotContains(t, names, "constructor")
}

func TestRequireAndRevert(t *testing.T) {
	_, err := probe(t, func(env contract.Env) (interface{}, error) {
		return env.Invoke("require", false, "nope")
	})
	assert.Equal(t, "nope", err.Error())

	_, err = probe(t, func(env contract.Env) (interface{}, error) {
		return env.Invoke("revert", "stop")
	})
	assert.Equal(t, "stop", err.Error())

	res, err := probe(t, func(env contract.Env) (interface{}, error) {
		if _, err := env.Invoke("require", true, "nope"); err != nil {
			return nil, err
		}
		return "ok", nil
	})
	assert.Nil(t, err)
	s, _ := res.Str()
	assert.Equal(t, "ok", s)
}

func TestPanicRecovered(t *testing.T) {
	_, err := probe(t, func(env contract.Env) (interface{}, error) {
		var m map[string]int
		m["x"] = 1
		return "", nil
	})
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "contract panicked")
}
